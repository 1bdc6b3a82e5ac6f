package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/importer"
)

const exportDoc = `{
  "formatVersion": "1.0",
  "project": {
    "name": "Village Quest",
    "technicalName": "VillageQuest",
    "guid": "f3a1c2d4-0000-4000-8000-000000000001"
  },
  "globalVariables": [
    {
      "name": "Score",
      "variables": [
        {"name": "Points", "type": "Integer", "defaultValue": 5},
        {"name": "Rank", "type": "String", "defaultValue": "novice"}
      ]
    },
    {
      "name": "Flags",
      "variables": [
        {"name": "MetGuard", "type": "Boolean", "defaultValue": false}
      ]
    }
  ],
  "characters": [
    {"id": "0x0A", "technicalName": "Guard", "displayName": "Bren", "color": "#aa3311"}
  ],
  "packages": [
    {
      "name": "Main",
      "isDefaultPackage": true,
      "objects": [
        {
          "id": "0x01",
          "technicalName": "Intro",
          "type": "Dialogue",
          "properties": {"data": {"speaker": "0x0A", "text": "Halt!", "menuText": "Approach the gate", "autoTransition": false}},
          "inputPins": [{"id": "p1", "index": 0}],
          "outputPins": [{"id": "p2", "index": 0, "instruction": {"expression": "Flags.MetGuard = true"}}]
        },
        {
          "id": "0x02",
          "technicalName": "RankCheck",
          "type": "Condition",
          "properties": {"data": {"script": {"expression": "Score.Points >= 10", "isCondition": true}}},
          "inputPins": [{"id": "p3", "index": 0}],
          "outputPins": [
            {"id": "p4", "index": 0, "label": "True"},
            {"id": "p5", "index": 1, "label": "False"}
          ]
        },
        {
          "id": "0x03",
          "technicalName": "SkipAhead",
          "type": "Jump",
          "properties": {"data": {"targetNodeId": "0x01", "targetPinIndex": 0}},
          "inputPins": [{"id": "p6", "index": 0}],
          "outputPins": []
        },
        {
          "id": "0x04",
          "technicalName": "Crossroads",
          "type": "Hub",
          "properties": {"data": {"displayName": "Crossroads"}},
          "inputPins": [{"id": "p7", "index": 0, "condition": {"expression": "Flags.MetGuard", "isCondition": true}}],
          "outputPins": [{"id": "p8", "index": 0}]
        }
      ],
      "connections": [
        {"id": "c1", "sourceId": "0x01", "sourcePin": 0, "targetId": "0x02", "targetPin": 0},
        {"id": "c2", "sourceId": "0x02", "sourcePin": 1, "targetId": "0x04", "targetPin": 0}
      ]
    },
    {
      "name": "Bonus",
      "isDefaultPackage": false,
      "objects": [
        {
          "id": "0x20",
          "technicalName": "BonusScene",
          "type": "DialogueFragment",
          "properties": {"data": {"text": "Psst."}},
          "inputPins": [{"id": "p9", "index": 0}],
          "outputPins": []
        }
      ],
      "connections": []
    }
  ]
}`

func TestImport_Document(t *testing.T) {
	res, err := importer.Import(strings.NewReader(exportDoc))
	require.NoError(t, err)
	assert.Equal(t, "VillageQuest", res.Project.TechnicalName)

	points, err := res.Variables.GetInt("Score.Points")
	require.NoError(t, err)
	assert.Equal(t, int64(5), points, "numeric defaults coerce from JSON numbers")
	rank, err := res.Variables.GetString("Score.Rank")
	require.NoError(t, err)
	assert.Equal(t, "novice", rank)
	met, err := res.Variables.GetBool("Flags.MetGuard")
	require.NoError(t, err)
	assert.False(t, met)

	guard, err := res.Database.Character(domain.MustParseID("0x0A"))
	require.NoError(t, err)
	assert.Equal(t, "Bren", guard.DisplayName)

	intro, err := res.Database.Node(domain.MustParseID("0x01"))
	require.NoError(t, err)
	assert.Equal(t, domain.KindDialogue, intro.Kind)
	require.NotNil(t, intro.Dialogue)
	assert.Equal(t, "Halt!", intro.Dialogue.Text)
	assert.Equal(t, "Approach the gate", intro.Dialogue.MenuText)
	assert.Equal(t, guard.ID, intro.Dialogue.SpeakerID)
	require.Len(t, intro.OutputPins, 1)
	assert.True(t, intro.OutputPins[0].HasInstruction())

	check, err := res.Database.Node(domain.MustParseID("0x02"))
	require.NoError(t, err)
	require.NotNil(t, check.Script)
	assert.True(t, check.Script.IsCondition)
	assert.Equal(t, "Score.Points >= 10", check.Script.Expression)
	assert.Equal(t, "True", check.OutputPins[0].Label)

	jump, err := res.Database.Node(domain.MustParseID("0x03"))
	require.NoError(t, err)
	require.NotNil(t, jump.Jump)
	assert.Equal(t, intro.ID, jump.Jump.TargetNodeID)

	hub, err := res.Database.Node(domain.MustParseID("0x04"))
	require.NoError(t, err)
	assert.True(t, hub.InputPins[0].HasCondition())

	// Connections land on the exported source pin.
	require.Len(t, intro.OutputPins[0].Connections, 1)
	assert.Equal(t, check.ID, intro.OutputPins[0].Connections[0].TargetNodeID)
	require.Len(t, check.OutputPins[1].Connections, 1)
	assert.Equal(t, hub.ID, check.OutputPins[1].Connections[0].TargetNodeID)
	assert.Empty(t, check.OutputPins[0].Connections)

	// The bonus package is registered but not loaded.
	assert.Equal(t, []string{"Main"}, res.Database.LoadedPackages())
	_, err = res.Database.Node(domain.MustParseID("0x20"))
	assert.Error(t, err)
	require.NoError(t, res.Database.LoadPackage("Bonus"))
	_, err = res.Database.Node(domain.MustParseID("0x20"))
	assert.NoError(t, err)
}

func TestImport_FormatVersion(t *testing.T) {
	_, err := importer.Parse(strings.NewReader(`{"formatVersion": "2.0"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format version")

	doc, err := importer.Parse(strings.NewReader(`{"formatVersion": "1.3"}`))
	require.NoError(t, err)
	assert.Equal(t, "1.3", doc.FormatVersion)
}

func TestImport_Errors(t *testing.T) {
	_, err := importer.Import(strings.NewReader(`{`))
	assert.Error(t, err)

	_, err = importer.Build(&importer.Document{
		GlobalVariables: []importer.Namespace{{
			Name:      "Ns",
			Variables: []importer.VariableDef{{Name: "V", Type: "Float"}},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variable type")

	_, err = importer.Build(&importer.Document{
		Packages: []importer.PackageDef{{
			Name:    "Main",
			Objects: []importer.ObjectDef{{ID: "0x01", Type: "Teleporter"}},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown object type")

	_, err = importer.Build(&importer.Document{
		Packages: []importer.PackageDef{{
			Name: "Main",
			Objects: []importer.ObjectDef{{
				ID: "0x01", Type: "Hub",
				OutputPins: []importer.PinDef{{Index: 0}},
			}},
			Connections: []importer.ConnectionDef{{SourceID: "0x09", SourcePin: 0, TargetID: "0x01", TargetPin: 0}},
		}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in package")
}

func TestImport_DefaultTypeCoercion(t *testing.T) {
	res, err := importer.Build(&importer.Document{
		GlobalVariables: []importer.Namespace{{
			Name: "Ns",
			Variables: []importer.VariableDef{
				{Name: "Count", Type: "Integer", DefaultValue: float64(42)},
			},
		}},
	})
	require.NoError(t, err)
	count, err := res.Variables.GetInt("Ns.Count")
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
