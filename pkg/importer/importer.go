// Package importer reads the dialogue editor's JSON interchange format and
// materializes it into a graph database and a declared variable store.
package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

// Document is the top-level interchange payload, format version 1.x.
type Document struct {
	FormatVersion   string         `json:"formatVersion"`
	Project         Project        `json:"project"`
	GlobalVariables []Namespace    `json:"globalVariables"`
	Characters      []CharacterDef `json:"characters"`
	Packages        []PackageDef   `json:"packages"`
}

// Project identifies the exporting project.
type Project struct {
	Name          string `json:"name"`
	TechnicalName string `json:"technicalName"`
	GUID          string `json:"guid"`
}

// Namespace groups variable definitions under one dotted prefix.
type Namespace struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Variables   []VariableDef `json:"variables"`
}

// VariableDef declares one variable and its default.
type VariableDef struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	DefaultValue any    `json:"defaultValue"`
	Description  string `json:"description,omitempty"`
}

// CharacterDef declares one speaker.
type CharacterDef struct {
	ID            string `json:"id"`
	TechnicalName string `json:"technicalName"`
	DisplayName   string `json:"displayName"`
	Color         string `json:"color"`
}

// PackageDef carries one package's objects and the connections between them.
type PackageDef struct {
	Name             string          `json:"name"`
	Description      string          `json:"description,omitempty"`
	IsDefaultPackage bool            `json:"isDefaultPackage"`
	Objects          []ObjectDef     `json:"objects"`
	Connections      []ConnectionDef `json:"connections"`
}

// ObjectDef is one exported node. Properties is the kind-specific payload;
// its shape is dispatched on Type.
type ObjectDef struct {
	ID            string     `json:"id"`
	TechnicalName string     `json:"technicalName"`
	Type          string     `json:"type"`
	Properties    Properties `json:"properties"`
	InputPins     []PinDef   `json:"inputPins"`
	OutputPins    []PinDef   `json:"outputPins"`
}

// Properties wraps the editor's node payload. The editor nests the fields
// under a "data" key.
type Properties struct {
	Data DataDef `json:"data"`
}

// DataDef is the union of every kind's payload fields; only the fields
// matching the object type are read.
type DataDef struct {
	// Dialogue and DialogueFragment.
	Speaker         string `json:"speaker,omitempty"`
	Text            string `json:"text,omitempty"`
	MenuText        string `json:"menuText,omitempty"`
	StageDirections string `json:"stageDirections,omitempty"`
	AutoTransition  bool   `json:"autoTransition,omitempty"`

	// FlowFragment and Hub.
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`

	// Condition and Instruction.
	Script *ScriptDef `json:"script,omitempty"`

	// Jump.
	TargetNodeID   string `json:"targetNodeId,omitempty"`
	TargetPinIndex int    `json:"targetPinIndex,omitempty"`
}

// ScriptDef is an embedded script fragment.
type ScriptDef struct {
	Expression  string `json:"expression"`
	IsCondition bool   `json:"isCondition"`
}

// PinDef is one exported pin. Condition and Instruction are extensions over
// the editor's minimal pin export; absent in older documents.
type PinDef struct {
	ID          string     `json:"id"`
	Index       int        `json:"index"`
	Label       string     `json:"label,omitempty"`
	Text        string     `json:"text,omitempty"`
	Condition   *ScriptDef `json:"condition,omitempty"`
	Instruction *ScriptDef `json:"instruction,omitempty"`
}

// ConnectionDef is a directed edge between two pins.
type ConnectionDef struct {
	ID        string `json:"id"`
	SourceID  string `json:"sourceId"`
	SourcePin int    `json:"sourcePin"`
	TargetID  string `json:"targetId"`
	TargetPin int    `json:"targetPin"`
}

// Result bundles the materialized stores. The database has its default
// packages loaded; the variable store holds every declared default.
type Result struct {
	Project   Project
	Database  *database.Database
	Variables *variables.Store
}

// Parse decodes an interchange document without materializing it.
func Parse(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.FormatVersion != "" && !strings.HasPrefix(doc.FormatVersion, "1.") {
		return nil, fmt.Errorf("unsupported format version %q", doc.FormatVersion)
	}
	return &doc, nil
}

// Import parses and materializes a document in one step.
func Import(r io.Reader) (*Result, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Build materializes a parsed document. Default packages are loaded so the
// result is immediately traversable.
func Build(doc *Document) (*Result, error) {
	vars := variables.NewStore()
	for _, ns := range doc.GlobalVariables {
		for _, def := range ns.Variables {
			typ, err := parseVariableType(def.Type)
			if err != nil {
				return nil, fmt.Errorf("namespace %s: variable %s: %w", ns.Name, def.Name, err)
			}
			name := ns.Name + "." + def.Name
			if err := vars.Declare(name, typ, def.DefaultValue); err != nil {
				return nil, fmt.Errorf("declare %s: %w", name, err)
			}
		}
	}

	db := database.New()
	for _, def := range doc.Characters {
		id, err := domain.ParseID(def.ID)
		if err != nil {
			return nil, fmt.Errorf("character %s: %w", def.TechnicalName, err)
		}
		db.AddCharacter(&domain.Character{
			ObjectBase:  domain.ObjectBase{ID: id, TechnicalName: def.TechnicalName},
			DisplayName: def.DisplayName,
			Color:       def.Color,
		})
	}

	for _, pkgDef := range doc.Packages {
		nodes := make(map[domain.ID]*domain.Node, len(pkgDef.Objects))
		objects := make([]domain.Object, 0, len(pkgDef.Objects))
		for _, objDef := range pkgDef.Objects {
			node, err := buildNode(objDef)
			if err != nil {
				return nil, fmt.Errorf("package %s: object %s: %w", pkgDef.Name, objDef.ID, err)
			}
			nodes[node.ID] = node
			objects = append(objects, node)
		}

		for _, connDef := range pkgDef.Connections {
			if err := attachConnection(nodes, connDef); err != nil {
				return nil, fmt.Errorf("package %s: connection %s: %w", pkgDef.Name, connDef.ID, err)
			}
		}

		pkg := &database.Package{
			Name:        pkgDef.Name,
			Description: pkgDef.Description,
			Default:     pkgDef.IsDefaultPackage,
		}
		if err := db.AddPackage(pkg, objects); err != nil {
			return nil, err
		}
	}
	if err := db.LoadDefaultPackages(); err != nil {
		return nil, err
	}

	return &Result{Project: doc.Project, Database: db, Variables: vars}, nil
}

func parseVariableType(name string) (variables.Type, error) {
	switch name {
	case "Boolean":
		return variables.TypeBool, nil
	case "Integer":
		return variables.TypeInt, nil
	case "String":
		return variables.TypeString, nil
	default:
		return 0, fmt.Errorf("unknown variable type %q", name)
	}
}

func buildNode(def ObjectDef) (*domain.Node, error) {
	id, err := domain.ParseID(def.ID)
	if err != nil {
		return nil, err
	}
	kind := domain.ParseKind(def.Type)
	if kind == domain.KindUnknown {
		return nil, fmt.Errorf("unknown object type %q", def.Type)
	}

	node := &domain.Node{
		ObjectBase: domain.ObjectBase{ID: id, TechnicalName: def.TechnicalName},
		Kind:       kind,
	}

	data := def.Properties.Data
	switch kind {
	case domain.KindDialogue, domain.KindDialogueFragment:
		payload := &domain.DialogueData{
			Text:            data.Text,
			MenuText:        data.MenuText,
			StageDirections: data.StageDirections,
			AutoTransition:  data.AutoTransition,
		}
		if data.Speaker != "" {
			speakerID, err := domain.ParseID(data.Speaker)
			if err != nil {
				return nil, fmt.Errorf("speaker: %w", err)
			}
			payload.SpeakerID = speakerID
		}
		node.Dialogue = payload
	case domain.KindFlowFragment:
		node.FlowFragment = &domain.FlowFragmentData{
			DisplayName: data.DisplayName,
			Description: data.Description,
		}
	case domain.KindHub:
		node.Hub = &domain.HubData{DisplayName: data.DisplayName}
	case domain.KindCondition, domain.KindInstruction:
		script := domain.Script{IsCondition: kind == domain.KindCondition}
		if data.Script != nil {
			script.Expression = data.Script.Expression
		}
		node.Script = &script
	case domain.KindJump:
		payload := &domain.JumpData{TargetPinIndex: data.TargetPinIndex}
		if data.TargetNodeID != "" {
			targetID, err := domain.ParseID(data.TargetNodeID)
			if err != nil {
				return nil, fmt.Errorf("jump target: %w", err)
			}
			payload.TargetNodeID = targetID
		}
		node.Jump = payload
	}

	for i, pinDef := range def.InputPins {
		pin := &domain.InputPin{Pin: domain.Pin{Text: pinText(pinDef), OwnerID: id, Index: pinIndex(pinDef, i)}}
		if pinDef.Condition != nil {
			pin.Condition = domain.Script{Expression: pinDef.Condition.Expression, IsCondition: true}
		}
		node.InputPins = append(node.InputPins, pin)
	}
	for i, pinDef := range def.OutputPins {
		pin := &domain.OutputPin{
			Pin:   domain.Pin{Text: pinText(pinDef), OwnerID: id, Index: pinIndex(pinDef, i)},
			Label: pinDef.Label,
		}
		if pinDef.Instruction != nil {
			pin.Instruction = domain.Script{Expression: pinDef.Instruction.Expression}
		}
		node.OutputPins = append(node.OutputPins, pin)
	}
	return node, nil
}

// pinIndex trusts the exported index when present and consistent, falling
// back to positional order for documents that omit it.
func pinIndex(def PinDef, position int) int {
	if def.Index > 0 {
		return def.Index
	}
	return position
}

func pinText(def PinDef) string {
	if def.Text != "" {
		return def.Text
	}
	return def.Label
}

func attachConnection(nodes map[domain.ID]*domain.Node, def ConnectionDef) error {
	sourceID, err := domain.ParseID(def.SourceID)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	targetID, err := domain.ParseID(def.TargetID)
	if err != nil {
		return fmt.Errorf("target: %w", err)
	}
	source, ok := nodes[sourceID]
	if !ok {
		return fmt.Errorf("source %s not in package", sourceID)
	}
	pin := source.OutputPin(def.SourcePin)
	if pin == nil {
		return fmt.Errorf("source %s has no output pin %d", sourceID, def.SourcePin)
	}
	pin.Connections = append(pin.Connections, domain.Connection{
		TargetNodeID:   targetID,
		TargetPinIndex: def.TargetPin,
	})
	return nil
}
