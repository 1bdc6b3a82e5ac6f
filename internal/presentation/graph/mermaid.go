// Package graph renders a loaded dialogue database as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// Overlay contains dynamic state data to visualize on the graph.
type Overlay struct {
	Visited []domain.ID
	Current domain.ID
}

// GenerateMermaid produces Mermaid flowchart syntax for every loaded node.
// It applies semantic styling:
// - Hub: ((Circle))
// - Condition: {Rhombus}
// - Instruction: [[Subroutine]]
// - Jump: [/Parallelogram/]
// - Default: [Rectangle]
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(db *database.Database, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, node := range db.Nodes() {
		safeID := mermaidID(node)

		opener, closer := "[", "]"
		switch node.Kind {
		case domain.KindHub:
			opener, closer = "((", "))"
		case domain.KindCondition:
			opener, closer = "{", "}"
		case domain.KindInstruction:
			opener, closer = "[[", "]]"
		case domain.KindJump:
			opener, closer = "[/", "/]"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, nodeLabel(node), closer))

		for _, pin := range node.OutputPins {
			for _, conn := range pin.Connections {
				target, err := db.Node(conn.TargetNodeID)
				if err != nil {
					continue
				}
				sb.WriteString(fmt.Sprintf("    %s %s %s\n", safeID, edgeArrow(pin, target, conn.TargetPinIndex), mermaidID(target)))
			}
		}

		// Jumps redirect without a connection, drawn dashed.
		if node.Jump != nil {
			if target, err := db.Node(node.Jump.TargetNodeID); err == nil {
				sb.WriteString(fmt.Sprintf("    %s -.-> %s\n", safeID, mermaidID(target)))
			}
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.Visited {
			node, err := db.Node(id)
			if err != nil {
				continue
			}
			safeID := mermaidID(node)
			if !visitedSet[safeID] {
				visitedSet[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", safeID))
			}
		}

		if overlay.Current.IsValid() {
			if node, err := db.Node(overlay.Current); err == nil {
				sb.WriteString(fmt.Sprintf("    class %s current;\n", mermaidID(node)))
			}
		}
	}

	return sb.String()
}

// edgeArrow labels the edge with the exit instruction and the entry
// condition of the pins it crosses, when present.
func edgeArrow(pin *domain.OutputPin, target *domain.Node, targetPin int) string {
	var parts []string
	if pin.HasInstruction() {
		parts = append(parts, escapeMermaidLabel(pin.Instruction.Expression))
	}
	if in := target.InputPin(targetPin); in != nil && in.HasCondition() {
		parts = append(parts, "["+escapeMermaidLabel(in.Condition.Expression)+"]")
	}
	if len(parts) == 0 {
		return "-->"
	}
	return fmt.Sprintf("-- \"%s\" -->", strings.Join(parts, " "))
}

func nodeLabel(node *domain.Node) string {
	switch {
	case node.Kind == domain.KindCondition && node.Script != nil:
		return escapeMermaidLabel(node.Script.Expression)
	case node.Hub != nil && node.Hub.DisplayName != "":
		return escapeMermaidLabel(node.Hub.DisplayName)
	case node.FlowFragment != nil && node.FlowFragment.DisplayName != "":
		return escapeMermaidLabel(node.FlowFragment.DisplayName)
	}
	if node.TechnicalName != "" {
		return escapeMermaidLabel(node.TechnicalName)
	}
	return node.ID.String()
}

func mermaidID(node *domain.Node) string {
	id := node.TechnicalName
	if id == "" {
		id = node.ID.String()
	}
	return sanitizeMermaidID(id)
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

func escapeMermaidLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
