// Package validator performs static checks over a loaded graph database:
// broken references, structural dead ends and suspicious authoring patterns.
package validator

import (
	"fmt"

	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// Severity ranks an issue. Errors make the graph unplayable; warnings are
// authoring smells the runtime tolerates.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Issue is one finding, tagged with a stable machine-readable code.
type Issue struct {
	Severity Severity
	Code     string
	NodeID   domain.ID
	Message  string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s [%s] %s", i.Severity, i.Code, i.Message)
}

// Report collects every finding of one validation run.
type Report struct {
	Issues []Issue
}

// Valid reports whether the graph has no error-severity issues.
func (r *Report) Valid() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errors returns only the error-severity issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Report) add(sev Severity, code string, nodeID domain.ID, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{
		Severity: sev,
		Code:     code,
		NodeID:   nodeID,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Validate checks every loaded node of the database. Unloaded packages are
// not inspected; load them first to validate them.
func Validate(db *database.Database) *Report {
	report := &Report{}
	nodes := db.Nodes()

	byID := make(map[domain.ID]*domain.Node, len(nodes))
	for _, node := range nodes {
		byID[node.ID] = node
	}

	connected := make(map[domain.ID]bool)
	adjacency := make(map[domain.ID][]domain.ID, len(nodes))
	for _, node := range nodes {
		for _, pin := range node.OutputPins {
			for _, conn := range pin.Connections {
				target, ok := byID[conn.TargetNodeID]
				if !ok {
					report.add(SeverityError, "INVALID_CONNECTION_TARGET", node.ID,
						"node %q pin %d connects to unknown node %s",
						node.TechnicalName, pin.Index, conn.TargetNodeID)
					continue
				}
				if target.InputPin(conn.TargetPinIndex) == nil {
					report.add(SeverityError, "INVALID_CONNECTION_PIN", node.ID,
						"node %q pin %d connects to missing input pin %d of %q",
						node.TechnicalName, pin.Index, conn.TargetPinIndex, target.TechnicalName)
					continue
				}
				connected[node.ID] = true
				connected[target.ID] = true
				adjacency[node.ID] = append(adjacency[node.ID], target.ID)
			}
		}
	}

	for _, node := range nodes {
		checkNode(report, node, byID)
	}

	if len(nodes) > 1 {
		for _, node := range nodes {
			if !connected[node.ID] && node.Kind != domain.KindJump {
				report.add(SeverityWarning, "ORPHANED_NODE", node.ID,
					"node %q is not connected to any other node", node.TechnicalName)
			}
		}
	}

	for _, id := range cycleMembers(nodes, adjacency) {
		report.add(SeverityWarning, "CYCLE_DETECTED", id,
			"node %q is part of a cycle", byID[id].TechnicalName)
	}

	return report
}

func checkNode(report *Report, node *domain.Node, byID map[domain.ID]*domain.Node) {
	switch node.Kind {
	case domain.KindDialogue, domain.KindDialogueFragment:
		if node.Dialogue == nil || (!node.Dialogue.SpeakerID.IsValid() && node.Dialogue.Text == "") {
			report.add(SeverityWarning, "EMPTY_DIALOGUE", node.ID,
				"dialogue node %q has no speaker or text", node.TechnicalName)
		}
	case domain.KindJump:
		if node.Jump == nil || !node.Jump.TargetNodeID.IsValid() {
			report.add(SeverityWarning, "MISSING_JUMP_TARGET", node.ID,
				"jump node %q has no target set", node.TechnicalName)
			return
		}
		target, ok := byID[node.Jump.TargetNodeID]
		if !ok {
			report.add(SeverityError, "INVALID_JUMP_TARGET", node.ID,
				"jump node %q references unknown node %s", node.TechnicalName, node.Jump.TargetNodeID)
			return
		}
		if target.InputPin(node.Jump.TargetPinIndex) == nil {
			report.add(SeverityError, "INVALID_JUMP_PIN", node.ID,
				"jump node %q targets missing input pin %d of %q",
				node.TechnicalName, node.Jump.TargetPinIndex, target.TechnicalName)
		}
	case domain.KindCondition:
		if node.Script == nil || node.Script.IsEmpty() {
			report.add(SeverityWarning, "EMPTY_CONDITION", node.ID,
				"condition node %q has an empty expression", node.TechnicalName)
		}
	case domain.KindInstruction:
		if node.Script == nil || node.Script.IsEmpty() {
			report.add(SeverityWarning, "EMPTY_INSTRUCTION", node.ID,
				"instruction node %q has an empty script", node.TechnicalName)
		}
	}
}

// cycleMembers runs a DFS with a recursion stack and returns the nodes
// sitting on at least one back edge, in stable node order.
func cycleMembers(nodes []*domain.Node, adjacency map[domain.ID][]domain.ID) []domain.ID {
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[domain.ID]int, len(nodes))
	inCycle := make(map[domain.ID]bool)

	var visit func(id domain.ID) bool
	visit = func(id domain.ID) bool {
		state[id] = inStack
		found := false
		for _, next := range adjacency[id] {
			switch state[next] {
			case unvisited:
				if visit(next) {
					inCycle[id] = true
					found = true
				}
			case inStack:
				inCycle[id] = true
				inCycle[next] = true
				found = true
			}
		}
		state[id] = done
		return found
	}

	for _, node := range nodes {
		if state[node.ID] == unvisited {
			visit(node.ID)
		}
	}

	var out []domain.ID
	for _, node := range nodes {
		if inCycle[node.ID] {
			out = append(out, node.ID)
		}
	}
	return out
}
