package domain

import "strings"

// PausableType tags the node kinds the player may treat as hard stops.
// Values combine as a bitmask.
type PausableType uint8

const (
	PauseNone             PausableType = 0
	PauseFlowFragment     PausableType = 1 << 0
	PauseDialogue         PausableType = 1 << 1
	PauseDialogueFragment PausableType = 1 << 2
	PauseHub              PausableType = 1 << 3
	PauseJump             PausableType = 1 << 4
	PauseCondition        PausableType = 1 << 5
	PauseInstruction      PausableType = 1 << 6
	// PausePin is accepted in masks for parity with the editor's enum, but
	// traversal only ever stops at nodes, so the tag is currently inert.
	PausePin PausableType = 1 << 7
)

// DefaultPauseMask stops on the speaker-facing node kinds.
const DefaultPauseMask = PauseFlowFragment | PauseDialogue | PauseDialogueFragment

// Contains reports whether t includes the given tag.
func (t PausableType) Contains(tag PausableType) bool {
	return t&tag != 0
}

var pausableNames = []struct {
	tag  PausableType
	name string
}{
	{PauseFlowFragment, "FlowFragment"},
	{PauseDialogue, "Dialogue"},
	{PauseDialogueFragment, "DialogueFragment"},
	{PauseHub, "Hub"},
	{PauseJump, "Jump"},
	{PauseCondition, "Condition"},
	{PauseInstruction, "Instruction"},
	{PausePin, "Pin"},
}

func (t PausableType) String() string {
	if t == PauseNone {
		return "None"
	}
	var parts []string
	for _, entry := range pausableNames {
		if t.Contains(entry.tag) {
			parts = append(parts, entry.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParsePausableType resolves a single tag name, as used in config files.
func ParsePausableType(name string) (PausableType, bool) {
	for _, entry := range pausableNames {
		if strings.EqualFold(entry.name, name) {
			return entry.tag, true
		}
	}
	return PauseNone, false
}
