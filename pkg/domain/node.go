package domain

// Kind is the closed set of node variants. Traversal behavior is dispatched
// on Kind rather than through an inheritance chain, keeping the database
// ownership model flat.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindDialogue
	KindDialogueFragment
	KindFlowFragment
	KindHub
	KindCondition
	KindInstruction
	KindJump
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindDialogue:         "Dialogue",
	KindDialogueFragment: "DialogueFragment",
	KindFlowFragment:     "FlowFragment",
	KindHub:              "Hub",
	KindCondition:        "Condition",
	KindInstruction:      "Instruction",
	KindJump:             "Jump",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// ParseKind resolves the interchange-format type string.
func ParseKind(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnknown
}

// DialogueData is the payload of Dialogue and DialogueFragment nodes.
type DialogueData struct {
	SpeakerID       ID
	Text            string
	MenuText        string
	StageDirections string
	// AutoTransition makes the node fall through to successor exploration
	// like a hub instead of pausing, except when it is the starting cursor.
	AutoTransition bool
}

// FlowFragmentData is the payload of FlowFragment container nodes.
type FlowFragmentData struct {
	DisplayName string
	Description string
}

// HubData is the payload of Hub branch points.
type HubData struct {
	DisplayName string
}

// JumpData redirects traversal to another node's input pin. The jump node
// itself is transparent: it never appears in branch paths.
type JumpData struct {
	TargetNodeID   ID
	TargetPinIndex int
}

// Node is a flow graph vertex: an ordered set of input and output pins plus
// a kind-specific payload. Exactly the payload matching Kind is non-nil;
// Condition and Instruction nodes carry their script in Script instead.
type Node struct {
	ObjectBase
	Kind Kind

	InputPins  []*InputPin
	OutputPins []*OutputPin

	Dialogue     *DialogueData
	FlowFragment *FlowFragmentData
	Hub          *HubData
	Jump         *JumpData
	// Script is set for Condition (IsCondition=true) and Instruction
	// (IsCondition=false) nodes.
	Script *Script
}

// PausableType maps the node's kind to its pause-mask tag.
func (n *Node) PausableType() PausableType {
	switch n.Kind {
	case KindDialogue:
		return PauseDialogue
	case KindDialogueFragment:
		return PauseDialogueFragment
	case KindFlowFragment:
		return PauseFlowFragment
	case KindHub:
		return PauseHub
	case KindCondition:
		return PauseCondition
	case KindInstruction:
		return PauseInstruction
	case KindJump:
		return PauseJump
	default:
		return PauseNone
	}
}

// AutoTransition reports whether reaching this node during exploration
// should fall through instead of pausing.
func (n *Node) AutoTransition() bool {
	return n.Dialogue != nil && n.Dialogue.AutoTransition
}

// InputPin returns the input pin at the given index, or nil.
func (n *Node) InputPin(index int) *InputPin {
	if index < 0 || index >= len(n.InputPins) {
		return nil
	}
	return n.InputPins[index]
}

// OutputPin returns the output pin at the given index, or nil.
func (n *Node) OutputPin(index int) *OutputPin {
	if index < 0 || index >= len(n.OutputPins) {
		return nil
	}
	return n.OutputPins[index]
}
