package domain

// Pin is the common part of input and output pins. Pins are addressed by
// (OwnerID, Index); they are owned by their node, not by the database.
type Pin struct {
	Text    string
	OwnerID ID
	Index   int
}

// InputPin optionally gates entry into its node with a condition script.
type InputPin struct {
	Pin
	Condition Script
}

// HasCondition reports whether entry through this pin is gated.
func (p *InputPin) HasCondition() bool {
	return !p.Condition.IsEmpty()
}

// OutputPin optionally carries an instruction run when the node is exited
// through it, plus the connections fanning out to successor nodes.
type OutputPin struct {
	Pin
	Instruction Script
	Label       string
	Connections []Connection
}

// HasInstruction reports whether leaving through this pin has an effect.
func (p *OutputPin) HasInstruction() bool {
	return !p.Instruction.IsEmpty()
}

// Connection is a directed edge from an output pin to one specific input
// pin of the target node. Multiple connections on one pin encode fan-out of
// branch candidates, not concurrency.
type Connection struct {
	TargetNodeID   ID
	TargetPinIndex int
}
