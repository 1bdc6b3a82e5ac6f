package dsl

import "github.com/studiobgc/dialogue-editor/pkg/domain"

// NodeBuilder provides a fluent API for configuring one node. All name
// references (speakers, connection targets) stay symbolic until Build.
type NodeBuilder struct {
	builder    *Builder
	node       domain.Node
	speaker    string
	jumpTarget string
	links      []link
}

type link struct {
	pin    int
	target string
}

// Text sets the spoken line of a Dialogue or DialogueFragment node.
func (n *NodeBuilder) Text(text string) *NodeBuilder {
	if n.node.Dialogue == nil {
		n.builder.errorf("node %q: Text requires a dialogue node", n.node.TechnicalName)
		return n
	}
	n.node.Dialogue.Text = text
	return n
}

// MenuText sets the short label shown when the node is offered as a choice.
func (n *NodeBuilder) MenuText(text string) *NodeBuilder {
	if n.node.Dialogue == nil {
		n.builder.errorf("node %q: MenuText requires a dialogue node", n.node.TechnicalName)
		return n
	}
	n.node.Dialogue.MenuText = text
	return n
}

// StageDirections sets the performance notes attached to the line.
func (n *NodeBuilder) StageDirections(text string) *NodeBuilder {
	if n.node.Dialogue == nil {
		n.builder.errorf("node %q: StageDirections requires a dialogue node", n.node.TechnicalName)
		return n
	}
	n.node.Dialogue.StageDirections = text
	return n
}

// Speaker assigns a previously registered character by technical name.
func (n *NodeBuilder) Speaker(technical string) *NodeBuilder {
	if n.node.Dialogue == nil {
		n.builder.errorf("node %q: Speaker requires a dialogue node", n.node.TechnicalName)
		return n
	}
	n.speaker = technical
	return n
}

// Auto makes the node fall through during exploration instead of pausing.
func (n *NodeBuilder) Auto() *NodeBuilder {
	if n.node.Dialogue == nil {
		n.builder.errorf("node %q: Auto requires a dialogue node", n.node.TechnicalName)
		return n
	}
	n.node.Dialogue.AutoTransition = true
	return n
}

// Gate attaches a condition to the node's first input pin. Entry is only
// valid while the expression evaluates to true.
func (n *NodeBuilder) Gate(expr string) *NodeBuilder {
	n.ensureInputs(1)
	n.node.InputPins[0].Condition = domain.Script{Expression: expr, IsCondition: true}
	return n
}

// OnExit attaches an instruction to the node's first output pin. It runs
// when the node is committed through that pin.
func (n *NodeBuilder) OnExit(expr string) *NodeBuilder {
	return n.PinExit(0, expr)
}

// PinExit attaches an instruction to the output pin at the given index.
func (n *NodeBuilder) PinExit(pin int, expr string) *NodeBuilder {
	n.ensureOutputs(pin + 1)
	n.node.OutputPins[pin].Instruction = domain.Script{Expression: expr}
	return n
}

// Label sets the display label of the output pin at the given index.
func (n *NodeBuilder) Label(pin int, label string) *NodeBuilder {
	n.ensureOutputs(pin + 1)
	n.node.OutputPins[pin].Label = label
	return n
}

// Outputs pre-allocates the node's output pins. Connections added later
// address them by index.
func (n *NodeBuilder) Outputs(count int) *NodeBuilder {
	n.ensureOutputs(count)
	return n
}

// To connects the node's first output pin to the named target.
func (n *NodeBuilder) To(target string) *NodeBuilder {
	return n.PinTo(0, target)
}

// PinTo connects the output pin at the given index to the named target.
// Multiple connections on one pin fan out into separate branch candidates.
func (n *NodeBuilder) PinTo(pin int, target string) *NodeBuilder {
	n.ensureOutputs(pin + 1)
	n.links = append(n.links, link{pin: pin, target: target})
	return n
}

func (n *NodeBuilder) ensureInputs(count int) {
	for len(n.node.InputPins) < count {
		n.node.InputPins = append(n.node.InputPins, &domain.InputPin{
			Pin: domain.Pin{Index: len(n.node.InputPins)},
		})
	}
}

func (n *NodeBuilder) ensureOutputs(count int) {
	for len(n.node.OutputPins) < count {
		n.node.OutputPins = append(n.node.OutputPins, &domain.OutputPin{
			Pin: domain.Pin{Index: len(n.node.OutputPins)},
		})
	}
}
