package dsl

import (
	"fmt"

	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/importer"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

// Builder accumulates a graph definition. Nodes, characters and variables
// are registered by technical name; IDs are assigned at Build time.
type Builder struct {
	project string
	order   []*NodeBuilder
	byName  map[string]*NodeBuilder
	vars    []varDecl
	chars   []charDecl
	errs    []error
}

type varDecl struct {
	name  string
	typ   variables.Type
	value any
}

type charDecl struct {
	technical string
	display   string
}

// New creates a builder for a project with the given name.
func New(project string) *Builder {
	return &Builder{
		project: project,
		byName:  make(map[string]*NodeBuilder),
	}
}

// Variable declares a namespaced variable with its default value.
func (b *Builder) Variable(name string, typ variables.Type, value any) *Builder {
	b.vars = append(b.vars, varDecl{name: name, typ: typ, value: value})
	return b
}

// Character registers a speaker referable from Dialogue nodes.
func (b *Builder) Character(technical, display string) *Builder {
	b.chars = append(b.chars, charDecl{technical: technical, display: display})
	return b
}

// Dialogue adds a Dialogue node.
func (b *Builder) Dialogue(name string) *NodeBuilder {
	return b.add(name, domain.KindDialogue)
}

// Fragment adds a DialogueFragment node.
func (b *Builder) Fragment(name string) *NodeBuilder {
	return b.add(name, domain.KindDialogueFragment)
}

// FlowFragment adds a FlowFragment container node.
func (b *Builder) FlowFragment(name, displayName string) *NodeBuilder {
	nb := b.add(name, domain.KindFlowFragment)
	nb.node.FlowFragment = &domain.FlowFragmentData{DisplayName: displayName}
	return nb
}

// Hub adds a Hub branch point.
func (b *Builder) Hub(name string) *NodeBuilder {
	nb := b.add(name, domain.KindHub)
	nb.node.Hub = &domain.HubData{DisplayName: name}
	return nb
}

// Condition adds a Condition node evaluating the given expression. Its
// successors are only reachable while the expression holds.
func (b *Builder) Condition(name, expr string) *NodeBuilder {
	nb := b.add(name, domain.KindCondition)
	nb.node.Script = &domain.Script{Expression: expr, IsCondition: true}
	return nb
}

// Instruction adds an Instruction node executing the given expression.
func (b *Builder) Instruction(name, expr string) *NodeBuilder {
	nb := b.add(name, domain.KindInstruction)
	nb.node.Script = &domain.Script{Expression: expr}
	return nb
}

// Jump adds a Jump redirecting traversal to the target node's first input
// pin. The target is resolved by name at Build time.
func (b *Builder) Jump(name, target string) *NodeBuilder {
	nb := b.add(name, domain.KindJump)
	nb.jumpTarget = target
	return nb
}

func (b *Builder) add(name string, kind domain.Kind) *NodeBuilder {
	if existing, ok := b.byName[name]; ok {
		b.errs = append(b.errs, fmt.Errorf("node %q already defined", name))
		return existing
	}
	nb := &NodeBuilder{
		builder: b,
		node: domain.Node{
			ObjectBase: domain.ObjectBase{TechnicalName: name},
			Kind:       kind,
		},
	}
	if kind == domain.KindDialogue || kind == domain.KindDialogueFragment {
		nb.node.Dialogue = &domain.DialogueData{}
	}
	b.order = append(b.order, nb)
	b.byName[name] = nb
	return nb
}

func (b *Builder) errorf(format string, args ...any) {
	b.errs = append(b.errs, fmt.Errorf(format, args...))
}

// Build assigns IDs, resolves every name reference and materializes the
// graph into the same result shape the interchange importer produces.
func (b *Builder) Build() (*importer.Result, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	vars := variables.NewStore()
	for _, decl := range b.vars {
		if err := vars.Declare(decl.name, decl.typ, decl.value); err != nil {
			return nil, fmt.Errorf("declare %s: %w", decl.name, err)
		}
	}

	db := database.New()
	charIDs := make(map[string]domain.ID, len(b.chars))
	seq := int64(1)
	for _, decl := range b.chars {
		id := domain.NewID(0, seq)
		seq++
		charIDs[decl.technical] = id
		db.AddCharacter(&domain.Character{
			ObjectBase:  domain.ObjectBase{ID: id, TechnicalName: decl.technical},
			DisplayName: decl.display,
		})
	}

	for _, nb := range b.order {
		nb.node.ID = domain.NewID(0, seq)
		seq++
	}

	objects := make([]domain.Object, 0, len(b.order))
	for _, nb := range b.order {
		node := &nb.node
		nb.ensureInputs(1)
		nb.ensureOutputs(1)
		for i := range node.InputPins {
			node.InputPins[i].OwnerID = node.ID
		}
		for i := range node.OutputPins {
			node.OutputPins[i].OwnerID = node.ID
		}

		if nb.speaker != "" {
			id, ok := charIDs[nb.speaker]
			if !ok {
				return nil, fmt.Errorf("node %q: unknown speaker %q", node.TechnicalName, nb.speaker)
			}
			node.Dialogue.SpeakerID = id
		}
		if node.Kind == domain.KindJump {
			target, ok := b.byName[nb.jumpTarget]
			if !ok {
				return nil, fmt.Errorf("jump %q: unknown target %q", node.TechnicalName, nb.jumpTarget)
			}
			node.Jump = &domain.JumpData{TargetNodeID: target.node.ID}
		}
		for _, link := range nb.links {
			target, ok := b.byName[link.target]
			if !ok {
				return nil, fmt.Errorf("node %q: unknown connection target %q", node.TechnicalName, link.target)
			}
			pin := node.OutputPin(link.pin)
			if pin == nil {
				return nil, fmt.Errorf("node %q: no output pin %d", node.TechnicalName, link.pin)
			}
			pin.Connections = append(pin.Connections, domain.Connection{TargetNodeID: target.node.ID})
		}
		objects = append(objects, node)
	}

	pkg := &database.Package{Name: "Main", Default: true}
	if err := db.AddPackage(pkg, objects); err != nil {
		return nil, err
	}
	if err := db.LoadDefaultPackages(); err != nil {
		return nil, err
	}

	return &importer.Result{
		Project:   importer.Project{Name: b.project, TechnicalName: b.project},
		Database:  db,
		Variables: vars,
	}, nil
}
