package runtime_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

// fixture assembles small graphs for traversal tests.
type fixture struct {
	t    *testing.T
	vars *variables.Store
	objs []domain.Object
	seq  int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	vars := variables.NewStore()
	require.NoError(t, vars.Declare("Score.Points", variables.TypeInt, 5))
	require.NoError(t, vars.Declare("Flags.MetGuard", variables.TypeBool, false))
	return &fixture{t: t, vars: vars}
}

func (f *fixture) nextID() domain.ID {
	f.seq++
	return domain.NewID(0, f.seq)
}

// node creates a node with one ungated input pin and outPins output pins.
func (f *fixture) node(kind domain.Kind, name string, outPins int) *domain.Node {
	id := f.nextID()
	n := &domain.Node{
		ObjectBase: domain.ObjectBase{ID: id, TechnicalName: name},
		Kind:       kind,
	}
	n.InputPins = []*domain.InputPin{{Pin: domain.Pin{OwnerID: id, Index: 0}}}
	for i := 0; i < outPins; i++ {
		n.OutputPins = append(n.OutputPins, &domain.OutputPin{Pin: domain.Pin{OwnerID: id, Index: i}})
	}
	f.objs = append(f.objs, n)
	return n
}

func (f *fixture) dialogue(name string, auto bool) *domain.Node {
	n := f.node(domain.KindDialogue, name, 1)
	n.Dialogue = &domain.DialogueData{Text: name, AutoTransition: auto}
	return n
}

func (f *fixture) hub(name string, outPins int) *domain.Node {
	n := f.node(domain.KindHub, name, outPins)
	n.Hub = &domain.HubData{DisplayName: name}
	return n
}

func (f *fixture) condition(name, expr string) *domain.Node {
	n := f.node(domain.KindCondition, name, 1)
	n.Script = &domain.Script{Expression: expr, IsCondition: true}
	return n
}

func (f *fixture) instruction(name, expr string) *domain.Node {
	n := f.node(domain.KindInstruction, name, 1)
	n.Script = &domain.Script{Expression: expr}
	return n
}

func (f *fixture) jump(name string, target *domain.Node) *domain.Node {
	n := f.node(domain.KindJump, name, 0)
	n.Jump = &domain.JumpData{TargetNodeID: target.ID}
	return n
}

// gate puts a condition on a node's input pin.
func (f *fixture) gate(n *domain.Node, pinIndex int, expr string) {
	n.InputPins[pinIndex].Condition = domain.Script{Expression: expr, IsCondition: true}
}

// pinInstr puts an instruction on a node's output pin.
func (f *fixture) pinInstr(n *domain.Node, pinIndex int, expr string) {
	n.OutputPins[pinIndex].Instruction = domain.Script{Expression: expr}
}

func (f *fixture) connect(from *domain.Node, outIndex int, to *domain.Node, inIndex int) {
	pin := from.OutputPins[outIndex]
	pin.Connections = append(pin.Connections, domain.Connection{
		TargetNodeID:   to.ID,
		TargetPinIndex: inIndex,
	})
}

// connectDead wires a connection to a node that does not exist.
func (f *fixture) connectDead(from *domain.Node, outIndex int) {
	pin := from.OutputPins[outIndex]
	pin.Connections = append(pin.Connections, domain.Connection{
		TargetNodeID: domain.NewID(0xDEAD, 0xDEAD),
	})
}

func (f *fixture) database() *database.Database {
	f.t.Helper()
	db := database.New()
	require.NoError(f.t, db.AddPackage(&database.Package{Name: "test", Default: true}, f.objs))
	require.NoError(f.t, db.LoadDefaultPackages())
	return db
}

// countingRecorder counts player metrics calls.
type countingRecorder struct {
	explorations int
	valid        int
	invalid      int
	depthAborts  int
	shadowAborts int
}

func (r *countingRecorder) ExplorationStarted() { r.explorations++ }
func (r *countingRecorder) BranchesPublished(valid, invalid int) {
	r.valid += valid
	r.invalid += invalid
}
func (r *countingRecorder) DepthLimitExceeded()  { r.depthAborts++ }
func (r *countingRecorder) ShadowLimitExceeded() { r.shadowAborts++ }
