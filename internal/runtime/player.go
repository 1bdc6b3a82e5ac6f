// Package runtime implements the flow player: the state machine that walks
// dialogue graphs, explores candidate branches ahead of the cursor without
// committing side effects, and commits exactly one branch when played.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studiobgc/dialogue-editor/internal/logging"
	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/ports"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

// State is the player's position in its lifecycle.
type State uint8

const (
	// StateIdle means no cursor has been set.
	StateIdle State = iota
	// StatePositioned means the cursor is set but branches are stale.
	StatePositioned
	// StateAwaitingChoice means branches are computed and a choice is due.
	StateAwaitingChoice
	// StatePaused means the cursor rests on a pausable node, suspended for
	// external interaction.
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePositioned:
		return "Positioned"
	case StateAwaitingChoice:
		return "AwaitingChoice"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// Recorder receives counters from the player. Implementations must be cheap;
// they are called inside the traversal hot path.
type Recorder interface {
	ExplorationStarted()
	BranchesPublished(valid, invalid int)
	DepthLimitExceeded()
	ShadowLimitExceeded()
}

// Config bounds and tunes traversal.
type Config struct {
	// PauseMask selects the node kinds treated as hard stops.
	PauseMask domain.PausableType
	// ExploreLimit caps recursion depth; cycles terminate against it.
	ExploreLimit int
	// ShadowLevelLimit caps nested speculative contexts.
	ShadowLevelLimit int
	// IgnoreInvalidBranches drops condition-failed paths instead of
	// surfacing them tagged invalid.
	IgnoreInvalidBranches bool
}

// DefaultConfig mirrors the editor runtime's defaults.
func DefaultConfig() Config {
	return Config{
		PauseMask:             domain.DefaultPauseMask,
		ExploreLimit:          128,
		ShadowLevelLimit:      10,
		IgnoreInvalidBranches: true,
	}
}

// Player traverses one dialogue graph against one variable store. A player
// and its store are an owned pair; neither is safe for concurrent use.
type Player struct {
	db     *database.Database
	vars   *variables.Store
	eval   ports.ScriptEvaluator
	method any

	cfg      Config
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	recorder Recorder

	state    State
	cursor   *domain.Node
	branches []domain.Branch

	// exitedPin marks an output pin already executed by
	// FinishCurrentPausedObject, so the commit walk does not run its
	// instruction twice.
	exitedPin *domain.OutputPin

	diags []error
}

// Option configures a Player.
type Option func(*Player)

// WithConfig replaces the whole traversal configuration.
func WithConfig(cfg Config) Option {
	return func(p *Player) {
		if cfg.ExploreLimit < 1 {
			cfg.ExploreLimit = 1
		}
		p.cfg = cfg
	}
}

// WithPauseMask selects which node kinds pause the player.
func WithPauseMask(mask domain.PausableType) Option {
	return func(p *Player) { p.cfg.PauseMask = mask }
}

// WithHooks registers observability callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(p *Player) { p.hooks = hooks }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Player) { p.logger = logger }
}

// WithMethodProvider injects the opaque object handed to script evaluation.
func WithMethodProvider(provider any) Option {
	return func(p *Player) { p.method = provider }
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Player) { p.recorder = r }
}

// NewPlayer wires a player to its graph database, variable store and script
// evaluator.
func NewPlayer(db *database.Database, vars *variables.Store, eval ports.ScriptEvaluator, opts ...Option) *Player {
	p := &Player{
		db:     db,
		vars:   vars,
		eval:   eval,
		cfg:    DefaultConfig(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.hooks.OnVariableChanged != nil {
		vars.SetChangeHook(p.hooks.OnVariableChanged)
	}
	return p
}

// State returns the player's lifecycle state.
func (p *Player) State() State { return p.state }

// Cursor returns the node the player is positioned on, or nil when idle.
func (p *Player) Cursor() *domain.Node { return p.cursor }

// Variables returns the owned variable store.
func (p *Player) Variables() *variables.Store { return p.vars }

// AvailableBranches returns the branch list from the last update.
func (p *Player) AvailableBranches() []domain.Branch { return p.branches }

// Diagnostics returns the non-fatal problems recorded during the last
// exploration or commit: depth truncation, dead references, script errors.
func (p *Player) Diagnostics() []error { return p.diags }

// SetCursor positions the player on the node a ref resolves to.
func (p *Player) SetCursor(ref domain.Ref) error {
	node, err := p.db.ResolveRef(ref)
	if err != nil {
		return err
	}
	p.position(node)
	return nil
}

// SetCursorByID positions the player on the node with the given ID.
func (p *Player) SetCursorByID(id domain.ID) error {
	node, err := p.db.Node(id)
	if err != nil {
		return err
	}
	p.position(node)
	return nil
}

// SetCursorByName positions the player on the node with the given
// technical name.
func (p *Player) SetCursorByName(name string) error {
	obj, err := p.db.ResolveByName(name)
	if err != nil {
		return err
	}
	node, ok := obj.(*domain.Node)
	if !ok {
		return fmt.Errorf("object %q is not a node", name)
	}
	p.position(node)
	return nil
}

func (p *Player) position(node *domain.Node) {
	p.cursor = node
	p.branches = nil
	p.exitedPin = nil
	p.state = StatePositioned
}

// ShouldPauseOn reports whether the pause mask stops on the given node.
func (p *Player) ShouldPauseOn(node *domain.Node) bool {
	return node != nil && p.cfg.PauseMask.Contains(node.PausableType())
}

// UpdateAvailableBranches explores from the cursor inside a shadow context
// and publishes the resulting branch list. The cursor itself pausing is
// decided here: a pausable cursor leaves the player in StatePaused, else
// StateAwaitingChoice.
func (p *Player) UpdateAvailableBranches(ctx context.Context) error {
	if p.cursor == nil {
		return fmt.Errorf("update branches: no cursor set")
	}
	p.diags = nil
	return p.refreshBranches(ctx)
}

// refreshBranches re-explores from the cursor without clearing recorded
// diagnostics, so a commit walk keeps its script failures visible alongside
// anything the re-exploration adds.
func (p *Player) refreshBranches(ctx context.Context) error {
	if p.recorder != nil {
		p.recorder.ExplorationStarted()
	}

	var explored []domain.Branch
	err := p.ShadowedOperation(ctx, func() {
		explored = p.explore(ctx, p.cursor, 0, false)
	})
	if err != nil {
		return err
	}

	p.branches = p.publish(ctx, explored)

	if p.ShouldPauseOn(p.cursor) {
		p.state = StatePaused
		if p.hooks.OnPaused != nil {
			p.hooks.OnPaused(ctx, p.cursor)
		}
	} else {
		p.state = StateAwaitingChoice
	}
	return nil
}

// publish filters (or keeps) invalid branches per configuration, assigns
// indices and fires the branches-updated hook.
func (p *Player) publish(ctx context.Context, explored []domain.Branch) []domain.Branch {
	out := make([]domain.Branch, 0, len(explored))
	valid, invalid := 0, 0
	for _, b := range explored {
		if !b.Valid {
			if p.cfg.IgnoreInvalidBranches {
				continue
			}
			invalid++
		} else {
			valid++
		}
		b.Index = len(out)
		out = append(out, b)
	}
	if p.recorder != nil {
		p.recorder.BranchesPublished(valid, invalid)
	}
	if p.hooks.OnBranchesUpdated != nil {
		p.hooks.OnBranchesUpdated(ctx, out)
	}
	return out
}

// Play commits the branch at the given index from the current list.
func (p *Player) Play(ctx context.Context, branchIndex int) error {
	if p.state != StateAwaitingChoice && p.state != StatePaused {
		return fmt.Errorf("play: player is %s, branches not computed", p.state)
	}
	if branchIndex < 0 || branchIndex >= len(p.branches) {
		return fmt.Errorf("play branch %d: %w", branchIndex, domain.ErrNoBranches)
	}
	return p.PlayBranch(ctx, p.branches[branchIndex])
}

// PlayBranch commits a branch: walks its path for real, executing each
// traversed output pin's instruction and every instruction node outside
// shadow mode, then moves the cursor to the branch target and re-explores.
func (p *Player) PlayBranch(ctx context.Context, branch domain.Branch) error {
	target := branch.Target()
	if target == nil {
		return fmt.Errorf("play branch: empty path: %w", domain.ErrNoBranches)
	}
	if p.cursor == nil {
		return fmt.Errorf("play branch: no cursor set")
	}

	p.diags = nil
	prev := p.cursor
	for _, node := range branch.Path {
		if pin := p.findExitPin(prev, node); pin != nil {
			if pin == p.exitedPin {
				// Already executed by FinishCurrentPausedObject.
				p.exitedPin = nil
			} else if pin.HasInstruction() {
				p.execute(ctx, pin.Instruction.Expression)
			}
		}
		if node.Kind == domain.KindInstruction && node.Script != nil {
			p.execute(ctx, node.Script.Expression)
		}
		prev = node
	}

	p.position(target)
	return p.refreshBranches(ctx)
}

// FinishCurrentPausedObject treats the paused cursor as exited through the
// given output pin: the pin's instruction runs for real and exploration
// resumes through that pin only.
func (p *Player) FinishCurrentPausedObject(ctx context.Context, pinIndex int) error {
	if p.state != StatePaused {
		return fmt.Errorf("finish paused object: player is %s, not Paused", p.state)
	}
	pin := p.cursor.OutputPin(pinIndex)
	if pin == nil {
		return fmt.Errorf("finish paused object: node %s has no output pin %d", p.cursor.ID, pinIndex)
	}

	p.diags = nil
	if pin.HasInstruction() {
		p.execute(ctx, pin.Instruction.Expression)
	}
	p.exitedPin = pin

	if p.recorder != nil {
		p.recorder.ExplorationStarted()
	}
	var explored []domain.Branch
	err := p.ShadowedOperation(ctx, func() {
		explored = p.explorePin(ctx, pin, 0)
	})
	if err != nil {
		return err
	}
	p.branches = p.publish(ctx, explored)
	p.state = StateAwaitingChoice
	return nil
}

// ShadowedOperation brackets fn between a shadow push and pop on the
// variable store, firing the shadow hooks. Nesting is allowed up to the
// configured limit; beyond it the operation is aborted and reported.
func (p *Player) ShadowedOperation(ctx context.Context, fn func()) error {
	if p.vars.ShadowLevel() >= p.cfg.ShadowLevelLimit {
		if p.recorder != nil {
			p.recorder.ShadowLimitExceeded()
		}
		err := &domain.ShadowLimitError{Limit: p.cfg.ShadowLevelLimit}
		p.logger.Warn("nested shadow operations exceeded limit, aborting", "err", err)
		return err
	}

	p.vars.PushShadow()
	if p.hooks.OnShadowStart != nil {
		p.hooks.OnShadowStart(ctx)
	}
	fn()
	if p.hooks.OnShadowEnd != nil {
		p.hooks.OnShadowEnd(ctx)
	}
	p.vars.PopShadow()
	return nil
}

// Snapshot captures the session state for persistence. Only call at rest
// (never from inside hooks): the values must be committed state.
func (p *Player) Snapshot(sessionID string) *domain.Snapshot {
	snap := domain.NewSnapshot(sessionID)
	if p.cursor != nil {
		snap.Cursor = domain.NewRef(p.cursor.ID)
	}
	snap.Variables = p.vars.Snapshot()
	return snap
}

// RestoreSnapshot applies a persisted snapshot: variable values first, then
// the cursor.
func (p *Player) RestoreSnapshot(snap *domain.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("restore: nil snapshot")
	}
	if err := p.vars.Restore(snap.Variables); err != nil {
		return err
	}
	if snap.Cursor.IsValid() {
		return p.SetCursor(snap.Cursor)
	}
	return nil
}

// execute runs an instruction expression for real, degrading script errors
// to diagnostics.
func (p *Player) execute(ctx context.Context, expression string) {
	if expression == "" {
		return
	}
	if err := p.eval.Execute(ctx, expression, p.vars, p.method); err != nil {
		p.diag(fmt.Errorf("execute instruction: %w", err))
	}
}

// diag records a non-fatal problem and logs it.
func (p *Player) diag(err error) {
	p.diags = append(p.diags, err)
	p.logger.Warn("flow diagnostic", "err", err)
}
