package dialogue

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/studiobgc/dialogue-editor/internal/logging"
	"github.com/studiobgc/dialogue-editor/internal/metrics"
	"github.com/studiobgc/dialogue-editor/internal/runtime"
	"github.com/studiobgc/dialogue-editor/internal/script"
	"github.com/studiobgc/dialogue-editor/internal/validator"
	"github.com/studiobgc/dialogue-editor/pkg/database"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
	"github.com/studiobgc/dialogue-editor/pkg/importer"
	"github.com/studiobgc/dialogue-editor/pkg/ports"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

// Engine is the high-level entry point for the library. It owns one imported
// graph, one variable store and one flow player, and wraps the internal
// runtime with a simplified API for consumers.
type Engine struct {
	db     *database.Database
	vars   *variables.Store
	player *runtime.Player

	evaluator ports.ScriptEvaluator
	method    any
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	cfg       runtime.Config
	recorder  runtime.Recorder

	project importer.Project
	Name    string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithEvaluator replaces the built-in script evaluator.
func WithEvaluator(eval ports.ScriptEvaluator) Option {
	return func(e *Engine) {
		e.evaluator = eval
	}
}

// WithMethodProvider injects the opaque object handed to script evaluation.
func WithMethodProvider(provider any) Option {
	return func(e *Engine) {
		e.method = provider
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPauseMask selects which node kinds pause the player.
func WithPauseMask(mask domain.PausableType) Option {
	return func(e *Engine) {
		e.cfg.PauseMask = mask
	}
}

// WithExploreLimit caps branch exploration depth.
func WithExploreLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.cfg.ExploreLimit = limit
		}
	}
}

// WithShadowLevelLimit caps nested speculative contexts.
func WithShadowLevelLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.cfg.ShadowLevelLimit = limit
		}
	}
}

// WithInvalidBranches makes the player surface condition-failed branches
// tagged invalid instead of dropping them.
func WithInvalidBranches() Option {
	return func(e *Engine) {
		e.cfg.IgnoreInvalidBranches = false
	}
}

// WithMetrics registers traversal counters on the given registerer.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(e *Engine) {
		e.recorder = metrics.New(reg)
	}
}

// New loads an exported dialogue file and initializes an Engine around it.
func New(path string, opts ...Option) (*Engine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dialogue file: %w", err)
	}
	defer f.Close()

	eng, err := NewFromReader(f, opts...)
	if err != nil {
		return nil, err
	}
	if eng.Name == "" {
		eng.Name = path
	}
	return eng, nil
}

// NewFromReader imports an exported dialogue document from a reader.
func NewFromReader(r io.Reader, opts ...Option) (*Engine, error) {
	res, err := importer.Import(r)
	if err != nil {
		return nil, err
	}
	return NewFromResult(res, opts...)
}

// NewFromResult initializes an Engine around an already imported graph.
func NewFromResult(res *importer.Result, opts ...Option) (*Engine, error) {
	eng := &Engine{
		db:      res.Database,
		vars:    res.Variables,
		project: res.Project,
		Name:    res.Project.TechnicalName,
		cfg:     runtime.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("project", eng.Name)
	}
	if eng.evaluator == nil {
		eng.evaluator = script.New()
	}

	playerOpts := []runtime.Option{
		runtime.WithConfig(eng.cfg),
		runtime.WithHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
		runtime.WithMethodProvider(eng.method),
	}
	if eng.recorder != nil {
		playerOpts = append(playerOpts, runtime.WithRecorder(eng.recorder))
	}
	eng.player = runtime.NewPlayer(eng.db, eng.vars, eng.evaluator, playerOpts...)

	return eng, nil
}

// Project returns the imported project header.
func (e *Engine) Project() importer.Project {
	return e.project
}

// Database returns the graph database.
func (e *Engine) Database() *database.Database {
	return e.db
}

// Variables returns the engine's variable store.
func (e *Engine) Variables() *variables.Store {
	return e.vars
}

// Start positions the player on a node, addressed by technical name or hex
// ID, and computes the initial branches.
func (e *Engine) Start(ctx context.Context, node string) error {
	if err := e.setCursor(node); err != nil {
		return err
	}
	return e.player.UpdateAvailableBranches(ctx)
}

func (e *Engine) setCursor(node string) error {
	if strings.HasPrefix(node, "0x") || strings.HasPrefix(node, "0X") {
		if id, err := domain.ParseID(node); err == nil {
			return e.player.SetCursorByID(id)
		}
	}
	return e.player.SetCursorByName(node)
}

// Cursor returns the node the player is positioned on.
func (e *Engine) Cursor() *domain.Node {
	return e.player.Cursor()
}

// Branches returns the current branch candidates.
func (e *Engine) Branches() []domain.Branch {
	return e.player.AvailableBranches()
}

// Play commits the branch at the given index.
func (e *Engine) Play(ctx context.Context, index int) error {
	return e.player.Play(ctx, index)
}

// PlayBranch commits a specific branch value.
func (e *Engine) PlayBranch(ctx context.Context, branch domain.Branch) error {
	return e.player.PlayBranch(ctx, branch)
}

// Finish exits the paused cursor through the given output pin and resumes
// branch exploration from there.
func (e *Engine) Finish(ctx context.Context, pinIndex int) error {
	return e.player.FinishCurrentPausedObject(ctx, pinIndex)
}

// IsPaused reports whether the player rests on a pausable node.
func (e *Engine) IsPaused() bool {
	return e.player.State() == runtime.StatePaused
}

// IsAwaitingChoice reports whether branches are computed and a Play call
// is due.
func (e *Engine) IsAwaitingChoice() bool {
	return e.player.State() == runtime.StateAwaitingChoice
}

// StateName returns the player's lifecycle state as a string, for logs and
// transport payloads.
func (e *Engine) StateName() string {
	return e.player.State().String()
}

// Diagnostics returns the non-fatal problems of the last operation.
func (e *Engine) Diagnostics() []error {
	return e.player.Diagnostics()
}

// Speaker resolves the speaking character of a node, or nil when the node
// has no speaker set.
func (e *Engine) Speaker(node *domain.Node) *domain.Character {
	if node == nil || node.Dialogue == nil || !node.Dialogue.SpeakerID.IsValid() {
		return nil
	}
	c, err := e.db.Character(node.Dialogue.SpeakerID)
	if err != nil {
		return nil
	}
	return c
}

// Snapshot captures the resumable session state.
func (e *Engine) Snapshot(sessionID string) *domain.Snapshot {
	return e.player.Snapshot(sessionID)
}

// RestoreSnapshot applies a persisted snapshot and recomputes branches.
func (e *Engine) RestoreSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if err := e.player.RestoreSnapshot(snap); err != nil {
		return err
	}
	if e.player.Cursor() == nil {
		return nil
	}
	return e.player.UpdateAvailableBranches(ctx)
}

// Validate runs the static graph checks. Warnings are logged; errors are
// returned as one combined error.
func (e *Engine) Validate() error {
	report := validator.Validate(e.db)
	for _, issue := range report.Issues {
		if issue.Severity == validator.SeverityWarning {
			e.logger.Warn("graph check", "code", issue.Code, "detail", issue.Message)
		}
	}
	if report.Valid() {
		return nil
	}
	var lines []string
	for _, issue := range report.Errors() {
		lines = append(lines, issue.Message)
	}
	return fmt.Errorf("graph has %d errors:\n- %s", len(lines), strings.Join(lines, "\n- "))
}
