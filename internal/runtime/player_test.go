package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiobgc/dialogue-editor/internal/runtime"
	"github.com/studiobgc/dialogue-editor/internal/script"
	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

func TestPlayer_StateMachine(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, d2, 0)

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	assert.Equal(t, runtime.StateIdle, player.State())
	assert.Nil(t, player.Cursor())

	err := player.UpdateAvailableBranches(context.Background())
	assert.Error(t, err, "branches cannot be computed without a cursor")
	err = player.Play(context.Background(), 0)
	assert.Error(t, err, "play requires computed branches")

	require.NoError(t, player.SetCursorByID(d1.ID))
	assert.Equal(t, runtime.StatePositioned, player.State())

	require.NoError(t, player.UpdateAvailableBranches(context.Background()))
	assert.Equal(t, runtime.StatePaused, player.State(), "dialogue cursor pauses")

	err = player.Play(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNoBranches)

	require.NoError(t, player.Play(context.Background(), 0))
	assert.Equal(t, d2, player.Cursor())
	assert.Equal(t, runtime.StatePaused, player.State())
}

func TestPlayer_SetCursorFailures(t *testing.T) {
	f := newFixture(t)
	f.dialogue("D1", false)

	player := runtime.NewPlayer(f.database(), f.vars, script.New())

	var unresolved *domain.UnresolvedReferenceError
	err := player.SetCursorByID(domain.NewID(9, 9))
	require.ErrorAs(t, err, &unresolved)

	err = player.SetCursor(domain.Ref{})
	require.ErrorAs(t, err, &unresolved)

	err = player.SetCursorByName("Ghost")
	require.ErrorAs(t, err, &unresolved)

	require.NoError(t, player.SetCursorByName("D1"))
	assert.Equal(t, runtime.StatePositioned, player.State())
}

func TestPlayer_CommitIsolation(t *testing.T) {
	// Exploring through an instruction must not change committed state;
	// playing through it must.
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	instr := f.instruction("I1", "Score.Points += 7")
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, instr, 0)
	f.connect(instr, 0, d2, 0)

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))

	points, err := f.vars.GetInt("Score.Points")
	require.NoError(t, err)
	assert.Equal(t, int64(5), points, "lookahead must roll back")

	require.NoError(t, player.Play(context.Background(), 0))
	points, err = f.vars.GetInt("Score.Points")
	require.NoError(t, err)
	// Play commits the instruction once; the re-exploration at D2 runs
	// shadowed and leaves it alone.
	assert.Equal(t, int64(12), points)
	assert.Equal(t, d2, player.Cursor())
}

func TestPlayer_LookaheadSeesEarlierInstructions(t *testing.T) {
	// A condition later in the same lookahead depends on an instruction
	// executed earlier in that lookahead.
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	instr := f.instruction("I1", "Score.Points += 10")
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, instr, 0)
	f.connect(instr, 0, d2, 0)
	f.gate(d2, 0, "Score.Points >= 15")

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))

	branches := player.AvailableBranches()
	require.Len(t, branches, 1, "gate passes only because the instruction ran speculatively")
	assert.Equal(t, d2, branches[0].Target())
}

func TestPlayer_OutputPinInstructionCommitsOnPlayOnly(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, d2, 0)
	f.pinInstr(d1, 0, "Score.Points += 1")

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))

	points, _ := f.vars.GetInt("Score.Points")
	assert.Equal(t, int64(5), points, "exit instructions do not run during exploration")

	require.NoError(t, player.Play(context.Background(), 0))
	points, _ = f.vars.GetInt("Score.Points")
	assert.Equal(t, int64(6), points)
}

func TestPlayer_FinishCurrentPausedObject(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, d2, 0)
	f.pinInstr(d1, 0, "Score.Points += 1")

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))

	err := player.FinishCurrentPausedObject(context.Background(), 0)
	assert.Error(t, err, "finishing requires a paused player")

	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))
	require.Equal(t, runtime.StatePaused, player.State())

	err = player.FinishCurrentPausedObject(context.Background(), 3)
	assert.Error(t, err, "pin index must exist")

	require.NoError(t, player.FinishCurrentPausedObject(context.Background(), 0))
	assert.Equal(t, runtime.StateAwaitingChoice, player.State())

	points, _ := f.vars.GetInt("Score.Points")
	assert.Equal(t, int64(6), points, "the exit instruction commits on finish")

	// Playing onward must not run the already-finished pin twice.
	require.NoError(t, player.Play(context.Background(), 0))
	points, _ = f.vars.GetInt("Score.Points")
	assert.Equal(t, int64(6), points)
	assert.Equal(t, d2, player.Cursor())
}

func TestPlayer_Hooks(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, d2, 0)

	var pausedOn []string
	var updates, shadowStarts, shadowEnds int
	hooks := domain.LifecycleHooks{
		OnPaused: func(_ context.Context, n *domain.Node) {
			pausedOn = append(pausedOn, n.TechnicalName)
		},
		OnBranchesUpdated: func(_ context.Context, bs []domain.Branch) { updates++ },
		OnShadowStart:     func(context.Context) { shadowStarts++ },
		OnShadowEnd:       func(context.Context) { shadowEnds++ },
	}

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue), runtime.WithHooks(hooks))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))

	assert.Equal(t, []string{"D1"}, pausedOn)
	assert.Equal(t, 1, updates)
	assert.Equal(t, 1, shadowStarts)
	assert.Equal(t, shadowStarts, shadowEnds, "shadow push/pop must balance")
	assert.Equal(t, 0, f.vars.ShadowLevel())
}

func TestPlayer_ShadowLimit(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)

	rec := &countingRecorder{}
	cfg := runtime.DefaultConfig()
	cfg.ShadowLevelLimit = 2
	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithConfig(cfg), runtime.WithRecorder(rec))
	require.NoError(t, player.SetCursorByID(d1.ID))

	// Saturate the shadow level as a nested lookahead would.
	f.vars.PushShadow()
	f.vars.PushShadow()
	defer func() {
		f.vars.PopShadow()
		f.vars.PopShadow()
	}()

	err := player.UpdateAvailableBranches(context.Background())
	var limitErr *domain.ShadowLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 2, limitErr.Limit)
	assert.Equal(t, 1, rec.shadowAborts)
}

func TestPlayer_NestedShadowedOperation(t *testing.T) {
	f := newFixture(t)
	f.dialogue("D1", false)

	player := runtime.NewPlayer(f.database(), f.vars, script.New())

	var inner error
	err := player.ShadowedOperation(context.Background(), func() {
		require.NoError(t, f.vars.SetInt("Score.Points", 50))
		inner = player.ShadowedOperation(context.Background(), func() {
			require.NoError(t, f.vars.SetInt("Score.Points", 60))
			assert.Equal(t, 2, f.vars.ShadowLevel())
		})
		points, _ := f.vars.GetInt("Score.Points")
		assert.Equal(t, int64(50), points)
	})
	require.NoError(t, err)
	require.NoError(t, inner)

	points, _ := f.vars.GetInt("Score.Points")
	assert.Equal(t, int64(5), points)
	assert.Equal(t, 0, f.vars.ShadowLevel())
}

func TestPlayer_SnapshotRestore(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, d2, 0)

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))
	require.NoError(t, player.Play(context.Background(), 0))
	require.NoError(t, f.vars.SetInt("Score.Points", 33))

	snap := player.Snapshot("session-1")
	assert.Equal(t, d2.ID, snap.Cursor.ID)
	assert.Equal(t, int64(33), snap.Variables["Score.Points"])

	// Fresh pair restored from the snapshot.
	g := newFixture(t)
	e1 := g.dialogue("D1", false)
	e2 := g.dialogue("D2", false)
	g.connect(e1, 0, e2, 0)
	restored := runtime.NewPlayer(g.database(), g.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))

	require.NoError(t, restored.RestoreSnapshot(snap))
	assert.Equal(t, e2.ID, restored.Cursor().ID)
	points, _ := g.vars.GetInt("Score.Points")
	assert.Equal(t, int64(33), points)
}

func TestPlayer_CommitDiagnosticsSurviveReexploration(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	d2 := f.dialogue("D2", false)
	f.pinInstr(d1, 0, "Broken.Var +=")
	f.connect(d1, 0, d2, 0)

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))
	require.Len(t, player.AvailableBranches(), 1)

	// The exit pin's instruction fails when the branch is committed. The
	// re-exploration from D2 must not wipe that record.
	require.NoError(t, player.Play(context.Background(), 0))
	assert.Equal(t, d2, player.Cursor())
	require.NotEmpty(t, player.Diagnostics())
	assert.ErrorContains(t, player.Diagnostics()[0], "execute instruction")

	// A fresh top-level update starts a clean slate.
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))
	assert.Empty(t, player.Diagnostics())
}

func TestPlayer_ScriptErrorIsDiagnosticNotFatal(t *testing.T) {
	f := newFixture(t)
	d1 := f.dialogue("D1", false)
	cond := f.condition("C1", "Broken.Var >")
	d2 := f.dialogue("D2", false)
	f.connect(d1, 0, cond, 0)
	f.connect(cond, 0, d2, 0)

	player := runtime.NewPlayer(f.database(), f.vars, script.New(),
		runtime.WithPauseMask(domain.PauseDialogue))
	require.NoError(t, player.SetCursorByID(d1.ID))
	require.NoError(t, player.UpdateAvailableBranches(context.Background()))

	assert.Empty(t, player.AvailableBranches(), "a broken condition is a failed gate")
	assert.NotEmpty(t, player.Diagnostics())
}
