package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiobgc/dialogue-editor/internal/script"
	"github.com/studiobgc/dialogue-editor/pkg/variables"
)

func newVars(t *testing.T) *variables.Store {
	t.Helper()
	s := variables.NewStore()
	require.NoError(t, s.Declare("Score.Points", variables.TypeInt, 10))
	require.NoError(t, s.Declare("Flags.MetGuard", variables.TypeBool, false))
	require.NoError(t, s.Declare("Player.Name", variables.TypeString, "Rook"))
	return s
}

func TestEvaluator_Conditions(t *testing.T) {
	vars := newVars(t)
	eval := script.New()
	ctx := context.Background()

	cases := []struct {
		expr string
		want bool
	}{
		{"true", true},
		{"false", false},
		{"Score.Points >= 10", true},
		{"Score.Points > 10", false},
		{"Score.Points == 10", true},
		{"Score.Points != 10", false},
		{"Flags.MetGuard", false},
		{"!Flags.MetGuard", true},
		{"Player.Name == 'Rook'", true},
		{"Player.Name != \"Rook\"", false},
		{"Score.Points >= 5 && !Flags.MetGuard", true},
		{"Flags.MetGuard || Score.Points < 20", true},
		{"Flags.MetGuard && true || false", false},
		{"Score.Points + 5 == 15", true},
		{"Score.Points - 15 < 0", true},
	}
	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := eval.Evaluate(ctx, tc.expr, vars, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvaluator_ConditionErrors(t *testing.T) {
	vars := newVars(t)
	eval := script.New()
	ctx := context.Background()

	for _, tt := range []struct {
		expr string
		desc string
	}{
		{"Score.Points", "not a boolean result"},
		{"Ghost.Var == 1", "unknown variable"},
		{"Score.Points == 'ten'", "type mismatch"},
		{"Score.Points >= ", "truncated"},
		{"Player.Name && true", "non-bool operand"},
		{"Score.Points == 10 10", "trailing garbage"},
		{"Player.Name == 'unterm", "unterminated literal"},
		{"bareword == 1", "identifier without namespace"},
	} {
		_, err := eval.Evaluate(ctx, tt.expr, vars, nil)
		assert.Error(t, err, "%s: %q should fail", tt.desc, tt.expr)
	}
}

func TestEvaluator_Execute(t *testing.T) {
	vars := newVars(t)
	eval := script.New()
	ctx := context.Background()

	require.NoError(t, eval.Execute(ctx, "Score.Points += 5", vars, nil))
	i, err := vars.GetInt("Score.Points")
	require.NoError(t, err)
	assert.Equal(t, int64(15), i)

	require.NoError(t, eval.Execute(ctx, "Score.Points -= 3; Flags.MetGuard = true; Player.Name = 'Shade'", vars, nil))
	i, _ = vars.GetInt("Score.Points")
	assert.Equal(t, int64(12), i)
	b, _ := vars.GetBool("Flags.MetGuard")
	assert.True(t, b)
	name, _ := vars.GetString("Player.Name")
	assert.Equal(t, "Shade", name)

	// Assignment from another variable and arithmetic on the right side.
	require.NoError(t, eval.Execute(ctx, "Score.Points = Score.Points + 8", vars, nil))
	i, _ = vars.GetInt("Score.Points")
	assert.Equal(t, int64(20), i)
}

func TestEvaluator_ExecuteErrors(t *testing.T) {
	vars := newVars(t)
	eval := script.New()
	ctx := context.Background()

	for _, expr := range []string{
		"Ghost.Var = 1",
		"Score.Points *= 2",
		"Flags.MetGuard += 1",
		"Score.Points =",
		"= 5",
	} {
		assert.Error(t, eval.Execute(ctx, expr, vars, nil), "instruction %q should fail", expr)
	}
}

// callerFunc adapts a function to the evaluator's method provider contract.
type callerFunc func(ctx context.Context, name string, args []any) (any, error)

func (f callerFunc) Call(ctx context.Context, name string, args []any) (any, error) {
	return f(ctx, name, args)
}

func TestEvaluator_FunctionCalls(t *testing.T) {
	vars := newVars(t)
	eval := script.New()
	ctx := context.Background()

	inventory := map[string]bool{"rope": true}
	var added []string
	provider := callerFunc(func(ctx context.Context, name string, args []any) (any, error) {
		switch name {
		case "HasItem":
			return inventory[args[0].(string)], nil
		case "AddItem":
			added = append(added, args[0].(string))
			return nil, nil
		case "Sum":
			return args[0].(int64) + args[1].(int64), nil
		}
		return nil, assert.AnError
	})

	got, err := eval.Evaluate(ctx, "HasItem('rope')", vars, provider)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = eval.Evaluate(ctx, "HasItem('lamp') || Score.Points >= 10", vars, provider)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = eval.Evaluate(ctx, "Sum(Score.Points, 2) == 12", vars, provider)
	require.NoError(t, err)
	assert.True(t, got)

	require.NoError(t, eval.Execute(ctx, "AddItem('torch'); Score.Points += 1", vars, provider))
	assert.Equal(t, []string{"torch"}, added)
}

func TestEvaluator_FunctionCallWithoutProvider(t *testing.T) {
	vars := newVars(t)
	eval := script.New()

	_, err := eval.Evaluate(context.Background(), "HasItem('rope')", vars, nil)
	assert.ErrorContains(t, err, "method provider")
}

func TestEvaluator_Parentheses(t *testing.T) {
	vars := newVars(t)
	eval := script.New()

	got, err := eval.Evaluate(context.Background(), "(Flags.MetGuard || true) && Score.Points == 10", vars, nil)
	require.NoError(t, err)
	assert.True(t, got)

	_, err = eval.Evaluate(context.Background(), "(Flags.MetGuard || true", vars, nil)
	assert.Error(t, err)
}

func TestEvaluator_SemicolonInsideString(t *testing.T) {
	vars := newVars(t)
	eval := script.New()

	require.NoError(t, eval.Execute(context.Background(), "Player.Name = 'a;b'", vars, nil))
	name, _ := vars.GetString("Player.Name")
	assert.Equal(t, "a;b", name)
}
