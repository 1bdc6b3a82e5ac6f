package ports

import "context"

// VariableAccessor is the variable-store surface a script evaluator sees.
// Reads and writes always hit the live value; during lookahead the player
// has already opened a shadow context, so evaluators never need a separate
// speculative path.
type VariableAccessor interface {
	Get(fullName string) (any, error)
	Set(fullName string, value any) error
	GetBool(fullName string) (bool, error)
	SetBool(fullName string, value bool) error
	GetInt(fullName string) (int64, error)
	SetInt(fullName string, value int64) error
	GetString(fullName string) (string, error)
	SetString(fullName string, value string) error
}

// ScriptEvaluator interprets the opaque script expressions attached to
// condition/instruction nodes and pins. Implementations must be pure with
// respect to anything outside the variable accessor and the method
// provider, or shadow rollback breaks.
type ScriptEvaluator interface {
	// Evaluate runs a condition expression and returns its boolean result.
	Evaluate(ctx context.Context, expression string, vars VariableAccessor, methodProvider any) (bool, error)

	// Execute runs an instruction expression for its side effects.
	Execute(ctx context.Context, expression string, vars VariableAccessor, methodProvider any) error
}
