package domain

import "strings"

// Script is an opaque expression attached to nodes and pins. The engine
// never interprets it; it is handed to the ScriptEvaluator as-is.
type Script struct {
	Expression string
	// IsCondition distinguishes gating expressions (evaluated to a bool)
	// from instructions (executed for effect).
	IsCondition bool
}

// IsEmpty reports whether there is anything to evaluate at all.
func (s Script) IsEmpty() bool {
	return strings.TrimSpace(s.Expression) == ""
}
