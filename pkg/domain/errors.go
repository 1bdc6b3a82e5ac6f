package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoBranches is returned when playing is requested but no branch list
// has been computed, or the requested index is out of range.
var ErrNoBranches = errors.New("no branches available")

// UnresolvedReferenceError reports an ID or name lookup miss. Recoverable:
// the operation degrades to "nothing found" and the caller decides.
type UnresolvedReferenceError struct {
	ID   ID
	Name string
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unresolved reference: no object named %q", e.Name)
	}
	return fmt.Sprintf("unresolved reference: no object with id %s", e.ID)
}

// UnknownVariableError reports a variable-store miss. The store never
// silently defaults a missing variable.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}

// TypeMismatchError reports an access through the wrong typed accessor.
type TypeMismatchError struct {
	Name string
	Want string
	Got  string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("variable %q is %s, not %s", e.Name, e.Got, e.Want)
}

// DepthLimitError reports that exploration was truncated by the depth
// guard. It is surfaced so truncation is never mistaken for "no branches".
type DepthLimitError struct {
	Limit int
}

func (e *DepthLimitError) Error() string {
	return fmt.Sprintf("exploration depth limit %d exceeded", e.Limit)
}

// ShadowLimitError reports that nested speculative execution exceeded the
// configured shadow level limit and the nested operation was aborted.
type ShadowLimitError struct {
	Limit int
}

func (e *ShadowLimitError) Error() string {
	return fmt.Sprintf("shadow level limit %d exceeded", e.Limit)
}
