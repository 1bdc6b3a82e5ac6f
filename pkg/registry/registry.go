// Package registry holds host functions callable from script expressions.
// A Registry passed to the engine as method provider makes its functions
// available to condition and instruction scripts, e.g. HasItem('rope').
package registry

import (
	"context"
	"fmt"
	"sync"
)

// Function is one script-callable host function. Arguments arrive in call
// order; the result must be a script value (bool, int64 or string) or nil.
type Function func(ctx context.Context, args []any) (any, error)

// Registry manages the available script functions.
// Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Function
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
	}
}

// Register adds a function under the given name.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

// Names returns the registered function names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	return out
}

// Call looks up a function by name and invokes it. It satisfies the method
// provider contract of the built-in script evaluator.
func (r *Registry) Call(ctx context.Context, name string, args []any) (any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("script function not found: %s", name)
	}

	return fn(ctx, args)
}
