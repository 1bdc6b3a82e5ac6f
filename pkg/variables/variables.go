// Package variables implements the global variable store shared by a flow
// player: namespaced Bool/Int/String variables plus the shadow mechanism
// that makes speculative (lookahead) mutation reversible.
package variables

import (
	"fmt"
	"strings"

	"github.com/studiobgc/dialogue-editor/pkg/domain"
)

// Type enumerates the supported variable types.
type Type uint8

const (
	TypeBool Type = iota
	TypeInt
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "Boolean"
	case TypeInt:
		return "Integer"
	case TypeString:
		return "String"
	default:
		return "Unknown"
	}
}

// Variable is one typed value. The live value is always read and written
// directly; shadow bookkeeping happens in the store's undo journal.
type Variable struct {
	Name string
	Type Type

	value any // bool, int64 or string, matching Type
	// mark is the shadow level at which this variable last recorded an
	// undo entry. It lets Set snapshot lazily: one record per variable
	// per level, on first mutation.
	mark int
}

// Value returns the live value.
func (v *Variable) Value() any { return v.value }

// Namespace groups variables under a shared prefix. Insertion order is
// preserved for enumeration only.
type Namespace struct {
	Name  string
	order []string
	vars  map[string]*Variable
}

// Variables returns the namespace's variables in declaration order.
func (n *Namespace) Variables() []*Variable {
	out := make([]*Variable, 0, len(n.order))
	for _, name := range n.order {
		out = append(out, n.vars[name])
	}
	return out
}

type undoRecord struct {
	variable  *Variable
	prior     any
	priorMark int
	level     int
}

// Store owns all namespaces of one player instance plus the shadow level
// counter. It is not safe for concurrent use; a player and its store are an
// independent owned pair.
type Store struct {
	order      []string
	namespaces map[string]*Namespace

	shadowLevel int
	journal     []undoRecord

	// onChanged fires on committed (level-0) sets only.
	onChanged func(name string)
}

// NewStore creates an empty variable store.
func NewStore() *Store {
	return &Store{
		namespaces: make(map[string]*Namespace),
	}
}

// SetChangeHook registers a callback fired with the full variable name on
// every committed mutation. Speculative sets never fire it.
func (s *Store) SetChangeHook(fn func(name string)) {
	s.onChanged = fn
}

// Namespaces returns all namespaces in declaration order.
func (s *Store) Namespaces() []*Namespace {
	out := make([]*Namespace, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.namespaces[name])
	}
	return out
}

func splitName(fullName string) (ns, name string, ok bool) {
	i := strings.IndexByte(fullName, '.')
	if i <= 0 || i == len(fullName)-1 {
		return "", "", false
	}
	return fullName[:i], fullName[i+1:], true
}

// Declare registers a variable under its full "Namespace.Variable" name,
// creating the namespace on demand. Redeclaring an existing name replaces
// its value and type; importers rely on this for package reloads.
func (s *Store) Declare(fullName string, typ Type, value any) error {
	nsName, varName, ok := splitName(fullName)
	if !ok {
		return fmt.Errorf("declare %q: name must be Namespace.Variable", fullName)
	}
	value, err := coerce(fullName, typ, value)
	if err != nil {
		return err
	}

	ns := s.namespaces[nsName]
	if ns == nil {
		ns = &Namespace{Name: nsName, vars: make(map[string]*Variable)}
		s.namespaces[nsName] = ns
		s.order = append(s.order, nsName)
	}
	if existing, found := ns.vars[varName]; found {
		existing.Type = typ
		existing.value = value
		return nil
	}
	ns.vars[varName] = &Variable{Name: fullName, Type: typ, value: value}
	ns.order = append(ns.order, varName)
	return nil
}

func coerce(fullName string, typ Type, value any) (any, error) {
	switch typ {
	case TypeBool:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case TypeInt:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case float64:
			// JSON numbers arrive as float64.
			return int64(v), nil
		}
	case TypeString:
		if v, ok := value.(string); ok {
			return v, nil
		}
	}
	return nil, &domain.TypeMismatchError{Name: fullName, Want: typ.String(), Got: fmt.Sprintf("%T", value)}
}

// Resolve returns the variable for a full name, or an UnknownVariableError.
func (s *Store) Resolve(fullName string) (*Variable, error) {
	nsName, varName, ok := splitName(fullName)
	if ok {
		if ns := s.namespaces[nsName]; ns != nil {
			if v := ns.vars[varName]; v != nil {
				return v, nil
			}
		}
	}
	return nil, &domain.UnknownVariableError{Name: fullName}
}

// Exists reports whether a full variable name resolves.
func (s *Store) Exists(fullName string) bool {
	_, err := s.Resolve(fullName)
	return err == nil
}

// GetBool returns a boolean variable's live value.
func (s *Store) GetBool(fullName string) (bool, error) {
	v, err := s.typed(fullName, TypeBool)
	if err != nil {
		return false, err
	}
	return v.value.(bool), nil
}

// GetInt returns an integer variable's live value.
func (s *Store) GetInt(fullName string) (int64, error) {
	v, err := s.typed(fullName, TypeInt)
	if err != nil {
		return 0, err
	}
	return v.value.(int64), nil
}

// GetString returns a string variable's live value.
func (s *Store) GetString(fullName string) (string, error) {
	v, err := s.typed(fullName, TypeString)
	if err != nil {
		return "", err
	}
	return v.value.(string), nil
}

// SetBool mutates a boolean variable's live value.
func (s *Store) SetBool(fullName string, value bool) error {
	v, err := s.typed(fullName, TypeBool)
	if err != nil {
		return err
	}
	s.set(v, value)
	return nil
}

// SetInt mutates an integer variable's live value.
func (s *Store) SetInt(fullName string, value int64) error {
	v, err := s.typed(fullName, TypeInt)
	if err != nil {
		return err
	}
	s.set(v, value)
	return nil
}

// SetString mutates a string variable's live value.
func (s *Store) SetString(fullName string, value string) error {
	v, err := s.typed(fullName, TypeString)
	if err != nil {
		return err
	}
	s.set(v, value)
	return nil
}

// Get returns the live value of any variable, untyped.
func (s *Store) Get(fullName string) (any, error) {
	v, err := s.Resolve(fullName)
	if err != nil {
		return nil, err
	}
	return v.value, nil
}

// Set mutates any variable's live value, coercing compatible inputs.
func (s *Store) Set(fullName string, value any) error {
	v, err := s.Resolve(fullName)
	if err != nil {
		return err
	}
	coerced, err := coerce(fullName, v.Type, value)
	if err != nil {
		return err
	}
	s.set(v, coerced)
	return nil
}

func (s *Store) typed(fullName string, typ Type) (*Variable, error) {
	v, err := s.Resolve(fullName)
	if err != nil {
		return nil, err
	}
	if v.Type != typ {
		return nil, &domain.TypeMismatchError{Name: fullName, Want: typ.String(), Got: v.Type.String()}
	}
	return v, nil
}

// set writes the live value. Inside a shadow level the prior value is
// journaled once per level, so later conditions in the same lookahead
// observe the mutation while PopShadow can still roll it back.
func (s *Store) set(v *Variable, value any) {
	if s.shadowLevel > 0 {
		if v.mark < s.shadowLevel {
			s.journal = append(s.journal, undoRecord{
				variable:  v,
				prior:     v.value,
				priorMark: v.mark,
				level:     s.shadowLevel,
			})
			v.mark = s.shadowLevel
		}
		v.value = value
		return
	}
	v.value = value
	if s.onChanged != nil {
		s.onChanged(v.Name)
	}
}

// ShadowLevel returns the current nesting depth of speculative contexts.
func (s *Store) ShadowLevel() int { return s.shadowLevel }

// PushShadow opens a speculative context. Snapshotting is lazy: a variable
// journals its prior value on first mutation after the push, which is
// observably identical to snapshotting everything eagerly.
func (s *Store) PushShadow() {
	s.shadowLevel++
}

// PopShadow closes the innermost speculative context, restoring every
// variable mutated since the matching PushShadow to the exact value it held
// immediately before the push. Records are drained in LIFO order.
func (s *Store) PopShadow() {
	if s.shadowLevel == 0 {
		return
	}
	for len(s.journal) > 0 {
		rec := s.journal[len(s.journal)-1]
		if rec.level != s.shadowLevel {
			break
		}
		rec.variable.value = rec.prior
		rec.variable.mark = rec.priorMark
		s.journal = s.journal[:len(s.journal)-1]
	}
	s.shadowLevel--
}

// Snapshot returns all committed values keyed by full name. Calling it
// inside a shadow operation would capture speculative values, so players
// only snapshot at rest.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any)
	for _, nsName := range s.order {
		ns := s.namespaces[nsName]
		for _, varName := range ns.order {
			v := ns.vars[varName]
			out[v.Name] = v.value
		}
	}
	return out
}

// Restore applies previously snapshotted values. Unknown names are
// reported, not silently dropped.
func (s *Store) Restore(values map[string]any) error {
	for name, value := range values {
		if err := s.Set(name, value); err != nil {
			return fmt.Errorf("restore: %w", err)
		}
	}
	return nil
}
