package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a 128-bit identifier compatible with the editor's export format.
// It is comparable, so it can be used directly as a map key.
type ID struct {
	High int64
	Low  int64
}

// NilID is the zero value, treated as "no object".
var NilID = ID{}

// NewID builds an ID from its two halves.
func NewID(high, low int64) ID {
	return ID{High: high, Low: low}
}

// IsValid reports whether the ID refers to an actual object.
// The all-zero value is reserved as invalid.
func (id ID) IsValid() bool {
	return id.High != 0 || id.Low != 0
}

// String renders the ID in the editor's canonical hex form, e.g.
// "0x0000000000000001000000000000002A".
func (id ID) String() string {
	return fmt.Sprintf("0x%016X%016X", uint64(id.High), uint64(id.Low))
}

// ParseID parses the canonical hex form produced by String.
// The "0x" prefix is optional. Shorter strings are padded from the left,
// so "0x2A" is the ID with High=0, Low=0x2A.
func ParseID(s string) (ID, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if clean == "" {
		return NilID, fmt.Errorf("parse id: empty string")
	}
	if len(clean) > 32 {
		return NilID, fmt.Errorf("parse id %q: too long", s)
	}
	if len(clean) < 32 {
		clean = strings.Repeat("0", 32-len(clean)) + clean
	}

	high, err := strconv.ParseUint(clean[:16], 16, 64)
	if err != nil {
		return NilID, fmt.Errorf("parse id %q: %w", s, err)
	}
	low, err := strconv.ParseUint(clean[16:], 16, 64)
	if err != nil {
		return NilID, fmt.Errorf("parse id %q: %w", s, err)
	}
	return ID{High: int64(high), Low: int64(low)}, nil
}

// MustParseID is a test and fixture helper that panics on malformed input.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Ref points at a node, optionally inside a cloned sub-graph.
// When ReferenceBase is set the ref always resolves against the template
// (clone index 0) regardless of the stored clone index.
type Ref struct {
	ID            ID
	CloneIndex    int
	ReferenceBase bool
}

// NewRef returns a ref to the base object with the given ID.
func NewRef(id ID) Ref {
	return Ref{ID: id, ReferenceBase: true}
}

// IsValid reports whether the ref points at anything.
func (r Ref) IsValid() bool {
	return r.ID.IsValid()
}

// EffectiveCloneIndex resolves the clone index the ref actually addresses.
func (r Ref) EffectiveCloneIndex() int {
	if r.ReferenceBase {
		return 0
	}
	return r.CloneIndex
}
