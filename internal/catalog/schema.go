package catalog

import (
	"fmt"
	"strings"

	"github.com/cory-johannsen/goap/internal/goap"
)

// Schema maps predicate names to world-state bits. Predicate i occupies
// goap.Bit(i+1); bit 0 stays reserved for goap.None.
//
// Invariant: names are unique and non-empty; len(names) <= goap.MaxPredicates.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a Schema from predicate names in declaration order.
//
// Postcondition: returns error on an empty or duplicate name or more than
// goap.MaxPredicates names.
func NewSchema(names []string) (*Schema, error) {
	if len(names) > goap.MaxPredicates {
		return nil, fmt.Errorf("catalog.Schema: %d predicates exceed the limit of %d", len(names), goap.MaxPredicates)
	}
	s := &Schema{names: append([]string(nil), names...), index: make(map[string]int, len(names))}
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("catalog.Schema: predicate %d has an empty name", i)
		}
		if _, dup := s.index[n]; dup {
			return nil, fmt.Errorf("catalog.Schema: duplicate predicate %q", n)
		}
		s.index[n] = i
	}
	return s, nil
}

// Width returns the number of predicates.
func (s *Schema) Width() int { return len(s.names) }

// Predicates returns the predicate names in bit order.
func (s *Schema) Predicates() []string { return append([]string(nil), s.names...) }

// Bit returns the mask of a single predicate.
func (s *Schema) Bit(name string) (goap.WorldState, bool) {
	i, ok := s.index[name]
	if !ok {
		return 0, false
	}
	return goap.Bit(i + 1), true
}

// Mask ORs the bits of names together.
//
// Postcondition: returns error naming the first unknown predicate.
func (s *Schema) Mask(names ...string) (goap.WorldState, error) {
	var m goap.WorldState
	for _, n := range names {
		b, ok := s.Bit(n)
		if !ok {
			return 0, fmt.Errorf("catalog.Schema: unknown predicate %q", n)
		}
		m |= b
	}
	return m, nil
}

// Domain returns the mask of every declared predicate.
func (s *Schema) Domain() goap.WorldState {
	var m goap.WorldState
	for i := range s.names {
		m |= goap.Bit(i + 1)
	}
	return m
}

// Names returns the predicates set in state, in bit order. Bits outside the
// schema are ignored.
func (s *Schema) Names(state goap.WorldState) []string {
	var out []string
	for i, n := range s.names {
		if state.Has(goap.Bit(i + 1)) {
			out = append(out, n)
		}
	}
	return out
}

// Facts returns every predicate with its truth value in state.
func (s *Schema) Facts(state goap.WorldState) map[string]bool {
	out := make(map[string]bool, len(s.names))
	for i, n := range s.names {
		out[n] = state.Has(goap.Bit(i + 1))
	}
	return out
}

// Describe renders state as "{a, b}" using predicate names.
func (s *Schema) Describe(state goap.WorldState) string {
	return "{" + strings.Join(s.Names(state), ", ") + "}"
}
