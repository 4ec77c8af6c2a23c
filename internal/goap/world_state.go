// Package goap implements a Goal-Oriented Action Planner.
//
// A world is described by a fixed-width bitset of boolean predicates. Actions
// carry forward and backward preconditions, effects and costs; the planner
// builds a search tree from the start state towards a goal (or from the goal
// back towards the start) with branch-and-bound pruning, and the cheapest leaf
// is unrolled into an ordered action sequence.
package goap

import "fmt"

// WorldState is an immutable bitset of up to 64 boolean predicates.
//
// Invariant: every method returns a new value; the receiver is never modified.
type WorldState uint64

// None is the reserved wildcard mask. A Goal mask equal to None disables the
// corresponding check. Bit 0 is therefore never used as a domain predicate.
const None WorldState = 1 << 0

// MaxPredicates is the number of bits available to domain predicates.
const MaxPredicates = 63

// Bit returns the mask with only predicate i set.
//
// Precondition: 1 <= i <= MaxPredicates.
func Bit(i int) WorldState {
	if i < 1 || i > MaxPredicates {
		panic(fmt.Sprintf("goap.Bit: predicate index %d out of range [1, %d]", i, MaxPredicates))
	}
	return WorldState(1) << uint(i)
}

// Union returns s | other.
func (s WorldState) Union(other WorldState) WorldState { return s | other }

// Difference returns s &^ other.
func (s WorldState) Difference(other WorldState) WorldState { return s &^ other }

// Intersect returns s & other.
func (s WorldState) Intersect(other WorldState) WorldState { return s & other }

// Has reports whether every bit of mask is set in s.
func (s WorldState) Has(mask WorldState) bool { return s&mask == mask }

// HasAny reports whether at least one bit of mask is set in s.
func (s WorldState) HasAny(mask WorldState) bool { return s&mask != 0 }

// Equal reports bitwise equality.
func (s WorldState) Equal(other WorldState) bool { return s == other }

// Set is an alias of Union that reads better when applying effects.
func (s WorldState) Set(mask WorldState) WorldState { return s | mask }

// Clear is an alias of Difference that reads better when applying effects.
func (s WorldState) Clear(mask WorldState) WorldState { return s &^ mask }

// String renders the state as a hex mask.
func (s WorldState) String() string { return fmt.Sprintf("%#x", uint64(s)) }

// Goal describes the set of acceptable world states.
//
// Active holds predicates that must be set, Inactive predicates that must be
// clear. Either mask may be None to disable its check.
type Goal struct {
	Active   WorldState
	Inactive WorldState
}

// NewGoal returns a Goal requiring active and forbidding inactive.
func NewGoal(active, inactive WorldState) Goal {
	return Goal{Active: active, Inactive: inactive}
}

// Want returns a Goal that only requires active.
func Want(active WorldState) Goal {
	return Goal{Active: active, Inactive: None}
}

// ExactGoal returns a Goal matched only by state within the predicates of
// domain. It is used as the termination check of backward search.
//
// Postcondition: MatchGoal(s, ExactGoal(state, domain)) iff s&domain == state&domain.
func ExactGoal(state, domain WorldState) Goal {
	domain = domain.Clear(None)
	return Goal{Active: state & domain, Inactive: domain.Clear(state)}
}

// Matches reports whether s satisfies g. See MatchGoal.
func (g Goal) Matches(s WorldState) bool { return MatchGoal(s, g) }

// MatchGoal is the MatchFunc for the bitset Goal.
//
// The None wildcard is checked before the mask comparison so an absent mask
// never degenerates into "all bits clear".
func MatchGoal(s WorldState, g Goal) bool {
	if g.Active != None && s&g.Active != g.Active {
		return false
	}
	if g.Inactive != None && s&g.Inactive != 0 {
		return false
	}
	return true
}

// MatchFunc reports whether a state satisfies a goal descriptor of any type.
type MatchFunc[G any] func(state WorldState, goal G) bool
