package goap

import (
	"context"
	"errors"
	"math"
)

// ErrNodeBudgetExceeded is returned when a search creates more than
// Options.MaxNodes nodes. The partial result is still returned.
var ErrNodeBudgetExceeded = errors.New("goap: search node budget exceeded")

// Options tune a single search.
type Options struct {
	// Pruning enables branch-and-bound: branches whose running cost exceeds
	// the cheapest complete plan found so far are discarded.
	Pruning bool
	// MaxNodes bounds the number of nodes created, excluding the root.
	// Zero means unbounded.
	MaxNodes int
	// ReuseActions lets an action appear more than once on a path. Cycles
	// are then cut on repeated world states instead of repeated actions.
	// MaxNodes should be set in this mode.
	ReuseActions bool
}

// Result is the outcome of one search.
type Result struct {
	// Tree holds every node created by the search.
	Tree *Tree
	// Leaves are the goal-satisfying nodes in discovery order.
	Leaves []Leaf
	// Nodes is the number of nodes created, excluding the root.
	Nodes int
	// Pruned is the number of branches discarded by the cost bound.
	Pruned int
}

// direction binds the forward or backward halves of the Action contract.
type direction struct {
	valid func(Action, WorldState) bool
	apply func(Action, WorldState) WorldState
	cost  func(Action, WorldState) int
}

var forward = direction{
	valid: func(a Action, s WorldState) bool { return a.IsForwardValid(s) },
	apply: func(a Action, s WorldState) WorldState { return a.ApplyEffects(s) },
	cost:  func(a Action, s WorldState) int { return a.Cost(s) },
}

var backward = direction{
	valid: func(a Action, s WorldState) bool { return a.IsBackwardValid(s) },
	apply: func(a Action, s WorldState) WorldState { return a.ApplyReversedEffects(s) },
	cost:  ReversedCost,
}

// BuildGraph searches forward from initial, recording every path whose end
// state matches goal as a leaf.
//
// Precondition: match is non-nil; action costs are non-negative.
// Postcondition: an empty Result.Leaves means no plan exists within the budget.
// On cancellation or budget exhaustion the partial Result is returned with the error.
func BuildGraph[G any](ctx context.Context, initial WorldState, actions []Action, goal G, match MatchFunc[G], opts Options) (Result, error) {
	return build(ctx, newTree(initial, false), actions, goal, match, opts, forward)
}

// BuildReversedGraph searches backward from goalState using the backward half
// of the Action contract. A branch ends when its state matches initialGoal,
// typically ExactGoal of the original start state.
//
// Leaves are ordered goal to start; unroll them with reversed set to true.
//
// Precondition: match is non-nil; action costs are non-negative.
func BuildReversedGraph[G any](ctx context.Context, goalState WorldState, actions []Action, initialGoal G, match MatchFunc[G], opts Options) (Result, error) {
	return build(ctx, newTree(goalState, true), actions, initialGoal, match, opts, backward)
}

func build[G any](ctx context.Context, tree *Tree, actions []Action, goal G, match MatchFunc[G], opts Options, dir direction) (Result, error) {
	if match == nil {
		panic("goap: match must not be nil")
	}
	b := &builder[G]{
		ctx:   ctx,
		tree:  tree,
		goal:  goal,
		match: match,
		opts:  opts,
		dir:   dir,
	}
	available := make([]Action, len(actions))
	copy(available, actions)
	_, err := b.expand(0, available, math.MaxInt)
	return Result{
		Tree:   tree,
		Leaves: b.leaves,
		Nodes:  tree.Len() - 1,
		Pruned: b.pruned,
	}, err
}

type builder[G any] struct {
	ctx    context.Context
	tree   *Tree
	goal   G
	match  MatchFunc[G]
	opts   Options
	dir    direction
	leaves []Leaf
	pruned int
}

// expand explores every applicable action below parent and returns the
// cheapest complete-plan cost known after the subtree, starting from best.
func (b *builder[G]) expand(parent NodeID, available []Action, best int) (int, error) {
	for i, a := range available {
		if err := b.ctx.Err(); err != nil {
			return best, err
		}
		p := b.tree.nodes[parent]
		if !b.dir.valid(a, p.State) {
			continue
		}
		running := p.Cost + b.dir.cost(a, p.State)
		if b.opts.Pruning && running > best {
			b.pruned++
			continue
		}
		state := b.dir.apply(a, p.State)
		if b.opts.ReuseActions && b.tree.onPath(parent, state) {
			continue
		}
		if b.opts.MaxNodes > 0 && b.tree.Len()-1 >= b.opts.MaxNodes {
			return best, ErrNodeBudgetExceeded
		}
		id := b.tree.add(parent, state, running, a)

		if b.match(state, b.goal) {
			b.leaves = append(b.leaves, Leaf{tree: b.tree, id: id})
			if running < best {
				best = running
			}
			continue
		}

		next := available
		if !b.opts.ReuseActions {
			next = without(available, i)
		}
		var err error
		if best, err = b.expand(id, next, best); err != nil {
			return best, err
		}
	}
	return best, nil
}

// without returns a copy of actions with index i removed.
func without(actions []Action, i int) []Action {
	out := make([]Action, 0, len(actions)-1)
	out = append(out, actions[:i]...)
	return append(out, actions[i+1:]...)
}
