package goap

import "context"

// Status is the result of one poll of an action's execution step.
type Status int

const (
	// Running means the action is not complete; poll again later.
	Running Status = iota
	// Success means the action completed.
	Success
	// Failure means the action cannot complete; the rest of the plan is abandoned.
	Failure
)

// Terminal reports whether s ends the action.
func (s Status) Terminal() bool { return s == Success || s == Failure }

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Action is a planning and execution capability.
//
// Forward and backward members must be consistent inverses of one another,
// otherwise backward search produces plans that forward search would not.
//
// Invariant: Cost and ReversedCost return non-negative, deterministic values.
type Action interface {
	Name() string

	// IsForwardValid reports whether the action applies to s.
	IsForwardValid(s WorldState) bool
	// IsBackwardValid reports whether s may be the result of the action.
	IsBackwardValid(s WorldState) bool

	// ApplyEffects returns the state after the action.
	ApplyEffects(s WorldState) WorldState
	// ApplyReversedEffects returns a state from which the action yields s.
	ApplyReversedEffects(s WorldState) WorldState

	// Cost returns the cost of applying the action to s.
	Cost(s WorldState) int

	// Execute performs one step of the action. It is polled until it returns
	// a terminal Status.
	Execute(ctx context.Context) Status
}

// ReversedCoster is implemented by actions whose backward cost differs from
// their forward cost.
type ReversedCoster interface {
	ReversedCost(s WorldState) int
}

// ReversedCost returns the backward cost of a at s, defaulting to a.Cost(s).
func ReversedCost(a Action, s WorldState) int {
	if rc, ok := a.(ReversedCoster); ok {
		return rc.ReversedCost(s)
	}
	return a.Cost(s)
}

// FuncAction implements Action with function fields.
//
// Nil fields default to: precondition true, identity effect, cost 0,
// execution Success. A nil ReversedCostFn falls back to CostFn.
type FuncAction struct {
	ActionName     string
	ForwardValid   func(WorldState) bool
	BackwardValid  func(WorldState) bool
	Effects        func(WorldState) WorldState
	ReversedEffect func(WorldState) WorldState
	CostFn         func(WorldState) int
	ReversedCostFn func(WorldState) int
	ExecuteFn      func(context.Context) Status
}

func (a *FuncAction) Name() string { return a.ActionName }

func (a *FuncAction) IsForwardValid(s WorldState) bool {
	if a.ForwardValid == nil {
		return true
	}
	return a.ForwardValid(s)
}

func (a *FuncAction) IsBackwardValid(s WorldState) bool {
	if a.BackwardValid == nil {
		return true
	}
	return a.BackwardValid(s)
}

func (a *FuncAction) ApplyEffects(s WorldState) WorldState {
	if a.Effects == nil {
		return s
	}
	return a.Effects(s)
}

func (a *FuncAction) ApplyReversedEffects(s WorldState) WorldState {
	if a.ReversedEffect == nil {
		return s
	}
	return a.ReversedEffect(s)
}

func (a *FuncAction) Cost(s WorldState) int {
	if a.CostFn == nil {
		return 0
	}
	return a.CostFn(s)
}

func (a *FuncAction) ReversedCost(s WorldState) int {
	if a.ReversedCostFn == nil {
		return a.Cost(s)
	}
	return a.ReversedCostFn(s)
}

func (a *FuncAction) Execute(ctx context.Context) Status {
	if a.ExecuteFn == nil {
		return Success
	}
	return a.ExecuteFn(ctx)
}

// Names returns the names of actions in order.
func Names(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = a.Name()
	}
	return out
}
