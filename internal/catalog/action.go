package catalog

import (
	"context"
	"fmt"
	"math"

	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/goap/internal/goap"
)

// ScriptCaller is the interface required by catalogue actions to run Lua hooks.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given zone's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(zoneID, hook string, args ...lua.LValue) (lua.LValue, error)
	// CallFactsHook is CallHook with a predicate table as the first argument.
	CallFactsHook(zoneID, hook string, facts map[string]bool, args ...lua.LValue) (lua.LValue, error)
}

type masks struct {
	requires, forbids, sets, clears goap.WorldState
}

func compile(schema *Schema, a *ActionSpec) (masks, error) {
	var m masks
	var err error
	if m.requires, err = schema.Mask(a.Requires...); err != nil {
		return masks{}, fmt.Errorf("requires: %w", err)
	}
	if m.forbids, err = schema.Mask(a.Forbids...); err != nil {
		return masks{}, fmt.Errorf("forbids: %w", err)
	}
	if m.sets, err = schema.Mask(a.Sets...); err != nil {
		return masks{}, fmt.Errorf("sets: %w", err)
	}
	if m.clears, err = schema.Mask(a.Clears...); err != nil {
		return masks{}, fmt.Errorf("clears: %w", err)
	}
	return m, nil
}

// Action is a catalogue action bound to a script zone.
//
// Forward: valid iff requires ⊆ s, forbids ∩ s = ∅ and the precondition hook
// holds; the effect is (s | sets) &^ clears.
// Backward: valid iff s could be the result of the forward effect; the
// reversed effect reconstructs the least prior state.
//
// Invariant: caller is non-nil whenever spec declares a hook.
type Action struct {
	spec   *ActionSpec
	schema *Schema
	masks
	caller ScriptCaller
	zoneID string
}

var (
	_ goap.Action         = (*Action)(nil)
	_ goap.ReversedCoster = (*Action)(nil)
)

// Build validates c and returns one Action per ActionSpec, in declaration order.
// caller may be nil when no action declares a hook.
//
// Postcondition: returns error if c is invalid or a hook is declared without a caller.
func (c *Catalog) Build(caller ScriptCaller, zoneID string) ([]goap.Action, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}
	out := make([]goap.Action, 0, len(c.Actions))
	for _, spec := range c.Actions {
		if spec.HasHooks() && caller == nil {
			return nil, fmt.Errorf("catalog.Catalog %q action %q: declares Lua hooks but no script caller was given", c.ID, spec.Name)
		}
		m, err := compile(schema, spec)
		if err != nil {
			return nil, fmt.Errorf("catalog.Catalog %q action %q: %w", c.ID, spec.Name, err)
		}
		out = append(out, &Action{spec: spec, schema: schema, masks: m, caller: caller, zoneID: zoneID})
	}
	return out, nil
}

// Name returns the action name.
func (a *Action) Name() string { return a.spec.Name }

// Spec returns the declaration the action was built from.
func (a *Action) Spec() *ActionSpec { return a.spec }

func (a *Action) IsForwardValid(s goap.WorldState) bool {
	if !s.Has(a.requires) || s.HasAny(a.forbids) {
		return false
	}
	return a.precondition(s)
}

func (a *Action) IsBackwardValid(s goap.WorldState) bool {
	if !s.Has(a.sets) || s.HasAny(a.clears) {
		return false
	}
	// Requirements the action does not clear survive into s; forbidden
	// predicates it does not set stay clear.
	if !s.Has(a.requires&^a.clears) || s.HasAny(a.forbids&^a.sets) {
		return false
	}
	return a.precondition(a.ApplyReversedEffects(s))
}

func (a *Action) ApplyEffects(s goap.WorldState) goap.WorldState {
	return s.Set(a.sets).Clear(a.clears)
}

func (a *Action) ApplyReversedEffects(s goap.WorldState) goap.WorldState {
	return s.Clear(a.sets).Set(a.requires).Clear(a.forbids)
}

// Cost returns the cost hook's result for s rounded to the nearest integer
// (halves away from zero), or the declared cost when there is no hook or the
// hook does not return a non-negative number.
func (a *Action) Cost(s goap.WorldState) int {
	if a.spec.CostHook == "" {
		return a.spec.Cost
	}
	ret, err := a.caller.CallFactsHook(a.zoneID, a.spec.CostHook, a.schema.Facts(s), lua.LNumber(a.spec.Cost))
	if err != nil {
		return a.spec.Cost
	}
	n, ok := ret.(lua.LNumber)
	if !ok || n < 0 || math.IsNaN(float64(n)) {
		return a.spec.Cost
	}
	return int(math.Round(float64(n)))
}

// ReversedCost returns reversed_cost when declared, otherwise Cost(s).
func (a *Action) ReversedCost(s goap.WorldState) int {
	if a.spec.ReversedCost != nil {
		return *a.spec.ReversedCost
	}
	return a.Cost(s)
}

// Execute polls the execute hook once. Without a hook the action succeeds at
// once. A hook error or an unrecognised result is a Failure.
func (a *Action) Execute(ctx context.Context) goap.Status {
	if ctx.Err() != nil {
		return goap.Failure
	}
	if a.spec.ExecuteHook == "" {
		return goap.Success
	}
	ret, err := a.caller.CallHook(a.zoneID, a.spec.ExecuteHook, lua.LString(a.spec.Name))
	if err != nil {
		return goap.Failure
	}
	return ParseStatus(ret.String())
}

// precondition evaluates the precondition hook on s. Lua failures read as false.
func (a *Action) precondition(s goap.WorldState) bool {
	if a.spec.PreconditionHook == "" {
		return true
	}
	ret, err := a.caller.CallFactsHook(a.zoneID, a.spec.PreconditionHook, a.schema.Facts(s))
	if err != nil {
		return false
	}
	return lua.LVAsBool(ret)
}

// ParseStatus maps "running", "success" and "failure" to their goap.Status.
// Anything else is Failure.
func ParseStatus(s string) goap.Status {
	switch s {
	case "running":
		return goap.Running
	case "success":
		return goap.Success
	default:
		return goap.Failure
	}
}
