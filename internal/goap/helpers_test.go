package goap_test

import (
	"github.com/cory-johannsen/goap/internal/goap"
	"pgregory.net/rapid"
)

const (
	hasAxe     = goap.WorldState(1 << 1)
	hasPickaxe = goap.WorldState(1 << 2)
	hasWood    = goap.WorldState(1 << 3)
	hasRock    = goap.WorldState(1 << 4)

	woodDomain = hasAxe | hasPickaxe | hasWood | hasRock
)

// ruleAction is a declarative action whose forward and backward halves are
// exact inverses: the forward precondition forbids every bit it sets and
// requires every bit it clears, so the predecessor of a state is unique.
type ruleAction struct {
	name     string
	cost     int
	requires goap.WorldState
	forbids  goap.WorldState
	sets     goap.WorldState
	clears   goap.WorldState
}

func rule(name string, cost int, requires, forbids, sets, clears goap.WorldState) *goap.FuncAction {
	r := ruleAction{
		name:     name,
		cost:     cost,
		requires: requires | clears,
		forbids:  forbids | sets,
		sets:     sets,
		clears:   clears,
	}
	forwardValid := func(s goap.WorldState) bool {
		return s.Has(r.requires) && !s.HasAny(r.forbids)
	}
	reverse := func(s goap.WorldState) goap.WorldState {
		return s.Clear(r.sets).Set(r.clears)
	}
	return &goap.FuncAction{
		ActionName:   r.name,
		ForwardValid: forwardValid,
		BackwardValid: func(s goap.WorldState) bool {
			return s.Has(r.sets) && !s.HasAny(r.clears) && forwardValid(reverse(s))
		},
		Effects:        func(s goap.WorldState) goap.WorldState { return s.Set(r.sets).Clear(r.clears) },
		ReversedEffect: reverse,
		CostFn:         func(goap.WorldState) int { return r.cost },
	}
}

// woodcutting is the simple deterministic-cost catalogue.
func woodcutting() []goap.Action {
	return []goap.Action{
		&goap.FuncAction{
			ActionName:   "GetAxe",
			ForwardValid: func(s goap.WorldState) bool { return !s.HasAny(hasPickaxe) },
			Effects:      func(s goap.WorldState) goap.WorldState { return s.Set(hasAxe) },
			CostFn:       func(goap.WorldState) int { return 5 },
		},
		&goap.FuncAction{
			ActionName:   "GetPickaxe",
			ForwardValid: func(s goap.WorldState) bool { return !s.HasAny(hasAxe) },
			Effects:      func(s goap.WorldState) goap.WorldState { return s.Set(hasPickaxe) },
			CostFn:       func(goap.WorldState) int { return 5 },
		},
		&goap.FuncAction{
			ActionName:   "ChopWood",
			ForwardValid: func(s goap.WorldState) bool { return s.Has(hasAxe) },
			Effects:      func(s goap.WorldState) goap.WorldState { return s.Set(hasWood) },
			CostFn:       func(goap.WorldState) int { return 10 },
		},
		&goap.FuncAction{
			ActionName: "GetSticks",
			Effects:    func(s goap.WorldState) goap.WorldState { return s.Set(hasWood) },
			CostFn:     func(goap.WorldState) int { return 20 },
		},
		&goap.FuncAction{
			ActionName:   "GetRock",
			ForwardValid: func(s goap.WorldState) bool { return s.Has(hasPickaxe) },
			Effects:      func(s goap.WorldState) goap.WorldState { return s.Set(hasRock) },
			CostFn:       func(goap.WorldState) int { return 10 },
		},
	}
}

// drawMask draws a subset of woodDomain.
func drawMask(t *rapid.T, label string) goap.WorldState {
	return goap.WorldState(rapid.Uint64Range(0, 15).Draw(t, label)) << 1
}

// drawCatalogue draws between 1 and maxActions consistent rule actions.
func drawCatalogue(t *rapid.T, maxActions int) []goap.Action {
	n := rapid.IntRange(1, maxActions).Draw(t, "actions")
	out := make([]goap.Action, n)
	for i := range out {
		sets := drawMask(t, "sets")
		clears := drawMask(t, "clears").Clear(sets)
		requires := drawMask(t, "requires")
		forbids := drawMask(t, "forbids").Clear(requires)
		cost := rapid.IntRange(0, 20).Draw(t, "cost")
		out[i] = rule(string(rune('A'+i)), cost, requires.Clear(sets), forbids.Clear(clears), sets, clears)
	}
	return out
}

func minCost(leaves []goap.Leaf) (int, bool) {
	best := goap.GetBestLeaves(leaves)
	if len(best) == 0 {
		return 0, false
	}
	return best[0].Cost(), true
}
