package goap

import "context"

// GoalStates returns, in discovery order, every state matching goal that is
// reachable from initial through at least one forward-valid action.
//
// A matching state is not expanded further, mirroring BuildGraph, which ends
// a branch at its first goal match. Action reuse is allowed here: the result
// only seeds reversed searches, which apply their own reuse policy.
//
// Precondition: match is non-nil.
// Postcondition: maxStates > 0 bounds the distinct states visited; exceeding it
// returns the states found so far with ErrNodeBudgetExceeded.
func GoalStates[G any](ctx context.Context, initial WorldState, actions []Action, goal G, match MatchFunc[G], maxStates int) ([]WorldState, error) {
	if match == nil {
		panic("goap: match must not be nil")
	}
	seen := map[WorldState]bool{initial: true}
	matched := make(map[WorldState]bool)
	var out []WorldState

	queue := []WorldState{initial}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		s := queue[0]
		queue = queue[1:]
		for _, a := range actions {
			if !a.IsForwardValid(s) {
				continue
			}
			next := a.ApplyEffects(s)
			if match(next, goal) {
				if !matched[next] {
					matched[next] = true
					out = append(out, next)
				}
				continue
			}
			if seen[next] {
				continue
			}
			if maxStates > 0 && len(seen) >= maxStates {
				return out, ErrNodeBudgetExceeded
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return out, nil
}
