package goap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoPlan is returned by Planner when no leaf satisfies the goal.
var ErrNoPlan = errors.New("goap: no plan reaches the goal")

// Direction names the search direction of a Plan.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// SearchRecorder receives one observation per search.
type SearchRecorder interface {
	ObserveSearch(direction string, outcome string, nodes, pruned int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSearch(string, string, int, int, time.Duration) {}

// Settings configure a Planner.
type Settings struct {
	Options Options
	// Timeout bounds each search; zero means no timeout.
	Timeout time.Duration
}

// Plan is an ordered, executable action sequence.
type Plan struct {
	Direction Direction
	Actions   []Action
	Cost      int
	// Leaves is the number of goal-satisfying leaves the search produced.
	Leaves int
	// Nodes is the number of search nodes created.
	Nodes int
}

// Names returns the action names of p in execution order.
func (p Plan) Names() []string { return Names(p.Actions) }

// Planner wraps the graph builders with best-leaf selection, unrolling,
// timeouts, logging and metrics.
//
// Invariant: logger and recorder are non-nil.
type Planner struct {
	logger   *zap.Logger
	recorder SearchRecorder
	settings Settings
}

// NewPlanner constructs a Planner. A nil recorder records nothing.
//
// Precondition: logger must not be nil.
func NewPlanner(logger *zap.Logger, recorder SearchRecorder, settings Settings) *Planner {
	if logger == nil {
		panic("goap.NewPlanner: logger must not be nil")
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Planner{logger: logger, recorder: recorder, settings: settings}
}

// Plan searches forward from initial for the cheapest sequence reaching goal.
//
// Postcondition: returns ErrNoPlan when no leaf exists; a budget or context
// error is returned only when no plan was found before it occurred.
func (p *Planner) Plan(ctx context.Context, initial WorldState, actions []Action, goal Goal) (Plan, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	res, err := BuildGraph(ctx, initial, actions, goal, MatchGoal, p.settings.Options)
	return p.finish(Forward, res, err, start)
}

// PlanBackward searches from goalState back to initial and returns the plan
// in start-to-goal order.
//
// Precondition: actions implement consistent backward members.
func (p *Planner) PlanBackward(ctx context.Context, goalState WorldState, actions []Action, initial Goal) (Plan, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	start := time.Now()
	res, err := BuildReversedGraph(ctx, goalState, actions, initial, MatchGoal, p.settings.Options)
	return p.finish(Backward, res, err, start)
}

// PlanBackwardFromGoal answers the question Plan answers, searching backward.
// Every goal-satisfying state reachable from initial seeds one reversed search
// that ends at exactly initial; the cheapest plan over all seeds wins.
//
// Precondition: actions implement consistent backward members.
// Postcondition: returns ErrNoPlan when no seed leads back to initial.
func (p *Planner) PlanBackwardFromGoal(ctx context.Context, initial WorldState, actions []Action, goal Goal) (Plan, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	start := time.Now()

	seeds, err := GoalStates(ctx, initial, actions, goal, MatchGoal, p.settings.Options.MaxNodes)
	origin := ExactGoal(initial, ^WorldState(0))
	var merged Result
	for _, seed := range seeds {
		res, serr := BuildReversedGraph(ctx, seed, actions, origin, MatchGoal, p.settings.Options)
		merged.Leaves = append(merged.Leaves, res.Leaves...)
		merged.Nodes += res.Nodes
		merged.Pruned += res.Pruned
		if serr != nil {
			err = serr
			break
		}
	}
	p.logger.Debug("backward seeds", zap.Int("seeds", len(seeds)), zap.Stringer("initial", initial))
	return p.finish(Backward, merged, err, start)
}

func (p *Planner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.settings.Timeout > 0 {
		return context.WithTimeout(ctx, p.settings.Timeout)
	}
	return context.WithCancel(ctx)
}

func (p *Planner) finish(dir Direction, res Result, err error, start time.Time) (Plan, error) {
	elapsed := time.Since(start)
	fields := []zap.Field{
		zap.String("direction", string(dir)),
		zap.Int("leaves", len(res.Leaves)),
		zap.Int("nodes", res.Nodes),
		zap.Int("pruned", res.Pruned),
		zap.Duration("elapsed", elapsed),
	}

	best := GetBestLeaves(res.Leaves)
	if len(best) == 0 {
		if err != nil {
			p.recorder.ObserveSearch(string(dir), "error", res.Nodes, res.Pruned, elapsed)
			p.logger.Warn("search aborted", append(fields, zap.Error(err))...)
			return Plan{}, fmt.Errorf("goap: %s search: %w", dir, err)
		}
		p.recorder.ObserveSearch(string(dir), "no_plan", res.Nodes, res.Pruned, elapsed)
		p.logger.Info("no plan found", fields...)
		return Plan{}, ErrNoPlan
	}
	if err != nil {
		// A truncated search still yields its cheapest known plan.
		p.logger.Warn("search truncated, using best plan found", append(fields, zap.Error(err))...)
	}

	leaf := best[0]
	plan := Plan{
		Direction: dir,
		Actions:   Actions(UnrollLeaf(leaf, dir == Backward)),
		Cost:      leaf.Cost(),
		Leaves:    len(res.Leaves),
		Nodes:     res.Nodes,
	}
	outcome := "planned"
	if err != nil {
		outcome = "truncated"
	}
	p.recorder.ObserveSearch(string(dir), outcome, res.Nodes, res.Pruned, elapsed)
	p.logger.Debug("plan found", append(fields,
		zap.Int("cost", plan.Cost),
		zap.Int("best_leaves", len(best)),
		zap.Strings("actions", plan.Names()),
	)...)
	return plan, nil
}
