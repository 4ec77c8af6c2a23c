// Package execution runs planned actions to completion.
//
// Each action is polled as a behaviour-tree leaf until it reports a terminal
// status. A Running result suspends only the current action; the executor
// waits PollInterval cooperatively and polls again.
package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bt "github.com/joeycumines/go-behaviortree"
	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/goap"
)

// ErrActionFailed is wrapped by ExecutePlan when an action reports Failure.
var ErrActionFailed = errors.New("execution: action failed")

// ErrPollBudgetExceeded is returned when an action is still running after MaxPolls polls.
var ErrPollBudgetExceeded = errors.New("execution: poll budget exceeded")

// Recorder receives per-action and per-plan observations.
type Recorder interface {
	ObserveAction(action, status string, polls int, elapsed time.Duration)
	ObservePlan(outcome string, steps int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAction(string, string, int, time.Duration) {}
func (nopRecorder) ObservePlan(string, int) {}

// Settings configure an Executor.
type Settings struct {
	// PollInterval is the delay between polls of a running action.
	PollInterval time.Duration
	// MaxPolls bounds the polls per action; zero means unbounded.
	MaxPolls int
}

// StepResult describes one executed action.
type StepResult struct {
	Action  string
	Status  goap.Status
	Polls   int
	Elapsed time.Duration
}

// Report summarises one ExecutePlan call.
type Report struct {
	RunID     uuid.UUID
	Steps     []StepResult
	Completed bool
	// FailedAt is the index of the failing action, or -1.
	FailedAt int
}

// Executor polls actions to completion.
//
// Invariant: logger and recorder are non-nil.
type Executor struct {
	logger   *zap.Logger
	recorder Recorder
	settings Settings
}

// NewExecutor constructs an Executor. A nil recorder records nothing.
//
// Precondition: logger must not be nil; settings.PollInterval >= 0.
func NewExecutor(logger *zap.Logger, recorder Recorder, settings Settings) *Executor {
	if logger == nil {
		panic("execution.NewExecutor: logger must not be nil")
	}
	if settings.PollInterval < 0 {
		panic("execution.NewExecutor: poll interval must not be negative")
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Executor{logger: logger, recorder: recorder, settings: settings}
}

// RunAction polls a until it succeeds or fails.
//
// Postcondition: returns (true, nil) on Success and (false, nil) on Failure.
// A non-nil error means the action was abandoned while still running.
func (e *Executor) RunAction(ctx context.Context, a goap.Action) (bool, error) {
	res, err := e.run(ctx, a)
	return res.Status == goap.Success, err
}

func (e *Executor) run(ctx context.Context, a goap.Action) (res StepResult, err error) {
	res = StepResult{Action: a.Name(), Status: goap.Running}
	node := Leaf(ctx, a)
	start := time.Now()
	defer func() {
		res.Elapsed = time.Since(start)
		e.recorder.ObserveAction(res.Action, res.Status.String(), res.Polls, res.Elapsed)
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		status, tickErr := node.Tick()
		res.Polls++
		if tickErr != nil {
			res.Status = goap.Failure
			return res, fmt.Errorf("execution: ticking %q: %w", res.Action, tickErr)
		}
		switch status {
		case bt.Success:
			res.Status = goap.Success
			return res, nil
		case bt.Failure:
			res.Status = goap.Failure
			return res, nil
		}

		if e.settings.MaxPolls > 0 && res.Polls >= e.settings.MaxPolls {
			return res, fmt.Errorf("%w: %q after %d polls", ErrPollBudgetExceeded, res.Action, res.Polls)
		}
		if e.settings.PollInterval <= 0 {
			continue
		}
		if timer == nil {
			timer = time.NewTimer(e.settings.PollInterval)
		} else {
			timer.Reset(e.settings.PollInterval)
		}
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case <-timer.C:
		}
	}
}

// ExecutePlan runs each action in order and stops at the first failure.
// Already completed actions are not rolled back.
//
// Postcondition: Report.Steps holds one entry per attempted action.
// A failed action yields an error wrapping ErrActionFailed.
func (e *Executor) ExecutePlan(ctx context.Context, actions []goap.Action) (Report, error) {
	report := Report{RunID: uuid.New(), FailedAt: -1}
	logger := e.logger.With(zap.String("run_id", report.RunID.String()))
	logger.Info("executing plan", zap.Strings("actions", goap.Names(actions)))

	for i, a := range actions {
		step, err := e.run(ctx, a)
		report.Steps = append(report.Steps, step)
		logger.Debug("action finished",
			zap.Int("step", i),
			zap.String("action", step.Action),
			zap.Stringer("status", step.Status),
			zap.Int("polls", step.Polls),
			zap.Duration("elapsed", step.Elapsed),
		)
		if err != nil {
			report.FailedAt = i
			e.recorder.ObservePlan("aborted", len(report.Steps))
			logger.Warn("plan aborted", zap.String("action", step.Action), zap.Error(err))
			return report, err
		}
		if step.Status == goap.Failure {
			report.FailedAt = i
			e.recorder.ObservePlan("failed", len(report.Steps))
			logger.Warn("action failed, abandoning plan",
				zap.String("action", step.Action),
				zap.Int("remaining", len(actions)-i-1),
			)
			return report, fmt.Errorf("%w: %q at step %d", ErrActionFailed, step.Action, i)
		}
	}

	report.Completed = true
	e.recorder.ObservePlan("completed", len(report.Steps))
	logger.Info("plan completed", zap.Int("steps", len(report.Steps)))
	return report, nil
}
