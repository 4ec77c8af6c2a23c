package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/goap/internal/catalog"
	"github.com/cory-johannsen/goap/internal/config"
	"github.com/cory-johannsen/goap/internal/execution"
	"github.com/cory-johannsen/goap/internal/goap"
	"github.com/cory-johannsen/goap/internal/scripting"
)

// globalScriptDir is the sub-directory of the script root shared by every catalogue.
const globalScriptDir = "global"

func parseDirection(s string) (goap.Direction, error) {
	switch goap.Direction(s) {
	case goap.Forward:
		return goap.Forward, nil
	case goap.Backward:
		return goap.Backward, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be 'forward' or 'backward'", s)
	}
}

// buildRegistry loads each catalogue's scripts from <ScriptDir>/<catalogue ID>
// when that directory exists and registers the catalogue under its ID, which
// doubles as the script zone.
func buildRegistry(catalogs []*catalog.Catalog, mgr *scripting.Manager, cfg config.ScriptingConfig, logger *zap.Logger) (*catalog.Registry, error) {
	if cfg.ScriptDir != "" {
		global := filepath.Join(cfg.ScriptDir, globalScriptDir)
		if isDir(global) {
			if err := mgr.LoadGlobal(global, cfg.InstructionLimit); err != nil {
				return nil, err
			}
			logger.Info("loaded global scripts", zap.String("dir", global))
		}
	}

	reg := catalog.NewRegistry()
	for _, c := range catalogs {
		var caller catalog.ScriptCaller
		if cfg.ScriptDir != "" {
			dir := filepath.Join(cfg.ScriptDir, c.ID)
			if isDir(dir) {
				if err := mgr.LoadZone(c.ID, dir, cfg.InstructionLimit); err != nil {
					return nil, err
				}
				logger.Debug("loaded catalogue scripts", zap.String("catalog", c.ID), zap.String("dir", dir))
			}
			caller = mgr
		}
		d, err := reg.Register(c, caller, c.ID)
		if err != nil {
			return nil, err
		}
		logger.Info("registered catalogue",
			zap.String("catalog", c.ID),
			zap.Int("predicates", d.Schema.Width()),
			zap.Int("actions", len(d.Actions)),
		)
	}
	return reg, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// selectDomain returns the catalogue named id. An empty id selects the only
// registered catalogue.
func selectDomain(reg *catalog.Registry, id string) (*catalog.Domain, error) {
	ids := reg.IDs()
	if id == "" {
		if len(ids) != 1 {
			return nil, fmt.Errorf("-catalog is required when %d catalogues are loaded (%s)", len(ids), strings.Join(ids, ", "))
		}
		id = ids[0]
	}
	d, ok := reg.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("unknown catalogue %q (loaded: %s)", id, strings.Join(ids, ", "))
	}
	return d, nil
}

// planFor plans from the catalogue's initial state to goalName. Both
// directions answer the same question and agree on the optimal cost.
func planFor(ctx context.Context, planner *goap.Planner, d *catalog.Domain, goalName string, dir goap.Direction) (goap.Plan, error) {
	initial, err := d.Catalog.InitialState()
	if err != nil {
		return goap.Plan{}, err
	}
	goal, err := d.Catalog.Goal(goalName)
	if err != nil {
		return goap.Plan{}, err
	}
	if dir == goap.Forward {
		return planner.Plan(ctx, initial, d.Actions, goal)
	}
	return planner.PlanBackwardFromGoal(ctx, initial, d.Actions, goal)
}

type stepOutput struct {
	Action  string `json:"action"`
	Status  string `json:"status"`
	Polls   int    `json:"polls"`
	Elapsed string `json:"elapsed"`
}

type resultOutput struct {
	Catalog   string       `json:"catalog"`
	Goal      string       `json:"goal"`
	Direction string       `json:"direction"`
	Actions   []string     `json:"actions"`
	Cost      int          `json:"cost"`
	Nodes     int          `json:"nodes"`
	Leaves    int          `json:"leaves"`
	RunID     string       `json:"run_id,omitempty"`
	Completed *bool        `json:"completed,omitempty"`
	Steps     []stepOutput `json:"steps,omitempty"`
}

func newResultOutput(d *catalog.Domain, goalName string, plan goap.Plan, report *execution.Report) resultOutput {
	out := resultOutput{
		Catalog:   d.Catalog.ID,
		Goal:      goalName,
		Direction: string(plan.Direction),
		Actions:   plan.Names(),
		Cost:      plan.Cost,
		Nodes:     plan.Nodes,
		Leaves:    plan.Leaves,
	}
	if out.Actions == nil {
		out.Actions = []string{}
	}
	if report != nil {
		completed := report.Completed
		out.RunID = report.RunID.String()
		out.Completed = &completed
		for _, s := range report.Steps {
			out.Steps = append(out.Steps, stepOutput{
				Action:  s.Action,
				Status:  s.Status.String(),
				Polls:   s.Polls,
				Elapsed: s.Elapsed.String(),
			})
		}
	}
	return out
}

// writeResult renders the plan, and the execution report when non-nil, to w.
func writeResult(w io.Writer, format string, d *catalog.Domain, goalName string, plan goap.Plan, report *execution.Report) error {
	out := newResultOutput(d, goalName, plan, report)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "text":
		return writeText(w, out)
	default:
		return errors.New("invalid format " + format + ": must be 'text' or 'json'")
	}
}

func writeText(w io.Writer, out resultOutput) error {
	var b strings.Builder
	fmt.Fprintf(&b, "catalog %s, goal %s (%s): cost %d, %d nodes, %d leaves\n",
		out.Catalog, out.Goal, out.Direction, out.Cost, out.Nodes, out.Leaves)
	for i, name := range out.Actions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, name)
	}
	if out.Completed != nil {
		fmt.Fprintf(&b, "run %s completed=%v\n", out.RunID, *out.Completed)
		for _, s := range out.Steps {
			fmt.Fprintf(&b, "  %s: %s after %d polls [%s]\n", s.Action, s.Status, s.Polls, s.Elapsed)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
