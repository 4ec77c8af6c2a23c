// Package catalog loads declarative planning domains from YAML.
//
// A catalogue names its predicates, describes each action as masks over those
// predicates and optionally delegates cost, precondition and execution to Lua
// hooks. Built catalogues yield goap.Action values for the planner.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/goap/internal/goap"
)

// ActionSpec declares one action.
//
// Precondition: Name must be non-empty; Cost must be non-negative.
// Precondition: hook fields are Lua function names; empty means no hook.
type ActionSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Cost        int      `yaml:"cost"`
	Requires    []string `yaml:"requires,omitempty"`
	Forbids     []string `yaml:"forbids,omitempty"`
	Sets        []string `yaml:"sets,omitempty"`
	Clears      []string `yaml:"clears,omitempty"`
	// ReversedCost overrides Cost during backward search.
	ReversedCost     *int   `yaml:"reversed_cost,omitempty"`
	CostHook         string `yaml:"cost_hook,omitempty"`
	PreconditionHook string `yaml:"precondition_hook,omitempty"`
	ExecuteHook      string `yaml:"execute_hook,omitempty"`
}

// HasHooks reports whether any Lua hook is declared.
func (a *ActionSpec) HasHooks() bool {
	return a.CostHook != "" || a.PreconditionHook != "" || a.ExecuteHook != ""
}

// GoalSpec declares a named goal. An empty list disables that side of the check.
type GoalSpec struct {
	Name     string   `yaml:"name"`
	Active   []string `yaml:"active,omitempty"`
	Inactive []string `yaml:"inactive,omitempty"`
}

// Catalog is one planning domain.
//
// Invariant (after Validate): action, goal and predicate names are unique and
// every referenced predicate is declared.
type Catalog struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description,omitempty"`
	Predicates  []string      `yaml:"predicates"`
	Initial     []string      `yaml:"initial,omitempty"`
	Actions     []*ActionSpec `yaml:"actions"`
	Goals       []*GoalSpec   `yaml:"goals,omitempty"`
}

// Validate checks all required fields and cross-field constraints.
//
// Postcondition: nil return guarantees a non-empty ID, a valid Schema, at least
// one action, unique action and goal names, non-negative costs, only declared
// predicates, disjoint sets/clears and requires/forbids, and disjoint goal masks.
func (c *Catalog) Validate() error {
	if c.ID == "" {
		return errors.New("catalog.Catalog: ID must not be empty")
	}
	schema, err := NewSchema(c.Predicates)
	if err != nil {
		return fmt.Errorf("catalog.Catalog %q: %w", c.ID, err)
	}
	if len(c.Actions) == 0 {
		return fmt.Errorf("catalog.Catalog %q: must have at least one action", c.ID)
	}
	if _, err := schema.Mask(c.Initial...); err != nil {
		return fmt.Errorf("catalog.Catalog %q initial: %w", c.ID, err)
	}

	actionNames := make(map[string]struct{}, len(c.Actions))
	for _, a := range c.Actions {
		if a == nil || a.Name == "" {
			return fmt.Errorf("catalog.Catalog %q: action has empty name", c.ID)
		}
		if _, dup := actionNames[a.Name]; dup {
			return fmt.Errorf("catalog.Catalog %q: duplicate action %q", c.ID, a.Name)
		}
		actionNames[a.Name] = struct{}{}
		if a.Cost < 0 {
			return fmt.Errorf("catalog.Catalog %q action %q: cost must not be negative", c.ID, a.Name)
		}
		if a.ReversedCost != nil && *a.ReversedCost < 0 {
			return fmt.Errorf("catalog.Catalog %q action %q: reversed_cost must not be negative", c.ID, a.Name)
		}
		m, err := compile(schema, a)
		if err != nil {
			return fmt.Errorf("catalog.Catalog %q action %q: %w", c.ID, a.Name, err)
		}
		if m.sets&m.clears != 0 {
			return fmt.Errorf("catalog.Catalog %q action %q: sets and clears overlap on %v", c.ID, a.Name, schema.Names(m.sets&m.clears))
		}
		if m.requires&m.forbids != 0 {
			return fmt.Errorf("catalog.Catalog %q action %q: requires and forbids overlap on %v", c.ID, a.Name, schema.Names(m.requires&m.forbids))
		}
	}

	goalNames := make(map[string]struct{}, len(c.Goals))
	for _, g := range c.Goals {
		if g == nil || g.Name == "" {
			return fmt.Errorf("catalog.Catalog %q: goal has empty name", c.ID)
		}
		if _, dup := goalNames[g.Name]; dup {
			return fmt.Errorf("catalog.Catalog %q: duplicate goal %q", c.ID, g.Name)
		}
		goalNames[g.Name] = struct{}{}
		active, err := schema.Mask(g.Active...)
		if err != nil {
			return fmt.Errorf("catalog.Catalog %q goal %q: %w", c.ID, g.Name, err)
		}
		inactive, err := schema.Mask(g.Inactive...)
		if err != nil {
			return fmt.Errorf("catalog.Catalog %q goal %q: %w", c.ID, g.Name, err)
		}
		if active&inactive != 0 {
			return fmt.Errorf("catalog.Catalog %q goal %q: active and inactive overlap on %v", c.ID, g.Name, schema.Names(active&inactive))
		}
	}
	return nil
}

// Schema returns the predicate schema.
func (c *Catalog) Schema() (*Schema, error) {
	return NewSchema(c.Predicates)
}

// InitialState returns the mask of the initial predicates.
func (c *Catalog) InitialState() (goap.WorldState, error) {
	schema, err := c.Schema()
	if err != nil {
		return 0, err
	}
	return schema.Mask(c.Initial...)
}

// Goal builds the named goal. An empty active or inactive list becomes goap.None.
//
// Postcondition: returns error if no goal has that name.
func (c *Catalog) Goal(name string) (goap.Goal, error) {
	schema, err := c.Schema()
	if err != nil {
		return goap.Goal{}, err
	}
	for _, g := range c.Goals {
		if g.Name != name {
			continue
		}
		goal := goap.Goal{Active: goap.None, Inactive: goap.None}
		if len(g.Active) > 0 {
			if goal.Active, err = schema.Mask(g.Active...); err != nil {
				return goap.Goal{}, err
			}
		}
		if len(g.Inactive) > 0 {
			if goal.Inactive, err = schema.Mask(g.Inactive...); err != nil {
				return goap.Goal{}, err
			}
		}
		return goal, nil
	}
	return goap.Goal{}, fmt.Errorf("catalog.Catalog %q: unknown goal %q", c.ID, name)
}

// GoalNames returns the declared goal names in declaration order.
func (c *Catalog) GoalNames() []string {
	out := make([]string, 0, len(c.Goals))
	for _, g := range c.Goals {
		out = append(out, g.Name)
	}
	return out
}

// yamlCatalogFile wraps the YAML top-level key.
type yamlCatalogFile struct {
	Catalog *Catalog `yaml:"catalog"`
}

// Decode parses and validates one catalogue document.
//
// Postcondition: returns error if the document lacks a top-level 'catalog' key
// or fails Validate.
func Decode(data []byte) (*Catalog, error) {
	var f yamlCatalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("catalog.Decode: %w", err)
	}
	if f.Catalog == nil {
		return nil, errors.New("catalog.Decode: missing top-level 'catalog' key")
	}
	if err := f.Catalog.Validate(); err != nil {
		return nil, err
	}
	return f.Catalog, nil
}

// Encode renders c as a catalogue document accepted by Decode.
func Encode(c *Catalog) ([]byte, error) {
	data, err := yaml.Marshal(yamlCatalogFile{Catalog: c})
	if err != nil {
		return nil, fmt.Errorf("catalog.Encode: %w", err)
	}
	return data, nil
}

// LoadCatalogs reads all *.yaml and *.yml files from dir and returns parsed
// catalogues sorted by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any file fails to parse or validate, or if
// two files declare the same ID.
// Postcondition: returns (nil, nil) if dir contains no catalogue files.
func LoadCatalogs(dir string) ([]*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadCatalogs: reading %q: %w", dir, err)
	}
	var catalogs []*Catalog
	seen := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("catalog.LoadCatalogs: reading %s: %w", e.Name(), err)
		}
		c, err := Decode(data)
		if err != nil {
			return nil, fmt.Errorf("catalog.LoadCatalogs: %s: %w", e.Name(), err)
		}
		if prev, dup := seen[c.ID]; dup {
			return nil, fmt.Errorf("catalog.LoadCatalogs: %s redeclares catalog %q from %s", e.Name(), c.ID, prev)
		}
		seen[c.ID] = e.Name()
		catalogs = append(catalogs, c)
	}
	sort.Slice(catalogs, func(i, j int) bool { return catalogs[i].ID < catalogs[j].ID })
	return catalogs, nil
}
