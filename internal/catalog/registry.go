package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cory-johannsen/goap/internal/goap"
)

// Domain is a built catalogue ready for planning.
type Domain struct {
	Catalog *Catalog
	Schema  *Schema
	Actions []goap.Action
	ZoneID  string
}

// Registry indexes built catalogues by ID.
//
// Invariant: each catalogue ID is registered at most once.
type Registry struct {
	mu      sync.RWMutex
	domains map[string]*Domain
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{domains: make(map[string]*Domain)}
}

// Register builds c against caller and stores the result under c.ID.
//
// Precondition: c must not be nil.
// Postcondition: returns error on ID collision or if Build fails.
func (r *Registry) Register(c *Catalog, caller ScriptCaller, zoneID string) (*Domain, error) {
	actions, err := c.Build(caller, zoneID)
	if err != nil {
		return nil, err
	}
	schema, err := c.Schema()
	if err != nil {
		return nil, err
	}
	d := &Domain{Catalog: c, Schema: schema, Actions: actions, ZoneID: zoneID}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.domains[c.ID]; exists {
		return nil, fmt.Errorf("catalog.Registry: catalog %q already registered", c.ID)
	}
	r.domains[c.ID] = d
	return d, nil
}

// Lookup returns the Domain for id, or false if not registered.
func (r *Registry) Lookup(id string) (*Domain, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.domains[id]
	return d, ok
}

// IDs returns the registered IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.domains))
	for id := range r.domains {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
