// Package ticket holds the per-target-system adapters that translate a
// routing verdict into each system's ticket-creation schema.
package ticket

import (
	"context"
	"sort"

	"github.com/linnemanlabs/dispatch/internal/alert"
	"github.com/linnemanlabs/dispatch/internal/classify"
)

// Adapter creates a ticket (or equivalent record) in one external system.
type Adapter interface {
	// Target is the system identifier verdicts reference.
	Target() string

	// Create files the ticket and returns the external identifier
	// (case id, incident number, issue key, ...).
	Create(ctx context.Context, rec *alert.Record, v *classify.Verdict) (string, error)
}

// Registry holds the adapters routing can dispatch to, keyed by target.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, keyed by its Target.
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Target()] = a
}

// Get retrieves an adapter by target name.
func (r *Registry) Get(target string) (Adapter, bool) {
	a, ok := r.adapters[target]
	return a, ok
}

// Targets returns the registered target names in sorted order.
func (r *Registry) Targets() []string {
	out := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
