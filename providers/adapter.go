// Package providers defines the common Adapter contract every upstream
// economic-data source implements, plus the static registry the orchestrator
// dispatches through. A fixed table built once at startup from the adapters
// passed to NewRegistry, rather than a free-form Register() map populated via ad-hoc factory calls.
package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/econdata/econfed/internal/model"
	"github.com/econdata/econfed/internal/routing"
)

// Adapter is the uniform interface every provider package implements.
type Adapter interface {
	// Fetch retrieves a canonical series for the resolved indicator.
	// params carries request-scoped overrides (date range, country,
	// reporter/partner, transformation) keyed the same way as
	// model.ParsedIntent.Parameters.
	Fetch(ctx context.Context, indicator model.ResolvedIndicator, params map[string]string) (model.CanonicalSeries, error)
	// Tag returns the provider's closed routing tag.
	Tag() routing.ProviderTag
	// HealthCheck performs a cheap upstream reachability probe.
	HealthCheck(ctx context.Context) error
}

// Registry is a thread-safe, fixed-population lookup from ProviderTag to
// Adapter. Entries are populated once from a static table at startup
// (cmd/econfed wiring), not via ad-hoc Register() calls scattered through
// a factory switch/case.
type Registry struct {
	mu       sync.RWMutex
	adapters map[routing.ProviderTag]Adapter
}

// NewRegistry builds a Registry from the given adapters, keyed by their own
// Tag(). A later entry with the same tag replaces an earlier one.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[routing.ProviderTag]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Tag()] = a
	}
	return r
}

// Get returns the adapter registered for tag, if any.
func (r *Registry) Get(tag routing.ProviderTag) (Adapter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[tag]
	return a, ok
}

// MustGet panics if tag is not registered; used only during startup wiring
// where an unregistered adapter is a programming error, not a runtime one.
func (r *Registry) MustGet(tag routing.ProviderTag) Adapter {
	a, ok := r.Get(tag)
	if !ok {
		panic(fmt.Sprintf("providers: no adapter registered for %q", tag))
	}
	return a
}

// Tags returns every registered provider tag.
func (r *Registry) Tags() []routing.ProviderTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]routing.ProviderTag, 0, len(r.adapters))
	for t := range r.adapters {
		tags = append(tags, t)
	}
	return tags
}
