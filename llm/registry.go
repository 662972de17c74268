package llm

import (
	"sort"
	"sync"
)

// Registry is a thread-safe map from provider identifier to Provider, with a
// designated fallback for unknown identifiers. Unknown names never fail
// resolution: a misconfigured agent degrades to the fallback adapter's
// explanatory behavior instead of crashing the session.
type Registry struct {
	providers map[string]Provider
	fallback  Provider
	mu        sync.RWMutex
}

// NewRegistry creates a Registry with the given fallback provider. The
// fallback is used for every identifier that has no registration; it must not
// be nil.
func NewRegistry(fallback Provider) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		fallback:  fallback,
	}
}

// Register adds a provider under the given name, replacing any previous
// registration.
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
}

// Resolve returns the provider registered under name, or the fallback when
// the name is unknown.
func (r *Registry) Resolve(name string) Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.providers[name]; ok {
		return p
	}
	return r.fallback
}

// Get retrieves a provider by exact name, without fallback.
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// List returns the sorted names of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
