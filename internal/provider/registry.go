package provider

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrProviderNotFound is returned when no provider handles a category.
type ErrProviderNotFound struct {
	Category string
}

func (e ErrProviderNotFound) Error() string {
	return fmt.Sprintf("no provider for category '%s'\nHint: ensure the provider is registered before applying", e.Category)
}

// Registry maps category names to providers. Adding a category means
// registering a provider, not editing the reconciler.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider under its category.
func (r *Registry) Register(p Provider) error {
	if p == nil {
		return fmt.Errorf("provider is nil")
	}

	category := strings.TrimSpace(p.Category())
	if category == "" {
		return fmt.Errorf("provider %T has an empty category", p)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[category]; exists {
		return fmt.Errorf("provider for category '%s' already registered", category)
	}

	r.providers[category] = p
	return nil
}

// MustRegister registers every provider and panics on the first error. It is
// meant for static wiring at startup.
func (r *Registry) MustRegister(providers ...Provider) *Registry {
	for _, p := range providers {
		if err := r.Register(p); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the provider for category.
func (r *Registry) Get(category string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[category]
	if !ok {
		return nil, ErrProviderNotFound{Category: category}
	}
	return p, nil
}

// Categories returns the registered categories in sorted order.
func (r *Registry) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
