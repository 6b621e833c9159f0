package llm

import (
	"fmt"
	"sync"
)

// Registry provider registry
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Completer
	order     []string
}

// NewRegistry creates a new provider registry
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Completer),
	}
}

// Register registers a provider
func (r *Registry) Register(p Completer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = p
	r.order = append(r.order, name)
	return nil
}

// Get gets a provider by name
func (r *Registry) Get(name string) (Completer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.providers[name]
	return p, exists
}

// Names lists registered provider names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
