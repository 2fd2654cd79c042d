package llm

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownBackend is returned when a generation backend name has no
// registered implementation. Configuration referencing an unknown backend
// fails at startup, never mid-pipeline.
var ErrUnknownBackend = errors.New("unknown generation backend")

// Registry holds the generation backends available to the serving process,
// keyed by name. Backends are constructed once at startup and reused; the
// registry is read-only afterwards.
type Registry struct {
	backends map[string]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{backends: make(map[string]Generator)}
}

// Register adds a backend under name, replacing any previous entry.
func (r *Registry) Register(name string, gen Generator) {
	r.backends[name] = gen
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Generator, error) {
	gen, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, r.Names())
	}
	return gen, nil
}

// Names lists the registered backend names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
