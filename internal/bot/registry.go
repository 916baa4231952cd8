package bot

import (
	"fmt"
	"sync"
)

// Registry keeps modules in registration order, keyed by name.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	byName map[string]Module
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Module)}
}

// Register adds m. It panics if a module with the same name is already registered,
// since two modules would then compete for the same commands.
func (r *Registry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	if _, dup := r.byName[name]; dup {
		panic(fmt.Sprintf("bot: module %q registered twice", name))
	}
	r.byName[name] = m
	r.order = append(r.order, name)
}

// Lookup returns the module registered under name.
func (r *Registry) Lookup(name string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.byName[name]
	return m, ok
}

// Modules returns the registered modules in registration order.
// The returned slice is a copy.
func (r *Registry) Modules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Module, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

var globalRegistry = NewRegistry()

// Register adds a module to the global registry. Modules call it from init().
func Register(m Module) {
	globalRegistry.Register(m)
}

// Modules returns all modules from the global registry.
func Modules() []Module {
	return globalRegistry.Modules()
}

// ResetGlobalRegistry empties the global registry. Tests only.
func ResetGlobalRegistry() {
	globalRegistry = NewRegistry()
}
