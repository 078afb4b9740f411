package agent

import (
	"sort"
	"sync"

	"github.com/BaSui01/pipeflow/types"
)

// Registry maps agent names to definitions. Forward targets are resolved
// against it at routing time, never at construction time.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition. Registering the same name twice is an error.
func (r *Registry) Register(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.defs[def.Name()]; dup {
		return types.NewErrorf(types.ErrInvalidAgentDef, "agent %q already registered", def.Name())
	}
	r.defs[def.Name()] = def
	return nil
}

// MustRegister registers each definition and panics on conflict. Intended
// for program start-up wiring.
func (r *Registry) MustRegister(defs ...*Definition) {
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
}

// Resolve returns the definition registered under name.
func (r *Registry) Resolve(name string) (*Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return nil, types.NewErrorf(types.ErrAgentNotFound, "agent %q not registered", name)
	}
	return def, nil
}

// Names returns the registered agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
