package registry

import (
	"sync"

	"scenarist/internal/api"
	"scenarist/internal/match"
	"scenarist/internal/scenario"
)

// Registry holds the compiled scenario definitions by ID. Registration
// validates and compiles up front so the selection hot path only ever sees
// well-formed, pre-compiled rules.
type Registry struct {
	mu        sync.RWMutex
	scenarios map[string]*match.CompiledScenario
	order     []string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{scenarios: make(map[string]*match.CompiledScenario)}
}

// Register validates, compiles, and stores a definition. Registering an ID
// twice is rejected: duplicate scenario IDs are a configuration mistake, not
// an update. Use Replace for reload semantics.
func (r *Registry) Register(def *scenario.Definition) error {
	compiled, err := prepare(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scenarios[def.ID]; exists {
		return api.NewAlreadyExistsError("scenario", def.ID)
	}
	r.scenarios[def.ID] = compiled
	r.order = append(r.order, def.ID)
	return nil
}

// Replace validates, compiles, and stores a definition, overwriting any
// existing scenario with the same ID. This is the hot-reload path.
func (r *Registry) Replace(def *scenario.Definition) error {
	compiled, err := prepare(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.scenarios[def.ID]; !exists {
		r.order = append(r.order, def.ID)
	}
	r.scenarios[def.ID] = compiled
	return nil
}

func prepare(def *scenario.Definition) (*match.CompiledScenario, error) {
	if err := scenario.Validate(def); err != nil {
		return nil, err
	}
	return match.Compile(def)
}

// Get returns the compiled scenario for an ID.
func (r *Registry) Get(id string) (*match.CompiledScenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	compiled, ok := r.scenarios[id]
	return compiled, ok
}

// List returns the registered definitions in registration order.
func (r *Registry) List() []*scenario.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]*scenario.Definition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.scenarios[id].Definition)
	}
	return defs
}

// EnsureDefault verifies the fallback-tier scenario exists. Called once at
// startup: a missing "default" scenario is a configuration error and must
// not surface as a per-request failure later.
func (r *Registry) EnsureDefault() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.scenarios[api.DefaultScenarioID]; !ok {
		return api.NewNotFoundError("scenario", api.DefaultScenarioID)
	}
	return nil
}

// LoadPath loads every definition file under path into the registry.
// Duplicate IDs across files are registration errors.
func (r *Registry) LoadPath(path string) error {
	defs, err := scenario.LoadPath(path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// ReloadFile re-reads one definition file, replacing the scenarios it
// declares. Used by the watcher.
func (r *Registry) ReloadFile(path string) error {
	defs, err := scenario.LoadFile(path)
	if err != nil {
		return err
	}
	for _, def := range defs {
		if err := r.Replace(def); err != nil {
			return err
		}
	}
	return nil
}
