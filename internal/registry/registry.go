// Package registry tracks named engine instances. A Registry is an explicit
// object passed to whatever owns the engines' lifecycle; there is no
// process-global instance.
package registry

import (
	"sort"
	"sync"

	"github.com/taskwell/taskwell/internal/engine"
	apperrors "github.com/taskwell/taskwell/internal/errors"
)

// Registry maps engine names to running engine instances.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]*engine.Engine
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{engines: make(map[string]*engine.Engine)}
}

// Register adds an engine under the given name. Registering a name twice
// is an error; remove the old engine first.
func (r *Registry) Register(name string, e *engine.Engine) error {
	if name == "" {
		return apperrors.NewValidationError("engine name must not be empty").WithField("name")
	}
	if e == nil {
		return apperrors.NewValidationError("engine must not be nil").WithField("engine")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.engines[name]; ok {
		return apperrors.Wrapf(apperrors.ErrDuplicateID, "engine %q", name)
	}
	r.engines[name] = e
	return nil
}

// Get returns the engine registered under name.
func (r *Registry) Get(name string) (*engine.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.engines[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("engine", name)
	}
	return e, nil
}

// Remove unregisters the named engine without stopping it. It returns the
// removed engine so the caller can stop or drain it.
func (r *Registry) Remove(name string) (*engine.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.engines[name]
	if !ok {
		return nil, apperrors.NewNotFoundError("engine", name)
	}
	delete(r.engines, name)
	return e, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}

// StopAll stops every registered engine and clears the registry.
func (r *Registry) StopAll() {
	r.mu.Lock()
	engines := r.engines
	r.engines = make(map[string]*engine.Engine)
	r.mu.Unlock()

	for _, e := range engines {
		e.Stop()
	}
}
