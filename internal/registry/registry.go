package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/specialistvlad/defigrid/internal/flowerr"
	"github.com/specialistvlad/defigrid/internal/handlers"
	"github.com/specialistvlad/defigrid/internal/nodetype"
)

// Module is the interface that all node modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the handler of every executable node type.
type Registry struct {
	mu       sync.RWMutex
	handlers map[nodetype.Type]*handlers.Handler
	frozen   bool
}

// New creates an empty, mutable registry.
func New() *Registry {
	return &Registry{handlers: make(map[nodetype.Type]*handlers.Handler)}
}

// Register adds h under its type. Registering a type twice, an incomplete
// handler, or anything after Freeze is a programming error and panics.
func (r *Registry) Register(h *handlers.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		panic(fmt.Errorf("registering %s: %w", h.Type, flowerr.ErrRegistryFrozen))
	}
	if h.Type == nodetype.Unknown || h.Template == nil || h.Live == nil {
		panic(fmt.Sprintf("handler for %s must set a type and both variants", h.Type))
	}
	if _, exists := r.handlers[h.Type]; exists {
		panic(fmt.Sprintf("handler for node type '%s' already registered", h.Type))
	}
	slog.Debug("Registering node handler.", "type", h.Type.String())
	r.handlers[h.Type] = h
}

// Freeze makes the registry read only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Lookup returns the handler for t.
func (r *Registry) Lookup(t nodetype.Type) (*handlers.Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	if !ok {
		return nil, fmt.Errorf("%s: %w", t, flowerr.ErrUnknownNodeType)
	}
	return h, nil
}

// Has reports whether a handler is registered for t.
func (r *Registry) Has(t nodetype.Type) bool {
	_, err := r.Lookup(t)
	return err == nil
}

// Types lists the registered types ordered by name.
func (r *Registry) Types() []nodetype.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]nodetype.Type, 0, len(r.handlers))
	for t := range r.handlers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Load registers every module and freezes the registry.
func Load(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	r.Freeze()
	return r
}
