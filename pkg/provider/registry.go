package provider

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry manages the registration and retrieval of engine adapters. It is
// the composition seam between the provider core and whatever presentation
// layer consumes it.
type Registry struct {
	mu       sync.RWMutex
	adapters map[Engine]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[Engine]Adapter)}
}

// Register registers an adapter, replacing any previous adapter for the same
// engine.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Type()] = a
}

// Get retrieves an adapter by engine. Returns ErrAdapterNotFound when the
// engine has no registered adapter.
func (r *Registry) Get(engine Engine) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[engine]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAdapterNotFound, engine)
	}
	return a, nil
}

// GetByName retrieves an adapter by engine name or alias.
func (r *Registry) GetByName(name string) (Adapter, error) {
	engine, ok := ParseEngine(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown engine %q", ErrAdapterNotFound, name)
	}
	return r.Get(engine)
}

// IsRegistered reports whether an adapter exists for the engine.
func (r *Registry) IsRegistered(engine Engine) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.adapters[engine]
	return ok
}

// ListRegistered returns the registered engines, sorted.
func (r *Registry) ListRegistered() []Engine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engines := make([]Engine, 0, len(r.adapters))
	for e := range r.adapters {
		engines = append(engines, e)
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i] < engines[j] })
	return engines
}

// Open resolves the adapter for an engine name or alias and connects with
// the given config.
func (r *Registry) Open(ctx context.Context, name string, cfg Config) (Connection, error) {
	a, err := r.GetByName(name)
	if err != nil {
		return nil, err
	}
	conn, err := a.Connect(ctx, cfg)
	if err != nil {
		return nil, WrapError(a.Type(), "connect", err)
	}
	return conn, nil
}

// WithConnection opens a connection, runs fn, and closes the connection on
// every exit path including panics. This is the scoped-resource shape every
// logical operation is expected to use.
func (r *Registry) WithConnection(ctx context.Context, name string, cfg Config, fn func(Connection) error) error {
	conn, err := r.Open(ctx, name, cfg)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)
	return fn(conn)
}

// globalRegistry is the default process-wide registry adapters self-register
// into from their package init functions.
var globalRegistry = NewRegistry()

// Register registers an adapter in the global registry.
func Register(a Adapter) {
	globalRegistry.Register(a)
}

// GetAdapter retrieves an adapter from the global registry.
func GetAdapter(engine Engine) (Adapter, error) {
	return globalRegistry.Get(engine)
}

// GetAdapterByName retrieves an adapter from the global registry by name or
// alias.
func GetAdapterByName(name string) (Adapter, error) {
	return globalRegistry.GetByName(name)
}

// ListRegistered returns the engines registered in the global registry.
func ListRegistered() []Engine {
	return globalRegistry.ListRegistered()
}

// Open connects through the global registry.
func Open(ctx context.Context, name string, cfg Config) (Connection, error) {
	return globalRegistry.Open(ctx, name, cfg)
}

// WithConnection runs fn under the scoped-resource discipline using the
// global registry.
func WithConnection(ctx context.Context, name string, cfg Config, fn func(Connection) error) error {
	return globalRegistry.WithConnection(ctx, name, cfg, fn)
}

// GlobalRegistry returns the global adapter registry.
func GlobalRegistry() *Registry {
	return globalRegistry
}
