// Package registry keeps the endpoints of an application by name and
// constructs each of them on first use.
package registry

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/endpoint"
)

type entry struct {
	cfg  endpoint.Config
	once sync.Once
	err  error
	// ep is set once construction succeeded.
	ep atomic.Pointer[endpoint.Endpoint]
}

func (e *entry) build(deps endpoint.Deps) {
	e.once.Do(func() {
		ep, err := endpoint.New(e.cfg, deps)
		if err != nil {
			e.err = err
			return
		}
		e.ep.Store(ep)
	})
}

// Registry maps collection names to lazily built endpoints sharing one set of
// dependencies.
type Registry struct {
	deps endpoint.Deps

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
	closed  bool
}

// New returns an empty registry whose endpoints are built with deps.
func New(deps endpoint.Deps) *Registry {
	return &Registry{
		deps:    deps,
		entries: make(map[string]*entry),
	}
}

// Register records cfg under cfg.Name. The endpoint is not built until the
// first Get.
func (r *Registry) Register(cfg endpoint.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if _, ok := r.entries[cfg.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateCollection, cfg.Name)
	}
	r.entries[cfg.Name] = &entry{cfg: cfg}
	r.order = append(r.order, cfg.Name)
	return nil
}

// RegisterCollections registers every collection of the file configuration.
// defaultEager applies to collections that do not set their own policy.
func (r *Registry) RegisterCollections(collections []config.Collection, defaultEager bool) error {
	for _, c := range collections {
		if err := r.Register(endpoint.FromCollection(c, defaultEager)); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the endpoint registered under name, building it on the first
// call. A construction error is returned on every later call as well.
func (r *Registry) Get(name string) (*endpoint.Endpoint, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := r.entries[name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}

	e.build(r.deps)
	if e.err != nil {
		return nil, e.err
	}
	return e.ep.Load(), nil
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Built returns the endpoints constructed so far, in registration order.
func (r *Registry) Built() []*endpoint.Endpoint {
	r.mu.Lock()
	defer r.mu.Unlock()

	built := make([]*endpoint.Endpoint, 0, len(r.order))
	for _, name := range r.order {
		if ep := r.entries[name].ep.Load(); ep != nil {
			built = append(built, ep)
		}
	}
	return built
}

// Close closes every built endpoint. Later calls to Register and Get fail
// with ErrClosed.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	entries := make([]*entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, r.entries[name])
	}
	r.mu.Unlock()

	for _, e := range entries {
		// blocks on a construction still in progress
		e.once.Do(func() { e.err = ErrClosed })
		if ep := e.ep.Load(); ep != nil {
			ep.Close()
		}
	}
}
