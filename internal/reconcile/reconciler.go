// Package reconcile applies inbound entity and collection payloads to a
// cache, whichever channel delivered them.
//
// The same merge procedure runs for push notifications and for REST
// responses. Upserts are idempotent, so a change confirmed by both channels
// converges to the same cached state regardless of arrival order.
package reconcile

import (
	"sync"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
)

// IsDeletionMarker reports whether raw carries only an "id" field, which the
// server uses to announce that the entity no longer exists.
func IsDeletionMarker(raw map[string]any) bool {
	if len(raw) != 1 {
		return false
	}
	_, ok := raw[cache.IDField]
	return ok
}

// Reconciler serialises every mutation of one collection.
type Reconciler struct {
	mu    sync.Mutex
	cache *cache.Collection
	codec Codec
}

// New returns a reconciler writing into c.
func New(c *cache.Collection, codec Codec) *Reconciler {
	return &Reconciler{cache: c, codec: codec}
}

// Codec returns the configured codec.
func (r *Reconciler) Codec() Codec {
	return r.codec
}

// ApplyEntity applies a single raw entity. A deletion marker removes the
// entity and yields (nil, nil); anything else is deserialised and upserted,
// and the cached instance is returned.
func (r *Reconciler) ApplyEntity(raw map[string]any) (*cache.Entity, error) {
	if IsDeletionMarker(raw) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.cache.Remove(raw[cache.IDField])
		return nil, nil
	}

	incoming, err := r.codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	return r.Upsert(incoming), nil
}

// Upsert applies an already deserialised entity.
func (r *Reconciler) Upsert(incoming *cache.Entity) *cache.Entity {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, cached := r.cache.Upsert(incoming)
	return cached
}

// Remove drops the entity with the given id.
func (r *Reconciler) Remove(id any) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cache.Remove(id)
}

// CollectionOption adjusts a collection-wide mutation.
type CollectionOption func(*collectionOp)

type collectionOp struct {
	guard func() bool
	then  func()
}

// If makes the mutation conditional: guard runs under the reconciler lock
// and the cache is left untouched when it reports false.
func If(guard func() bool) CollectionOption {
	return func(op *collectionOp) { op.guard = guard }
}

// Then runs fn under the reconciler lock right after the mutation, before
// any other mutation of the collection.
func Then(fn func()) CollectionOption {
	return func(op *collectionOp) { op.then = fn }
}

// ApplyCollection replaces the cached collection with raws, in order.
// Entities present before and after keep their identity. Every member is
// deserialised before the cache is touched, so a failure leaves the cache
// unchanged.
func (r *Reconciler) ApplyCollection(raws []map[string]any, opts ...CollectionOption) error {
	return r.collection(raws, opts, func(entities []*cache.Entity) {
		r.cache.Replace(entities)
	})
}

// MergeCollection upserts every member of raws without clearing the cache
// first, keeping entities that arrived on the push channel in the meantime.
func (r *Reconciler) MergeCollection(raws []map[string]any, opts ...CollectionOption) error {
	return r.collection(raws, opts, func(entities []*cache.Entity) {
		for _, e := range entities {
			r.cache.Upsert(e)
		}
	})
}

func (r *Reconciler) collection(raws []map[string]any, opts []CollectionOption, apply func([]*cache.Entity)) error {
	var op collectionOp
	for _, opt := range opts {
		opt(&op)
	}

	entities, err := r.decodeAll(raws)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if op.guard != nil && !op.guard() {
		return nil
	}
	apply(entities)
	if op.then != nil {
		op.then()
	}
	return nil
}

func (r *Reconciler) decodeAll(raws []map[string]any) ([]*cache.Entity, error) {
	entities := make([]*cache.Entity, 0, len(raws))
	for _, raw := range raws {
		e, err := r.codec.Decode(raw)
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return entities, nil
}
