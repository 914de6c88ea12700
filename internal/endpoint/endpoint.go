// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package endpoint binds one REST resource and its push events to a local
// entity cache.
//
// An Endpoint loads the collection once on demand, answers reads from the
// cache, writes through the REST client and keeps the cache in sync with the
// server by applying push notifications as they arrive.
package endpoint

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/MKhiriev/go-sync-cache/internal/adapter"
	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"github.com/MKhiriev/go-sync-cache/internal/events"
	"github.com/MKhiriev/go-sync-cache/internal/hub"
	"github.com/MKhiriev/go-sync-cache/internal/loader"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/reconcile"
	"github.com/MKhiriev/go-sync-cache/internal/reference"
	"github.com/MKhiriev/go-sync-cache/models"
	"golang.org/x/sync/singleflight"
)

// Endpoint is the synchronised view of one server collection.
type Endpoint struct {
	cfg        Config
	rest       adapter.RESTClient
	publisher  events.Publisher
	log        *logger.Logger
	policy     reference.Policy
	collection *cache.Collection
	reconciler *reconcile.Reconciler
	loader     *loader.Coordinator

	reads singleflight.Group
	eager atomic.Bool

	closeOnce sync.Once
	subs      []*hub.Subscription
}

// New validates cfg, builds the cache and subscribes to the entity and
// collection push events on deps.Hub.
func New(cfg Config, deps Deps) (*Endpoint, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := deps.validate(cfg.Name); err != nil {
		return nil, err
	}

	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.ForCollection(cfg.Name)

	publisher := deps.Events
	if publisher == nil {
		publisher = nopPublisher{}
	}

	e := &Endpoint{
		cfg:       cfg,
		rest:      deps.REST,
		publisher: publisher,
		log:       log,
		policy:    cfg.References,
	}
	e.eager.Store(cfg.EagerUpdate)

	if e.policy == nil {
		log.Warn().Msg("no reference fields configured, every embedded object with an id is sent as a reference")
		e.policy = reference.AnyWithID()
	}

	opts := []cache.Option{cache.WithObserver(cache.ObserverFunc(e.observe))}
	if cfg.Merge != nil {
		opts = append(opts, cache.WithMerge(cfg.Merge))
	}
	e.collection = cache.NewCollection(opts...)
	e.reconciler = reconcile.New(e.collection, reconcile.Codec{
		Serialize:   cfg.Serialize,
		Deserialize: cfg.Deserialize,
	})

	loaderCfg := loader.Config{
		Materialize: e.materialize,
		OnError:     e.loadFailed,
		OnLoaded: func() {
			e.publish(events.Event{Kind: events.CollectionNew})
		},
	}
	if cfg.CollectionURI != "" {
		loaderCfg.Fetch = e.fetchCollection
	}
	e.loader = loader.New(loaderCfg)

	if err := e.subscribe(deps.Hub); err != nil {
		e.Close()
		return nil, err
	}

	log.Debug().
		Str("entity", cfg.EntityName).
		Str("entity_uri", cfg.EntityURI).
		Str("collection_uri", cfg.CollectionURI).
		Bool("eager", cfg.EagerUpdate).
		Msg("endpoint created")
	return e, nil
}

// Name returns the configured endpoint name.
func (e *Endpoint) Name() string {
	return e.cfg.Name
}

// Collection returns the live cache. It is empty until the first load.
func (e *Endpoint) Collection() *cache.Collection {
	return e.collection
}

// DataAvailable is closed once the raw collection of the current load cycle
// has been retrieved.
func (e *Endpoint) DataAvailable() <-chan struct{} {
	return e.loader.DataAvailable()
}

// ObjectsAvailable is closed once the current load cycle has populated the
// cache.
func (e *Endpoint) ObjectsAvailable() <-chan struct{} {
	return e.loader.ObjectsAvailable()
}

// State returns the load state of the collection.
func (e *Endpoint) State() loader.State {
	return e.loader.State()
}

// SetEagerUpdate switches the write policy. When enabled, write responses are
// applied to the cache immediately; otherwise the cache changes only when the
// server pushes the confirmation.
func (e *Endpoint) SetEagerUpdate(enabled bool) {
	e.eager.Store(enabled)
}

// EagerUpdate reports the current write policy.
func (e *Endpoint) EagerUpdate() bool {
	return e.eager.Load()
}

// EnsureLoaded waits until the collection has been loaded. With force a new
// load cycle is started even if one already completed.
//
// Endpoints without a collection URI return immediately, without a state
// change, and hand back the live cache. It is empty unless single-entity
// reads or pushes have filled it.
func (e *Endpoint) EnsureLoaded(ctx context.Context, force bool) (*cache.Collection, error) {
	if err := e.loader.EnsureLoaded(ctx, force); err != nil {
		return nil, err
	}
	return e.collection, nil
}

// Read returns the cached entity with the given id. On a miss, or with force,
// the entity is fetched from the server and reconciled into the cache.
// Concurrent fetches of one id share a single request.
func (e *Endpoint) Read(ctx context.Context, id any, force bool) (*cache.Entity, error) {
	if !force {
		if entity, ok := e.collection.Get(id); ok {
			return entity, nil
		}
	}

	key := cache.Key(id)
	ch := e.reads.DoChan(key, func() (any, error) {
		return e.fetchEntity(context.WithoutCancel(ctx), id)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*cache.Entity), nil
	}
}

// Update writes entity to the server: PUT when it has an id, POST to the
// collection otherwise. Embedded references are reduced to their ids first.
//
// With the eager policy the response is reconciled and the cached instance
// returned; otherwise the deserialised response is returned and the cache
// is left to the push confirmation.
func (e *Endpoint) Update(ctx context.Context, entity *cache.Entity) (*cache.Entity, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: nil entity", ErrStore)
	}
	log := e.log.With().Any("id", entity.ID()).Logger()

	payload, err := e.reconciler.Codec().Encode(e.Reduce(entity))
	if err != nil {
		log.Err(err).Msg("serialize failed")
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	body, err := models.Wrap(e.cfg.EntityName, payload)
	if err != nil {
		log.Err(err).Msg("wrap payload failed")
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	var resp models.Envelope
	if entity.HasID() {
		resp, err = e.rest.Put(ctx, e.entityURL(entity.ID()), body)
	} else {
		resp, err = e.rest.Post(ctx, e.createURL(), body)
	}
	if err != nil {
		log.Err(err).Msg("store failed")
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	raw, err := resp.Entity(e.cfg.EntityName)
	if err != nil {
		log.Err(err).Msg("store response without entity")
		return nil, fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	if !e.eager.Load() {
		stored, err := e.reconciler.Codec().Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
		return stored, nil
	}

	stored, err := e.reconciler.ApplyEntity(raw)
	if err != nil {
		log.Err(err).Msg("reconcile store response failed")
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: server answered with a deletion marker", ErrProtocol)
	}
	return stored, nil
}

// Create is Update for entities without an id.
func (e *Endpoint) Create(ctx context.Context, entity *cache.Entity) (*cache.Entity, error) {
	return e.Update(ctx, entity)
}

// Delete removes entity on the server and, on success, from the cache.
func (e *Endpoint) Delete(ctx context.Context, entity *cache.Entity) error {
	if entity == nil || !entity.HasID() {
		return fmt.Errorf("%w: entity has no id", ErrDeletion)
	}
	id := entity.ID()

	if err := e.rest.Delete(ctx, e.entityURL(id)); err != nil {
		e.log.Err(err).Any("id", id).Msg("delete failed")
		return fmt.Errorf("%w: %w", ErrDeletion, err)
	}
	e.reconciler.Remove(id)
	return nil
}

// LookupByID returns a fresh map of the cached entities keyed by their
// normalised id.
func (e *Endpoint) LookupByID() map[string]*cache.Entity {
	all := e.collection.All()
	lookup := make(map[string]*cache.Entity, len(all))
	for _, entity := range all {
		if entity.HasID() {
			lookup[entity.Key()] = entity
		}
	}
	return lookup
}

// Reduce returns the fields of entity with embedded references replaced by
// their ids.
func (e *Endpoint) Reduce(entity *cache.Entity) map[string]any {
	return reference.Reduce(entity.Fields(), e.policy)
}

// Populate resolves the identifiers held in field through related.
func (e *Endpoint) Populate(ctx context.Context, entity *cache.Entity, field string, related reference.Reader, force bool) (bool, error) {
	return reference.Populate(ctx, entity, field, related, force)
}

// Close drops the push subscriptions and releases pending load waiters.
func (e *Endpoint) Close() {
	e.closeOnce.Do(func() {
		for _, sub := range e.subs {
			sub.Unsubscribe()
		}
		e.loader.Close()
	})
}

func (e *Endpoint) fetchCollection(ctx context.Context) (loader.Snapshot, error) {
	snapshot, err := e.rest.Get(ctx, e.cfg.CollectionURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	return snapshot, nil
}

// materialize applies a fetched snapshot unless a newer collection push or a
// forced reload took over the cycle in the meantime.
func (e *Endpoint) materialize(snapshot loader.Snapshot, reload bool, current func() bool) error {
	raws, err := snapshot.Collection(e.cfg.CollectionName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	if reload {
		err = e.reconciler.ApplyCollection(raws, reconcile.If(current))
	} else {
		err = e.reconciler.MergeCollection(raws, reconcile.If(current))
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	e.log.Debug().Int("entities", len(raws)).Bool("reload", reload).Msg("collection loaded")
	return nil
}

func (e *Endpoint) loadFailed(err error) {
	e.log.Err(err).Msg("collection load failed")
	e.publish(events.Event{Kind: events.Error, Err: err})
}

func (e *Endpoint) fetchEntity(ctx context.Context, id any) (*cache.Entity, error) {
	entity, err := e.retrieve(ctx, id)
	if err != nil {
		e.log.Err(err).Any("id", id).Msg("read failed")
		e.publish(events.Event{Kind: events.Error, Err: err})
		return nil, err
	}
	return entity, nil
}

func (e *Endpoint) retrieve(ctx context.Context, id any) (*cache.Entity, error) {
	resp, err := e.rest.Get(ctx, e.entityURL(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	raw, err := resp.Entity(e.cfg.EntityName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrRetrieval, ErrProtocol, err)
	}
	entity, err := e.reconciler.ApplyEntity(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRetrieval, err)
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %s %v was deleted", ErrRetrieval, e.cfg.EntityName, id)
	}
	return entity, nil
}

// observe forwards cache lifecycle changes as events.
func (e *Endpoint) observe(c cache.Change) {
	kind, ok := events.FromChange(c.Kind)
	if !ok {
		return
	}
	e.publish(events.Event{Kind: kind, Entity: c.Entity, Updated: c.Incoming})
}

func (e *Endpoint) publish(ev events.Event) {
	ev.Endpoint = e.cfg.Name
	ev.Collection = e.collection
	e.publisher.Publish(ev)
}

func (e *Endpoint) entityURL(id any) string {
	return strings.TrimRight(e.cfg.EntityURI, "/") + "/" + url.PathEscape(cache.Key(id))
}

func (e *Endpoint) createURL() string {
	if e.cfg.CollectionURI != "" {
		return e.cfg.CollectionURI
	}
	return e.cfg.EntityURI
}
