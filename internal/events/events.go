// Package events broadcasts lifecycle notifications of synchronised
// collections to interested observers.
package events

import (
	"cmp"
	"slices"
	"sync"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
)

// Kind names a lifecycle notification.
type Kind string

const (
	CollectionNew       Kind = "collectionNew"
	EntityNew           Kind = "entityNew"
	BeforeEntityUpdated Kind = "beforeEntityUpdated"
	EntityUpdated       Kind = "entityUpdated"
	BeforeEntityRemoved Kind = "beforeEntityRemoved"
	EntityRemoved       Kind = "entityRemoved"
	Error               Kind = "absyncError"
)

// Event is one notification. Entity is set for entity-level kinds; Updated
// carries the incoming, not yet merged entity for BeforeEntityUpdated; Err is
// set for Error.
type Event struct {
	Kind       Kind
	Endpoint   string
	Collection *cache.Collection
	Entity     *cache.Entity
	Updated    *cache.Entity
	Err        error
}

// Handler receives events. Handlers run synchronously on the publishing
// goroutine and must not call mutating endpoint operations.
type Handler func(Event)

// Publisher is the sending side of a [Bus].
type Publisher interface {
	Publish(Event)
}

// Bus fans events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	nextID uint64
	byKind map[Kind]map[uint64]Handler
	all    map[uint64]Handler
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{
		byKind: make(map[Kind]map[uint64]Handler),
		all:    make(map[uint64]Handler),
	}
}

// Subscribe registers h for events of the given kind and returns a function
// removing it.
func (b *Bus) Subscribe(kind Kind, h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.byKind[kind] == nil {
		b.byKind[kind] = make(map[uint64]Handler)
	}
	b.byKind[kind][id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.byKind[kind], id)
	}
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.all[id] = h

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.all, id)
	}
}

// Publish delivers e to every matching subscriber, in subscription order.
func (b *Bus) Publish(e Event) {
	for _, h := range b.handlers(e.Kind) {
		h(e)
	}
}

func (b *Bus) handlers(kind Kind) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	type entry struct {
		id uint64
		h  Handler
	}
	entries := make([]entry, 0, len(b.byKind[kind])+len(b.all))
	for id, h := range b.byKind[kind] {
		entries = append(entries, entry{id, h})
	}
	for id, h := range b.all {
		entries = append(entries, entry{id, h})
	}
	slices.SortFunc(entries, func(x, y entry) int { return cmp.Compare(x.id, y.id) })

	out := make([]Handler, len(entries))
	for i, e := range entries {
		out[i] = e.h
	}
	return out
}

// FromChange maps a cache change to its lifecycle kind.
func FromChange(kind cache.ChangeKind) (Kind, bool) {
	switch kind {
	case cache.ChangeCreated:
		return EntityNew, true
	case cache.ChangeBeforeUpdate:
		return BeforeEntityUpdated, true
	case cache.ChangeUpdated:
		return EntityUpdated, true
	case cache.ChangeBeforeRemove:
		return BeforeEntityRemoved, true
	case cache.ChangeRemoved:
		return EntityRemoved, true
	default:
		return "", false
	}
}
