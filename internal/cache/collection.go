package cache

import "sync"

// Outcome tells whether an upsert appended a new entity or merged into an
// existing one.
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

// ChangeKind identifies a lifecycle step of a cached entity.
type ChangeKind int

const (
	ChangeCreated ChangeKind = iota + 1
	ChangeBeforeUpdate
	ChangeUpdated
	ChangeBeforeRemove
	ChangeRemoved
)

// Change describes one lifecycle step. Entity is always the cached instance;
// Incoming is set only for ChangeBeforeUpdate and holds the not yet merged
// entity.
type Change struct {
	Kind     ChangeKind
	Entity   *Entity
	Incoming *Entity
}

// Observer receives lifecycle changes of a collection. Observe runs on the
// mutating goroutine; it may read the collection but must not mutate it.
type Observer interface {
	Observe(Change)
}

// ObserverFunc adapts a function to [Observer].
type ObserverFunc func(Change)

// Observe implements [Observer].
func (f ObserverFunc) Observe(c Change) { f(c) }

// MergeFunc merges src into dst in place.
type MergeFunc func(dst, src *Entity)

// Collection is an identity-keyed, insertion-ordered set of entities.
//
// Mutations are serialised; reads may happen from any goroutine. Observers
// are notified while the mutation lock is held but the read lock is not, so
// an observer can inspect the collection it is notified about.
type Collection struct {
	writeMu sync.Mutex

	mu    sync.RWMutex
	items []*Entity

	merge    MergeFunc
	observer Observer
}

// Option configures a [Collection].
type Option func(*Collection)

// WithMerge replaces the default shallow merge ([Entity.CopyFrom]).
func WithMerge(merge MergeFunc) Option {
	return func(c *Collection) {
		if merge != nil {
			c.merge = merge
		}
	}
}

// WithObserver registers the observer notified about every change.
func WithObserver(o Observer) Option {
	return func(c *Collection) {
		c.observer = o
	}
}

// NewCollection returns an empty collection.
func NewCollection(opts ...Option) *Collection {
	c := &Collection{
		items: make([]*Entity, 0),
		merge: func(dst, src *Entity) { dst.CopyFrom(src) },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upsert merges incoming into the cached entity with the same id, or appends
// it when no such entity exists. It returns the cached instance, which is
// incoming itself only when it was appended. Entities without an id are
// always appended.
func (c *Collection) Upsert(incoming *Entity) (Outcome, *Entity) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.upsertLocked(incoming)
}

// Remove deletes the entity with the given id, keeping the order of the
// remaining entities. It reports whether an entity was removed; an unknown id
// is not an error.
func (c *Collection) Remove(id any) bool {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	idx := c.indexOf(id)
	var target *Entity
	if idx >= 0 {
		target = c.items[idx]
	}
	c.mu.RUnlock()

	if target == nil {
		return false
	}
	c.removeLocked(target)
	return true
}

// Replace makes the collection hold exactly incoming, in that order.
// Entities whose id is still present are merged in place and keep their
// identity; the rest are removed with the usual notifications. Later
// duplicates within incoming merge into earlier ones.
func (c *Collection) Replace(incoming []*Entity) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	keep := make(map[string]struct{}, len(incoming))
	for _, e := range incoming {
		if e.HasID() {
			keep[e.Key()] = struct{}{}
		}
	}

	c.mu.RLock()
	current := make([]*Entity, len(c.items))
	copy(current, c.items)
	c.mu.RUnlock()

	for _, e := range current {
		if _, ok := keep[e.Key()]; ok && e.HasID() {
			continue
		}
		c.removeLocked(e)
	}

	ordered := make([]*Entity, 0, len(incoming))
	placed := make(map[*Entity]struct{}, len(incoming))
	for _, e := range incoming {
		_, cached := c.upsertLocked(e)
		if _, ok := placed[cached]; ok {
			continue
		}
		placed[cached] = struct{}{}
		ordered = append(ordered, cached)
	}

	c.mu.Lock()
	c.items = ordered
	c.mu.Unlock()
}

func (c *Collection) upsertLocked(incoming *Entity) (Outcome, *Entity) {
	c.mu.RLock()
	idx := c.indexOf(incoming.ID())
	var existing *Entity
	if idx >= 0 {
		existing = c.items[idx]
	}
	c.mu.RUnlock()

	if existing != nil {
		if existing == incoming {
			return Updated, existing
		}
		c.notify(Change{Kind: ChangeBeforeUpdate, Entity: existing, Incoming: incoming})
		c.merge(existing, incoming)
		c.notify(Change{Kind: ChangeUpdated, Entity: existing})
		return Updated, existing
	}

	c.mu.Lock()
	c.items = append(c.items, incoming)
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeCreated, Entity: incoming})
	return Created, incoming
}

func (c *Collection) removeLocked(target *Entity) {
	c.notify(Change{Kind: ChangeBeforeRemove, Entity: target})

	c.mu.Lock()
	if idx := c.indexOfEntity(target); idx >= 0 {
		copy(c.items[idx:], c.items[idx+1:])
		c.items[len(c.items)-1] = nil
		c.items = c.items[:len(c.items)-1]
	}
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeRemoved, Entity: target})
}

// Get returns the cached entity with the given id.
func (c *Collection) Get(id any) (*Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return c.items[idx], true
}

// Clear empties the collection in place. No change notifications are sent.
func (c *Collection) Clear() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.items)
	c.items = c.items[:0]
}

// All returns the cached entities in order. The slice is a copy; the
// entities are the live instances.
func (c *Collection) All() []*Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*Entity, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of cached entities.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Collection) indexOf(id any) int {
	if id == nil {
		return -1
	}
	key := Key(id)
	for i, e := range c.items {
		if e.Key() == key && e.HasID() {
			return i
		}
	}
	return -1
}

func (c *Collection) indexOfEntity(target *Entity) int {
	for i, e := range c.items {
		if e == target {
			return i
		}
	}
	return -1
}

func (c *Collection) notify(change Change) {
	if c.observer != nil {
		c.observer.Observe(change)
	}
}
