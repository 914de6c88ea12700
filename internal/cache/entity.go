package cache

import (
	"encoding/json"
	"sync"
)

// IDField is the name of the identifier field every entity carries.
const IDField = "id"

// Entity is a single server-owned record. Its fields are JSON-shaped values;
// a field may also hold another *Entity once a reference has been populated.
//
// Entities are shared between the cache and its observers, so all access goes
// through the accessor methods.
type Entity struct {
	mu     sync.RWMutex
	fields map[string]any
}

// NewEntity creates an entity holding a shallow copy of fields.
func NewEntity(fields map[string]any) *Entity {
	e := &Entity{fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		e.fields[k] = v
	}
	return e
}

// ID returns the raw identifier, or nil if the entity has none yet.
func (e *Entity) ID() any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.fields[IDField]
}

// HasID reports whether the entity carries a non-nil identifier.
func (e *Entity) HasID() bool {
	return e.ID() != nil
}

// Key returns the normalised identifier, see [Key].
func (e *Entity) Key() string {
	return Key(e.ID())
}

// Get returns the value of a field.
func (e *Entity) Get(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.fields[name]
	return v, ok
}

// Set assigns a field.
func (e *Entity) Set(name string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields[name] = value
}

// Unset removes a field.
func (e *Entity) Unset(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.fields, name)
}

// Len returns the number of own fields.
func (e *Entity) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.fields)
}

// Fields returns a shallow copy of the entity's fields.
func (e *Entity) Fields() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		out[k] = v
	}
	return out
}

// CopyFrom overwrites every field of e with the corresponding field of src.
// Fields present only on e are kept. This is the default merge routine of a
// [Collection].
func (e *Entity) CopyFrom(src *Entity) {
	if src == nil || src == e {
		return
	}
	incoming := src.Fields()

	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range incoming {
		e.fields[k] = v
	}
}

// MarshalJSON encodes the entity as a plain JSON object.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Fields())
}

// UnmarshalJSON replaces the entity's fields with the decoded object.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields = fields
	if e.fields == nil {
		e.fields = make(map[string]any)
	}
	return nil
}
