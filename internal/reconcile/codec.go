package reconcile

import (
	"fmt"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
)

// DeserializeFunc turns a raw server entity into a cached entity.
type DeserializeFunc func(raw map[string]any) (*cache.Entity, error)

// SerializeFunc turns a reduced entity into the payload written to the
// server.
type SerializeFunc func(reduced map[string]any) (any, error)

// Codec is the per-collection serialiser pair. Nil members behave as the
// identity transformation.
type Codec struct {
	Serialize   SerializeFunc
	Deserialize DeserializeFunc
}

// Decode deserialises raw.
func (c Codec) Decode(raw map[string]any) (*cache.Entity, error) {
	if c.Deserialize == nil {
		return cache.NewEntity(raw), nil
	}
	e, err := c.Deserialize(raw)
	if err != nil {
		return nil, fmt.Errorf("deserialize: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("deserialize: %w", ErrNilEntity)
	}
	return e, nil
}

// Encode serialises a reduced entity.
func (c Codec) Encode(reduced map[string]any) (any, error) {
	if c.Serialize == nil {
		return reduced, nil
	}
	out, err := c.Serialize(reduced)
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return out, nil
}
