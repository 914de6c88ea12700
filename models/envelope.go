package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMissingKey is returned when an envelope lacks the member the caller
	// expected (the entity or collection name).
	ErrMissingKey = errors.New("envelope key missing")

	// ErrAmbiguousEnvelope is returned by Unwrap when an envelope does not
	// carry exactly one member.
	ErrAmbiguousEnvelope = errors.New("envelope must carry exactly one member")
)

// Envelope is the JSON object wrapping every payload exchanged with the
// server. REST responses carry the entity name ("task") or the collection
// name ("tasks") as their single key; push notifications do the same.
type Envelope map[string]json.RawMessage

// Wrap builds an envelope holding value under key.
func Wrap(key string, value any) (Envelope, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal %q: %w", key, err)
	}
	return Envelope{key: raw}, nil
}

// Has reports whether the envelope carries a non-null member named key.
func (e Envelope) Has(key string) bool {
	raw, ok := e[key]
	return ok && !isNull(raw)
}

// Entity decodes the member named key as a single raw entity.
func (e Envelope) Entity(key string) (map[string]any, error) {
	raw, ok := e[key]
	if !ok || isNull(raw) {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}

	var entity map[string]any
	if err := json.Unmarshal(raw, &entity); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}
	return entity, nil
}

// Collection decodes the member named key as a list of raw entities.
func (e Envelope) Collection(key string) ([]map[string]any, error) {
	raw, ok := e[key]
	if !ok || isNull(raw) {
		return nil, fmt.Errorf("%w: %q", ErrMissingKey, key)
	}

	var entities []map[string]any
	if err := json.Unmarshal(raw, &entities); err != nil {
		return nil, fmt.Errorf("decode %q: %w", key, err)
	}
	return entities, nil
}

// Unwrap returns the single member of the envelope together with its key.
func (e Envelope) Unwrap() (string, json.RawMessage, error) {
	if len(e) != 1 {
		return "", nil, fmt.Errorf("%w: got %d", ErrAmbiguousEnvelope, len(e))
	}
	for k, v := range e {
		return k, v, nil
	}
	return "", nil, ErrAmbiguousEnvelope
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
