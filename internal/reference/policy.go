// Package reference converts between embedded related entities and bare
// identifier references.
//
// Before an entity is written to the server, [Reduce] replaces every
// embedded related object with its id so nested payloads are not sent.
// After reading, [Populate] swaps identifiers back for the entities cached
// by the related endpoint.
package reference

import "github.com/MKhiriev/go-sync-cache/internal/cache"

// Policy decides which values Reduce collapses to their id.
type Policy interface {
	// Reference returns the id of value when value, found under the
	// top-level field name, is a reference to another entity.
	Reference(field string, value any) (id any, ok bool)
}

type anyWithID struct{}

// AnyWithID treats every object carrying a non-empty id as a reference,
// regardless of the field it sits in. Value objects that happen to carry an
// "id" member are collapsed too; prefer [Fields] when the entity has any.
func AnyWithID() Policy {
	return anyWithID{}
}

func (anyWithID) Reference(_ string, value any) (any, bool) {
	return objectID(value)
}

type fieldSet map[string]struct{}

// Fields restricts reduction to the named top-level fields.
func Fields(names ...string) Policy {
	set := make(fieldSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (f fieldSet) Reference(field string, value any) (any, bool) {
	if _, ok := f[field]; !ok {
		return nil, false
	}
	return objectID(value)
}

// objectID extracts the id of an embedded object. Empty ids do not count.
func objectID(value any) (any, bool) {
	var id any
	switch obj := value.(type) {
	case *cache.Entity:
		if obj == nil {
			return nil, false
		}
		id = obj.ID()
	case map[string]any:
		id = obj[cache.IDField]
	default:
		return nil, false
	}

	if id == nil || id == "" {
		return nil, false
	}
	return id, true
}
