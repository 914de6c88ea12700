package reference

import "github.com/MKhiriev/go-sync-cache/internal/cache"

// Reduce returns a copy of fields in which every reference recognised by
// policy is replaced by its id. Slices are walked recursively; other values,
// including objects without an id, are copied as they are.
func Reduce(fields map[string]any, policy Policy) map[string]any {
	if policy == nil {
		policy = AnyWithID()
	}

	out := make(map[string]any, len(fields))
	for name, value := range fields {
		out[name] = reduceValue(name, value, policy)
	}
	return out
}

func reduceValue(field string, value any, policy Policy) any {
	if list, ok := asList(value); ok {
		reduced := make([]any, len(list))
		for i, elem := range list {
			reduced[i] = reduceValue(field, elem, policy)
		}
		return reduced
	}

	if id, ok := policy.Reference(field, value); ok {
		return id
	}
	return value
}

// asList normalises the slice shapes an entity field can hold.
func asList(value any) ([]any, bool) {
	switch list := value.(type) {
	case []any:
		return list, true
	case []*cache.Entity:
		out := make([]any, len(list))
		for i, e := range list {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(list))
		for i, m := range list {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}
