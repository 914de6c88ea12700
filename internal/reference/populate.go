package reference

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"golang.org/x/sync/errgroup"
)

// Reader resolves an identifier to the cached entity of another endpoint,
// fetching it from the server on a cache miss.
type Reader interface {
	Read(ctx context.Context, id any, force bool) (*cache.Entity, error)
}

// Populate replaces the identifier held in entity's field (or each
// identifier of a slice field) with the entity related resolves it to.
//
// Values that are not identifiers are left untouched. With force, embedded
// objects are first collapsed to their id, so partially hydrated graphs can
// be re-populated from the related cache. Populate reports whether at least
// one reference was resolved. Slice elements resolve concurrently; on error
// the elements resolved so far are kept and the first error is returned.
func Populate(ctx context.Context, entity *cache.Entity, field string, related Reader, force bool) (bool, error) {
	value, ok := entity.Get(field)
	if !ok {
		return false, nil
	}

	if list, ok := asList(value); ok {
		return populateList(ctx, entity, field, list, related, force)
	}

	id, ok := resolvable(value, force)
	if !ok {
		return false, nil
	}
	if force {
		entity.Set(field, id)
	}

	resolved, err := related.Read(ctx, id, false)
	if err != nil {
		return false, fmt.Errorf("populate %q: %w", field, err)
	}
	entity.Set(field, resolved)
	return true, nil
}

func populateList(ctx context.Context, entity *cache.Entity, field string, list []any, related Reader, force bool) (bool, error) {
	out := make([]any, len(list))
	copy(out, list)

	resolved := make([]*cache.Entity, len(list))
	pending := 0
	g, gctx := errgroup.WithContext(ctx)
	for i, elem := range list {
		id, ok := resolvable(elem, force)
		if !ok {
			continue
		}
		pending++
		if force {
			out[i] = id
		}
		g.Go(func() error {
			e, err := related.Read(gctx, id, false)
			if err != nil {
				return fmt.Errorf("populate %q[%d]: %w", field, i, err)
			}
			resolved[i] = e
			return nil
		})
	}
	if pending == 0 {
		return false, nil
	}
	err := g.Wait()

	populated := false
	for i, e := range resolved {
		if e != nil {
			out[i] = e
			populated = true
		}
	}
	entity.Set(field, out)

	return populated, err
}

// resolvable returns the id to resolve for value, if any.
func resolvable(value any, force bool) (any, bool) {
	if cache.IsScalarID(value) {
		return value, true
	}
	if !force {
		return nil, false
	}
	id, ok := objectID(value)
	if !ok || !cache.IsScalarID(id) {
		return nil, false
	}
	return id, true
}
