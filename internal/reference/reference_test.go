package reference

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubReader resolves ids from an in-memory collection and counts reads.
type stubReader struct {
	mu    sync.Mutex
	items *cache.Collection
	reads []string
	fail  map[string]error
}

func newStubReader(entities ...map[string]any) *stubReader {
	r := &stubReader{items: cache.NewCollection(), fail: map[string]error{}}
	for _, e := range entities {
		r.items.Upsert(cache.NewEntity(e))
	}
	return r
}

func (r *stubReader) Read(_ context.Context, id any, _ bool) (*cache.Entity, error) {
	r.mu.Lock()
	r.reads = append(r.reads, cache.Key(id))
	r.mu.Unlock()

	if err, ok := r.fail[cache.Key(id)]; ok {
		return nil, err
	}
	e, ok := r.items.Get(id)
	if !ok {
		return nil, errors.New("not found")
	}
	return e, nil
}

// ── Reduce ────────────────────────────────────────────────────────────────────

func TestReduce_ReplacesEmbeddedObjects(t *testing.T) {
	in := map[string]any{
		"id":    1,
		"owner": map[string]any{"id": 5, "name": "x"},
	}

	got := Reduce(in, AnyWithID())

	assert.Equal(t, map[string]any{"id": 1, "owner": 5}, got)
	assert.Equal(t, map[string]any{"id": 5, "name": "x"}, in["owner"], "input must not change")
}

func TestReduce_RecursesIntoSlices(t *testing.T) {
	tag := cache.NewEntity(map[string]any{"id": "t2", "label": "b"})
	in := map[string]any{
		"id":   "1",
		"tags": []any{map[string]any{"id": "t1"}, tag, "t3", []any{map[string]any{"id": "t4"}}},
	}

	got := Reduce(in, nil)

	assert.Equal(t, []any{"t1", "t2", "t3", []any{"t4"}}, got["tags"])
}

func TestReduce_KeepsObjectsWithoutID(t *testing.T) {
	addr := map[string]any{"street": "main"}
	got := Reduce(map[string]any{"id": "1", "address": addr, "empty": map[string]any{"id": ""}}, AnyWithID())

	assert.Equal(t, addr, got["address"])
	assert.Equal(t, map[string]any{"id": ""}, got["empty"])
}

func TestReduce_FieldsPolicy(t *testing.T) {
	in := map[string]any{
		"id":    "1",
		"owner": map[string]any{"id": "5"},
		"money": map[string]any{"id": "EUR", "amount": 3},
	}

	got := Reduce(in, Fields("owner"))

	assert.Equal(t, "5", got["owner"])
	assert.Equal(t, map[string]any{"id": "EUR", "amount": 3}, got["money"])
}

// ── Populate ──────────────────────────────────────────────────────────────────

func TestPopulate_RoundTrip(t *testing.T) {
	owner := map[string]any{"id": 5, "name": "x"}
	related := newStubReader(owner)

	reduced := Reduce(map[string]any{"id": 1, "owner": owner}, AnyWithID())
	e := cache.NewEntity(reduced)

	ok, err := Populate(context.Background(), e, "owner", related, false)
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := e.Get("owner")
	require.IsType(t, &cache.Entity{}, got)
	assert.Equal(t, owner, got.(*cache.Entity).Fields())
}

func TestPopulate_NonIdentifierIsNotPopulated(t *testing.T) {
	related := newStubReader()
	embedded := map[string]any{"id": "5"}
	e := cache.NewEntity(map[string]any{"id": "1", "owner": embedded, "flag": true})

	ok, err := Populate(context.Background(), e, "owner", related, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Populate(context.Background(), e, "flag", related, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Populate(context.Background(), e, "missing", related, false)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Empty(t, related.reads)
	got, _ := e.Get("owner")
	assert.Equal(t, embedded, got)
}

func TestPopulate_ForceCollapsesEmbeddedObject(t *testing.T) {
	related := newStubReader(map[string]any{"id": "5", "name": "fresh"})
	e := cache.NewEntity(map[string]any{"id": "1", "owner": map[string]any{"id": "5", "name": "stale"}})

	ok, err := Populate(context.Background(), e, "owner", related, true)
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := e.Get("owner")
	name, _ := got.(*cache.Entity).Get("name")
	assert.Equal(t, "fresh", name)
}

func TestPopulate_Slice(t *testing.T) {
	related := newStubReader(
		map[string]any{"id": "a"},
		map[string]any{"id": "b"},
	)
	e := cache.NewEntity(map[string]any{"id": "1", "tags": []any{"a", true, "b"}})

	ok, err := Populate(context.Background(), e, "tags", related, false)
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := e.Get("tags")
	list := got.([]any)
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].(*cache.Entity).Key())
	assert.Equal(t, true, list[1])
	assert.Equal(t, "b", list[2].(*cache.Entity).Key())
}

func TestPopulate_SliceWithoutIdentifiersIsUntouched(t *testing.T) {
	related := newStubReader()
	tags := []any{true, false}
	e := cache.NewEntity(map[string]any{"id": "1", "tags": tags})

	ok, err := Populate(context.Background(), e, "tags", related, false)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPopulate_PropagatesReadError(t *testing.T) {
	related := newStubReader(map[string]any{"id": "a"})
	related.fail["b"] = errors.New("boom")
	e := cache.NewEntity(map[string]any{"id": "1", "tags": []any{"a", "b"}, "owner": "b"})

	_, err := Populate(context.Background(), e, "owner", related, false)
	require.Error(t, err)
	got, _ := e.Get("owner")
	assert.Equal(t, "b", got)

	_, err = Populate(context.Background(), e, "tags", related, false)
	require.Error(t, err)
	list, _ := e.Get("tags")
	assert.Equal(t, "b", list.([]any)[1])
}
