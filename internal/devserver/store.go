package devserver

import (
	"maps"
	"sync"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
)

// table is the in-memory content of one collection, kept in insertion order.
type table struct {
	mu    sync.RWMutex
	order []string
	rows  map[string]map[string]any
	ids   utils.IDGenerator
}

func newTable(ids utils.IDGenerator) *table {
	return &table{rows: make(map[string]map[string]any), ids: ids}
}

func (t *table) list() []map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]map[string]any, 0, len(t.order))
	for _, key := range t.order {
		out = append(out, maps.Clone(t.rows[key]))
	}
	return out
}

func (t *table) get(id any) (map[string]any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	row, ok := t.rows[cache.Key(id)]
	return maps.Clone(row), ok
}

// put stores fields under id, replacing any previous row. created reports
// whether the row is new.
func (t *table) put(id any, fields map[string]any) (stored map[string]any, created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.putLocked(id, fields)
}

// create stores fields under a fresh id unless they already carry one.
func (t *table) create(fields map[string]any) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	id, ok := fields[cache.IDField]
	if !ok || !cache.IsScalarID(id) {
		id = t.ids.Generate()
	}
	stored, _ := t.putLocked(id, fields)
	return stored
}

func (t *table) delete(id any) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := cache.Key(id)
	if _, ok := t.rows[key]; !ok {
		return false
	}
	delete(t.rows, key)
	for i, k := range t.order {
		if k == key {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// replace swaps the whole content for rows. Rows without an id get one.
func (t *table) replace(rows []map[string]any) []map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = nil
	t.rows = make(map[string]map[string]any, len(rows))
	out := make([]map[string]any, 0, len(rows))
	for _, fields := range rows {
		id, ok := fields[cache.IDField]
		if !ok || !cache.IsScalarID(id) {
			id = t.ids.Generate()
		}
		stored, created := t.putLocked(id, fields)
		if created {
			out = append(out, stored)
			continue
		}
		// later duplicates overwrite the earlier row in place
		for i, prev := range out {
			if cache.SameID(prev[cache.IDField], id) {
				out[i] = stored
			}
		}
	}
	return out
}

func (t *table) putLocked(id any, fields map[string]any) (map[string]any, bool) {
	row := maps.Clone(fields)
	if row == nil {
		row = make(map[string]any, 1)
	}
	row[cache.IDField] = id

	key := cache.Key(id)
	_, exists := t.rows[key]
	if !exists {
		t.order = append(t.order, key)
	}
	t.rows[key] = row
	return maps.Clone(row), !exists
}
