package devserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
	"github.com/MKhiriev/go-sync-cache/models"
	"github.com/go-chi/chi/v5"
)

type resourceCtxKey struct{}

// withResource resolves the {collection} path parameter.
func (h *Handler) withResource(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "collection")
		res, ok := h.resources[name]
		if !ok {
			logger.FromRequest(r).Warn().Str("collection", name).Msg(ErrUnknownCollection.Error())
			utils.WriteError(w, fmt.Sprintf("%s: %s", ErrUnknownCollection, name), http.StatusNotFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), resourceCtxKey{}, res)))
	})
}

func resourceFrom(r *http.Request) *resource {
	return r.Context().Value(resourceCtxKey{}).(*resource)
}

// list handles GET /api/{collection}.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	h.respond(w, r, res.collectionKey(), res.table.list(), http.StatusOK)
}

// get handles GET /api/{collection}/{id}.
func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	id := chi.URLParam(r, "id")

	row, ok := res.table.get(id)
	if !ok {
		utils.WriteError(w, ErrEntityNotFound.Error(), http.StatusNotFound)
		return
	}
	h.respond(w, r, res.EntityName, row, http.StatusOK)
}

// create handles POST /api/{collection}. A new id is generated unless the
// body carries one.
func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)

	fields, ok := h.readEntity(w, r, res)
	if !ok {
		return
	}

	res.writes.Lock()
	stored := res.table.create(fields)
	h.push.broadcast(res.EntityName, res.EntityName, stored)
	res.writes.Unlock()

	h.respond(w, r, res.EntityName, stored, http.StatusCreated)
}

// update handles PUT /api/{collection}/{id}. The path id wins over an id in
// the body.
func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)

	fields, ok := h.readEntity(w, r, res)
	if !ok {
		return
	}
	var id any = chi.URLParam(r, "id")
	if bodyID, has := fields[cache.IDField]; has && cache.SameID(bodyID, id) {
		// keeps the JSON type of the id: 7 in the body, "7" in the path
		id = bodyID
	}

	res.writes.Lock()
	stored, _ := res.table.put(id, fields)
	h.push.broadcast(res.EntityName, res.EntityName, stored)
	res.writes.Unlock()

	h.respond(w, r, res.EntityName, stored, http.StatusOK)
}

// delete handles DELETE /api/{collection}/{id} and pushes a deletion marker.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	id := chi.URLParam(r, "id")

	res.writes.Lock()
	row, ok := res.table.get(id)
	if !ok || !res.table.delete(id) {
		res.writes.Unlock()
		utils.WriteError(w, ErrEntityNotFound.Error(), http.StatusNotFound)
		return
	}
	h.push.broadcast(res.EntityName, res.EntityName, map[string]any{cache.IDField: row[cache.IDField]})
	res.writes.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// replace handles PUT /api/{collection}: the body replaces the whole
// collection, which is pushed as a full-collection frame.
func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	res := resourceFrom(r)
	key := res.collectionKey()

	var env models.Envelope
	if err := utils.ReadJSON(r, &env); err != nil {
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows, err := env.Collection(key)
	if err != nil {
		utils.WriteError(w, fmt.Sprintf("%s: %s", ErrMissingEnvelope, err), http.StatusBadRequest)
		return
	}

	res.writes.Lock()
	stored := res.table.replace(rows)
	h.push.broadcast(key, key, stored)
	res.writes.Unlock()

	h.respond(w, r, key, stored, http.StatusOK)
}

func (h *Handler) readEntity(w http.ResponseWriter, r *http.Request, res *resource) (map[string]any, bool) {
	var env models.Envelope
	if err := utils.ReadJSON(r, &env); err != nil {
		logger.FromRequest(r).Err(err).Msg("invalid request body")
		utils.WriteError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	fields, err := env.Entity(res.EntityName)
	if err != nil {
		logger.FromRequest(r).Err(err).Msg("invalid request envelope")
		utils.WriteError(w, fmt.Sprintf("%s: %s", ErrMissingEnvelope, err), http.StatusBadRequest)
		return nil, false
	}
	if !hasFields(fields) {
		logger.FromRequest(r).Warn().Msg(ErrNoFields.Error())
		utils.WriteError(w, ErrNoFields.Error(), http.StatusBadRequest)
		return nil, false
	}
	return fields, true
}

func hasFields(fields map[string]any) bool {
	for k := range fields {
		if k != cache.IDField {
			return true
		}
	}
	return false
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, key string, value any, status int) {
	if _, err := utils.WriteJSON(w, map[string]any{key: value}, status); err != nil {
		logger.FromRequest(r).Err(err).Msg("failed to write response")
	}
}

