package devserver

import (
	"fmt"
	"sync"

	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
)

// resource is one configured collection and its data.
type resource struct {
	config.Collection
	table *table

	// writes orders store writes and their push frames
	writes sync.Mutex
}

// collectionKey is the envelope key of the whole collection.
func (r *resource) collectionKey() string {
	if r.CollectionName != "" {
		return r.CollectionName
	}
	return r.Name
}

type Handler struct {
	resources map[string]*resource
	push      *broadcaster

	signKey string
	issuer  string

	logger *logger.Logger
}

// NewHandler creates a handler serving every collection of cfg.
func NewHandler(cfg config.ServerConfig, ids utils.IDGenerator, logger *logger.Logger) (*Handler, error) {
	if len(cfg.Collections) == 0 {
		return nil, errNoCollections
	}
	if ids == nil {
		ids = utils.NewUUIDGenerator()
	}

	h := &Handler{
		resources: make(map[string]*resource, len(cfg.Collections)),
		push:      newBroadcaster(logger, cfg.MaxMessageBytes),
		signKey:   cfg.TokenSignKey,
		issuer:    cfg.TokenIssuer,
		logger:    logger,
	}
	for _, c := range cfg.Collections {
		if _, ok := h.resources[c.Name]; ok {
			return nil, fmt.Errorf("duplicate collection %q", c.Name)
		}
		h.resources[c.Name] = &resource{Collection: c, table: newTable(ids)}
	}

	logger.Info().Int("collections", len(h.resources)).Msg("http handler created")
	return h, nil
}

// Clients returns the number of connected push clients.
func (h *Handler) Clients() int {
	return h.push.count()
}

// Close disconnects every push client.
func (h *Handler) Close() {
	h.push.close()
}
