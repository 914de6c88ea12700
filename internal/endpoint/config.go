package endpoint

import (
	"fmt"
	"strings"

	"github.com/MKhiriev/go-sync-cache/internal/adapter"
	"github.com/MKhiriev/go-sync-cache/internal/cache"
	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/events"
	"github.com/MKhiriev/go-sync-cache/internal/hub"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/reconcile"
	"github.com/MKhiriev/go-sync-cache/internal/reference"
)

// Config describes one synchronised collection.
type Config struct {
	// Name identifies the endpoint in logs, events and the registry.
	Name string
	// EntityName is the singular envelope key and push event name.
	EntityName string
	// CollectionName is the plural envelope key and push event name. Leave
	// it and CollectionURI empty for collections that are only read entity
	// by entity.
	CollectionName string
	// EntityURI is the REST base of single entities; "/{id}" is appended.
	EntityURI string
	// CollectionURI is the REST resource of the whole collection.
	CollectionURI string

	Serialize   reconcile.SerializeFunc
	Deserialize reconcile.DeserializeFunc
	// Merge replaces the default shallow merge of updates into cached
	// entities.
	Merge cache.MergeFunc
	// References decides which embedded objects are reduced to their id
	// before a write. Nil treats every object carrying an id as a reference.
	References reference.Policy
	// EagerUpdate applies write responses to the cache immediately instead
	// of waiting for the push confirmation.
	EagerUpdate bool
}

// FromCollection builds an endpoint config from its file form.
func FromCollection(c config.Collection, defaultEager bool) Config {
	cfg := Config{
		Name:           c.Name,
		EntityName:     c.EntityName,
		CollectionName: c.CollectionName,
		EntityURI:      c.EntityURI,
		CollectionURI:  c.CollectionURI,
		EagerUpdate:    c.Eager(defaultEager),
	}
	if len(c.ReferenceFields) > 0 {
		cfg.References = reference.Fields(c.ReferenceFields...)
	}
	return cfg
}

func (c Config) validate() error {
	switch {
	case strings.TrimSpace(c.Name) == "":
		return fmt.Errorf("%w: missing name", ErrConfiguration)
	case c.EntityName == "":
		return fmt.Errorf("%w: %s: missing entity name", ErrConfiguration, c.Name)
	case c.EntityURI == "":
		return fmt.Errorf("%w: %s: missing entity uri", ErrConfiguration, c.Name)
	case (c.CollectionName == "") != (c.CollectionURI == ""):
		return fmt.Errorf("%w: %s: collection name and uri must be set together", ErrConfiguration, c.Name)
	case c.CollectionName != "" && c.CollectionName == c.EntityName:
		return fmt.Errorf("%w: %s: entity and collection names must differ", ErrConfiguration, c.Name)
	}
	return nil
}

// Deps are the collaborators shared by all endpoints.
type Deps struct {
	REST   adapter.RESTClient
	Hub    *hub.Hub
	Events events.Publisher
	Logger *logger.Logger
}

func (d Deps) validate(name string) error {
	if d.REST == nil {
		return fmt.Errorf("%w: %s: missing rest client", ErrConfiguration, name)
	}
	if d.Hub == nil {
		return fmt.Errorf("%w: %s: missing push hub", ErrConfiguration, name)
	}
	return nil
}

type nopPublisher struct{}

func (nopPublisher) Publish(events.Event) {}
