package endpoint

import (
	"encoding/json"
	"fmt"

	"github.com/MKhiriev/go-sync-cache/internal/events"
	"github.com/MKhiriev/go-sync-cache/internal/hub"
	"github.com/MKhiriev/go-sync-cache/internal/reconcile"
	"github.com/MKhiriev/go-sync-cache/models"
)

func (e *Endpoint) subscribe(h *hub.Hub) error {
	names := []string{e.cfg.EntityName}
	if e.cfg.CollectionName != "" {
		names = append(names, e.cfg.CollectionName)
	}
	for _, name := range names {
		sub, err := h.On(name, e.onPush)
		if err != nil {
			return fmt.Errorf("subscribe %q: %w", name, err)
		}
		e.subs = append(e.subs, sub)
	}
	return nil
}

// onPush applies one push notification. Payloads are envelopes carrying
// either the entity name or the collection name as their only key.
func (e *Endpoint) onPush(data json.RawMessage) {
	if err := e.applyPush(data); err != nil {
		e.log.Err(err).RawJSON("payload", data).Msg("push notification rejected")
		e.publish(events.Event{Kind: events.Error, Err: err})
	}
}

func (e *Endpoint) applyPush(data json.RawMessage) error {
	var envelope models.Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: decode push: %w", ErrProtocol, err)
	}
	key, _, err := envelope.Unwrap()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}

	switch key {
	case e.cfg.EntityName:
		raw, err := envelope.Entity(key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		_, err = e.reconciler.ApplyEntity(raw)
		return err
	case e.cfg.CollectionName:
		if key == "" {
			break
		}
		raws, err := envelope.Collection(key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		// completing under the reconciler lock drops a fetched snapshot
		// that has not been applied yet
		completed := false
		err = e.reconciler.ApplyCollection(raws, reconcile.Then(func() {
			completed = e.loader.Complete()
		}))
		if err != nil {
			return err
		}
		e.log.Debug().Int("entities", len(raws)).Bool("completed_load", completed).Msg("collection pushed")
		e.publish(events.Event{Kind: events.CollectionNew})
		return nil
	}
	return fmt.Errorf("%w: unexpected key %q", ErrProtocol, key)
}
