// Package hub holds the push transport shared by all sync endpoints.
//
// Endpoints may subscribe before the application has connected the
// transport. Such subscriptions are queued and replayed in registration
// order, exactly once, when Configure is called.
package hub

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/transport"
)

// DefaultMaxPending caps the queue of subscriptions waiting for a transport.
const DefaultMaxPending = 10000

// Hub is a configure-once holder of a [transport.Transport].
type Hub struct {
	mu         sync.Mutex
	transport  transport.Transport
	pending    []*Subscription
	maxPending int
	log        *logger.Logger
}

// New returns an unconfigured hub. A non-positive maxPending selects
// DefaultMaxPending.
func New(maxPending int, log *logger.Logger) *Hub {
	if maxPending <= 0 {
		maxPending = DefaultMaxPending
	}
	return &Hub{maxPending: maxPending, log: log}
}

// Configure installs t and replays every queued subscription on it.
func (h *Hub) Configure(t transport.Transport) error {
	if t == nil {
		return ErrNilTransport
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.transport != nil {
		return ErrAlreadyConfigured
	}
	h.transport = t

	queued := h.pending
	h.pending = nil
	for _, sub := range queued {
		sub.remove = t.On(sub.event, sub.handler)
	}
	h.log.Debug().Int("replayed", len(queued)).Msg("push transport configured")
	return nil
}

// Configured reports whether a transport has been installed.
func (h *Hub) Configured() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.transport != nil
}

// Pending returns the number of subscriptions waiting for a transport.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// MaxPending returns the queue capacity.
func (h *Hub) MaxPending() int {
	return h.maxPending
}

// On subscribes handler to the named event, immediately when a transport is
// configured and otherwise once it is. The returned subscription can be
// cancelled in either case.
func (h *Hub) On(event string, handler transport.Handler) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscription{hub: h, event: event, handler: handler}
	if h.transport != nil {
		sub.remove = h.transport.On(event, handler)
		return sub, nil
	}

	if len(h.pending) >= h.maxPending {
		return nil, fmt.Errorf("%w: %d subscriptions waiting", ErrPendingQueueFull, len(h.pending))
	}
	h.pending = append(h.pending, sub)
	return sub, nil
}

// Emit sends payload through the configured transport.
func (h *Hub) Emit(ctx context.Context, event string, payload any, ack transport.AckFunc) error {
	h.mu.Lock()
	t := h.transport
	h.mu.Unlock()

	if t == nil {
		return fmt.Errorf("emit %s: %w", event, ErrTransportNotConfigured)
	}
	return t.Emit(ctx, event, payload, ack)
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.cancelled {
		return
	}
	sub.cancelled = true

	if sub.remove != nil {
		sub.remove()
		return
	}
	for i, queued := range h.pending {
		if queued == sub {
			h.pending = append(h.pending[:i:i], h.pending[i+1:]...)
			return
		}
	}
}

// Subscription is the handle of one [Hub.On] registration.
type Subscription struct {
	hub     *Hub
	event   string
	handler transport.Handler

	// guarded by hub.mu
	remove    func()
	cancelled bool
}

// Event returns the subscribed event name.
func (s *Subscription) Event() string {
	return s.event
}

// Unsubscribe removes the subscription, whether it is still queued or
// already active. Repeated calls are no-ops.
func (s *Subscription) Unsubscribe() {
	s.hub.unsubscribe(s)
}
