// Package transport defines the push channel the sync endpoints subscribe to
// and provides a websocket implementation of it.
package transport

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -source=transport.go -destination=../mock/transport_mock.go -package=mock

// Handler receives the payload of one pushed event.
type Handler func(data json.RawMessage)

// AckFunc receives the server's acknowledgement of an emitted event.
type AckFunc func(data json.RawMessage)

// Transport is a persistent bidirectional event channel.
type Transport interface {
	// On registers h for the named event and returns a function removing it.
	On(event string, h Handler) (remove func())
	// Emit sends payload under the named event. A non-nil ack is invoked
	// once the server acknowledges the event.
	Emit(ctx context.Context, event string, payload any, ack AckFunc) error
}
