package models

import "encoding/json"

// AckEvent is the event name of a frame acknowledging an earlier emit.
const AckEvent = "ack"

// Frame is a single websocket text message on the push channel.
//
// Server-originated notifications carry the entity or collection name in
// Event and an [Envelope] in Data. Client emits may request an
// acknowledgement by setting AckID; the peer answers with a frame whose
// Event is [AckEvent] and whose AckID matches.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	AckID string          `json:"ack_id,omitempty"`
}
