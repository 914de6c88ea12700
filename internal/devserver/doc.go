// Package devserver implements a small in-memory server speaking the
// protocol the sync client expects.
//
// Every configured collection is exposed as a REST resource under
// /api/{name}; payloads are envelopes keyed by the entity or collection
// name. Every write is broadcast to the websocket clients connected on /ws
// as a push frame, deletes as a deletion marker. The server is meant for
// local development and end-to-end tests, not for production use.
package devserver
