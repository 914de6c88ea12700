package endpoint

import "errors"

var (
	// ErrConfiguration marks an endpoint that cannot be constructed.
	ErrConfiguration = errors.New("endpoint configuration error")
	// ErrProtocol marks a server payload lacking the expected envelope key.
	ErrProtocol = errors.New("protocol error")
	// ErrRetrieval marks a failed load or single-entity read.
	ErrRetrieval = errors.New("unable to retrieve entity")
	// ErrDeletion marks a failed delete.
	ErrDeletion = errors.New("unable to delete entity")
	// ErrStore marks a failed create or update.
	ErrStore = errors.New("unable to store entity")
)
