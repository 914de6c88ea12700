package config

import "errors"

// Validation errors returned when a configuration view is incomplete or
// invalid.
var (
	// ErrInvalidAdapterConfigs indicates invalid REST client settings
	// (for example, missing address or non-positive request timeout).
	ErrInvalidAdapterConfigs = errors.New("invalid adapter configuration")
	// ErrInvalidTransportConfigs indicates invalid push channel settings
	// (for example, missing websocket URL).
	ErrInvalidTransportConfigs = errors.New("invalid transport configuration")
	// ErrInvalidSyncConfigs indicates invalid synchronisation settings
	// (for example, a negative reload interval).
	ErrInvalidSyncConfigs = errors.New("invalid sync configuration")
	// ErrInvalidCollectionConfigs indicates an invalid or duplicate
	// collection declaration.
	ErrInvalidCollectionConfigs = errors.New("invalid collection configuration")
	// ErrInvalidServerConfigs indicates invalid development server settings.
	ErrInvalidServerConfigs = errors.New("invalid server configuration")
)
