// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"os"
	"time"
)

// StructuredConfig is the top-level configuration container. It is
// populated by merging environment variables, command-line flags and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix: prefix applied to nested env lookups (caarlos0/env).
//   - env: environment variable name of a scalar field.
type StructuredConfig struct {
	// Adapter configures the REST client.
	Adapter Adapter `envPrefix:"ADAPTER_"`

	// Transport configures the push channel.
	Transport Transport `envPrefix:"TRANSPORT_"`

	// Sync holds cache synchronisation defaults.
	Sync Sync `envPrefix:"SYNC_"`

	// Server configures the development server.
	Server Server `envPrefix:"SERVER_"`

	// Collections lists the synchronised collections. JSON file only.
	Collections []Collection `env:"-"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Adapter holds the REST client settings.
type Adapter struct {
	// HTTPAddress is the base address of the REST API, with or without a
	// scheme (e.g. "localhost:8080", "https://api.example.com").
	// Env: ADAPTER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every REST request.
	// Env: ADAPTER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`

	// Token is an optional bearer token attached to every request.
	// Env: ADAPTER_TOKEN
	Token string `env:"TOKEN"`
}

// Transport holds the push channel settings.
type Transport struct {
	// PushAddress is the websocket URL of the push channel
	// (e.g. "ws://localhost:8080/ws").
	// Env: TRANSPORT_PUSH_ADDRESS
	PushAddress string `env:"PUSH_ADDRESS"`

	// DialTimeout bounds the websocket handshake.
	// Env: TRANSPORT_DIAL_TIMEOUT
	DialTimeout time.Duration `env:"DIAL_TIMEOUT" envDefault:"10s"`

	// MaxPending caps the subscriptions queued before the push channel is
	// connected.
	// Env: TRANSPORT_MAX_PENDING
	MaxPending int `env:"MAX_PENDING" envDefault:"10000"`

	// MaxMessageBytes is the read limit of a single push frame, on the client
	// socket and on the development server. -1 disables the limit.
	// Env: TRANSPORT_MAX_MESSAGE_BYTES
	MaxMessageBytes int64 `env:"MAX_MESSAGE_BYTES" envDefault:"16777216"`
}

// Sync holds synchronisation defaults shared by all collections.
type Sync struct {
	// ReloadInterval is the period of the forced collection reload. Zero
	// disables the reload job.
	// Env: SYNC_RELOAD_INTERVAL
	ReloadInterval time.Duration `env:"RELOAD_INTERVAL" envDefault:"5m"`

	// EagerUpdate applies write responses to the cache immediately instead
	// of waiting for the push confirmation.
	// Env: SYNC_EAGER_UPDATE
	EagerUpdate bool `env:"EAGER_UPDATE"`
}

// Server holds the development server settings.
type Server struct {
	// HTTPAddress is the listen address in "host:port" format.
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`

	// RequestTimeout bounds every inbound REST request.
	// Env: SERVER_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// TokenSignKey enables bearer authentication when set. Tokens must be
	// HS256 JWTs signed with this key.
	// Env: SERVER_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the required "iss" claim of accepted tokens.
	// Env: SERVER_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER" envDefault:"go-sync-cache"`
}

// Collection declares one synchronised collection.
type Collection struct {
	// Name identifies the collection in the registry and in logs.
	Name string `json:"name"`
	// EntityName is the singular envelope key and push event name.
	EntityName string `json:"entity_name"`
	// CollectionName is the plural envelope key and push event name. Empty
	// for collections accessed only by single-entity reads.
	CollectionName string `json:"collection_name,omitempty"`
	// EntityURI is the REST base of single entities; ids are appended.
	EntityURI string `json:"entity_uri"`
	// CollectionURI is the REST resource of the whole collection.
	CollectionURI string `json:"collection_uri,omitempty"`
	// ReferenceFields restricts reference reduction to these fields. Empty
	// treats every embedded object carrying an id as a reference.
	ReferenceFields []string `json:"reference_fields,omitempty"`
	// EagerUpdate overrides [Sync.EagerUpdate] for this collection.
	EagerUpdate *bool `json:"eager_update,omitempty"`
}

// GetStructuredConfig loads and merges the configuration in the following
// priority order (later sources win for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
func GetStructuredConfig() (*StructuredConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags(os.Args[1:]).
		withJSON().
		build()
}
