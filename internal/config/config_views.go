package config

import (
	"fmt"
	"time"
)

// ClientAdapter holds the settings of the REST client.
type ClientAdapter struct {
	// HTTPAddress is the REST base address.
	HTTPAddress string
	// RequestTimeout is the timeout of every outbound request.
	RequestTimeout time.Duration
	// Token is the optional bearer token.
	Token string
}

// ClientTransport holds the settings of the push channel.
type ClientTransport struct {
	// PushAddress is the websocket URL.
	PushAddress string
	// DialTimeout bounds the websocket handshake.
	DialTimeout time.Duration
	// MaxPending caps queued subscriptions.
	MaxPending int
	// MaxMessageBytes is the push frame read limit; -1 disables it.
	MaxMessageBytes int64
}

// ClientSync holds synchronisation settings.
type ClientSync struct {
	// ReloadInterval is the forced reload period; zero disables it.
	ReloadInterval time.Duration
	// EagerUpdate is the default write policy.
	EagerUpdate bool
}

// ClientConfig is the client view of [StructuredConfig].
type ClientConfig struct {
	Adapter     ClientAdapter
	Transport   ClientTransport
	Sync        ClientSync
	Collections []Collection
}

// ServerConfig is the development server view of [StructuredConfig].
type ServerConfig struct {
	HTTPAddress     string
	RequestTimeout  time.Duration
	TokenSignKey    string
	TokenIssuer     string
	// MaxMessageBytes is the read limit of frames sent by push clients.
	MaxMessageBytes int64
	Collections     []Collection
}

// Eager resolves the write policy of c against the shared default.
func (c Collection) Eager(defaultPolicy bool) bool {
	if c.EagerUpdate == nil {
		return defaultPolicy
	}
	return *c.EagerUpdate
}

// GetClientConfig builds and validates the client view of the merged
// configuration.
func GetClientConfig() (*ClientConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	clientCfg := cfg.clientView()
	return clientCfg, clientCfg.validate()
}

// GetServerConfig builds and validates the development server view of the
// merged configuration.
func GetServerConfig() (*ServerConfig, error) {
	cfg, err := GetStructuredConfig()
	if err != nil {
		return nil, fmt.Errorf("error get structured config: %w", err)
	}

	serverCfg := cfg.serverView()
	return serverCfg, serverCfg.validate()
}

func (cfg *StructuredConfig) clientView() *ClientConfig {
	return &ClientConfig{
		Adapter: ClientAdapter{
			HTTPAddress:    cfg.Adapter.HTTPAddress,
			RequestTimeout: cfg.Adapter.RequestTimeout,
			Token:          cfg.Adapter.Token,
		},
		Transport: ClientTransport{
			PushAddress:     cfg.Transport.PushAddress,
			DialTimeout:     cfg.Transport.DialTimeout,
			MaxPending:      cfg.Transport.MaxPending,
			MaxMessageBytes: cfg.Transport.MaxMessageBytes,
		},
		Sync: ClientSync{
			ReloadInterval: cfg.Sync.ReloadInterval,
			EagerUpdate:    cfg.Sync.EagerUpdate,
		},
		Collections: cfg.Collections,
	}
}

func (cfg *StructuredConfig) serverView() *ServerConfig {
	return &ServerConfig{
		HTTPAddress:     cfg.Server.HTTPAddress,
		RequestTimeout:  cfg.Server.RequestTimeout,
		TokenSignKey:    cfg.Server.TokenSignKey,
		TokenIssuer:     cfg.Server.TokenIssuer,
		MaxMessageBytes: cfg.Transport.MaxMessageBytes,
		Collections:     cfg.Collections,
	}
}
