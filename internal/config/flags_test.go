package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNetAddress_String tests the String method of NetAddress
func TestNetAddress_String(t *testing.T) {
	tests := []struct {
		name     string
		addr     NetAddress
		expected string
	}{
		{name: "empty address", addr: NetAddress{}, expected: ""},
		{name: "localhost with port", addr: NetAddress{Host: "localhost", Port: 8080}, expected: "localhost:8080"},
		{name: "IP address with port", addr: NetAddress{Host: "127.0.0.1", Port: 9090}, expected: "127.0.0.1:9090"},
		{name: "only port no host", addr: NetAddress{Port: 8080}, expected: ":8080"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.addr.String())
		})
	}
}

// TestNetAddress_Set tests the Set method of NetAddress
func TestNetAddress_Set(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		expectError  bool
		errorMsg     string
		expectedAddr NetAddress
	}{
		{name: "valid localhost", input: "localhost:8080", expectedAddr: NetAddress{Host: "localhost", Port: 8080}},
		{name: "valid IPv4", input: "127.0.0.1:9090", expectedAddr: NetAddress{Host: "127.0.0.1", Port: 9090}},
		{name: "all interfaces", input: ":8080", expectedAddr: NetAddress{Port: 8080}},
		{name: "missing colon", input: "localhost8080", expectError: true, errorMsg: "need address in a form `host:port`"},
		{name: "non-numeric port", input: "localhost:abc", expectError: true, errorMsg: "invalid syntax"},
		{name: "zero port", input: "localhost:0", expectError: true, errorMsg: "port number must be in range"},
		{name: "port too large", input: "localhost:70000", expectError: true, errorMsg: "port number must be in range"},
		{name: "invalid IP address", input: "invalid.host:8080", expectError: true, errorMsg: "incorrect IP-address provided"},
		{name: "empty string", input: "", expectError: true, errorMsg: "need address in a form `host:port`"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := &NetAddress{}
			err := addr.Set(tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAddr, *addr)
		})
	}
}

// TestParseFlags tests the ParseFlags function
func TestParseFlags(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		validate func(t *testing.T, cfg *StructuredConfig)
	}{
		{
			name: "all flags set",
			args: []string{
				"-a", "localhost:8080",
				"-t", "20s",
				"-token", "jwt",
				"-p", "ws://localhost:8080/ws",
				"-dial-timeout", "3s",
				"-max-pending", "50",
				"-max-message-bytes", "1048576",
				"-r", "1m",
				"-eager",
				"-s", "127.0.0.1:9000",
				"-c", "/path/to/config.json",
			},
			validate: func(t *testing.T, cfg *StructuredConfig) {
				assert.Equal(t, "localhost:8080", cfg.Adapter.HTTPAddress)
				assert.Equal(t, 20*time.Second, cfg.Adapter.RequestTimeout)
				assert.Equal(t, "jwt", cfg.Adapter.Token)
				assert.Equal(t, "ws://localhost:8080/ws", cfg.Transport.PushAddress)
				assert.Equal(t, 3*time.Second, cfg.Transport.DialTimeout)
				assert.Equal(t, 50, cfg.Transport.MaxPending)
				assert.Equal(t, int64(1048576), cfg.Transport.MaxMessageBytes)
				assert.Equal(t, time.Minute, cfg.Sync.ReloadInterval)
				assert.True(t, cfg.Sync.EagerUpdate)
				assert.Equal(t, "127.0.0.1:9000", cfg.Server.HTTPAddress)
				assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)
			},
		},
		{
			name: "config alias flag",
			args: []string{"-config", "/path/to/config.json"},
			validate: func(t *testing.T, cfg *StructuredConfig) {
				assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)
			},
		},
		{
			name: "no flags",
			args: []string{},
			validate: func(t *testing.T, cfg *StructuredConfig) {
				assert.Equal(t, &StructuredConfig{}, cfg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

// TestParseFlags_Invalid verifies that malformed flags are reported.
func TestParseFlags_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "bad server address", args: []string{"-s", "nohost"}},
		{name: "bad duration", args: []string{"-t", "soon"}},
		{name: "unknown flag", args: []string{"-unknown"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseFlags(tt.args)
			require.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
