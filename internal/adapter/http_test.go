// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAdapter builds an adapter pointed at the test server.
func newTestAdapter(t *testing.T, serverURL string) RESTClient {
	t.Helper()
	a, err := NewHTTPAdapter(config.ClientAdapter{HTTPAddress: serverURL, RequestTimeout: 5 * time.Second}, logger.Nop())
	require.NoError(t, err)
	return a
}

// ── construction ──────────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "host and port", raw: "localhost:8080", want: "http://localhost:8080"},
		{name: "scheme kept", raw: "https://api.example.com/", want: "https://api.example.com"},
		{name: "whitespace", raw: "  localhost:1  ", want: "http://localhost:1"},
		{name: "empty", raw: "", wantErr: true},
		{name: "no host", raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHTTPAdapter_RejectsExpiredToken(t *testing.T) {
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	_, err = NewHTTPAdapter(config.ClientAdapter{HTTPAddress: "localhost:1", Token: expired}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrTokenExpired)
}

func TestNewHTTPAdapter_InvalidAddress(t *testing.T) {
	_, err := NewHTTPAdapter(config.ClientAdapter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid adapter http address")
}

// ── Get ───────────────────────────────────────────────────────────────────────

func TestGet_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/devices/7", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get(utils.TraceIDHeader))
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"device":{"id":"7","name":"lamp"}}`))
	}))
	defer srv.Close()

	env, err := newTestAdapter(t, srv.URL).Get(context.Background(), "/api/devices/7")

	require.NoError(t, err)
	fields, err := env.Entity("device")
	require.NoError(t, err)
	assert.Equal(t, "lamp", fields["name"])
}

func TestGet_PropagatesTraceIDFromContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-42", r.Header.Get(utils.TraceIDHeader))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ctx := utils.WithTraceID(context.Background(), "trace-42")
	_, err := newTestAdapter(t, srv.URL).Get(ctx, "/api/devices")
	require.NoError(t, err)
}

func TestGet_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer opaque", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a, err := NewHTTPAdapter(config.ClientAdapter{HTTPAddress: srv.URL, Token: " opaque "}, logger.Nop())
	require.NoError(t, err)

	_, err = a.Get(context.Background(), "/api/devices")
	require.NoError(t, err)
}

func TestGet_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	env, err := newTestAdapter(t, srv.URL).Get(context.Background(), "/api/devices/1")

	require.NoError(t, err)
	assert.NotNil(t, env)
	assert.Empty(t, env)
}

func TestGet_InvalidBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Get(context.Background(), "/api/devices")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestGet_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrConflict},
		{http.StatusBadGateway, ErrBadGateway},
		{http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("details"))
			}))
			defer srv.Close()

			_, err := newTestAdapter(t, srv.URL).Get(context.Background(), "/api/devices/1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "details")
		})
	}
}

func TestGet_UnmappedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Get(context.Background(), "/api/devices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http 418")
}

// ── Put / Post ────────────────────────────────────────────────────────────────

func TestPut_SendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/devices/7", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/json"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"device":{"id":"7","owner":"5"}}`, string(body))

		_, _ = w.Write(body)
	}))
	defer srv.Close()

	payload := map[string]any{"device": map[string]any{"id": "7", "owner": "5"}}
	env, err := newTestAdapter(t, srv.URL).Put(context.Background(), "/api/devices/7", payload)

	require.NoError(t, err)
	assert.True(t, env.Has("device"))
}

func TestPost_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var in map[string]map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		in["device"]["id"] = "new"

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(in)
	}))
	defer srv.Close()

	env, err := newTestAdapter(t, srv.URL).Post(context.Background(), "/api/devices", map[string]any{"device": map[string]any{"name": "x"}})

	require.NoError(t, err)
	fields, err := env.Entity("device")
	require.NoError(t, err)
	assert.Equal(t, "new", fields["id"])
}

func TestPost_Conflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	_, err := newTestAdapter(t, srv.URL).Post(context.Background(), "/api/devices", map[string]any{})
	assert.ErrorIs(t, err, ErrConflict)
}

// ── Delete ────────────────────────────────────────────────────────────────────

func TestDelete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/devices/7", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	assert.NoError(t, newTestAdapter(t, srv.URL).Delete(context.Background(), "/api/devices/7"))
}

func TestDelete_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.ErrorIs(t, newTestAdapter(t, srv.URL).Delete(context.Background(), "/api/devices/7"), ErrNotFound)
}

func TestDelete_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, newTestAdapter(t, srv.URL).Delete(ctx, "/api/devices/7"))
}
