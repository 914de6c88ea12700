// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package logger wraps zerolog.Logger with the constructors and
// context helpers used by the sync client, the reload workers and the
// development server.
//
// Logger embeds zerolog.Logger, so the full zerolog API (Debug, Info, Warn,
// Error, ...) is available directly on *Logger. Components receive a
// *Logger by pointer and derive scoped children with GetChildLogger or
// ForCollection.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CollectionField is the field that tags every entry written on behalf of a
// synchronised collection.
const CollectionField = "collection"

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// NewLogger constructs a JSON *Logger writing to os.Stdout for the given role
// label (e.g. "client", "devserver").
//
// Every entry carries:
//   - a "role" field set to role;
//   - a timestamp;
//   - a "func" caller field holding the fully-qualified function name.
//
// The global level is set to Debug.
func NewLogger(role string) *Logger {
	return NewWithWriter(os.Stdout, role)
}

// NewWithWriter is NewLogger with a caller-supplied destination.
func NewWithWriter(w io.Writer, role string) *Logger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return runtime.FuncForPC(pc).Name()
	}
	zerolog.CallerFieldName = "func"

	logger := zerolog.New(w).With().
		Str("role", role).
		Timestamp().
		Caller().
		Logger()

	return &Logger{logger}
}

// Nop returns a *Logger that discards all output.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// GetChildLogger returns a new *Logger inheriting every field of the
// receiver.
func (l *Logger) GetChildLogger() *Logger {
	return &Logger{l.With().Logger()}
}

// ForCollection returns a child logger tagged with the upper-cased
// collection name.
func (l *Logger) ForCollection(name string) *Logger {
	return &Logger{l.With().Str(CollectionField, strings.ToUpper(name)).Logger()}
}

// WithContext attaches the logger to ctx so FromContext can retrieve it.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return l.Logger.WithContext(ctx)
}

// FromRequest returns the logger attached to the request's context.
func FromRequest(r *http.Request) *Logger {
	return &Logger{*log.Ctx(r.Context())}
}

// FromContext returns the logger attached to ctx. When none is attached,
// zerolog's default logger is returned, so the result is never nil.
func FromContext(ctx context.Context) *Logger {
	return &Logger{*log.Ctx(ctx)}
}
