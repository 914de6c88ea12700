package devserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-sync-cache/internal/config"
	"github.com/MKhiriev/go-sync-cache/internal/logger"
	"github.com/MKhiriev/go-sync-cache/internal/utils"
)

const shutdownTimeout = 10 * time.Second

// Server runs the development HTTP server.
type Server struct {
	handler *Handler
	server  *http.Server
	logger  *logger.Logger
}

// NewServer creates a server listening on cfg.HTTPAddress.
func NewServer(cfg config.ServerConfig, logger *logger.Logger) (*Server, error) {
	logger.Info().Msg("creating new server...")

	handler, err := NewHandler(cfg, utils.NewUUIDGenerator(), logger)
	if err != nil {
		return nil, fmt.Errorf("error creating handler: %w", err)
	}

	return &Server{
		handler: handler,
		server: &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           handler.Init(cfg.RequestTimeout),
			ReadHeaderTimeout: cfg.RequestTimeout,
		},
		logger: logger,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", ln.Addr().String()).Msg("Launching HTTP server")
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		s.handler.Close()
		return err
	case <-ctx.Done():
	}

	s.Shutdown()
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info().Msg("server Shutdown gracefully")
	return nil
}

// Shutdown disconnects push clients and stops the HTTP server.
func (s *Server) Shutdown() {
	// hijacked websocket connections are not tracked by http.Server
	s.handler.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Err(err).Msg("HTTP server Shutdown")
	}
}
