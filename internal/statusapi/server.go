// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package statusapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/meterdaemon/internal/logging"
)

// Server wraps an *http.Server exposing the status surface as a
// suture.Service: ListenAndServe in a goroutine, block on ctx.Done(), then
// Shutdown with a bounded grace period.
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewServer builds a Server listening on addr, serving reporter's status
// surface.
func NewServer(addr string, reporter Reporter) *Server {
	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(reporter),
			ReadHeaderTimeout: 5 * time.Second,
		},
		shutdownTimeout: 10 * time.Second,
	}
}

// Serve implements suture.Service.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	logging.Info().Str("addr", s.server.Addr).Msg("status server listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status server failed: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("status server shutdown failed: %w", err)
		}
		<-errCh
		logging.Info().Msg("status server stopped")
		return ctx.Err()
	}
}

// String implements fmt.Stringer so suture can identify the service in logs.
func (s *Server) String() string {
	return "status-server"
}
