// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package statusapi exposes the daemon's optional read-only HTTP surface:
// a liveness probe, a composed status snapshot, and Prometheus metrics.
// Three unauthenticated read-only routes; the daemon has no interactive
// clients to authenticate.
package statusapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/meterdaemon/internal/models"
)

// Reporter is the read side the router composes /statusz from — normally
// *syncengine.StatusReporter.
type Reporter interface {
	GetStatus(ctx context.Context) models.Status
}

// NewRouter builds the chi router for the status surface. reporter drives
// /statusz; /healthz and /metrics need no dependencies beyond the process
// itself being alive enough to answer HTTP.
func NewRouter(reporter Reporter) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(10 * time.Second))

	r.Get("/healthz", handleHealthz)
	r.Get("/statusz", handleStatusz(reporter))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleStatusz(reporter Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := reporter.GetStatus(r.Context())
		writeJSON(w, http.StatusOK, status)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnect, nothing to recover
}
