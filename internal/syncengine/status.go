// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncengine

import (
	"context"

	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// HealthChecker is the Connection Manager's read side: a cheap probe of
// both endpoints, with no retry and no side effects.
type HealthChecker interface {
	Health(ctx context.Context) models.ConnectionHealth
}

// StatusReporter is the pure read-side of the scheduler and the sync
// managers: it composes counts, last-cycle outcome, and connectivity
// without ever triggering a retry or mutating state.
type StatusReporter struct {
	scheduler *Scheduler
	local     LocalStore
	remote    RemoteStore
	health    HealthChecker
}

// NewStatusReporter builds a StatusReporter over scheduler, local/remote
// stores, and a health checker (normally the Connection Manager).
func NewStatusReporter(scheduler *Scheduler, local LocalStore, remote RemoteStore, health HealthChecker) *StatusReporter {
	return &StatusReporter{scheduler: scheduler, local: local, remote: remote, health: health}
}

// GetStatus composes a best-effort snapshot: a counter that fails to read
// is zeroed and logged, never fails the whole snapshot, and no call here
// ever retries or writes.
func (r *StatusReporter) GetStatus(ctx context.Context) models.Status {
	status := models.Status{
		IsRunning:          r.scheduler.IsRunning(),
		LastSyncTime:       r.scheduler.LastSyncTime(),
		LastSyncSuccess:    r.scheduler.LastSyncSuccess(),
		LastSyncError:      r.scheduler.LastSyncError(),
		TotalRecordsSynced: r.scheduler.TotalRecordsSynced(),
	}

	if n, err := r.local.CountUnsynchronizedReadings(ctx); err == nil {
		status.QueueSize = n
	} else {
		logging.Warn().Err(err).Msg("status: failed to read local backlog size")
	}

	if n, err := r.local.CountMeters(ctx); err == nil {
		status.LocalMeterCount = n
	} else {
		logging.Warn().Err(err).Msg("status: failed to read local meter count")
	}

	if n, err := r.local.CountTenants(ctx); err == nil {
		status.LocalTenantCount = n
	} else {
		logging.Warn().Err(err).Msg("status: failed to read local tenant count")
	}

	tenantID, hasTenant, err := r.local.CurrentTenantID(ctx)
	switch {
	case err != nil:
		logging.Warn().Err(err).Msg("status: failed to resolve current tenant")
	case hasTenant:
		if n, err := r.remote.CountMeters(ctx, tenantID); err == nil {
			status.RemoteMeterCount = n
		} else {
			logging.Warn().Err(err).Msg("status: failed to read remote meter count")
		}
	}

	if n, err := r.remote.CountTenants(ctx); err == nil {
		status.RemoteTenantCount = n
	} else {
		logging.Warn().Err(err).Msg("status: failed to read remote tenant count")
	}

	status.ConnectionHealth = r.health.Health(ctx)
	return status
}
