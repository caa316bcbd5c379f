// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package syncengine implements the upload/download sync managers, the
// scheduler that drives them on a fixed cadence, and the read-only status
// composition over both.
package syncengine

import (
	"context"

	"github.com/tomtom215/meterdaemon/internal/models"
)

// LocalStore is everything the sync managers need from the LOCAL
// database. Implementations live in internal/syncstore; tests use fakes.
type LocalStore interface {
	FetchUnsynchronizedReadings(ctx context.Context, limit int) ([]models.Reading, error)
	DeleteReadings(ctx context.Context, ids []string) (int, error)
	MarkReadingsSynchronized(ctx context.Context, ids []string) error
	MarkReadingsFailedValidation(ctx context.Context, ids []string) error
	CountUnsynchronizedReadings(ctx context.Context) (int64, error)

	FetchMeters(ctx context.Context) ([]models.Meter, error)
	UpsertMeter(ctx context.Context, m models.Meter) (inserted bool, err error)
	CountMeters(ctx context.Context) (int64, error)

	FetchTenant(ctx context.Context, tenantID int64) (models.Tenant, bool, error)
	FetchTenants(ctx context.Context) ([]models.Tenant, error)
	UpsertTenant(ctx context.Context, t models.Tenant) (inserted bool, err error)
	CountTenants(ctx context.Context) (int64, error)

	// CurrentTenantID returns the single tenant this daemon instance
	// serves (one daemon serves one local tenant), or found=false when no
	// tenant row exists yet on LOCAL.
	CurrentTenantID(ctx context.Context) (tenantID int64, found bool, err error)

	InsertSyncLog(ctx context.Context, entry models.SyncLogEntry) error
}

// RemoteStore is everything the sync managers need from the REMOTE
// database.
type RemoteStore interface {
	InsertReadings(ctx context.Context, readings []models.Reading) (int, error)
	FetchMeters(ctx context.Context, tenantID int64) ([]models.Meter, error)
	FetchTenants(ctx context.Context) ([]models.Tenant, error)
	CountMeters(ctx context.Context, tenantID int64) (int64, error)
	CountTenants(ctx context.Context) (int64, error)
}
