// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

//go:build integration

package syncstore

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomtom215/meterdaemon/internal/dbpool"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// These tests run the stores' actual SQL (the multi-row conflict-ignoring
// insert, the xmax-based upserts, the placeholder-built delete) against a
// live Postgres. Run with:
//
//	POSTGRES_SYNC_DSN=... POSTGRES_CLIENT_DSN=... go test -tags=integration ./internal/syncstore/...

// handlePool satisfies Pool over a pair of raw handles.
type handlePool struct {
	local  *sql.DB
	remote *sql.DB
}

func (p handlePool) DB(side dbpool.Side) *sql.DB {
	if side == dbpool.Local {
		return p.local
	}
	return p.remote
}

func openSide(t *testing.T, envVar string) *sql.DB {
	t.Helper()

	dsn := os.Getenv(envVar)
	if dsn == "" {
		t.Skipf("%s not set", envVar)
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.PingContext(context.Background()))
	return db
}

// readingTableDDL derives the meter_reading DDL from the shared column
// list so the test schema cannot drift from the insert bind order.
func readingTableDDL() string {
	cols := []string{
		"meter_reading_id uuid PRIMARY KEY",
		"created_at timestamp NOT NULL",
		"tenant_id bigint NOT NULL",
		"meter_id bigint NOT NULL",
		"meter_element_id bigint NOT NULL",
	}
	for _, c := range models.ReadingColumns()[5:] {
		cols = append(cols, c+" double precision")
	}
	cols = append(cols,
		"sync_status text NOT NULL DEFAULT 'pending'",
		"is_synchronized boolean NOT NULL DEFAULT false",
		"retry_count bigint NOT NULL DEFAULT 0",
	)
	return "CREATE TABLE IF NOT EXISTS meter_reading (" + strings.Join(cols, ", ") + ")"
}

const meterTableDDL = `CREATE TABLE IF NOT EXISTS meter (
	meter_id bigint NOT NULL,
	tenant_id bigint NOT NULL,
	name text NOT NULL DEFAULT '',
	device_id bigint NOT NULL DEFAULT 0,
	ip text NOT NULL DEFAULT '',
	port text NOT NULL DEFAULT '',
	active boolean NOT NULL DEFAULT true,
	element text NOT NULL DEFAULT '',
	meter_element_id bigint NOT NULL,
	PRIMARY KEY (meter_id, meter_element_id)
)`

const tenantTableDDL = `CREATE TABLE IF NOT EXISTS tenant (
	tenant_id bigint PRIMARY KEY,
	name text NOT NULL DEFAULT '',
	url text NOT NULL DEFAULT '',
	street text NOT NULL DEFAULT '',
	street2 text NOT NULL DEFAULT '',
	city text NOT NULL DEFAULT '',
	state text NOT NULL DEFAULT '',
	zip text NOT NULL DEFAULT '',
	country text NOT NULL DEFAULT '',
	active boolean NOT NULL DEFAULT true,
	download_batch_size int NOT NULL DEFAULT 1000,
	upload_batch_size int NOT NULL DEFAULT 100,
	api_key text NOT NULL DEFAULT '',
	created_at timestamp NOT NULL DEFAULT now(),
	updated_at timestamp NOT NULL DEFAULT now()
)`

const syncLogTableDDL = `CREATE TABLE IF NOT EXISTS sync_log (
	id serial PRIMARY KEY,
	operation_type text NOT NULL,
	batch_size int NOT NULL,
	success boolean NOT NULL,
	error_message text NOT NULL DEFAULT '',
	synced_at timestamp NOT NULL DEFAULT now()
)`

func prepareSchema(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()

	for _, ddl := range []string{readingTableDDL(), meterTableDDL, tenantTableDDL, syncLogTableDDL} {
		_, err := db.ExecContext(ctx, ddl)
		require.NoError(t, err)
	}
	_, err := db.ExecContext(ctx, "TRUNCATE meter_reading, meter, tenant, sync_log")
	require.NoError(t, err)
}

func localStore(t *testing.T) (*Local, *sql.DB) {
	t.Helper()
	db := openSide(t, "POSTGRES_SYNC_DSN")
	prepareSchema(t, db)
	return NewLocal(handlePool{local: db}), db
}

func remoteStore(t *testing.T) (*Remote, *sql.DB) {
	t.Helper()
	db := openSide(t, "POSTGRES_CLIENT_DSN")
	prepareSchema(t, db)
	return NewRemote(handlePool{remote: db}), db
}

func seedReading(t *testing.T, db *sql.DB, id string, createdAt time.Time) {
	t.Helper()
	_, err := db.ExecContext(context.Background(), `
		INSERT INTO meter_reading (meter_reading_id, created_at, tenant_id, meter_id, meter_element_id, voltage_a)
		VALUES ($1, $2, 1, 42, 1, 231.7)`, id, createdAt)
	require.NoError(t, err)
}

func integrationReading(id string, createdAt time.Time) models.Reading {
	v := 231.7
	return models.Reading{
		MeterReadingID: id,
		CreatedAt:      createdAt,
		TenantID:       1,
		MeterID:        42,
		MeterElementID: 1,
		VoltageA:       &v,
		SyncStatus:     models.SyncStatusPending,
	}
}

func TestIntegrationLocal_ReadingLifecycle(t *testing.T) {
	store, _ := localStore(t)
	ctx := context.Background()
	db := store.db()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString()}
	// Seed out of creation order to prove the fetch sorts.
	seedReading(t, db, ids[2], base.Add(2*time.Second))
	seedReading(t, db, ids[0], base)
	seedReading(t, db, ids[1], base.Add(time.Second))

	rows, err := store.FetchUnsynchronizedReadings(ctx, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2, "fetch honors the batch limit")
	assert.Equal(t, ids[0], rows[0].MeterReadingID, "oldest row drains first")
	assert.Equal(t, ids[1], rows[1].MeterReadingID)
	assert.False(t, rows[0].IsSynchronized)
	require.NotNil(t, rows[0].VoltageA)
	assert.InDelta(t, 231.7, *rows[0].VoltageA, 0.001)
	assert.Nil(t, rows[0].Frequency, "NULL measurement scans to nil")

	n, err := store.CountUnsynchronizedReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, store.MarkReadingsSynchronized(ctx, ids[:2]))

	rows, err = store.FetchUnsynchronizedReadings(ctx, 100)
	require.NoError(t, err)
	require.Len(t, rows, 1, "flagged rows leave the batch")
	assert.Equal(t, ids[2], rows[0].MeterReadingID)

	deleted, err := store.DeleteReadings(ctx, ids[:2])
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	n, err = store.CountUnsynchronizedReadings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIntegrationLocal_MarkFailedValidation(t *testing.T) {
	store, _ := localStore(t)
	ctx := context.Background()

	id := uuid.NewString()
	seedReading(t, store.db(), id, time.Now().UTC().Add(-time.Minute))

	require.NoError(t, store.MarkReadingsFailedValidation(ctx, []string{id}))

	rows, err := store.FetchUnsynchronizedReadings(ctx, 100)
	require.NoError(t, err)
	assert.Empty(t, rows, "rejected rows are excluded from future batches")

	var status string
	err = store.db().QueryRowContext(ctx,
		"SELECT sync_status FROM meter_reading WHERE meter_reading_id = $1", id).Scan(&status)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailedValidation, status)
}

func TestIntegrationLocal_MeterUpsert(t *testing.T) {
	store, _ := localStore(t)
	ctx := context.Background()

	m := models.Meter{
		MeterID: 42, TenantID: 1, Name: "main-feed", DeviceID: 7,
		IP: "10.1.2.3", Port: "502", Active: true, Element: "L1", MeterElementID: 1,
	}

	inserted, err := store.UpsertMeter(ctx, m)
	require.NoError(t, err)
	assert.True(t, inserted, "first upsert is an insert")

	m.IP = "10.0.0.9"
	inserted, err = store.UpsertMeter(ctx, m)
	require.NoError(t, err)
	assert.False(t, inserted, "second upsert on the same key is an update")

	meters, err := store.FetchMeters(ctx)
	require.NoError(t, err)
	require.Len(t, meters, 1)
	assert.Equal(t, "10.0.0.9", meters[0].IP)

	n, err := store.CountMeters(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIntegrationLocal_TenantUpsertPreservesLocalColumns(t *testing.T) {
	store, _ := localStore(t)
	ctx := context.Background()

	seed := models.Tenant{
		TenantID: 1, Name: "Acme Energy", City: "München", Country: "DE", Active: true,
		DownloadBatchSize: 1000, UploadBatchSize: 100, APIKey: "",
	}
	inserted, err := store.UpsertTenant(ctx, seed)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Operator tunes the LOCAL-only columns out of band.
	_, err = store.db().ExecContext(ctx,
		"UPDATE tenant SET upload_batch_size = 250, api_key = 'secret-key' WHERE tenant_id = 1")
	require.NoError(t, err)

	// A reconciliation pass carries different values for the LOCAL-only
	// columns; the UPDATE branch must not apply them.
	changed := seed
	changed.City = "Berlin"
	changed.UploadBatchSize = 999
	changed.APIKey = "overwritten"
	inserted, err = store.UpsertTenant(ctx, changed)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, found, err := store.FetchTenant(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Berlin", got.City)
	assert.Equal(t, 250, got.UploadBatchSize, "upload_batch_size survives reconciliation")
	assert.Equal(t, "secret-key", got.APIKey)

	tenantID, hasTenant, err := store.CurrentTenantID(ctx)
	require.NoError(t, err)
	require.True(t, hasTenant)
	assert.Equal(t, int64(1), tenantID)

	n, err := store.CountTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestIntegrationLocal_CurrentTenantID_Empty(t *testing.T) {
	store, _ := localStore(t)

	_, hasTenant, err := store.CurrentTenantID(context.Background())
	require.NoError(t, err)
	assert.False(t, hasTenant)
}

func TestIntegrationLocal_SeedTenantAPIKey(t *testing.T) {
	store, _ := localStore(t)
	ctx := context.Background()

	_, err := store.UpsertTenant(ctx, models.Tenant{TenantID: 1, Name: "Acme"})
	require.NoError(t, err)

	n, err := store.SeedTenantAPIKey(ctx, "seeded-key")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = store.SeedTenantAPIKey(ctx, "other-key")
	require.NoError(t, err)
	assert.Zero(t, n, "an existing key is never overwritten")

	got, _, err := store.FetchTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "seeded-key", got.APIKey)
}

func TestIntegrationLocal_SyncLog(t *testing.T) {
	store, _ := localStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertSyncLog(ctx, models.SyncLogEntry{
		OperationType: models.OperationUpload,
		BatchSize:     3,
		Success:       true,
	}))
	require.NoError(t, store.InsertSyncLog(ctx, models.SyncLogEntry{
		OperationType: models.OperationDownloadMeter,
		BatchSize:     0,
		Success:       false,
		ErrorMessage:  "meter download: connection refused",
	}))

	var n int
	err := store.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_log").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var msg string
	err = store.db().QueryRowContext(ctx,
		"SELECT error_message FROM sync_log WHERE success = false").Scan(&msg)
	require.NoError(t, err)
	assert.Contains(t, msg, "meter download")
}

func TestIntegrationRemote_InsertReadings_ConflictIgnoring(t *testing.T) {
	store, _ := remoteStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	a, b, c := uuid.NewString(), uuid.NewString(), uuid.NewString()

	inserted, err := store.InsertReadings(ctx, []models.Reading{
		integrationReading(a, base),
		integrationReading(b, base.Add(time.Second)),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	// Re-sending an already-accepted row (the partial-failure recovery
	// path) must not fail the batch and must not double-insert.
	inserted, err = store.InsertReadings(ctx, []models.Reading{
		integrationReading(a, base),
		integrationReading(c, base.Add(2*time.Second)),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	var n int
	err = store.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM meter_reading").Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	var voltage float64
	err = store.db().QueryRowContext(ctx,
		"SELECT voltage_a FROM meter_reading WHERE meter_reading_id = $1", a).Scan(&voltage)
	require.NoError(t, err)
	assert.InDelta(t, 231.7, voltage, 0.001)
}

func TestIntegrationRemote_InsertReadings_Empty(t *testing.T) {
	store, _ := remoteStore(t)

	inserted, err := store.InsertReadings(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestIntegrationRemote_FetchMetersAndTenants(t *testing.T) {
	store, db := remoteStore(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		INSERT INTO meter (meter_id, tenant_id, name, device_id, ip, port, active, element, meter_element_id)
		VALUES (42, 1, 'main-feed', 7, '10.1.2.3', '502', true, 'L1', 1),
		       (43, 2, 'other-tenant', 8, '10.1.2.4', '502', true, 'L1', 1)`)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, `
		INSERT INTO tenant (tenant_id, name, url, city, country, active)
		VALUES (1, 'Acme Energy', 'https://acme.example', 'Berlin', 'DE', true)`)
	require.NoError(t, err)

	meters, err := store.FetchMeters(ctx, 1)
	require.NoError(t, err)
	require.Len(t, meters, 1, "fetch is scoped to the requested tenant")
	assert.Equal(t, int64(42), meters[0].MeterID)
	assert.Equal(t, "10.1.2.3", meters[0].IP)

	tenants, err := store.FetchTenants(ctx)
	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "Acme Energy", tenants[0].Name)

	n, err := store.CountMeters(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.CountTenants(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
