// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package syncstore implements the syncengine.LocalStore and
// syncengine.RemoteStore interfaces against Postgres via the pgx/stdlib
// database/sql driver registered by internal/dbpool.
package syncstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/meterdaemon/internal/dbpool"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// Pool supplies the side-scoped database handles the stores run on.
// *dbpool.Manager is the production implementation; tests substitute a
// pair of raw handles.
type Pool interface {
	DB(side dbpool.Side) *sql.DB
}

// Local implements syncengine.LocalStore against the LOCAL database.
type Local struct {
	pool Pool
}

// NewLocal builds a Local store over pool's LOCAL handle.
func NewLocal(pool Pool) *Local {
	return &Local{pool: pool}
}

func (l *Local) db() *sql.DB { return l.pool.DB(dbpool.Local) }

// FetchUnsynchronizedReadings returns up to limit rows with
// is_synchronized=false, ordered by creation time ascending.
func (l *Local) FetchUnsynchronizedReadings(ctx context.Context, limit int) ([]models.Reading, error) {
	query := fmt.Sprintf(
		"SELECT %s FROM meter_reading WHERE is_synchronized = false ORDER BY created_at ASC LIMIT $1",
		strings.Join(localReadingColumns, ", "),
	)
	rows, err := l.db().QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("syncstore: fetch unsynchronized readings: %w", err)
	}
	defer rows.Close()

	var readings []models.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("syncstore: scan reading: %w", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// DeleteReadings removes ids from meter_reading in one transaction.
func (l *Local) DeleteReadings(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := l.db().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("syncstore: begin delete tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	placeholders, args := inPlaceholders(ids)
	query := fmt.Sprintf("DELETE FROM meter_reading WHERE meter_reading_id IN (%s)", placeholders)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("syncstore: delete readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("syncstore: commit delete tx: %w", err)
	}
	return int(n), nil
}

// MarkReadingsSynchronized flips is_synchronized=true and sync_status to
// synchronized for ids, transactionally, ahead of the delete step.
func (l *Local) MarkReadingsSynchronized(ctx context.Context, ids []string) error {
	return l.updateSyncStatus(ctx, ids, models.SyncStatusSynchronized, true)
}

// MarkReadingsFailedValidation flags ids as failed_validation, excluding
// them from future unsynchronized-reading batches without deleting them.
func (l *Local) MarkReadingsFailedValidation(ctx context.Context, ids []string) error {
	return l.updateSyncStatus(ctx, ids, models.SyncStatusFailedValidation, true)
}

func (l *Local) updateSyncStatus(ctx context.Context, ids []string, status string, synchronized bool) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := l.db().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("syncstore: begin status-update tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	placeholders, args := inPlaceholders(ids)
	args = append([]any{status, synchronized}, args...)
	query := fmt.Sprintf(
		"UPDATE meter_reading SET sync_status = $1, is_synchronized = $2 WHERE meter_reading_id IN (%s)",
		shiftPlaceholders(placeholders, 2),
	)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("syncstore: update sync status: %w", err)
	}
	return tx.Commit()
}

// CountUnsynchronizedReadings reports the current LOCAL backlog size.
func (l *Local) CountUnsynchronizedReadings(ctx context.Context) (int64, error) {
	var n int64
	err := l.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM meter_reading WHERE is_synchronized = false").Scan(&n)
	return n, err
}

// FetchMeters returns every LOCAL meter row.
func (l *Local) FetchMeters(ctx context.Context) ([]models.Meter, error) {
	rows, err := l.db().QueryContext(ctx, `
		SELECT meter_id, tenant_id, name, device_id, ip, port, active, element, meter_element_id
		FROM meter`)
	if err != nil {
		return nil, fmt.Errorf("syncstore: fetch local meters: %w", err)
	}
	defer rows.Close()

	var meters []models.Meter
	for rows.Next() {
		var m models.Meter
		if err := rows.Scan(&m.MeterID, &m.TenantID, &m.Name, &m.DeviceID, &m.IP, &m.Port, &m.Active, &m.Element, &m.MeterElementID); err != nil {
			return nil, fmt.Errorf("syncstore: scan local meter: %w", err)
		}
		meters = append(meters, m)
	}
	return meters, rows.Err()
}

// UpsertMeter inserts or updates m keyed on (meter_id, meter_element_id),
// reporting whether the row was newly inserted.
func (l *Local) UpsertMeter(ctx context.Context, m models.Meter) (bool, error) {
	var inserted bool
	err := l.db().QueryRowContext(ctx, `
		INSERT INTO meter (meter_id, tenant_id, name, device_id, ip, port, active, element, meter_element_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (meter_id, meter_element_id) DO UPDATE SET
			tenant_id = EXCLUDED.tenant_id,
			name = EXCLUDED.name,
			device_id = EXCLUDED.device_id,
			ip = EXCLUDED.ip,
			port = EXCLUDED.port,
			active = EXCLUDED.active,
			element = EXCLUDED.element
		RETURNING (xmax = 0)`,
		m.MeterID, m.TenantID, m.Name, m.DeviceID, m.IP, m.Port, m.Active, m.Element, m.MeterElementID,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("syncstore: upsert local meter: %w", err)
	}
	return inserted, nil
}

// CountMeters reports the total LOCAL meter row count.
func (l *Local) CountMeters(ctx context.Context) (int64, error) {
	var n int64
	err := l.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM meter").Scan(&n)
	return n, err
}

// FetchTenant returns the LOCAL tenant row for tenantID, including its
// LOCAL-only configuration columns.
func (l *Local) FetchTenant(ctx context.Context, tenantID int64) (models.Tenant, bool, error) {
	var t models.Tenant
	err := l.db().QueryRowContext(ctx, `
		SELECT tenant_id, name, url, street, street2, city, state, zip, country, active,
		       download_batch_size, upload_batch_size, api_key
		FROM tenant WHERE tenant_id = $1`, tenantID,
	).Scan(&t.TenantID, &t.Name, &t.URL, &t.Street, &t.Street2, &t.City, &t.State, &t.Zip, &t.Country, &t.Active,
		&t.DownloadBatchSize, &t.UploadBatchSize, &t.APIKey)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tenant{}, false, nil
	}
	if err != nil {
		return models.Tenant{}, false, fmt.Errorf("syncstore: fetch local tenant: %w", err)
	}
	return t, true, nil
}

// FetchTenants returns every LOCAL tenant row.
func (l *Local) FetchTenants(ctx context.Context) ([]models.Tenant, error) {
	rows, err := l.db().QueryContext(ctx, `
		SELECT tenant_id, name, url, street, street2, city, state, zip, country, active,
		       download_batch_size, upload_batch_size, api_key
		FROM tenant`)
	if err != nil {
		return nil, fmt.Errorf("syncstore: fetch local tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.TenantID, &t.Name, &t.URL, &t.Street, &t.Street2, &t.City, &t.State, &t.Zip, &t.Country, &t.Active,
			&t.DownloadBatchSize, &t.UploadBatchSize, &t.APIKey); err != nil {
			return nil, fmt.Errorf("syncstore: scan local tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UpsertTenant inserts or updates t keyed on tenant_id. The UPDATE branch
// deliberately omits download_batch_size/upload_batch_size/api_key so a
// reconciliation pass never overwrites LOCAL-only configuration.
func (l *Local) UpsertTenant(ctx context.Context, t models.Tenant) (bool, error) {
	var inserted bool
	err := l.db().QueryRowContext(ctx, `
		INSERT INTO tenant (tenant_id, name, url, street, street2, city, state, zip, country, active,
		                     download_batch_size, upload_batch_size, api_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			name = EXCLUDED.name,
			url = EXCLUDED.url,
			street = EXCLUDED.street,
			street2 = EXCLUDED.street2,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			zip = EXCLUDED.zip,
			country = EXCLUDED.country,
			active = EXCLUDED.active,
			updated_at = now()
		RETURNING (xmax = 0)`,
		t.TenantID, t.Name, t.URL, t.Street, t.Street2, t.City, t.State, t.Zip, t.Country, t.Active,
		t.DownloadBatchSize, t.UploadBatchSize, t.APIKey,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("syncstore: upsert local tenant: %w", err)
	}
	return inserted, nil
}

// CountTenants reports the total LOCAL tenant row count.
func (l *Local) CountTenants(ctx context.Context) (int64, error) {
	var n int64
	err := l.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM tenant").Scan(&n)
	return n, err
}

// CurrentTenantID returns the single tenant this daemon instance serves.
// Absence of any tenant row is not an error: it means the daemon has not
// yet completed its first tenant download.
func (l *Local) CurrentTenantID(ctx context.Context) (int64, bool, error) {
	var id int64
	err := l.db().QueryRowContext(ctx, "SELECT tenant_id FROM tenant ORDER BY tenant_id LIMIT 1").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("syncstore: resolve current tenant: %w", err)
	}
	return id, true, nil
}

// SeedTenantAPIKey sets api_key on any LOCAL tenant row that does not
// carry one yet. An existing key is never overwritten, so re-running the
// daemon with the same seed is a no-op.
func (l *Local) SeedTenantAPIKey(ctx context.Context, apiKey string) (int, error) {
	res, err := l.db().ExecContext(ctx,
		"UPDATE tenant SET api_key = $1 WHERE api_key IS NULL OR api_key = ''", apiKey)
	if err != nil {
		return 0, fmt.Errorf("syncstore: seed tenant api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// InsertSyncLog appends one diagnostic record. sync_log is write-only
// from every component's perspective.
func (l *Local) InsertSyncLog(ctx context.Context, entry models.SyncLogEntry) error {
	_, err := l.db().ExecContext(ctx, `
		INSERT INTO sync_log (operation_type, batch_size, success, error_message, synced_at)
		VALUES ($1, $2, $3, $4, now())`,
		entry.OperationType, entry.BatchSize, entry.Success, entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("syncstore: insert sync log: %w", err)
	}
	return nil
}

// inPlaceholders builds a "$1, $2, ..." placeholder list for ids and
// returns it alongside the matching args slice.
func inPlaceholders(ids []string) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	return strings.Join(placeholders, ", "), args
}

// shiftPlaceholders renumbers a "$1, $2, ..." list so it starts after the
// first offset positional args already bound ahead of it.
func shiftPlaceholders(placeholders string, offset int) string {
	parts := strings.Split(placeholders, ", ")
	for i, p := range parts {
		var n int
		fmt.Sscanf(p, "$%d", &n) //nolint:errcheck // n defaults to 0 on malformed input, caught by callers' tests
		parts[i] = fmt.Sprintf("$%d", n+offset)
	}
	return strings.Join(parts, ", ")
}
