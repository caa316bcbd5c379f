// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/meterdaemon/internal/dbpool"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// Remote implements syncengine.RemoteStore against the REMOTE database.
type Remote struct {
	pool Pool
}

// NewRemote builds a Remote store over pool's REMOTE handle.
func NewRemote(pool Pool) *Remote {
	return &Remote{pool: pool}
}

func (r *Remote) db() *sql.DB { return r.pool.DB(dbpool.Remote) }

// InsertReadings bulk-inserts readings into REMOTE in a single statement,
// ignoring any row whose meter_reading_id already exists so a retried
// batch (partial failure on a prior attempt) is idempotent.
func (r *Remote) InsertReadings(ctx context.Context, readings []models.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	cols := models.ReadingColumns()
	var sb strings.Builder
	sb.WriteString("INSERT INTO meter_reading (")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(readings)*len(cols))
	n := 0
	for i, reading := range readings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		values := reading.Values()
		for j := range values {
			if j > 0 {
				sb.WriteString(", ")
			}
			n++
			fmt.Fprintf(&sb, "$%d", n)
		}
		sb.WriteString(")")
		args = append(args, values...)
	}
	sb.WriteString(" ON CONFLICT (meter_reading_id) DO NOTHING")

	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("syncstore: begin remote insert tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("syncstore: insert remote readings: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("syncstore: commit remote insert tx: %w", err)
	}
	return int(affected), nil
}

// FetchMeters returns every REMOTE meter row for tenantID — the
// source-of-truth set the download manager diffs LOCAL against.
func (r *Remote) FetchMeters(ctx context.Context, tenantID int64) ([]models.Meter, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT meter_id, tenant_id, name, device_id, ip, port, active, element, meter_element_id
		FROM meter WHERE tenant_id = $1`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("syncstore: fetch remote meters: %w", err)
	}
	defer rows.Close()

	var meters []models.Meter
	for rows.Next() {
		var m models.Meter
		if err := rows.Scan(&m.MeterID, &m.TenantID, &m.Name, &m.DeviceID, &m.IP, &m.Port, &m.Active, &m.Element, &m.MeterElementID); err != nil {
			return nil, fmt.Errorf("syncstore: scan remote meter: %w", err)
		}
		meters = append(meters, m)
	}
	return meters, rows.Err()
}

// FetchTenants returns every REMOTE tenant row, excluding LOCAL-only
// configuration columns that REMOTE does not carry.
func (r *Remote) FetchTenants(ctx context.Context) ([]models.Tenant, error) {
	rows, err := r.db().QueryContext(ctx, `
		SELECT tenant_id, name, url, street, street2, city, state, zip, country, active
		FROM tenant`)
	if err != nil {
		return nil, fmt.Errorf("syncstore: fetch remote tenants: %w", err)
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.TenantID, &t.Name, &t.URL, &t.Street, &t.Street2, &t.City, &t.State, &t.Zip, &t.Country, &t.Active); err != nil {
			return nil, fmt.Errorf("syncstore: scan remote tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// CountMeters reports the REMOTE meter row count for tenantID.
func (r *Remote) CountMeters(ctx context.Context, tenantID int64) (int64, error) {
	var n int64
	err := r.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM meter WHERE tenant_id = $1", tenantID).Scan(&n)
	return n, err
}

// CountTenants reports the total REMOTE tenant row count.
func (r *Remote) CountTenants(ctx context.Context) (int64, error) {
	var n int64
	err := r.db().QueryRowContext(ctx, "SELECT COUNT(*) FROM tenant").Scan(&n)
	return n, err
}
