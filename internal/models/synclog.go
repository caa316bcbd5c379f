// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package models

import "time"

// Operation kinds recorded in sync_log.
const (
	OperationUpload         = "upload"
	OperationDownloadMeter  = "download_meter"
	OperationDownloadTenant = "download_tenant"
)

// SyncLogEntry is an append-only diagnostic record of one sub-operation.
type SyncLogEntry struct {
	ID            int64     `db:"id"`
	OperationType string    `db:"operation_type"`
	BatchSize     int       `db:"batch_size"`
	Success       bool      `db:"success"`
	ErrorMessage  string    `db:"error_message"`
	SyncedAt      time.Time `db:"synced_at"`
}
