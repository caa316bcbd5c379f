// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package models

import "time"

// UploadResult is the outcome of one upload pass.
type UploadResult struct {
	Success         bool
	RecordsUploaded int
	RecordsDeleted  int
	Error           error
	Duration        time.Duration
}

// MeterDownloadResult is the outcome of one meter reconciliation pass.
type MeterDownloadResult struct {
	Success         bool
	NewMeters       int
	UpdatedMeters   int
	TotalMeters     int
	NewMeterIDs     []int64
	UpdatedMeterIDs []int64
	Error           error
	Duration        time.Duration
}

// TenantChange names a tenant and the replicated fields that differed.
type TenantChange struct {
	TenantID      int64
	ChangedFields []string
}

// TenantDownloadResult is the outcome of one tenant reconciliation pass.
type TenantDownloadResult struct {
	Success          bool
	NewTenants       int
	UpdatedTenants   int
	TotalTenants     int
	NewTenantIDs     []int64
	UpdatedTenantIDs []int64
	TenantChanges    []TenantChange
	Error            error
	Duration         time.Duration
}

// CycleResult aggregates one full sync cycle's sub-results. Success is the
// conjunction of all three phases.
type CycleResult struct {
	Success        bool
	Upload         UploadResult
	MeterDownload  MeterDownloadResult
	TenantDownload TenantDownloadResult
	StartedAt      time.Time
	Duration       time.Duration
}

// ConnectionHealth reports LOCAL/REMOTE reachability as observed by the
// Connection Manager's most recent health probe.
type ConnectionHealth struct {
	LocalConnected  bool
	RemoteConnected bool
	LastCheckedAt   time.Time
}

// Status is the read-only snapshot returned by the Status Reporter. It is
// composed best-effort: a failure to read one counter zeros that field and
// is logged, but never fails the whole snapshot.
type Status struct {
	IsRunning          bool
	LastSyncTime       time.Time
	LastSyncSuccess    bool
	LastSyncError      string
	QueueSize          int64
	TotalRecordsSynced int64
	LocalMeterCount    int64
	RemoteMeterCount   int64
	LocalTenantCount   int64
	RemoteTenantCount  int64
	ConnectionHealth
}
