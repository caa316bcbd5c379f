// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package models defines the LOCAL/REMOTE data shapes shared by the sync
// daemon's connection, upload, download, and validation components.
package models

import "time"

// SyncStatus values for Reading.SyncStatus.
const (
	SyncStatusPending          = "pending"
	SyncStatusSynchronized     = "synchronized"
	SyncStatusFailedUpload     = "failed_upload"
	SyncStatusFailedValidation = "failed_validation"
)

// Reading is one row of meter_reading: a single measurement snapshot
// produced by an external collector and owned exclusively by the upload
// manager until it is deleted from LOCAL.
//
// Column set is enumerated explicitly (see readingColumns below) rather
// than synthesized by reflecting over struct fields, so adding a
// measurement column is a deliberate edit (the struct field, its
// readingColumns entry, its Values entry, and the LOCAL scan code in
// internal/syncstore) instead of an implicit schema change.
type Reading struct {
	MeterReadingID string    `db:"meter_reading_id"`
	CreatedAt      time.Time `db:"created_at"`
	TenantID       int64     `db:"tenant_id"`
	MeterID        int64     `db:"meter_id"`
	MeterElementID int64     `db:"meter_element_id"`

	// Voltage (volts).
	VoltageA   *float64 `db:"voltage_a"`
	VoltageB   *float64 `db:"voltage_b"`
	VoltageC   *float64 `db:"voltage_c"`
	VoltageAB  *float64 `db:"voltage_ab"`
	VoltageBC  *float64 `db:"voltage_bc"`
	VoltageCA  *float64 `db:"voltage_ca"`
	VoltageAvg *float64 `db:"voltage_avg"`

	// Current (amps).
	CurrentA   *float64 `db:"current_a"`
	CurrentB   *float64 `db:"current_b"`
	CurrentC   *float64 `db:"current_c"`
	CurrentN   *float64 `db:"current_n"`
	CurrentAvg *float64 `db:"current_avg"`

	// Active power (watts).
	PowerA     *float64 `db:"power_a"`
	PowerB     *float64 `db:"power_b"`
	PowerC     *float64 `db:"power_c"`
	PowerTotal *float64 `db:"power_total"`

	// Reactive power (VAR).
	ReactivePowerA     *float64 `db:"reactive_power_a"`
	ReactivePowerB     *float64 `db:"reactive_power_b"`
	ReactivePowerC     *float64 `db:"reactive_power_c"`
	ReactivePowerTotal *float64 `db:"reactive_power_total"`

	// Apparent power (VA).
	ApparentPowerA     *float64 `db:"apparent_power_a"`
	ApparentPowerB     *float64 `db:"apparent_power_b"`
	ApparentPowerC     *float64 `db:"apparent_power_c"`
	ApparentPowerTotal *float64 `db:"apparent_power_total"`

	// Energy (kWh / kVARh, cumulative counters).
	EnergyActiveImport   *float64 `db:"energy_active_import"`
	EnergyActiveExport   *float64 `db:"energy_active_export"`
	EnergyReactiveImport *float64 `db:"energy_reactive_import"`
	EnergyReactiveExport *float64 `db:"energy_reactive_export"`

	// Frequency (Hz).
	Frequency *float64 `db:"frequency"`

	// Power factor (dimensionless, 0-1).
	PowerFactorA     *float64 `db:"power_factor_a"`
	PowerFactorB     *float64 `db:"power_factor_b"`
	PowerFactorC     *float64 `db:"power_factor_c"`
	PowerFactorTotal *float64 `db:"power_factor_total"`

	// Total harmonic distortion (percent).
	VoltageTHDA *float64 `db:"voltage_thd_a"`
	VoltageTHDB *float64 `db:"voltage_thd_b"`
	VoltageTHDC *float64 `db:"voltage_thd_c"`
	CurrentTHDA *float64 `db:"current_thd_a"`
	CurrentTHDB *float64 `db:"current_thd_b"`
	CurrentTHDC *float64 `db:"current_thd_c"`

	// Temperature (Celsius, device-internal).
	Temperature *float64 `db:"temperature"`

	SyncStatus     string `db:"sync_status"`
	IsSynchronized bool   `db:"is_synchronized"`
	RetryCount     int64  `db:"retry_count"`
}

// readingColumns lists every meter_reading column in the order values are
// bound for a multi-row insert. It intentionally excludes is_synchronized,
// sync_status, and retry_count: those are LOCAL-only sync bookkeeping and
// are never written to REMOTE.
var readingColumns = []string{
	"meter_reading_id", "created_at", "tenant_id", "meter_id", "meter_element_id",
	"voltage_a", "voltage_b", "voltage_c", "voltage_ab", "voltage_bc", "voltage_ca", "voltage_avg",
	"current_a", "current_b", "current_c", "current_n", "current_avg",
	"power_a", "power_b", "power_c", "power_total",
	"reactive_power_a", "reactive_power_b", "reactive_power_c", "reactive_power_total",
	"apparent_power_a", "apparent_power_b", "apparent_power_c", "apparent_power_total",
	"energy_active_import", "energy_active_export", "energy_reactive_import", "energy_reactive_export",
	"frequency",
	"power_factor_a", "power_factor_b", "power_factor_c", "power_factor_total",
	"voltage_thd_a", "voltage_thd_b", "voltage_thd_c",
	"current_thd_a", "current_thd_b", "current_thd_c",
	"temperature",
}

// ReadingColumns returns the REMOTE-insertable column list, in bind order.
func ReadingColumns() []string {
	cols := make([]string, len(readingColumns))
	copy(cols, readingColumns)
	return cols
}

// Values returns r's column values in the same order as ReadingColumns,
// for binding into a multi-row INSERT.
func (r Reading) Values() []any {
	return []any{
		r.MeterReadingID, r.CreatedAt, r.TenantID, r.MeterID, r.MeterElementID,
		r.VoltageA, r.VoltageB, r.VoltageC, r.VoltageAB, r.VoltageBC, r.VoltageCA, r.VoltageAvg,
		r.CurrentA, r.CurrentB, r.CurrentC, r.CurrentN, r.CurrentAvg,
		r.PowerA, r.PowerB, r.PowerC, r.PowerTotal,
		r.ReactivePowerA, r.ReactivePowerB, r.ReactivePowerC, r.ReactivePowerTotal,
		r.ApparentPowerA, r.ApparentPowerB, r.ApparentPowerC, r.ApparentPowerTotal,
		r.EnergyActiveImport, r.EnergyActiveExport, r.EnergyReactiveImport, r.EnergyReactiveExport,
		r.Frequency,
		r.PowerFactorA, r.PowerFactorB, r.PowerFactorC, r.PowerFactorTotal,
		r.VoltageTHDA, r.VoltageTHDB, r.VoltageTHDC,
		r.CurrentTHDA, r.CurrentTHDB, r.CurrentTHDC,
		r.Temperature,
	}
}
