// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncstore

import (
	"database/sql"

	"github.com/tomtom215/meterdaemon/internal/models"
)

// localReadingColumns is the full LOCAL meter_reading column list in scan
// order: the replicated measurement columns followed by the three
// LOCAL-only sync bookkeeping columns.
var localReadingColumns = append(append([]string{}, models.ReadingColumns()...),
	"sync_status", "is_synchronized", "retry_count")

// nullableReadingFields holds sql.NullFloat64 scan buffers for every
// *float64 field on models.Reading, one per optional numeric column.
type nullableReadingFields struct {
	VoltageA, VoltageB, VoltageC, VoltageAB, VoltageBC, VoltageCA, VoltageAvg sql.NullFloat64
	CurrentA, CurrentB, CurrentC, CurrentN, CurrentAvg                        sql.NullFloat64
	PowerA, PowerB, PowerC, PowerTotal                                        sql.NullFloat64
	ReactivePowerA, ReactivePowerB, ReactivePowerC, ReactivePowerTotal        sql.NullFloat64
	ApparentPowerA, ApparentPowerB, ApparentPowerC, ApparentPowerTotal        sql.NullFloat64
	EnergyActiveImport, EnergyActiveExport                                    sql.NullFloat64
	EnergyReactiveImport, EnergyReactiveExport                                sql.NullFloat64
	Frequency                                                                 sql.NullFloat64
	PowerFactorA, PowerFactorB, PowerFactorC, PowerFactorTotal                sql.NullFloat64
	VoltageTHDA, VoltageTHDB, VoltageTHDC                                     sql.NullFloat64
	CurrentTHDA, CurrentTHDB, CurrentTHDC                                     sql.NullFloat64
	Temperature                                                               sql.NullFloat64
}

// scanTargets returns the rows.Scan destinations for the full LOCAL
// reading row, in localReadingColumns order.
func scanTargets(r *models.Reading, n *nullableReadingFields) []any {
	return []any{
		&r.MeterReadingID, &r.CreatedAt, &r.TenantID, &r.MeterID, &r.MeterElementID,
		&n.VoltageA, &n.VoltageB, &n.VoltageC, &n.VoltageAB, &n.VoltageBC, &n.VoltageCA, &n.VoltageAvg,
		&n.CurrentA, &n.CurrentB, &n.CurrentC, &n.CurrentN, &n.CurrentAvg,
		&n.PowerA, &n.PowerB, &n.PowerC, &n.PowerTotal,
		&n.ReactivePowerA, &n.ReactivePowerB, &n.ReactivePowerC, &n.ReactivePowerTotal,
		&n.ApparentPowerA, &n.ApparentPowerB, &n.ApparentPowerC, &n.ApparentPowerTotal,
		&n.EnergyActiveImport, &n.EnergyActiveExport, &n.EnergyReactiveImport, &n.EnergyReactiveExport,
		&n.Frequency,
		&n.PowerFactorA, &n.PowerFactorB, &n.PowerFactorC, &n.PowerFactorTotal,
		&n.VoltageTHDA, &n.VoltageTHDB, &n.VoltageTHDC,
		&n.CurrentTHDA, &n.CurrentTHDB, &n.CurrentTHDC,
		&n.Temperature,
		&r.SyncStatus, &r.IsSynchronized, &r.RetryCount,
	}
}

// applyNullable copies n's scan buffers back into r's *float64 fields, nil
// where the column was NULL.
func applyNullable(r *models.Reading, n nullableReadingFields) {
	r.VoltageA = toPtr(n.VoltageA)
	r.VoltageB = toPtr(n.VoltageB)
	r.VoltageC = toPtr(n.VoltageC)
	r.VoltageAB = toPtr(n.VoltageAB)
	r.VoltageBC = toPtr(n.VoltageBC)
	r.VoltageCA = toPtr(n.VoltageCA)
	r.VoltageAvg = toPtr(n.VoltageAvg)
	r.CurrentA = toPtr(n.CurrentA)
	r.CurrentB = toPtr(n.CurrentB)
	r.CurrentC = toPtr(n.CurrentC)
	r.CurrentN = toPtr(n.CurrentN)
	r.CurrentAvg = toPtr(n.CurrentAvg)
	r.PowerA = toPtr(n.PowerA)
	r.PowerB = toPtr(n.PowerB)
	r.PowerC = toPtr(n.PowerC)
	r.PowerTotal = toPtr(n.PowerTotal)
	r.ReactivePowerA = toPtr(n.ReactivePowerA)
	r.ReactivePowerB = toPtr(n.ReactivePowerB)
	r.ReactivePowerC = toPtr(n.ReactivePowerC)
	r.ReactivePowerTotal = toPtr(n.ReactivePowerTotal)
	r.ApparentPowerA = toPtr(n.ApparentPowerA)
	r.ApparentPowerB = toPtr(n.ApparentPowerB)
	r.ApparentPowerC = toPtr(n.ApparentPowerC)
	r.ApparentPowerTotal = toPtr(n.ApparentPowerTotal)
	r.EnergyActiveImport = toPtr(n.EnergyActiveImport)
	r.EnergyActiveExport = toPtr(n.EnergyActiveExport)
	r.EnergyReactiveImport = toPtr(n.EnergyReactiveImport)
	r.EnergyReactiveExport = toPtr(n.EnergyReactiveExport)
	r.Frequency = toPtr(n.Frequency)
	r.PowerFactorA = toPtr(n.PowerFactorA)
	r.PowerFactorB = toPtr(n.PowerFactorB)
	r.PowerFactorC = toPtr(n.PowerFactorC)
	r.PowerFactorTotal = toPtr(n.PowerFactorTotal)
	r.VoltageTHDA = toPtr(n.VoltageTHDA)
	r.VoltageTHDB = toPtr(n.VoltageTHDB)
	r.VoltageTHDC = toPtr(n.VoltageTHDC)
	r.CurrentTHDA = toPtr(n.CurrentTHDA)
	r.CurrentTHDB = toPtr(n.CurrentTHDB)
	r.CurrentTHDC = toPtr(n.CurrentTHDC)
	r.Temperature = toPtr(n.Temperature)
}

func toPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

// scanReading reads one row using the column order in localReadingColumns.
func scanReading(scanner interface{ Scan(...any) error }) (models.Reading, error) {
	var r models.Reading
	var n nullableReadingFields
	if err := scanner.Scan(scanTargets(&r, &n)...); err != nil {
		return models.Reading{}, err
	}
	applyNullable(&r, n)
	return r, nil
}
