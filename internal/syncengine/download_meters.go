// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncengine

import (
	"context"
	"time"

	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/metrics"
	"github.com/tomtom215/meterdaemon/internal/models"
	"github.com/tomtom215/meterdaemon/internal/syncerr"
)

// MeterDownloadManager reconciles LOCAL's meter table against REMOTE for
// one tenant. It is idempotent: running it twice with no upstream change
// produces zero inserts and zero diffs.
type MeterDownloadManager struct {
	local   LocalStore
	remote  RemoteStore
	breaker *Breaker
}

// NewMeterDownloadManager builds a MeterDownloadManager.
func NewMeterDownloadManager(local LocalStore, remote RemoteStore, breaker *Breaker) *MeterDownloadManager {
	return &MeterDownloadManager{local: local, remote: remote, breaker: breaker}
}

// Sync reconciles meters for tenantID.
func (m *MeterDownloadManager) Sync(ctx context.Context, tenantID int64) models.MeterDownloadResult {
	start := time.Now()
	result := models.MeterDownloadResult{}

	remoteMeters, err := m.fetchRemote(ctx, tenantID)
	if err != nil {
		result.Error = syncerr.WrapDownload("meter", err)
		result.Duration = time.Since(start)
		return result
	}

	var localMeters []models.Meter
	err = syncerr.ExecuteWithRetry(ctx, syncerr.Query, func(ctx context.Context) error {
		var fetchErr error
		localMeters, fetchErr = m.local.FetchMeters(ctx)
		return fetchErr
	})
	if err != nil {
		result.Error = syncerr.WrapDownload("meter", err)
		result.Duration = time.Since(start)
		return result
	}

	localByKey := make(map[[2]int64]models.Meter, len(localMeters))
	for _, lm := range localMeters {
		localByKey[[2]int64{lm.MeterID, lm.MeterElementID}] = lm
	}

	for _, rm := range remoteMeters {
		key := [2]int64{rm.MeterID, rm.MeterElementID}
		local, exists := localByKey[key]

		if !exists {
			inserted, upsertErr := m.local.UpsertMeter(ctx, rm)
			if upsertErr != nil {
				logging.Warn().Err(upsertErr).Int64("meter_id", rm.MeterID).Msg("meter insert failed")
				continue
			}
			if inserted {
				result.NewMeters++
				result.NewMeterIDs = append(result.NewMeterIDs, rm.MeterID)
			}
			continue
		}

		if diffs := rm.DiffFields(local); len(diffs) > 0 {
			if _, upsertErr := m.local.UpsertMeter(ctx, rm); upsertErr != nil {
				logging.Warn().Err(upsertErr).Int64("meter_id", rm.MeterID).Msg("meter update failed")
				continue
			}
			result.UpdatedMeters++
			result.UpdatedMeterIDs = append(result.UpdatedMeterIDs, rm.MeterID)
		}
		// Meters present on both sides with no diff need no action.
		// Meters present only on LOCAL are left untouched: deletions do
		// not propagate, the authority decommissions via active=false.
	}

	metrics.MetersNewTotal.Add(float64(result.NewMeters))
	metrics.MetersUpdatedTotal.Add(float64(result.UpdatedMeters))

	result.TotalMeters = len(remoteMeters)
	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func (m *MeterDownloadManager) fetchRemote(ctx context.Context, tenantID int64) ([]models.Meter, error) {
	var meters []models.Meter
	err := syncerr.ExecuteWithRetry(ctx, syncerr.Connection, func(ctx context.Context) error {
		res, execErr := m.breaker.Execute(func() (any, error) {
			return m.remote.FetchMeters(ctx, tenantID)
		})
		if execErr != nil {
			return execErr
		}
		meters = res.([]models.Meter)
		return nil
	})
	return meters, err
}
