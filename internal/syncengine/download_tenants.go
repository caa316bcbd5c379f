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

// TenantDownloadManager reconciles LOCAL's tenant table against REMOTE.
// LOCAL-only configuration columns (download_batch_size, upload_batch_size,
// api_key) are carried forward from the existing LOCAL row and never
// overwritten by REMOTE's values.
type TenantDownloadManager struct {
	local   LocalStore
	remote  RemoteStore
	breaker *Breaker
}

// NewTenantDownloadManager builds a TenantDownloadManager.
func NewTenantDownloadManager(local LocalStore, remote RemoteStore, breaker *Breaker) *TenantDownloadManager {
	return &TenantDownloadManager{local: local, remote: remote, breaker: breaker}
}

// Sync reconciles all tenants.
func (m *TenantDownloadManager) Sync(ctx context.Context) models.TenantDownloadResult {
	start := time.Now()
	result := models.TenantDownloadResult{}

	remoteTenants, err := m.fetchRemote(ctx)
	if err != nil {
		result.Error = syncerr.WrapDownload("tenant", err)
		result.Duration = time.Since(start)
		return result
	}

	var localTenants []models.Tenant
	err = syncerr.ExecuteWithRetry(ctx, syncerr.Query, func(ctx context.Context) error {
		var fetchErr error
		localTenants, fetchErr = m.local.FetchTenants(ctx)
		return fetchErr
	})
	if err != nil {
		result.Error = syncerr.WrapDownload("tenant", err)
		result.Duration = time.Since(start)
		return result
	}

	localByID := make(map[int64]models.Tenant, len(localTenants))
	for _, lt := range localTenants {
		localByID[lt.TenantID] = lt
	}

	for _, rt := range remoteTenants {
		local, exists := localByID[rt.TenantID]

		if !exists {
			seeded := rt
			seeded.DownloadBatchSize = models.DefaultTenantConfig.DownloadBatchSize
			seeded.UploadBatchSize = models.DefaultTenantConfig.UploadBatchSize

			inserted, upsertErr := m.local.UpsertTenant(ctx, seeded)
			if upsertErr != nil {
				logging.Warn().Err(upsertErr).Int64("tenant_id", rt.TenantID).Msg("tenant insert failed")
				continue
			}
			if inserted {
				result.NewTenants++
				result.NewTenantIDs = append(result.NewTenantIDs, rt.TenantID)
			}
			continue
		}

		diffs := rt.DiffFields(local)
		if len(diffs) == 0 {
			continue
		}

		merged := rt.WithLocalColumns(local)
		if _, upsertErr := m.local.UpsertTenant(ctx, merged); upsertErr != nil {
			logging.Warn().Err(upsertErr).Int64("tenant_id", rt.TenantID).Msg("tenant update failed")
			continue
		}
		result.UpdatedTenants++
		result.UpdatedTenantIDs = append(result.UpdatedTenantIDs, rt.TenantID)
		result.TenantChanges = append(result.TenantChanges, models.TenantChange{
			TenantID:      rt.TenantID,
			ChangedFields: diffs,
		})
	}

	metrics.TenantsNewTotal.Add(float64(result.NewTenants))
	metrics.TenantsUpdatedTotal.Add(float64(result.UpdatedTenants))

	result.TotalTenants = len(remoteTenants)
	result.Success = true
	result.Duration = time.Since(start)
	return result
}

func (m *TenantDownloadManager) fetchRemote(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	err := syncerr.ExecuteWithRetry(ctx, syncerr.Connection, func(ctx context.Context) error {
		res, execErr := m.breaker.Execute(func() (any, error) {
			return m.remote.FetchTenants(ctx)
		})
		if execErr != nil {
			return execErr
		}
		tenants = res.([]models.Tenant)
		return nil
	})
	return tenants, err
}
