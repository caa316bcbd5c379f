// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncengine

import (
	"context"

	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// TenantConfigLoader reads per-tenant batch sizes at startup, falling back
// to models.DefaultTenantConfig when the tenant row is missing or its
// configuration columns are unset (schema not yet migrated).
type TenantConfigLoader struct {
	local LocalStore
}

// NewTenantConfigLoader builds a TenantConfigLoader.
func NewTenantConfigLoader(local LocalStore) *TenantConfigLoader {
	return &TenantConfigLoader{local: local}
}

// GetTenantBatchConfig returns tenantID's batch sizes, or the default
// fallback {1000, 100} when unavailable.
func (l *TenantConfigLoader) GetTenantBatchConfig(ctx context.Context, tenantID int64) models.TenantConfig {
	tenant, found, err := l.local.FetchTenant(ctx, tenantID)
	if err != nil {
		logging.Warn().Err(err).Int64("tenant_id", tenantID).Msg("tenant config lookup failed, using defaults")
		return models.DefaultTenantConfig
	}
	if !found {
		return models.DefaultTenantConfig
	}

	cfg := models.TenantConfig{
		DownloadBatchSize: tenant.DownloadBatchSize,
		UploadBatchSize:   tenant.UploadBatchSize,
	}
	if cfg.DownloadBatchSize <= 0 {
		cfg.DownloadBatchSize = models.DefaultTenantConfig.DownloadBatchSize
	}
	if cfg.UploadBatchSize <= 0 {
		cfg.UploadBatchSize = models.DefaultTenantConfig.UploadBatchSize
	}
	return cfg
}
