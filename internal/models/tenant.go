// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package models

// Tenant is authoritative on REMOTE except for its three LOCAL-only
// configuration knobs, which the download manager must never overwrite.
type Tenant struct {
	TenantID int64  `db:"tenant_id"`
	Name     string `db:"name"`
	URL      string `db:"url"`
	Street   string `db:"street"`
	Street2  string `db:"street2"`
	City     string `db:"city"`
	State    string `db:"state"`
	Zip      string `db:"zip"`
	Country  string `db:"country"`
	Active   bool   `db:"active"`

	// LOCAL-only; never overwritten by a REMOTE reconciliation pass.
	DownloadBatchSize int    `db:"download_batch_size"`
	UploadBatchSize   int    `db:"upload_batch_size"`
	APIKey            string `db:"api_key"`
}

// DiffFields returns the names of replicated fields that differ between t
// (REMOTE) and local. LOCAL-only fields are deliberately excluded.
func (t Tenant) DiffFields(local Tenant) []string {
	var changed []string
	if t.Name != local.Name {
		changed = append(changed, "name")
	}
	if t.URL != local.URL {
		changed = append(changed, "url")
	}
	if t.Street != local.Street {
		changed = append(changed, "street")
	}
	if t.Street2 != local.Street2 {
		changed = append(changed, "street2")
	}
	if t.City != local.City {
		changed = append(changed, "city")
	}
	if t.State != local.State {
		changed = append(changed, "state")
	}
	if t.Zip != local.Zip {
		changed = append(changed, "zip")
	}
	if t.Country != local.Country {
		changed = append(changed, "country")
	}
	if t.Active != local.Active {
		changed = append(changed, "active")
	}
	return changed
}

// WithLocalColumns returns a copy of t (REMOTE's view) with local's
// LOCAL-only columns carried over, so a merge never loses them.
func (t Tenant) WithLocalColumns(local Tenant) Tenant {
	merged := t
	merged.DownloadBatchSize = local.DownloadBatchSize
	merged.UploadBatchSize = local.UploadBatchSize
	merged.APIKey = local.APIKey
	return merged
}

// TenantConfig is the LOCAL-side batch-size configuration read by the
// Tenant-Config Loader. DefaultTenantConfig is returned whenever the
// tenant row is missing or its configuration columns are unset.
type TenantConfig struct {
	DownloadBatchSize int
	UploadBatchSize   int
}

// DefaultTenantConfig is the fallback used when no tenant-specific
// configuration is available.
var DefaultTenantConfig = TenantConfig{DownloadBatchSize: 1000, UploadBatchSize: 100}
