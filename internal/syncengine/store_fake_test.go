// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncengine

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/meterdaemon/internal/models"
)

// fakeLocal is an in-memory LocalStore for unit tests. All mutations are
// guarded by mu so scheduler tests can call it from two goroutines.
type fakeLocal struct {
	mu sync.Mutex

	readings []models.Reading
	meters   map[[2]int64]models.Meter
	tenants  map[int64]models.Tenant
	syncLog  []models.SyncLogEntry

	fetchReadingsErr error
	deleteErr        error
	markErr          error
	upsertMeterErr   error
	upsertTenantErr  error
	countErr         error
	tenantErr        error

	fetchCalls int

	// fetchBlock, when non-nil, is received from at the top of
	// FetchUnsynchronizedReadings so tests can hold a cycle open.
	fetchBlock chan struct{}
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{
		meters:  make(map[[2]int64]models.Meter),
		tenants: make(map[int64]models.Tenant),
	}
}

func (f *fakeLocal) FetchUnsynchronizedReadings(_ context.Context, limit int) ([]models.Reading, error) {
	f.mu.Lock()
	f.fetchCalls++
	block := f.fetchBlock
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchReadingsErr != nil {
		return nil, f.fetchReadingsErr
	}

	var out []models.Reading
	for _, r := range f.readings {
		if !r.IsSynchronized {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLocal) DeleteReadings(_ context.Context, ids []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return 0, f.deleteErr
	}

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	var kept []models.Reading
	deleted := 0
	for _, r := range f.readings {
		if idSet[r.MeterReadingID] {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	f.readings = kept
	return deleted, nil
}

func (f *fakeLocal) MarkReadingsSynchronized(_ context.Context, ids []string) error {
	return f.mark(ids, models.SyncStatusSynchronized)
}

func (f *fakeLocal) MarkReadingsFailedValidation(_ context.Context, ids []string) error {
	return f.mark(ids, models.SyncStatusFailedValidation)
}

func (f *fakeLocal) mark(ids []string, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.markErr != nil {
		return f.markErr
	}

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for i := range f.readings {
		if idSet[f.readings[i].MeterReadingID] {
			f.readings[i].SyncStatus = status
			f.readings[i].IsSynchronized = true
		}
	}
	return nil
}

func (f *fakeLocal) CountUnsynchronizedReadings(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countErr != nil {
		return 0, f.countErr
	}
	var n int64
	for _, r := range f.readings {
		if !r.IsSynchronized {
			n++
		}
	}
	return n, nil
}

func (f *fakeLocal) FetchMeters(context.Context) ([]models.Meter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Meter
	for _, m := range f.meters {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeterID < out[j].MeterID })
	return out, nil
}

func (f *fakeLocal) UpsertMeter(_ context.Context, m models.Meter) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertMeterErr != nil {
		return false, f.upsertMeterErr
	}
	key := [2]int64{m.MeterID, m.MeterElementID}
	_, exists := f.meters[key]
	f.meters[key] = m
	return !exists, nil
}

func (f *fakeLocal) CountMeters(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.meters)), nil
}

func (f *fakeLocal) FetchTenant(_ context.Context, tenantID int64) (models.Tenant, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tenantErr != nil {
		return models.Tenant{}, false, f.tenantErr
	}
	t, ok := f.tenants[tenantID]
	return t, ok, nil
}

func (f *fakeLocal) FetchTenants(context.Context) ([]models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Tenant
	for _, t := range f.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TenantID < out[j].TenantID })
	return out, nil
}

func (f *fakeLocal) UpsertTenant(_ context.Context, t models.Tenant) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.upsertTenantErr != nil {
		return false, f.upsertTenantErr
	}
	_, exists := f.tenants[t.TenantID]
	f.tenants[t.TenantID] = t
	return !exists, nil
}

func (f *fakeLocal) CountTenants(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.tenants)), nil
}

func (f *fakeLocal) CurrentTenantID(context.Context) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tenantErr != nil {
		return 0, false, f.tenantErr
	}

	var ids []int64
	for id := range f.tenants {
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids[0], true, nil
}

func (f *fakeLocal) InsertSyncLog(_ context.Context, entry models.SyncLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.syncLog = append(f.syncLog, entry)
	return nil
}

func (f *fakeLocal) unsynchronizedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string
	for _, r := range f.readings {
		if !r.IsSynchronized {
			ids = append(ids, r.MeterReadingID)
		}
	}
	return ids
}

// fakeRemote is an in-memory RemoteStore. InsertReadings is
// conflict-ignoring on the reading identifier, like the real store.
type fakeRemote struct {
	mu sync.Mutex

	readings map[string]models.Reading
	meters   []models.Meter
	tenants  []models.Tenant

	insertErr      error
	fetchMeterErr  error
	fetchTenantErr error

	insertCalls int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{readings: make(map[string]models.Reading)}
}

func (f *fakeRemote) InsertReadings(_ context.Context, readings []models.Reading) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	if f.insertErr != nil {
		return 0, f.insertErr
	}

	inserted := 0
	for _, r := range readings {
		if _, exists := f.readings[r.MeterReadingID]; exists {
			continue
		}
		f.readings[r.MeterReadingID] = r
		inserted++
	}
	return inserted, nil
}

func (f *fakeRemote) FetchMeters(_ context.Context, tenantID int64) ([]models.Meter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchMeterErr != nil {
		return nil, f.fetchMeterErr
	}
	var out []models.Meter
	for _, m := range f.meters {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRemote) FetchTenants(context.Context) ([]models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fetchTenantErr != nil {
		return nil, f.fetchTenantErr
	}
	out := make([]models.Tenant, len(f.tenants))
	copy(out, f.tenants)
	return out, nil
}

func (f *fakeRemote) CountMeters(_ context.Context, tenantID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, m := range f.meters {
		if m.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRemote) CountTenants(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return int64(len(f.tenants)), nil
}

func (f *fakeRemote) hasReading(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.readings[id]
	return ok
}

// fakeHealth is a canned HealthChecker for status tests.
type fakeHealth struct {
	health models.ConnectionHealth
}

func (f *fakeHealth) Health(context.Context) models.ConnectionHealth {
	return f.health
}
