// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncengine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/metrics"
	"github.com/tomtom215/meterdaemon/internal/models"
	"github.com/tomtom215/meterdaemon/internal/syncerr"
)

// ErrAlreadyRunning is returned by Start when the scheduler is already
// driving a ticker loop.
var ErrAlreadyRunning = errors.New("syncengine: scheduler already running")

// SchedulerConfig tunes the cycle cadence and graceful-stop behavior.
type SchedulerConfig struct {
	Interval          time.Duration
	GracefulStopFence time.Duration
	GracefulStopPoll  time.Duration
}

// Scheduler runs upload+download cycles on a fixed interval under mutual
// exclusion, and is the sole concurrent agent in the core: at most one
// cycle is in progress at any instant, and every database call inside a
// cycle runs sequentially.
type Scheduler struct {
	upload    *UploadManager
	meterDL   *MeterDownloadManager
	tenantDL  *TenantDownloadManager
	tenantCfg *TenantConfigLoader
	local     LocalStore

	cfg SchedulerConfig

	inProgress atomic.Bool
	running    atomic.Bool

	mu                 sync.RWMutex
	lastSyncTime       time.Time
	lastSyncSuccess    bool
	lastSyncError      string
	totalRecordsSynced atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a Scheduler wired to the given sub-managers.
func NewScheduler(upload *UploadManager, meterDL *MeterDownloadManager, tenantDL *TenantDownloadManager, tenantCfg *TenantConfigLoader, local LocalStore, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.GracefulStopFence <= 0 {
		cfg.GracefulStopFence = 5 * time.Minute
	}
	if cfg.GracefulStopPoll <= 0 {
		cfg.GracefulStopPoll = time.Second
	}
	return &Scheduler{
		upload:    upload,
		meterDL:   meterDL,
		tenantDL:  tenantDL,
		tenantCfg: tenantCfg,
		local:     local,
		cfg:       cfg,
	}
}

// Start runs one cycle immediately, then launches the ticker loop that
// drives subsequent cycles. It returns once the first cycle and the loop
// goroutine are underway; it does not block for the daemon's lifetime.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.ExecuteSyncCycle(ctx)

	go s.loop(loopCtx, ctx)
	return nil
}

func (s *Scheduler) loop(loopCtx, cycleCtx context.Context) {
	defer close(s.done)
	defer s.running.Store(false)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			if !s.inProgress.CompareAndSwap(false, true) {
				metrics.RecordCycleSkipped()
				logging.Warn().Msg("sync tick skipped: previous cycle still in progress")
				continue
			}
			s.runAndRecord(cycleCtx)
		}
	}
}

// Stop cancels the ticker loop and then waits for any in-progress cycle
// to finish, polling once per GracefulStopPoll up to a GracefulStopFence
// ceiling. Cycles run under the context given to Start, not the loop's,
// so no in-flight transaction is aborted from outside; Stop only waits.
// If the fence elapses first, Stop logs a warning and returns without
// waiting for the loop goroutine to exit.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()

	deadline := time.Now().Add(s.cfg.GracefulStopFence)
	for s.inProgress.Load() && time.Now().Before(deadline) {
		time.Sleep(s.cfg.GracefulStopPoll)
	}
	if s.inProgress.Load() {
		logging.Warn().Msg("graceful stop fence elapsed with a cycle still in progress")
		return
	}

	<-s.done
}

// ExecuteSyncCycle runs one upload+download cycle, enforcing mutual
// exclusion against any cycle already in progress (from the ticker loop
// or a concurrent manual call). A skipped call returns a zero-value
// result with only StartedAt populated.
func (s *Scheduler) ExecuteSyncCycle(ctx context.Context) models.CycleResult {
	if !s.inProgress.CompareAndSwap(false, true) {
		metrics.RecordCycleSkipped()
		logging.Warn().Msg("sync cycle skipped: previous cycle still in progress")
		return models.CycleResult{StartedAt: time.Now()}
	}
	return s.runAndRecord(ctx)
}

// runAndRecord assumes inProgress is already held by the caller and
// releases it before returning.
func (s *Scheduler) runAndRecord(ctx context.Context) models.CycleResult {
	defer s.inProgress.Store(false)

	result := s.runCycle(ctx)
	s.recordResult(result)
	return result
}

// runCycle composes the three phases in strict sequence: upload, meter
// download, tenant download. Any panic at this boundary is recovered and
// routed to the unhandled-exception sink so a bug in one cycle never
// crashes the process.
func (s *Scheduler) runCycle(ctx context.Context) (result models.CycleResult) {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	start := time.Now()
	result.StartedAt = start

	defer func() {
		if r := recover(); r != nil {
			syncerr.Sink(fmt.Errorf("panic in sync cycle: %v", r))
			result.Success = false
		}
		result.Duration = time.Since(start)
		metrics.RecordCycle(result.Duration, result.Success)
		logging.CtxInfo(ctx).Bool("success", result.Success).
			Int("uploaded", result.Upload.RecordsUploaded).
			Dur("duration", result.Duration).Msg("sync cycle finished")
	}()

	tenantID, hasTenant, err := s.local.CurrentTenantID(ctx)
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Msg("failed to resolve current tenant for this cycle")
	}

	batchCfg := models.DefaultTenantConfig
	if hasTenant {
		batchCfg = s.tenantCfg.GetTenantBatchConfig(ctx, tenantID)
	}

	result.Upload = s.upload.Sync(ctx, batchCfg.UploadBatchSize)
	s.appendSyncLog(ctx, models.OperationUpload, result.Upload.RecordsUploaded, result.Upload.Success, result.Upload.Error)

	if hasTenant {
		result.MeterDownload = s.meterDL.Sync(ctx, tenantID)
		s.appendSyncLog(ctx, models.OperationDownloadMeter, result.MeterDownload.TotalMeters, result.MeterDownload.Success, result.MeterDownload.Error)
	} else {
		logging.CtxWarn(ctx).Msg("meter download skipped: no tenant row on local")
		result.MeterDownload = models.MeterDownloadResult{Success: true}
	}

	result.TenantDownload = s.tenantDL.Sync(ctx)
	s.appendSyncLog(ctx, models.OperationDownloadTenant, result.TenantDownload.TotalTenants, result.TenantDownload.Success, result.TenantDownload.Error)

	result.Success = result.Upload.Success && result.MeterDownload.Success && result.TenantDownload.Success
	return result
}

// appendSyncLog records one sub-operation's outcome in the append-only
// sync_log table. Diagnostics only: a failed append is logged and dropped,
// never surfaced into the cycle result.
func (s *Scheduler) appendSyncLog(ctx context.Context, op string, batchSize int, success bool, opErr error) {
	entry := models.SyncLogEntry{OperationType: op, BatchSize: batchSize, Success: success}
	if opErr != nil {
		entry.ErrorMessage = opErr.Error()
	}
	if err := s.local.InsertSyncLog(ctx, entry); err != nil {
		logging.Warn().Err(err).Str("operation", op).Msg("failed to append sync log entry")
	}
}

func (s *Scheduler) recordResult(result models.CycleResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastSyncTime = result.StartedAt
	s.lastSyncSuccess = result.Success
	s.lastSyncError = firstError(result)
	s.totalRecordsSynced.Add(int64(result.Upload.RecordsUploaded))

	metrics.BacklogSize.Set(float64(s.queueSizeBestEffort()))
}

func firstError(result models.CycleResult) string {
	switch {
	case result.Upload.Error != nil:
		return result.Upload.Error.Error()
	case result.MeterDownload.Error != nil:
		return result.MeterDownload.Error.Error()
	case result.TenantDownload.Error != nil:
		return result.TenantDownload.Error.Error()
	default:
		return ""
	}
}

func (s *Scheduler) queueSizeBestEffort() int64 {
	n, err := s.local.CountUnsynchronizedReadings(context.Background())
	if err != nil {
		return 0
	}
	return n
}

// IsRunning reports whether the ticker loop is currently active.
func (s *Scheduler) IsRunning() bool { return s.running.Load() }

// LastSyncTime returns the start time of the most recently completed cycle.
func (s *Scheduler) LastSyncTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncTime
}

// LastSyncSuccess returns the success bit of the most recently completed cycle.
func (s *Scheduler) LastSyncSuccess() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncSuccess
}

// LastSyncError returns a short human-readable error from the most
// recently completed cycle, or "" when the cycle succeeded.
func (s *Scheduler) LastSyncError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSyncError
}

// TotalRecordsSynced returns the process-lifetime count of readings
// uploaded to REMOTE.
func (s *Scheduler) TotalRecordsSynced() int64 {
	return s.totalRecordsSynced.Load()
}
