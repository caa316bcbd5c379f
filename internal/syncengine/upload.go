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
	"github.com/tomtom215/meterdaemon/internal/validator"
)

// UploadManager reads one batch of unsynchronized LOCAL readings, inserts
// them into REMOTE, then deletes the batch from LOCAL. It is the sole
// writer of the reading table on both sides.
type UploadManager struct {
	local     LocalStore
	remote    RemoteStore
	breaker   *Breaker
	validator *validator.Validator // optional; nil disables pre-upload validation
}

// NewUploadManager builds an UploadManager backed by local/remote and
// guarding REMOTE calls with breaker.
func NewUploadManager(local LocalStore, remote RemoteStore, breaker *Breaker) *UploadManager {
	return &UploadManager{local: local, remote: remote, breaker: breaker}
}

// WithValidator enables the pre-upload validator adjunct: rows that fail
// validation are flagged failed_validation on LOCAL and excluded from
// this and every future batch instead of being sent to REMOTE.
func (u *UploadManager) WithValidator(v *validator.Validator) *UploadManager {
	u.validator = v
	return u
}

// Sync runs one upload pass for up to batchSize rows.
func (u *UploadManager) Sync(ctx context.Context, batchSize int) models.UploadResult {
	start := time.Now()
	result := models.UploadResult{}

	var rows []models.Reading
	err := syncerr.ExecuteWithRetry(ctx, syncerr.Query, func(ctx context.Context) error {
		var fetchErr error
		rows, fetchErr = u.local.FetchUnsynchronizedReadings(ctx, batchSize)
		return fetchErr
	})
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}

	rows = u.filterRejected(ctx, rows)

	if len(rows) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	inserted, insertErr := u.insertRemote(ctx, rows)
	if insertErr != nil {
		result.Error = syncerr.WrapUpload(insertErr)
		result.Duration = time.Since(start)
		return result
	}
	result.RecordsUploaded = inserted
	metrics.RecordsUploadedTotal.Add(float64(inserted))

	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.MeterReadingID
	}

	// Preferred self-healing path: flip is_synchronized=true before the
	// delete, so a delete failure leaves rows that the next cycle's fetch
	// already excludes (FetchUnsynchronizedReadings only selects
	// is_synchronized=false).
	if markErr := u.local.MarkReadingsSynchronized(ctx, ids); markErr != nil {
		result.Error = syncerr.WrapDelete(markErr)
		result.Duration = time.Since(start)
		return result
	}

	deleted, deleteErr := u.local.DeleteReadings(ctx, ids)
	if deleteErr != nil {
		// Rows are flipped to synchronized but still present on LOCAL;
		// the invariant holds (they will not be re-uploaded) even though
		// the delete itself did not complete this cycle.
		result.Error = syncerr.WrapDelete(deleteErr)
		result.Duration = time.Since(start)
		return result
	}
	result.RecordsDeleted = deleted
	metrics.RecordsDeletedTotal.Add(float64(deleted))

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// filterRejected runs the validator adjunct (if enabled) over rows,
// flagging any that fail as failed_validation on LOCAL and dropping them
// from the batch that proceeds to REMOTE. Rejected rows are excluded from
// every future batch until a caller explicitly reconciles them: the mark
// call sets is_synchronized=true along with the failed_validation status,
// and FetchUnsynchronizedReadings only selects is_synchronized=false rows.
func (u *UploadManager) filterRejected(ctx context.Context, rows []models.Reading) []models.Reading {
	if u.validator == nil {
		return rows
	}

	accepted := make([]models.Reading, 0, len(rows))
	var rejectedIDs []string
	for _, r := range rows {
		result := u.validator.Validate(r)
		for _, f := range result.Findings {
			logging.Warn().Str("reading_id", r.MeterReadingID).Str("rule", f.Rule).
				Str("severity", f.Severity.String()).Msg(f.Message)
		}
		if result.Rejected() {
			rejectedIDs = append(rejectedIDs, r.MeterReadingID)
			continue
		}
		accepted = append(accepted, r)
	}

	if len(rejectedIDs) > 0 {
		if err := u.local.MarkReadingsFailedValidation(ctx, rejectedIDs); err != nil {
			logging.Warn().Err(err).Int("count", len(rejectedIDs)).Msg("failed to flag rejected readings")
		}
	}

	return accepted
}

// insertRemote commits rows to REMOTE inside the circuit breaker, retrying
// a failed insert under the Connection retry policy (every error is
// retried; failures are not classified first) and treating any identifier
// collision as an already-uploaded row rather than a batch failure (the
// REMOTE insert is expected to be conflict-ignoring on meter_reading_id).
func (u *UploadManager) insertRemote(ctx context.Context, rows []models.Reading) (int, error) {
	var inserted int
	err := syncerr.ExecuteWithRetry(ctx, syncerr.Connection, func(ctx context.Context) error {
		res, execErr := u.breaker.Execute(func() (any, error) {
			return u.remote.InsertReadings(ctx, rows)
		})
		if execErr != nil {
			return execErr
		}
		inserted = res.(int)
		return nil
	})
	return inserted, err
}
