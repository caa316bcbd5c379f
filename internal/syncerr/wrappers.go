// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncerr

import (
	"fmt"

	"github.com/tomtom215/meterdaemon/internal/logging"
)

// WrapUpload logs an upload failure and returns it tagged with the upload
// kind. The batch stays on LOCAL with is_synchronized=false, eligible for
// the next cycle.
func WrapUpload(err error) error {
	if err == nil {
		return nil
	}
	logging.Warn().Err(err).Str("kind", Upload.String()).
		Msg("remote insert failed, batch preserved on local")
	return fmt.Errorf("upload: %w", err)
}

// WrapDelete logs a local-delete failure and returns it tagged with the
// delete kind. The rows are now present on both sides; the
// synchronized-flip path (see upload.go) makes this recoverable on the
// next cycle.
func WrapDelete(err error) error {
	if err == nil {
		return nil
	}
	logging.Warn().Err(err).Str("kind", Delete.String()).
		Msg("local delete failed after remote commit")
	return fmt.Errorf("delete: %w", err)
}

// WrapDownload logs a reconciliation failure for one sub-operation
// (meter or tenant) without letting it block the other.
func WrapDownload(step string, err error) error {
	if err == nil {
		return nil
	}
	logging.Warn().Err(err).Str("kind", Download.String()).Str("step", step).
		Msg("reconciliation step failed")
	return fmt.Errorf("%s download: %w", step, err)
}

// Sink is the unhandled-exception sink for the cycle boundary: it logs
// structured context and swallows the error so the scheduler can continue
// to the next cycle instead of crashing the process.
func Sink(err error) {
	if err == nil {
		return
	}
	logging.Error().Err(err).Str("kind", Unknown.String()).
		Msg("unhandled error at cycle boundary")
}
