// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncerr

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/metrics"
)

// Op is a unit of work classified under a Kind and subject to its retry
// policy.
type Op func(ctx context.Context) error

// ExecuteWithRetry runs op under kind's retry policy. Connection and Query
// errors are retried with exponential backoff up to their configured
// attempt count; every other kind runs op exactly once (the wrappers in
// wrappers.go log and tag failures of those classes; they do not retry).
func ExecuteWithRetry(ctx context.Context, kind Kind, op Op) error {
	policy, ok := PolicyFor(kind)
	if !ok {
		return op(ctx)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = policy.BaseDelay
	eb.MaxInterval = policy.CapDelay
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0

	bo := backoff.WithMaxRetries(eb, uint64(policy.MaxAttempts-1))
	bo = backoff.WithContext(bo, ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op(ctx)
		if err != nil {
			metrics.RetryAttemptsTotal.WithLabelValues(kind.String()).Inc()
			logging.Warn().Err(err).Str("kind", kind.String()).Int("attempt", attempt).
				Msg("operation failed, retrying")
		}
		return err
	}, bo)
}
