// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package syncengine

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/metrics"
)

// Breaker wraps REMOTE calls so a string of consecutive failures (of any
// error class; errors are not classified) trips the circuit,
// short-circuiting further attempts instead of piling up retries against
// a down endpoint.
type Breaker struct {
	cb *gobreaker.CircuitBreaker[any]
}

// NewBreaker builds a named breaker that trips after 5 consecutive
// failures and probes again after a 30s cooldown.
func NewBreaker(name string) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateGaugeValue(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// Execute runs op through the breaker. When the breaker is open, op is
// never called and gobreaker.ErrOpenState is returned.
func (b *Breaker) Execute(op func() (any, error)) (any, error) {
	return b.cb.Execute(op)
}

func stateGaugeValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
