// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package dbpool owns the two pooled database handles (LOCAL, REMOTE) the
// sync daemon talks to, and exposes bounded acquisition and health checks.
// It never retries internally; retry policy lives in internal/syncerr.
package dbpool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/tomtom215/meterdaemon/internal/config"
	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/metrics"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// Side identifies which endpoint a handle belongs to.
type Side string

const (
	Local  Side = "local"
	Remote Side = "remote"
)

// ErrConnectFailed is returned by Acquire when a pool is saturated beyond
// its acquisition deadline.
var ErrConnectFailed = errors.New("dbpool: connect failed, pool saturated")

// Manager owns the LOCAL and REMOTE connection pools.
type Manager struct {
	local  *sql.DB
	remote *sql.DB

	localSem  chan struct{}
	remoteSem chan struct{}

	mu       sync.RWMutex
	draining bool
}

// New opens both pools using the pgx/stdlib driver, tuned per cfg.
func New(cfg *config.Config) (*Manager, error) {
	local, err := open(cfg.Local, cfg.LocalPool)
	if err != nil {
		return nil, fmt.Errorf("dbpool: open local: %w", err)
	}

	remote, err := open(cfg.Remote, cfg.RemotePool)
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("dbpool: open remote: %w", err)
	}

	return &Manager{
		local:     local,
		remote:    remote,
		localSem:  make(chan struct{}, cfg.LocalPool.MaxOpenConns),
		remoteSem: make(chan struct{}, cfg.RemotePool.MaxOpenConns),
	}, nil
}

func open(side config.DatabaseSide, pool config.PoolConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s connect_timeout=%d", side.DSN(), int(pool.ConnectTimeout.Seconds()))
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	configurePool(db, pool)
	return db, nil
}

// configurePool applies the bounded-pool tuning: a fixed max connection
// count, short idle timeout, and bounded lifetime so connections get
// recycled across Postgres-side failovers.
func configurePool(db *sql.DB, pool config.PoolConfig) {
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
}

// DB returns the raw *sql.DB for side, for callers (syncstore) that issue
// their own queries/transactions. Acquire/Release account for the bounded
// semaphore independently of database/sql's own pooling, which only caps
// outstanding connections, not outstanding logical operations.
func (m *Manager) DB(side Side) *sql.DB {
	if side == Local {
		return m.local
	}
	return m.remote
}

// Acquire blocks until a semaphore slot for side is available or ctx is
// done, whichever comes first. It returns ErrConnectFailed on deadline and
// refuses outright once teardown has begun.
func (m *Manager) Acquire(ctx context.Context, side Side) error {
	m.mu.RLock()
	draining := m.draining
	m.mu.RUnlock()
	if draining {
		return fmt.Errorf("%w: pool is draining", ErrConnectFailed)
	}

	sem := m.semaphore(side)
	select {
	case sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrConnectFailed, ctx.Err())
	}
}

// Release frees the semaphore slot acquired for side.
func (m *Manager) Release(side Side) {
	sem := m.semaphore(side)
	select {
	case <-sem:
	default:
	}
}

func (m *Manager) semaphore(side Side) chan struct{} {
	if side == Local {
		return m.localSem
	}
	return m.remoteSem
}

// Health pings both sides and reports reachability. A ping error is
// logged but never returned: health is advisory, not a failure mode.
func (m *Manager) Health(ctx context.Context) models.ConnectionHealth {
	now := time.Now()
	h := models.ConnectionHealth{LastCheckedAt: now}

	h.LocalConnected = m.ping(ctx, Local)
	h.RemoteConnected = m.ping(ctx, Remote)

	metrics.ConnectionHealthy.WithLabelValues("local").Set(boolToFloat(h.LocalConnected))
	metrics.ConnectionHealthy.WithLabelValues("remote").Set(boolToFloat(h.RemoteConnected))

	return h
}

func (m *Manager) ping(ctx context.Context, side Side) bool {
	db := m.DB(side)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		logging.Warn().Err(err).Str("side", string(side)).Msg("health probe failed")
		return false
	}
	return true
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Close refuses any further acquisitions and closes both pools. No
// timeout is applied: each sql.DB.Close waits for queries already
// running on that pool to finish.
func (m *Manager) Close() error {
	m.mu.Lock()
	m.draining = true
	m.mu.Unlock()

	var errs []string
	if err := m.local.Close(); err != nil {
		errs = append(errs, fmt.Sprintf("local: %v", err))
	}
	if err := m.remote.Close(); err != nil {
		errs = append(errs, fmt.Sprintf("remote: %v", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("dbpool: close: %s", strings.Join(errs, "; "))
	}
	return nil
}

// IsConnectionError classifies a database/sql error as a connection-class
// failure (as opposed to a query-class one) by substring matching the
// driver's transport-level error messages.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
		"dial tcp",
		"i/o timeout",
		"no such host",
	}
	for _, p := range patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
