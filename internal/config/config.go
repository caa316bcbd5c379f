// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package config

import (
	"fmt"
	"time"
)

// DatabaseSide holds the connection parameters for one side of the sync
// (either LOCAL or REMOTE). Both sides share the same shape; only the
// environment variable prefix used to populate them differs.
type DatabaseSide struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SSLMode  string `koanf:"sslmode"`
}

// DSN renders the side's connection parameters as a libpq-style connection
// string suitable for pgx/stdlib's sql.Open("pgx", dsn).
func (d DatabaseSide) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Database, d.User, d.Password, d.SSLMode,
	)
}

// PoolConfig tunes a single connection pool. Defaults: max 10 open
// connections, 30s idle timeout, 5s connect timeout.
type PoolConfig struct {
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
}

// SyncConfig governs the scheduler's cycle cadence and shutdown behavior.
type SyncConfig struct {
	IntervalSeconds      int           `koanf:"interval_seconds"`
	GracefulStopFence    time.Duration `koanf:"graceful_stop_fence"`
	GracefulStopPoll     time.Duration `koanf:"graceful_stop_poll"`
	DefaultUploadBatch   int           `koanf:"default_upload_batch"`
	DefaultDownloadBatch int           `koanf:"default_download_batch"`
}

// ServerConfig controls the optional read-only status/metrics HTTP surface.
type ServerConfig struct {
	Enabled bool `koanf:"enabled"`
	Port    int  `koanf:"port"`
}

// LoggingConfig mirrors logging.Config's fields for koanf-driven loading.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// ValidatorConfig holds the range thresholds used by the reading validator.
type ValidatorConfig struct {
	Enabled         bool    `koanf:"enabled"`
	MaxAgeDays      int     `koanf:"max_age_days"`
	VoltageMinVolts float64 `koanf:"voltage_min_volts"`
	VoltageMaxVolts float64 `koanf:"voltage_max_volts"`
	CurrentMinAmps  float64 `koanf:"current_min_amps"`
	CurrentMaxAmps  float64 `koanf:"current_max_amps"`
	FrequencyMinHz  float64 `koanf:"frequency_min_hz"`
	FrequencyMaxHz  float64 `koanf:"frequency_max_hz"`
	PowerFactorMin  float64 `koanf:"power_factor_min"`
	PowerFactorMax  float64 `koanf:"power_factor_max"`
}

// TenantConfig carries the seed value used when the tenant row is first
// provisioned on LOCAL; it never overwrites an existing api_key.
type TenantConfig struct {
	APIKeySeed string `koanf:"api_key_seed"`
}

// Config is the fully resolved daemon configuration.
type Config struct {
	Local      DatabaseSide    `koanf:"local"`
	LocalPool  PoolConfig      `koanf:"local_pool"`
	Remote     DatabaseSide    `koanf:"remote"`
	RemotePool PoolConfig      `koanf:"remote_pool"`
	Sync       SyncConfig      `koanf:"sync"`
	Server     ServerConfig    `koanf:"server"`
	Logging    LoggingConfig   `koanf:"logging"`
	Validator  ValidatorConfig `koanf:"validator"`
	Tenant     TenantConfig    `koanf:"tenant"`
}

// Load reads configuration from defaults, an optional YAML file, and
// environment variables, in that order of increasing precedence, then
// validates the result.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
