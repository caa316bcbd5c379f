// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar names the environment variable that points at an optional
// YAML config file. When unset, DefaultConfigPaths is tried in order.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths lists locations checked for a config file when
// CONFIG_PATH is not set. The first existing path wins.
var DefaultConfigPaths = []string{
	"./meterdaemon.yaml",
	"/etc/meterdaemon/meterdaemon.yaml",
}

// defaultConfig returns the configuration baseline applied before any file
// or environment overrides.
func defaultConfig() *Config {
	return &Config{
		Local: DatabaseSide{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "disable",
		},
		LocalPool: PoolConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Second,
			ConnectTimeout:  5 * time.Second,
		},
		Remote: DatabaseSide{
			Host:    "localhost",
			Port:    5432,
			SSLMode: "require",
		},
		RemotePool: PoolConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Second,
			ConnectTimeout:  5 * time.Second,
		},
		Sync: SyncConfig{
			IntervalSeconds:      60,
			GracefulStopFence:    5 * time.Minute,
			GracefulStopPoll:     time.Second,
			DefaultUploadBatch:   100,
			DefaultDownloadBatch: 1000,
		},
		Server: ServerConfig{
			Enabled: true,
			Port:    8080,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Validator: ValidatorConfig{
			Enabled:         true,
			MaxAgeDays:      365,
			VoltageMinVolts: 200,
			VoltageMaxVolts: 480,
			CurrentMinAmps:  0.1,
			CurrentMaxAmps:  1000,
			FrequencyMinHz:  45,
			FrequencyMaxHz:  65,
			PowerFactorMin:  0,
			PowerFactorMax:  1,
		},
	}
}

// envMappings maps lowercased environment variable names to dotted koanf
// keys. Anything not listed here is left unmapped and ignored by the env
// provider, so an unrecognized env var never silently lands in the tree.
var envMappings = map[string]string{
	"postgres_sync_host":     "local.host",
	"postgres_sync_port":     "local.port",
	"postgres_sync_database": "local.database",
	"postgres_sync_user":     "local.user",
	"postgres_sync_password": "local.password",
	"postgres_sync_sslmode":  "local.sslmode",

	"postgres_client_host":     "remote.host",
	"postgres_client_port":     "remote.port",
	"postgres_client_database": "remote.database",
	"postgres_client_user":     "remote.user",
	"postgres_client_password": "remote.password",
	"postgres_client_sslmode":  "remote.sslmode",

	"sync_interval_seconds": "sync.interval_seconds",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"status_server_enabled": "server.enabled",
	"status_server_port":    "server.port",

	"tenant_api_key_seed": "tenant.api_key_seed",

	"validator_enabled": "validator.enabled",
}

// envTransformFunc maps a raw environment variable to its koanf key,
// lowercasing for the lookup so POSTGRES_SYNC_HOST and postgres_sync_host
// are equivalent.
func envTransformFunc(rawKey string) string {
	key := strings.ToLower(rawKey)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// LoadWithKoanf builds the Config by layering, in increasing precedence:
// struct defaults, an optional YAML file, then environment variables.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, err
	}

	if path := resolveConfigPath(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveConfigPath returns CONFIG_PATH if set, else the first existing
// entry in DefaultConfigPaths, else "" (no file layer).
func resolveConfigPath() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
