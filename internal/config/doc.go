// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package config loads and validates the sync daemon's configuration.
//
// Layering follows increasing precedence: struct defaults, then an
// optional YAML file (CONFIG_PATH or one of DefaultConfigPaths), then
// environment variables. Environment variable names are mapped to dotted
// koanf keys through envMappings in koanf.go rather than by mechanical
// underscore-to-dot translation, so the set of recognized variables is
// explicit and documented in one place.
//
// # Quick Start
//
//	cfg, err := config.Load()
//	if err != nil {
//	    logging.Fatal().Err(err).Msg("failed to load configuration")
//	}
//
// # Environment Variables
//
//	POSTGRES_SYNC_HOST, POSTGRES_SYNC_PORT, POSTGRES_SYNC_DATABASE,
//	POSTGRES_SYNC_USER, POSTGRES_SYNC_PASSWORD, POSTGRES_SYNC_SSLMODE
//	    — LOCAL connection parameters.
//
//	POSTGRES_CLIENT_HOST, POSTGRES_CLIENT_PORT, POSTGRES_CLIENT_DATABASE,
//	POSTGRES_CLIENT_USER, POSTGRES_CLIENT_PASSWORD, POSTGRES_CLIENT_SSLMODE
//	    — REMOTE connection parameters.
//
//	SYNC_INTERVAL_SECONDS — cycle cadence, default 60.
//	LOG_LEVEL, LOG_FORMAT, LOG_CALLER — forwarded to internal/logging.
//	STATUS_SERVER_ENABLED, STATUS_SERVER_PORT — the read-only HTTP surface.
//	TENANT_API_KEY_SEED — seed value for a newly provisioned tenant row.
package config
