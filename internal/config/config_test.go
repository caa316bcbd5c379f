// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := defaultConfig()
	cfg.Local.Database = "meterdaemon"
	cfg.Local.User = "meterdaemon"
	cfg.Remote.Database = "meterdaemon"
	cfg.Remote.User = "meterdaemon"

	require.NoError(t, cfg.Validate())
}

func TestDatabaseSide_DSN(t *testing.T) {
	d := DatabaseSide{
		Host:     "db.internal",
		Port:     5432,
		Database: "meterdaemon",
		User:     "meterdaemon",
		Password: "secret",
		SSLMode:  "require",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=meterdaemon")
	assert.Contains(t, dsn, "sslmode=require")
}

func TestValidateDatabaseSide(t *testing.T) {
	tests := []struct {
		name    string
		side    DatabaseSide
		wantErr bool
	}{
		{"valid", DatabaseSide{Host: "h", Port: 5432, Database: "d", User: "u"}, false},
		{"missing host", DatabaseSide{Port: 5432, Database: "d", User: "u"}, true},
		{"bad port", DatabaseSide{Host: "h", Port: 0, Database: "d", User: "u"}, true},
		{"missing database", DatabaseSide{Host: "h", Port: 5432, User: "u"}, true},
		{"missing user", DatabaseSide{Host: "h", Port: 5432, Database: "d"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateDatabaseSide("local", tt.side)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSync(t *testing.T) {
	valid := defaultConfig().Sync
	require.NoError(t, validateSync(valid))

	zeroInterval := valid
	zeroInterval.IntervalSeconds = 0
	assert.Error(t, validateSync(zeroInterval))
}

func TestValidateLogging(t *testing.T) {
	assert.NoError(t, validateLogging(LoggingConfig{Level: "info", Format: "json"}))
	assert.Error(t, validateLogging(LoggingConfig{Level: "bogus", Format: "json"}))
	assert.Error(t, validateLogging(LoggingConfig{Level: "info", Format: "bogus"}))
}

func TestValidateValidator(t *testing.T) {
	valid := defaultConfig().Validator
	require.NoError(t, validateValidator(valid))

	invertedVoltage := valid
	invertedVoltage.VoltageMinVolts = 500
	assert.Error(t, validateValidator(invertedVoltage))

	disabled := ValidatorConfig{Enabled: false}
	assert.NoError(t, validateValidator(disabled))
}
