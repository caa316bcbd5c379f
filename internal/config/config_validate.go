// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package config

import "fmt"

// Validate checks the loaded configuration for internal consistency.
// It returns the first violation found.
func (c *Config) Validate() error {
	if err := validateDatabaseSide("local", c.Local); err != nil {
		return err
	}
	if err := validateDatabaseSide("remote", c.Remote); err != nil {
		return err
	}
	if err := validatePool("local_pool", c.LocalPool); err != nil {
		return err
	}
	if err := validatePool("remote_pool", c.RemotePool); err != nil {
		return err
	}
	if err := validateSync(c.Sync); err != nil {
		return err
	}
	if err := validateServer(c.Server); err != nil {
		return err
	}
	if err := validateLogging(c.Logging); err != nil {
		return err
	}
	if err := validateValidator(c.Validator); err != nil {
		return err
	}
	return nil
}

func validateDatabaseSide(name string, d DatabaseSide) error {
	if d.Host == "" {
		return fmt.Errorf("%s: host is required", name)
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("%s: port must be between 1 and 65535, got %d", name, d.Port)
	}
	if d.Database == "" {
		return fmt.Errorf("%s: database is required", name)
	}
	if d.User == "" {
		return fmt.Errorf("%s: user is required", name)
	}
	return nil
}

func validatePool(name string, p PoolConfig) error {
	if p.MaxOpenConns <= 0 {
		return fmt.Errorf("%s: max_open_conns must be positive, got %d", name, p.MaxOpenConns)
	}
	if p.MaxIdleConns < 0 || p.MaxIdleConns > p.MaxOpenConns {
		return fmt.Errorf("%s: max_idle_conns must be between 0 and max_open_conns, got %d", name, p.MaxIdleConns)
	}
	if p.ConnectTimeout <= 0 {
		return fmt.Errorf("%s: connect_timeout must be positive, got %v", name, p.ConnectTimeout)
	}
	return nil
}

func validateSync(s SyncConfig) error {
	if s.IntervalSeconds <= 0 {
		return fmt.Errorf("sync: interval_seconds must be positive, got %d", s.IntervalSeconds)
	}
	if s.DefaultUploadBatch <= 0 {
		return fmt.Errorf("sync: default_upload_batch must be positive, got %d", s.DefaultUploadBatch)
	}
	if s.DefaultDownloadBatch <= 0 {
		return fmt.Errorf("sync: default_download_batch must be positive, got %d", s.DefaultDownloadBatch)
	}
	if s.GracefulStopFence <= 0 {
		return fmt.Errorf("sync: graceful_stop_fence must be positive, got %v", s.GracefulStopFence)
	}
	return nil
}

func validateServer(s ServerConfig) error {
	if !s.Enabled {
		return nil
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server: port must be between 1 and 65535, got %d", s.Port)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	switch l.Level {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("logging: unsupported level %q", l.Level)
	}
	switch l.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging: unsupported format %q", l.Format)
	}
	return nil
}

func validateValidator(v ValidatorConfig) error {
	if !v.Enabled {
		return nil
	}
	if v.VoltageMinVolts >= v.VoltageMaxVolts {
		return fmt.Errorf("validator: voltage_min_volts must be less than voltage_max_volts")
	}
	if v.CurrentMinAmps >= v.CurrentMaxAmps {
		return fmt.Errorf("validator: current_min_amps must be less than current_max_amps")
	}
	if v.FrequencyMinHz >= v.FrequencyMaxHz {
		return fmt.Errorf("validator: frequency_min_hz must be less than frequency_max_hz")
	}
	if v.PowerFactorMin >= v.PowerFactorMax {
		return fmt.Errorf("validator: power_factor_min must be less than power_factor_max")
	}
	return nil
}
