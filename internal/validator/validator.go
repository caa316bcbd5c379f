// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package validator is the optional filter ahead of upload: it rejects
// implausible meter readings (timestamp, electrical-range, and
// mock-pattern checks) before they are ever sent to REMOTE.
package validator

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/tomtom215/meterdaemon/internal/config"
	"github.com/tomtom215/meterdaemon/internal/models"
)

// Severity distinguishes a rejecting finding from one that is only logged.
type Severity int

const (
	// SeverityWarning findings are emitted but never reject the reading.
	SeverityWarning Severity = iota
	// SeverityError findings reject the reading outright.
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Finding is one rule violation observed on a reading.
type Finding struct {
	Rule     string
	Severity Severity
	Message  string
}

// Result is the outcome of validating one reading.
type Result struct {
	Findings []Finding
}

// Rejected reports whether any finding in the result is SeverityError.
func (r Result) Rejected() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validator applies timestamp, range, and mock-pattern checks to a
// reading. The zero value is unusable; build one with New.
type Validator struct {
	cfg config.ValidatorConfig
}

// New builds a Validator from cfg's range thresholds.
func New(cfg config.ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate runs every check and returns their combined findings. A
// reading with no SeverityError finding is eligible for upload; one with
// any SeverityError finding should be excluded and flagged
// failed_validation by the caller.
func (v *Validator) Validate(r models.Reading) Result {
	var findings []Finding
	findings = append(findings, v.checkTimestamp(r)...)
	findings = append(findings, v.checkRanges(r)...)
	findings = append(findings, v.checkMockPatterns(r)...)
	return Result{Findings: findings}
}

func (v *Validator) checkTimestamp(r models.Reading) []Finding {
	now := time.Now()
	var findings []Finding

	if r.CreatedAt.After(now.Add(time.Minute)) {
		findings = append(findings, Finding{
			Rule: "timestamp_future", Severity: SeverityError,
			Message: fmt.Sprintf("created_at %s is in the future", r.CreatedAt),
		})
	}

	maxAge := time.Duration(v.cfg.MaxAgeDays) * 24 * time.Hour
	if maxAge > 0 && now.Sub(r.CreatedAt) > maxAge {
		findings = append(findings, Finding{
			Rule: "timestamp_too_old", Severity: SeverityError,
			Message: fmt.Sprintf("created_at %s is older than %d days", r.CreatedAt, v.cfg.MaxAgeDays),
		})
	}

	return findings
}

func (v *Validator) checkRanges(r models.Reading) []Finding {
	var findings []Finding

	checkVoltage := func(name string, p *float64) {
		if p == nil {
			return
		}
		if *p < v.cfg.VoltageMinVolts || *p > v.cfg.VoltageMaxVolts {
			findings = append(findings, Finding{
				Rule: "voltage_out_of_range", Severity: SeverityError,
				Message: fmt.Sprintf("%s=%.2fV outside [%.0f, %.0f]", name, *p, v.cfg.VoltageMinVolts, v.cfg.VoltageMaxVolts),
			})
		}
	}
	checkVoltage("voltage_a", r.VoltageA)
	checkVoltage("voltage_b", r.VoltageB)
	checkVoltage("voltage_c", r.VoltageC)

	checkCurrent := func(name string, p *float64) {
		if p == nil {
			return
		}
		if *p < v.cfg.CurrentMinAmps || *p > v.cfg.CurrentMaxAmps {
			findings = append(findings, Finding{
				Rule: "current_out_of_range", Severity: SeverityError,
				Message: fmt.Sprintf("%s=%.2fA outside [%.2f, %.0f]", name, *p, v.cfg.CurrentMinAmps, v.cfg.CurrentMaxAmps),
			})
		}
	}
	checkCurrent("current_a", r.CurrentA)
	checkCurrent("current_b", r.CurrentB)
	checkCurrent("current_c", r.CurrentC)

	if r.Frequency != nil && (*r.Frequency < v.cfg.FrequencyMinHz || *r.Frequency > v.cfg.FrequencyMaxHz) {
		findings = append(findings, Finding{
			Rule: "frequency_out_of_range", Severity: SeverityError,
			Message: fmt.Sprintf("frequency=%.2fHz outside [%.0f, %.0f]", *r.Frequency, v.cfg.FrequencyMinHz, v.cfg.FrequencyMaxHz),
		})
	}

	checkPowerFactor := func(name string, p *float64) {
		if p == nil {
			return
		}
		if *p < v.cfg.PowerFactorMin || *p > v.cfg.PowerFactorMax {
			findings = append(findings, Finding{
				Rule: "power_factor_out_of_range", Severity: SeverityError,
				Message: fmt.Sprintf("%s=%.3f outside [%.0f, %.0f]", name, *p, v.cfg.PowerFactorMin, v.cfg.PowerFactorMax),
			})
		}
	}
	checkPowerFactor("power_factor_total", r.PowerFactorTotal)

	return findings
}

// coreMeasurements returns the representative subset of a reading's
// numeric fields used by the mock-pattern heuristics.
func coreMeasurements(r models.Reading) []*float64 {
	return []*float64{
		r.VoltageA, r.VoltageB, r.VoltageC,
		r.CurrentA, r.CurrentB, r.CurrentC,
		r.PowerTotal, r.ReactivePowerTotal, r.ApparentPowerTotal,
		r.Frequency, r.PowerFactorTotal, r.EnergyActiveImport,
	}
}

// checkMockPatterns flags readings that look like synthetic test data
// rather than real sensor output: a SyncStatus tagged as test data, three
// or more exact-zero core measurements, or three or more "perfectly
// round" (integer, multiple of 10) core measurements. These are
// suspicious rather than certainly invalid, so they are warnings.
func (v *Validator) checkMockPatterns(r models.Reading) []Finding {
	var findings []Finding

	lowered := strings.ToLower(r.SyncStatus)
	for _, marker := range []string{"test", "mock", "fake", "dummy"} {
		if strings.Contains(lowered, marker) {
			findings = append(findings, Finding{
				Rule: "mock_sync_status", Severity: SeverityWarning,
				Message: fmt.Sprintf("sync_status %q looks like test data", r.SyncStatus),
			})
			break
		}
	}

	var zeroCount, roundCount int
	for _, p := range coreMeasurements(r) {
		if p == nil {
			continue
		}
		if *p == 0 {
			zeroCount++
		}
		if isPerfectlyRound(*p) {
			roundCount++
		}
	}

	if zeroCount >= 3 {
		findings = append(findings, Finding{
			Rule: "zero_pattern", Severity: SeverityWarning,
			Message: fmt.Sprintf("%d core measurements are exactly zero", zeroCount),
		})
	}
	if roundCount >= 3 {
		findings = append(findings, Finding{
			Rule: "round_number_pattern", Severity: SeverityWarning,
			Message: fmt.Sprintf("%d core measurements are perfectly round numbers", roundCount),
		})
	}

	return findings
}

// isPerfectlyRound reports whether v has no fractional part and is a
// multiple of 10 — the shape of hand-typed or default test fixture data,
// as opposed to a real sensor's noisy reading.
func isPerfectlyRound(v float64) bool {
	if v == 0 {
		return false
	}
	return math.Trunc(v) == v && math.Mod(v, 10) == 0
}
