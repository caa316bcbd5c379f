// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package syncerr classifies sync daemon failures and runs the retry
// policy appropriate to each class.
package syncerr

import "time"

// Kind classifies a failure for retry and logging purposes.
type Kind int

const (
	Connection Kind = iota
	Query
	Upload
	Delete
	Download
	Unknown
)

func (k Kind) String() string {
	switch k {
	case Connection:
		return "connection"
	case Query:
		return "query"
	case Upload:
		return "upload"
	case Delete:
		return "delete"
	case Download:
		return "download"
	default:
		return "unknown"
	}
}

// Policy describes an exponential-backoff retry schedule: delay is
// min(base * 2^attempt, cap).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration
}

// policies holds the automatic-retry classes. Upload, Delete, Download,
// and Unknown are deliberately absent: those are handled by the
// log-and-return wrappers in wrappers.go, never retried at this layer.
var policies = map[Kind]Policy{
	Connection: {MaxAttempts: 6, BaseDelay: 2 * time.Second, CapDelay: 32 * time.Second},
	Query:      {MaxAttempts: 4, BaseDelay: 2 * time.Second, CapDelay: 8 * time.Second},
}

// PolicyFor returns the retry policy for kind and whether one exists.
func PolicyFor(kind Kind) (Policy, bool) {
	p, ok := policies[kind]
	return p, ok
}
