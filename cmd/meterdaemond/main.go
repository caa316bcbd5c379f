// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

// Package main is the entry point for meterdaemond, the bidirectional
// LOCAL/REMOTE meter-reading sync daemon.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: layered load via Koanf v2 (defaults, YAML file, env vars)
//  2. Logging: structured zerolog sink configured from the loaded config
//  3. Database pools: bounded LOCAL/REMOTE *sql.DB pairs over pgx/stdlib
//  4. Sync engine: circuit breaker, upload/download managers, tenant config
//     loader, optional validator, and the fixed-interval scheduler
//  5. Supervisor tree: wraps the scheduler (and the optional status server)
//     as supervised suture services with automatic restart
//  6. Signal handling: SIGINT/SIGTERM trigger graceful shutdown
//
// # Configuration
//
// See internal/config for the full set of environment variables; the
// database DSNs, pool sizes, sync interval, and validator thresholds are
// all tunable without a rebuild.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "meterdaemond",
	Short: "Bidirectional LOCAL/REMOTE meter-reading sync daemon",
	Long: `meterdaemond runs at the edge of a metering deployment. It uploads
newly collected meter readings from the LOCAL database to the authoritative
REMOTE database (deleting them locally once committed), and downloads
tenant and meter configuration changes from REMOTE into LOCAL, on a fixed
cadence with mutual exclusion and graceful shutdown.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"meterdaemond version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
