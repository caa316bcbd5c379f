// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

/*
Package supervisor provides process supervision for the sync daemon using
suture v4.

This package implements a supervisor tree that manages the lifecycle of
the daemon's long-running services: the sync scheduler and, when enabled,
the read-only status HTTP server. It provides Erlang/OTP-style
supervision with automatic restart and graceful shutdown.

# Overview

	RootSupervisor ("meterdaemon")
	├── DaemonService (wraps *syncengine.Scheduler)
	└── *statusapi.Server (the status HTTP server, added directly, if enabled)

A single layer is enough here: the daemon has at most two services, so
there is no cascading-failure scenario that would benefit from a nested
supervisor split.

# Key Features

Automatic Restart:
  - A crashed service is automatically restarted
  - Exponential backoff prevents restart storms
  - Configurable failure thresholds and decay rates

Graceful Shutdown:
  - Context cancellation triggers orderly shutdown
  - Configurable shutdown timeout per service
  - UnstoppedServiceReport for debugging hangs

Structured Logging:
  - Integration with slog for structured events
  - Logs service starts, stops, failures, and restarts via sutureslog

# Usage Example

	logger := slog.Default()
	config := supervisor.DefaultTreeConfig()

	tree, err := supervisor.NewSupervisorTree(logger, config)
	if err != nil {
	    log.Fatal(err)
	}

	tree.Add(supervisor.NewDaemonService(scheduler))
	if statusServer != nil {
	    tree.Add(statusServer)
	}

	if err := tree.Serve(ctx); err != nil {
	    log.Printf("Supervisor stopped: %v", err)
	}

# Configuration

	config := supervisor.TreeConfig{
	    FailureThreshold: 5.0,
	    FailureDecay:     30.0,
	    FailureBackoff:   15 * time.Second,
	    ShutdownTimeout:  10 * time.Second,
	}

# Service Interface

All services must implement suture.Service:

	type Service interface {
	    Serve(ctx context.Context) error
	}

Return nil for a clean stop (no restart); return an error to trigger a
restart; return promptly once ctx is canceled.

# Debugging Shutdown Issues

	report, err := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    log.Printf("Service didn't stop: %v", svc)
	}
*/
package supervisor
