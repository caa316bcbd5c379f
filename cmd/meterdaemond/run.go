// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/meterdaemon/internal/config"
	"github.com/tomtom215/meterdaemon/internal/dbpool"
	"github.com/tomtom215/meterdaemon/internal/logging"
	"github.com/tomtom215/meterdaemon/internal/statusapi"
	"github.com/tomtom215/meterdaemon/internal/supervisor"
	"github.com/tomtom215/meterdaemon/internal/syncengine"
	"github.com/tomtom215/meterdaemon/internal/syncstore"
	"github.com/tomtom215/meterdaemon/internal/validator"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sync daemon until SIGINT/SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func runDaemon() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("starting meterdaemond")

	pool, err := dbpool.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize database pools: %w", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing database pools")
		}
	}()
	logging.Info().Msg("database pools initialized")

	local := syncstore.NewLocal(pool)
	remote := syncstore.NewRemote(pool)

	uploadBreaker := syncengine.NewBreaker("upload")
	meterBreaker := syncengine.NewBreaker("meter-download")
	tenantBreaker := syncengine.NewBreaker("tenant-download")

	upload := syncengine.NewUploadManager(local, remote, uploadBreaker)
	if cfg.Validator.Enabled {
		upload = upload.WithValidator(validator.New(cfg.Validator))
		logging.Info().Msg("reading validator enabled")
	}

	meterDL := syncengine.NewMeterDownloadManager(local, remote, meterBreaker)
	tenantDL := syncengine.NewTenantDownloadManager(local, remote, tenantBreaker)
	tenantCfg := syncengine.NewTenantConfigLoader(local)

	scheduler := syncengine.NewScheduler(upload, meterDL, tenantDL, tenantCfg, local, syncengine.SchedulerConfig{
		Interval:          time.Duration(cfg.Sync.IntervalSeconds) * time.Second,
		GracefulStopFence: cfg.Sync.GracefulStopFence,
		GracefulStopPoll:  cfg.Sync.GracefulStopPoll,
	})

	reporter := syncengine.NewStatusReporter(scheduler, local, remote, pool)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Tenant.APIKeySeed != "" {
		if n, err := local.SeedTenantAPIKey(ctx, cfg.Tenant.APIKeySeed); err != nil {
			logging.Warn().Err(err).Msg("failed to seed tenant api key")
		} else if n > 0 {
			logging.Info().Int("rows", n).Msg("seeded tenant api key")
		}
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.Add(supervisor.NewDaemonService(scheduler))

	if cfg.Server.Enabled {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		tree.Add(statusapi.NewServer(addr, reporter))
		logging.Info().Str("addr", addr).Msg("status server added to supervisor tree")
	} else {
		logging.Info().Msg("status server disabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("meterdaemond stopped gracefully")
	return nil
}
