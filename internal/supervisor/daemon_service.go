// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package supervisor

import (
	"context"

	"github.com/tomtom215/meterdaemon/internal/logging"
)

// schedulerService is the subset of *syncengine.Scheduler the supervisor
// needs; kept as an interface so tests can swap in a fake without pulling
// in syncengine's database dependencies.
type schedulerService interface {
	Start(ctx context.Context) error
	Stop()
}

// DaemonService adapts a Scheduler to suture.Service: it starts the
// scheduler's ticker loop on Serve, blocks on ctx.Done(), and stops the
// scheduler gracefully on cancellation.
type DaemonService struct {
	scheduler schedulerService
}

// NewDaemonService wraps scheduler for supervision.
func NewDaemonService(scheduler schedulerService) *DaemonService {
	return &DaemonService{scheduler: scheduler}
}

// Serve implements suture.Service.
func (d *DaemonService) Serve(ctx context.Context) error {
	logging.Info().Msg("starting sync scheduler")

	if err := d.scheduler.Start(ctx); err != nil {
		logging.Error().Err(err).Msg("failed to start sync scheduler")
		return err
	}

	<-ctx.Done()

	d.scheduler.Stop()
	logging.Info().Msg("sync scheduler stopped")
	return nil
}
