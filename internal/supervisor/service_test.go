// Meterdaemon - Edge Metering Database Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meterdaemon

package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thejerf/suture/v4"
)

var (
	_ suture.Service = (*MockService)(nil)
	_ suture.Service = (*DaemonService)(nil)
)

func TestMockService_RunsUntilCanceled(t *testing.T) {
	svc := NewMockService("blocking")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), svc.StartCount())
	assert.Equal(t, int32(1), svc.StopCount())
}

func TestMockService_FailsThenRecovers(t *testing.T) {
	svc := NewMockService("flaky")
	svc.SetFailCount(2)

	require.Error(t, svc.Serve(context.Background()))
	require.Error(t, svc.Serve(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.Serve(ctx), context.DeadlineExceeded)
	assert.Equal(t, int32(3), svc.StartCount())
}

func TestMockService_ErrDoNotRestart(t *testing.T) {
	svc := NewMockService("one-shot")
	svc.SetError(suture.ErrDoNotRestart)

	assert.ErrorIs(t, svc.Serve(context.Background()), suture.ErrDoNotRestart)
}

// fakeScheduler stands in for *syncengine.Scheduler behind the
// schedulerService interface.
type fakeScheduler struct {
	started  atomic.Int32
	stopped  atomic.Int32
	startErr error
}

func (f *fakeScheduler) Start(context.Context) error {
	f.started.Add(1)
	return f.startErr
}

func (f *fakeScheduler) Stop() {
	f.stopped.Add(1)
}

func TestDaemonService_StartsAndStopsScheduler(t *testing.T) {
	sched := &fakeScheduler{}
	svc := NewDaemonService(sched)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	require.Eventually(t, func() bool { return sched.started.Load() == 1 },
		time.Second, 5*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
	assert.Equal(t, int32(1), sched.stopped.Load(), "scheduler stopped gracefully")
}

func TestDaemonService_PropagatesStartError(t *testing.T) {
	sched := &fakeScheduler{startErr: assert.AnError}
	svc := NewDaemonService(sched)

	err := svc.Serve(context.Background())

	assert.ErrorIs(t, err, assert.AnError)
	assert.Zero(t, sched.stopped.Load(), "a service that never started is not stopped")
}
