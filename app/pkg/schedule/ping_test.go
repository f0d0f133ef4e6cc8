// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seakee/momo/app/pkg/trace"
)

func newTestPing(scheduleID string, executions *fakeScheduleRepo, startAll func(ctx context.Context) error) *Ping {
	return NewPing(scheduleID, "test-schedule", time.Second, executions, newTestLogger(), trace.NewTraceID(), startAll)
}

// TestPing_TakeoverStartsJobsOnce verifies a surviving peer takes over a
// dead one and starts jobs exactly once per activation.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestPing_TakeoverStartsJobsOnce(t *testing.T) {
	ctx := context.Background()
	executions := newFakeScheduleRepo(time.Second)

	// Peer A died, its heartbeat is far outside the liveness window.
	require.NoError(t, executions.AddSchedule(ctx, "schedule-a", "test-schedule"))
	executions.age("schedule-a", 5*time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-b", "test-schedule"))

	var startAllCalls atomic.Int32
	p := newTestPing("schedule-b", executions, func(ctx context.Context) error {
		startAllCalls.Add(1)
		return nil
	})

	require.NoError(t, p.round(ctx))

	// B observed the activation transition and cleaned up the dead peer.
	assert.Equal(t, int32(1), startAllCalls.Load())
	assert.False(t, executions.has("schedule-a"))
	assert.True(t, executions.has("schedule-b"))

	// Staying active must not start jobs again.
	require.NoError(t, p.round(ctx))
	require.NoError(t, p.round(ctx))
	assert.Equal(t, int32(1), startAllCalls.Load())
}

// TestPing_ReactivationStartsAgain verifies losing and regaining
// activeness triggers a new start.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestPing_ReactivationStartsAgain(t *testing.T) {
	ctx := context.Background()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-b", "test-schedule"))

	var startAllCalls atomic.Int32
	p := newTestPing("schedule-b", executions, func(ctx context.Context) error {
		startAllCalls.Add(1)
		return nil
	})

	require.NoError(t, p.round(ctx))
	assert.Equal(t, int32(1), startAllCalls.Load())

	// An older peer appears and wins the election, B goes passive.
	require.NoError(t, executions.AddSchedule(ctx, "schedule-a", "test-schedule"))
	executions.age("schedule-a", 500*time.Millisecond)

	require.NoError(t, p.round(ctx))
	assert.Equal(t, int32(1), startAllCalls.Load())

	// The older peer dies, B becomes active again.
	executions.age("schedule-a", 5*time.Second)

	require.NoError(t, p.round(ctx))
	assert.Equal(t, int32(2), startAllCalls.Load())
}

// TestPing_RefreshesHeartbeat verifies the tick writes a fresh lastAlive.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestPing_RefreshesHeartbeat(t *testing.T) {
	ctx := context.Background()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-b", "test-schedule"))
	executions.age("schedule-b", 900*time.Millisecond)

	p := newTestPing("schedule-b", executions, func(ctx context.Context) error { return nil })

	require.NoError(t, p.round(ctx))

	executions.mu.Lock()
	lastAlive := executions.entries["schedule-b"].LastAlive
	executions.mu.Unlock()

	assert.Greater(t, lastAlive, time.Now().Add(-200*time.Millisecond).UnixMilli())
}

// TestPing_TickAbsorbsStoreErrors verifies the loop never throws.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestPing_TickAbsorbsStoreErrors(t *testing.T) {
	executions := newFakeScheduleRepo(time.Second)
	executions.activeErr = assert.AnError

	p := newTestPing("schedule-b", executions, func(ctx context.Context) error {
		t.Fatal("startAll must not run when the election errors")
		return nil
	})

	// A failing store must neither panic nor propagate.
	assert.NotPanics(t, func() { p.tick() })
}

// TestPing_StopRemovesOwnEntry verifies shutdown cleanup.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestPing_StopRemovesOwnEntry(t *testing.T) {
	ctx := context.Background()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-b", "test-schedule"))

	p := newTestPing("schedule-b", executions, func(ctx context.Context) error { return nil })
	p.Start()
	p.Stop(ctx)

	assert.False(t, executions.has("schedule-b"))
}
