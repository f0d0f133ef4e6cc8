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

	jobModel "github.com/seakee/momo/app/model/job"
	"github.com/seakee/momo/app/pkg/trace"
)

func newTestScheduler(jobs *fakeJobRepo, executions *fakeScheduleRepo, name string, handler Handler) *jobScheduler {
	exec := &executor{scheduleID: "schedule-1", jobs: jobs, executions: executions}

	return newJobScheduler(name, handler, jobs, exec, newTestLogger(), trace.NewTraceID(), nil)
}

// TestScheduler_TickRespectsCap verifies per-tick capacity under the
// cluster cap with a pre-seeded running count.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_TickRespectsCap(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-1", "test"))
	jobs.put(&jobModel.Job{Name: "j", Interval: "one minute", Concurrency: 5, MaxRunning: 2, Running: 1})

	var invocations atomic.Int32
	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		invocations.Add(1)
		return nil
	})
	s.stopped = false

	s.executeConcurrently(ctx)
	s.pending.Wait()

	// One free slot under the cap of two, so exactly one invocation.
	assert.Equal(t, int32(1), invocations.Load())
	assert.Equal(t, 1, jobs.running("j"))
}

// TestScheduler_TickClampsNegativeCapacity verifies ledger drift never
// launches a negative number of invocations.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_TickClampsNegativeCapacity(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	jobs.put(&jobModel.Job{Name: "j", Interval: "one minute", Concurrency: 3, MaxRunning: 2, Running: 5})

	var invocations atomic.Int32
	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		invocations.Add(1)
		return nil
	})
	s.stopped = false

	s.executeConcurrently(ctx)
	s.pending.Wait()

	assert.Equal(t, int32(0), invocations.Load())
}

// TestScheduler_TickUnbounded verifies a zero cap launches the full
// per-tick concurrency.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_TickUnbounded(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-1", "test"))
	jobs.put(&jobModel.Job{Name: "j", Interval: "one minute", Concurrency: 4, MaxRunning: 0})

	var invocations atomic.Int32
	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		invocations.Add(1)
		return nil
	})
	s.stopped = false

	s.executeConcurrently(ctx)
	s.pending.Wait()

	assert.Equal(t, int32(4), invocations.Load())
	assert.Equal(t, 0, jobs.running("j"))
}

// TestScheduler_StopDrainsInFlight verifies stop resolves only after
// launched executions settle.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_StopDrainsInFlight(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-1", "test"))
	jobs.put(&jobModel.Job{Name: "j", Interval: "50 milliseconds", Concurrency: 1, Immediate: true})

	fireStarted := make(chan struct{}, 16)
	var done atomic.Bool

	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		fireStarted <- struct{}{}
		time.Sleep(300 * time.Millisecond)
		done.Store(true)
		return nil
	})

	require.NoError(t, s.start(ctx))

	// Wait for the first fire to be in flight, then stop.
	select {
	case <-fireStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("first fire did not happen")
	}

	s.stop(ctx)

	// Stop must have awaited the sleeping handler.
	assert.True(t, done.Load())
	assert.Equal(t, 0, jobs.running("j"))
	assert.False(t, s.started())
}

// TestScheduler_NoFiresAfterStop verifies a stopped scheduler launches
// nothing until started again.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_NoFiresAfterStop(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-1", "test"))
	jobs.put(&jobModel.Job{Name: "j", Interval: "50 milliseconds", Concurrency: 1, Immediate: true})

	var invocations atomic.Int32
	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		invocations.Add(1)
		return nil
	})

	require.NoError(t, s.start(ctx))
	time.Sleep(120 * time.Millisecond)
	s.stop(ctx)

	settled := invocations.Load()
	time.Sleep(200 * time.Millisecond)

	assert.Equal(t, settled, invocations.Load())
}

// TestScheduler_DoubleStartSingleTimer verifies restarting does not
// stack timers.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_DoubleStartSingleTimer(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-1", "test"))
	jobs.put(&jobModel.Job{Name: "j", Interval: "100 milliseconds", Concurrency: 1})

	var invocations atomic.Int32
	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		invocations.Add(1)
		return nil
	})

	require.NoError(t, s.start(ctx))
	require.NoError(t, s.start(ctx))
	assert.True(t, s.started())

	// A stacked timer would roughly double the observed fire count.
	time.Sleep(450 * time.Millisecond)
	s.stop(ctx)

	assert.LessOrEqual(t, invocations.Load(), int32(6))
	assert.GreaterOrEqual(t, invocations.Load(), int32(2))
}

// TestScheduler_ImmediateFirstFire verifies an immediate job fires at
// start time instead of after one interval.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_ImmediateFirstFire(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	require.NoError(t, executions.AddSchedule(ctx, "schedule-1", "test"))
	jobs.put(&jobModel.Job{Name: "j", Interval: "one hour", Concurrency: 1, Immediate: true})

	fired := make(chan struct{}, 1)
	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error {
		fired <- struct{}{}
		return nil
	})

	require.NoError(t, s.start(ctx))
	defer s.stop(ctx)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("immediate job did not fire at start")
	}
}

// TestScheduler_StartMissingJobSkips verifies a missing definition is
// logged and skipped instead of failing.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_StartMissingJobSkips(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	s := newTestScheduler(jobs, executions, "ghost", func(ctx context.Context) error { return nil })

	require.NoError(t, s.start(ctx))
	assert.False(t, s.started())
}

// TestScheduler_StartBadIntervalFails verifies a malformed stored
// interval is surfaced as a programmer error.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_StartBadIntervalFails(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	jobs.put(&jobModel.Job{Name: "j", Interval: "every blue moon", Concurrency: 1})

	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error { return nil })

	assert.ErrorIs(t, s.start(ctx), ErrNonParsableInterval)
	assert.False(t, s.started())
}

// TestScheduler_ExecuteOnceNotFound verifies ad-hoc runs classify a
// vanished definition.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_ExecuteOnceNotFound(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	s := newTestScheduler(jobs, executions, "ghost", func(ctx context.Context) error { return nil })

	result, err := s.executeOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, jobModel.StatusNotFound, result.Status)
}

// TestScheduler_UnexpectedErrorsCounted verifies store failures in the
// periodic loop grow the counter without stopping scheduling.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestScheduler_UnexpectedErrorsCounted(t *testing.T) {
	ctx := context.Background()
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	jobs.put(&jobModel.Job{Name: "j", Interval: "one minute", Concurrency: 1})
	jobs.findErr = assert.AnError

	s := newTestScheduler(jobs, executions, "j", func(ctx context.Context) error { return nil })
	s.stopped = false

	s.executeConcurrently(ctx)
	s.executeConcurrently(ctx)

	assert.Equal(t, int64(2), s.unexpectedErrorCount.Load())
}
