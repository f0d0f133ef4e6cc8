// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	jobModel "github.com/seakee/momo/app/model/job"
	"github.com/seakee/momo/app/pkg/interval"
	"github.com/seakee/momo/app/pkg/timer"
	"github.com/seakee/momo/app/pkg/trace"
	jobRepo "github.com/seakee/momo/app/repository/job"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

// jobScheduler drives the timing and dispatch loop of one job on one
// schedule instance. It owns the timer exclusively and tracks every
// execution it launches until settlement.
type jobScheduler struct {
	jobName  string
	handler  Handler
	jobs     jobRepo.Repo
	executor *executor
	logger   *logger.Manager
	traceID  *trace.ID
	notifier Notifier

	mu           sync.Mutex
	timer        *timer.Timer
	tickInterval time.Duration
	stopped      bool

	pending      sync.WaitGroup
	pendingCount atomic.Int32

	unexpectedErrorCount atomic.Int64
}

// newJobScheduler creates a scheduler for one registered job.
//
// Parameters:
//   - name: unique job name.
//   - handler: callable registered for the job.
//   - jobs: job store adapter.
//   - exec: executor shared by all schedulers of one instance.
//   - log: logger manager.
//   - traceID: trace ID generator for tick contexts.
//   - notifier: optional failure notifier, may be nil.
//
// Returns:
//   - *jobScheduler: initialized scheduler, not yet started.
func newJobScheduler(name string, handler Handler, jobs jobRepo.Repo, exec *executor, log *logger.Manager, traceID *trace.ID, notifier Notifier) *jobScheduler {
	return &jobScheduler{
		jobName:  name,
		handler:  handler,
		jobs:     jobs,
		executor: exec,
		logger:   log,
		traceID:  traceID,
		notifier: notifier,
		stopped:  true,
	}
}

// start loads the job definition and arms the interval timer.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//
// Returns:
//   - error: interval parse failure or store error; a missing job
//     definition is logged and skipped, not returned.
//
// Behavior:
//   - Any prior timer is stopped first so a double start leaves exactly
//     one active timer.
func (s *jobScheduler) start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	j, err := s.jobs.FindOne(ctx, s.jobName)
	if err != nil {
		return errors.Wrapf(err, "load job %s", s.jobName)
	}

	if j == nil {
		s.logger.Warn(ctx, "Job is not defined in the store, skipping start", zap.String("job", s.jobName))
		return nil
	}

	tickInterval, err := interval.Parse(j.Interval)
	if err != nil {
		return err
	}

	s.tickInterval = tickInterval
	s.stopped = false
	s.timer = timer.Start(firstDelay(j, tickInterval, time.Now()), tickInterval, s.tick)

	s.logger.Info(ctx, "Job scheduled",
		zap.String("job", s.jobName),
		zap.Duration("interval", tickInterval),
		zap.Bool("immediate", j.Immediate),
	)

	return nil
}

// stop cancels the timer and waits for all pending executions to settle.
//
// Parameters:
//   - ctx: trace-aware context for shutdown logs.
//
// Returns:
//   - None.
//
// Behavior:
//   - After return no further invocation originates from this scheduler
//     until start is called again.
func (s *jobScheduler) stop(ctx context.Context) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.stopped = true
	s.mu.Unlock()

	s.pending.Wait()

	s.logger.Info(ctx, "Job scheduler stopped", zap.String("job", s.jobName))
}

// started reports whether the scheduler currently owns an active timer.
//
// Returns:
//   - bool: true when a timer is armed.
func (s *jobScheduler) started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timer != nil
}

// status returns the local scheduling state of a started job.
//
// Returns:
//   - *Status: tick interval and pending execution count, nil when the
//     scheduler is not started.
func (s *jobScheduler) status() *Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer == nil {
		return nil
	}

	return &Status{
		Interval: s.tickInterval,
		Running:  int(s.pendingCount.Load()),
	}
}

// tick is the periodic timer action.
//
// Returns:
//   - None.
func (s *jobScheduler) tick() {
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, s.traceID.New())
	s.executeConcurrently(ctx)
}

// executeConcurrently launches as many invocations as the tick may carry.
//
// Parameters:
//   - ctx: trace-aware context for this tick.
//
// Returns:
//   - None.
//
// Behavior:
//   - Launches concurrency invocations, reduced to the free capacity
//     under the cluster cap; ledger drift below zero free capacity is
//     clamped to launching none.
//   - A tick overlapping in-flight invocations of the same job is
//     allowed, capacity is per tick.
//   - Errors never stop the loop, they are logged and counted.
func (s *jobScheduler) executeConcurrently(ctx context.Context) {
	j, err := s.jobs.FindOne(ctx, s.jobName)
	if err != nil {
		s.unexpected(ctx, err)
		return
	}

	if j == nil {
		s.logger.Warn(ctx, "Job vanished from the store, skipping tick", zap.String("job", s.jobName))
		return
	}

	numToExecute := j.Concurrency
	if j.MaxRunning > 0 {
		free := j.MaxRunning - j.Running
		if free < 0 {
			free = 0
		}

		if free < numToExecute {
			numToExecute = free
		}
	}

	for i := 0; i < numToExecute; i++ {
		if !s.track() {
			return
		}

		go func() {
			defer s.settle()

			result, err := s.executor.execute(ctx, j, s.handler)
			if err != nil {
				s.unexpected(ctx, err)
			}

			s.report(ctx, result)
		}()
	}
}

// executeOnce runs the job immediately, bypassing the timer.
//
// Parameters:
//   - ctx: trace-aware context for the ad-hoc run.
//
// Returns:
//   - jobModel.Result: outcome, notFound when the definition is absent.
//   - error: store failure while loading the definition.
func (s *jobScheduler) executeOnce(ctx context.Context) (jobModel.Result, error) {
	j, err := s.jobs.FindOne(ctx, s.jobName)
	if err != nil {
		return jobModel.NewResult(jobModel.StatusFailed, err.Error()), errors.Wrapf(err, "load job %s", s.jobName)
	}

	if j == nil {
		return jobModel.NewResult(jobModel.StatusNotFound, ""), nil
	}

	// Ad-hoc runs are synchronous, the caller awaits settlement itself and
	// the pending set stays reserved for timer-launched executions.
	result, err := s.executor.execute(ctx, j, s.handler)
	if err != nil {
		s.unexpected(ctx, err)
	}

	s.report(ctx, result)

	return result, nil
}

// track registers one pending execution unless the scheduler is stopping.
//
// Returns:
//   - bool: true when the execution may proceed.
func (s *jobScheduler) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return false
	}

	s.pending.Add(1)
	s.pendingCount.Add(1)

	return true
}

// settle removes one execution from the pending set.
//
// Returns:
//   - None.
func (s *jobScheduler) settle() {
	s.pendingCount.Add(-1)
	s.pending.Done()
}

// report logs failed outcomes and notifies the configured notifier.
//
// Parameters:
//   - ctx: trace-aware context of the execution.
//   - result: settled outcome.
//
// Returns:
//   - None.
func (s *jobScheduler) report(ctx context.Context, result jobModel.Result) {
	if result.Status != jobModel.StatusFailed {
		return
	}

	s.logger.Error(ctx, "Job execution failed",
		zap.String("job", s.jobName),
		zap.String("detail", result.Detail),
	)

	if s.notifier != nil {
		s.notifier.NotifyJobFailure(ctx, s.jobName, result.Detail)
	}
}

// unexpected counts and logs an error escaping the periodic loop.
//
// Parameters:
//   - ctx: trace-aware context of the failing operation.
//   - err: root cause.
//
// Returns:
//   - None.
//
// Behavior:
//   - The counter is observability only, scheduling never stops itself.
func (s *jobScheduler) unexpected(ctx context.Context, err error) {
	s.unexpectedErrorCount.Add(1)

	s.logger.Error(ctx, "Unexpected error in job scheduler",
		zap.String("job", s.jobName),
		zap.Error(err),
	)
}
