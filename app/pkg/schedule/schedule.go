// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package schedule implements a distributed, persistent job scheduler.
//
// Multiple schedule instances share a job store and an executions ledger
// in MongoDB. Each instance runs registered jobs on human-readable
// intervals, enforces per-tick concurrency and a cluster-wide running
// cap, and takes over the jobs of crashed peers through a heartbeat
// protocol on the ledger.
package schedule

import (
	"context"
	"sync"

	jobModel "github.com/seakee/momo/app/model/job"
	"github.com/seakee/momo/app/pkg/trace"
	executionRepo "github.com/seakee/momo/app/repository/execution"
	jobRepo "github.com/seakee/momo/app/repository/job"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

// Schedule owns the job schedulers of one instance. All cross-instance
// coordination flows through the injected store adapters; the Schedule
// itself holds no process-wide state.
type Schedule struct {
	scheduleID string
	name       string
	jobs       jobRepo.Repo
	executions executionRepo.Repo
	logger     *logger.Manager
	traceID    *trace.ID
	notifier   Notifier
	executor   *executor
	ping       *Ping

	mu         sync.Mutex
	schedulers map[string]*jobScheduler

	disconnect func(ctx context.Context) error
}

// New creates a Schedule with explicit store dependencies.
//
// Parameters:
//   - scheduleID: process-unique instance identifier.
//   - name: logical schedule name shared by competing instances.
//   - jobs: job store adapter.
//   - executions: executions ledger adapter.
//   - log: logger manager.
//   - traceID: trace ID generator.
//   - notifier: optional failure notifier, may be nil.
//
// Returns:
//   - *Schedule: initialized schedule without a ping loop; use Connect
//     for the full lifecycle including heartbeats.
func New(scheduleID, name string, jobs jobRepo.Repo, executions executionRepo.Repo, log *logger.Manager, traceID *trace.ID, notifier Notifier) *Schedule {
	return &Schedule{
		scheduleID: scheduleID,
		name:       name,
		jobs:       jobs,
		executions: executions,
		logger:     log,
		traceID:    traceID,
		notifier:   notifier,
		executor: &executor{
			scheduleID: scheduleID,
			jobs:       jobs,
			executions: executions,
		},
		schedulers: make(map[string]*jobScheduler),
	}
}

// DefineJob validates and registers one job, replacing any prior
// registration of the same name.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//   - def: job definition including the handler callable.
//
// Returns:
//   - error: validation failure or store error; nothing is persisted on
//     a validation failure.
//
// Behavior:
//   - An existing scheduler of the name is fully stopped, its pending
//     executions drained, before the replacement becomes callable.
func (s *Schedule) DefineJob(ctx context.Context, def Definition) error {
	if err := validate(&def); err != nil {
		return err
	}

	s.mu.Lock()
	old := s.schedulers[def.Name]
	s.mu.Unlock()

	if old != nil {
		old.stop(ctx)
	}

	j := &jobModel.Job{
		Name:        def.Name,
		Interval:    def.Interval,
		Concurrency: def.Concurrency,
		MaxRunning:  def.MaxRunning,
		Immediate:   def.Immediate,
	}

	if err := s.jobs.Save(ctx, j); err != nil {
		return err
	}

	s.mu.Lock()
	s.schedulers[def.Name] = newJobScheduler(def.Name, def.Handler, s.jobs, s.executor, s.logger, s.traceID, s.notifier)
	s.mu.Unlock()

	s.logger.Info(ctx, "Job defined",
		zap.String("job", def.Name),
		zap.String("interval", def.Interval),
		zap.Int("concurrency", def.Concurrency),
		zap.Int("maxRunning", def.MaxRunning),
	)

	return nil
}

// RemoveJob stops the scheduler of a job and deletes its definition.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//   - name: unique job name.
//
// Returns:
//   - error: store deletion error.
func (s *Schedule) RemoveJob(ctx context.Context, name string) error {
	s.mu.Lock()
	scheduler := s.schedulers[name]
	delete(s.schedulers, name)
	s.mu.Unlock()

	if scheduler != nil {
		scheduler.stop(ctx)
	}

	return s.jobs.Delete(ctx, name)
}

// Start arms the timer of one registered job.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//   - name: unique job name.
//
// Returns:
//   - error: ErrJobNotFound when the job is not registered locally,
//     otherwise the scheduler start error.
func (s *Schedule) Start(ctx context.Context, name string) error {
	scheduler := s.scheduler(name)
	if scheduler == nil {
		return ErrJobNotFound
	}

	return scheduler.start(ctx)
}

// StartAll arms the timers of every registered job.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//
// Returns:
//   - error: first start failure; remaining jobs are still attempted.
func (s *Schedule) StartAll(ctx context.Context) error {
	var first error

	for _, scheduler := range s.snapshot() {
		if err := scheduler.start(ctx); err != nil {
			s.logger.Error(ctx, "Starting job failed", zap.String("job", scheduler.jobName), zap.Error(err))

			if first == nil {
				first = err
			}
		}
	}

	return first
}

// Stop cancels the timer of one job and drains its pending executions.
//
// Parameters:
//   - ctx: trace-aware context for shutdown logs.
//   - name: unique job name.
//
// Returns:
//   - error: ErrJobNotFound when the job is not registered locally.
func (s *Schedule) Stop(ctx context.Context, name string) error {
	scheduler := s.scheduler(name)
	if scheduler == nil {
		return ErrJobNotFound
	}

	scheduler.stop(ctx)

	return nil
}

// StopAll stops every registered job in parallel and awaits drainage.
//
// Parameters:
//   - ctx: trace-aware context for shutdown logs.
//
// Returns:
//   - None.
func (s *Schedule) StopAll(ctx context.Context) {
	var wg sync.WaitGroup

	for _, scheduler := range s.snapshot() {
		wg.Add(1)

		go func(js *jobScheduler) {
			defer wg.Done()
			js.stop(ctx)
		}(scheduler)
	}

	wg.Wait()
}

// Cancel stops every job and forgets the local scheduler set without
// deleting anything from the job store.
//
// Parameters:
//   - ctx: trace-aware context for shutdown logs.
//
// Returns:
//   - None.
func (s *Schedule) Cancel(ctx context.Context) {
	s.StopAll(ctx)

	s.mu.Lock()
	s.schedulers = make(map[string]*jobScheduler)
	s.mu.Unlock()
}

// Run executes one registered job immediately, bypassing its timer.
//
// Parameters:
//   - ctx: trace-aware context for the ad-hoc run.
//   - name: unique job name.
//
// Returns:
//   - jobModel.Result: settled outcome of the invocation.
//   - error: ErrJobNotFound when the job is not registered locally,
//     otherwise a store failure.
func (s *Schedule) Run(ctx context.Context, name string) (jobModel.Result, error) {
	scheduler := s.scheduler(name)
	if scheduler == nil {
		return jobModel.NewResult(jobModel.StatusNotFound, ""), ErrJobNotFound
	}

	return scheduler.executeOnce(ctx)
}

// List returns descriptions of all stored jobs with local state merged in.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//
// Returns:
//   - []*Description: stored definitions plus scheduling status of
//     locally started jobs.
//   - error: store failure.
func (s *Schedule) List(ctx context.Context) ([]*Description, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}

	descriptions := make([]*Description, 0, len(jobs))
	for _, j := range jobs {
		descriptions = append(descriptions, s.describe(j))
	}

	return descriptions, nil
}

// Get returns the description of one stored job.
//
// Parameters:
//   - ctx: trace-aware context for store calls.
//   - name: unique job name.
//
// Returns:
//   - *Description: stored definition plus local scheduling status.
//   - error: ErrJobNotFound when no definition exists, store failure
//     otherwise.
func (s *Schedule) Get(ctx context.Context, name string) (*Description, error) {
	j, err := s.jobs.FindOne(ctx, name)
	if err != nil {
		return nil, err
	}

	if j == nil {
		return nil, ErrJobNotFound
	}

	return s.describe(j), nil
}

// Count returns the number of locally registered jobs.
//
// Parameters:
//   - onlyStarted: count only jobs whose timer is armed.
//
// Returns:
//   - int: number of matching jobs.
func (s *Schedule) Count(onlyStarted bool) int {
	count := 0

	for _, scheduler := range s.snapshot() {
		if !onlyStarted || scheduler.started() {
			count++
		}
	}

	return count
}

// UnexpectedErrorCount sums the unexpected-error counters of all local
// job schedulers. The counter only ever grows and never affects
// scheduling decisions.
//
// Returns:
//   - int64: total unexpected errors observed by this instance.
func (s *Schedule) UnexpectedErrorCount() int64 {
	var total int64

	for _, scheduler := range s.snapshot() {
		total += scheduler.unexpectedErrorCount.Load()
	}

	return total
}

// ScheduleID returns the process-unique identifier of this instance.
//
// Returns:
//   - string: schedule instance identifier.
func (s *Schedule) ScheduleID() string {
	return s.scheduleID
}

// Name returns the logical schedule name of this instance.
//
// Returns:
//   - string: schedule name.
func (s *Schedule) Name() string {
	return s.name
}

// Disconnect stops all jobs, the ping loop, and any owned connection.
//
// Parameters:
//   - ctx: trace-aware context for the shutdown sequence.
//
// Returns:
//   - error: connection teardown error.
func (s *Schedule) Disconnect(ctx context.Context) error {
	s.Cancel(ctx)

	if s.ping != nil {
		s.ping.Stop(ctx)
	}

	if s.disconnect != nil {
		return s.disconnect(ctx)
	}

	return nil
}

// describe merges a stored job with the local scheduling status.
//
// Parameters:
//   - j: stored job definition.
//
// Returns:
//   - *Description: combined description.
func (s *Schedule) describe(j *jobModel.Job) *Description {
	description := &Description{Job: *j}

	if scheduler := s.scheduler(j.Name); scheduler != nil {
		description.Schedule = scheduler.status()
	}

	return description
}

// scheduler returns the locally registered scheduler of a job name.
//
// Parameters:
//   - name: unique job name.
//
// Returns:
//   - *jobScheduler: registered scheduler, nil when unknown.
func (s *Schedule) scheduler(name string) *jobScheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.schedulers[name]
}

// snapshot copies the current scheduler set for lock-free iteration.
//
// Returns:
//   - []*jobScheduler: registered schedulers at call time.
func (s *Schedule) snapshot() []*jobScheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedulers := make([]*jobScheduler, 0, len(s.schedulers))
	for _, scheduler := range s.schedulers {
		schedulers = append(schedulers, scheduler)
	}

	return schedulers
}
