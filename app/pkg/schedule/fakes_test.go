// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"sort"
	"sync"
	"time"

	executionModel "github.com/seakee/momo/app/model/execution"
	jobModel "github.com/seakee/momo/app/model/job"
	"github.com/seakee/momo/app/pkg/trace"
	"github.com/sk-pkg/logger"
)

// newTestLogger creates a default stdout logger for tests.
func newTestLogger() *logger.Manager {
	l, err := logger.New()
	if err != nil {
		panic(err)
	}

	return l
}

// fakeJobRepo is an in-memory job store used by scheduler tests.
type fakeJobRepo struct {
	mu      sync.Mutex
	jobs    map[string]*jobModel.Job
	findErr error
	saveErr error
	incErr  error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*jobModel.Job)}
}

func (r *fakeJobRepo) FindOne(_ context.Context, name string) (*jobModel.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.findErr != nil {
		return nil, r.findErr
	}

	j, ok := r.jobs[name]
	if !ok {
		return nil, nil
	}

	clone := *j
	return &clone, nil
}

func (r *fakeJobRepo) Save(_ context.Context, j *jobModel.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.saveErr != nil {
		return r.saveErr
	}

	existing, ok := r.jobs[j.Name]
	if ok {
		existing.Interval = j.Interval
		existing.Concurrency = j.Concurrency
		existing.MaxRunning = j.MaxRunning
		existing.Immediate = j.Immediate
		return nil
	}

	clone := *j
	clone.Running = 0
	r.jobs[j.Name] = &clone

	return nil
}

func (r *fakeJobRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.jobs, name)

	return nil
}

func (r *fakeJobRepo) List(_ context.Context) ([]*jobModel.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]*jobModel.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		clone := *j
		jobs = append(jobs, &clone)
	}

	return jobs, nil
}

func (r *fakeJobRepo) IncrementRunning(_ context.Context, name string, maxRunning int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.incErr != nil {
		return false, r.incErr
	}

	j, ok := r.jobs[name]
	if !ok {
		return false, nil
	}

	if maxRunning > 0 && j.Running >= maxRunning {
		return false, nil
	}

	j.Running++

	return true, nil
}

func (r *fakeJobRepo) DecrementRunning(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[name]; ok && j.Running > 0 {
		j.Running--
	}

	return nil
}

func (r *fakeJobRepo) UpdateExecutionInfo(_ context.Context, name string, info *jobModel.ExecutionInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[name]; ok {
		j.ExecutionInfo = info
	}

	return nil
}

func (r *fakeJobRepo) EnsureIndexes(_ context.Context) error {
	return nil
}

// running returns the current counter of one stored job.
func (r *fakeJobRepo) running(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if j, ok := r.jobs[name]; ok {
		return j.Running
	}

	return 0
}

// put stores a job directly, bypassing Save defaulting.
func (r *fakeJobRepo) put(j *jobModel.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *j
	r.jobs[j.Name] = &clone
}

// get returns a copy of one stored job.
func (r *fakeJobRepo) get(name string) *jobModel.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[name]
	if !ok {
		return nil
	}

	clone := *j
	return &clone
}

// fakeScheduleRepo is an in-memory executions ledger used by ping tests.
type fakeScheduleRepo struct {
	mu           sync.Mutex
	entries      map[string]*executionModel.ScheduleEntry
	pingInterval time.Duration
	activeErr    error
	pingErr      error
}

func newFakeScheduleRepo(pingInterval time.Duration) *fakeScheduleRepo {
	return &fakeScheduleRepo{
		entries:      make(map[string]*executionModel.ScheduleEntry),
		pingInterval: pingInterval,
	}
}

func (r *fakeScheduleRepo) AddSchedule(_ context.Context, scheduleID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[scheduleID] = &executionModel.ScheduleEntry{
		ScheduleID: scheduleID,
		Name:       name,
		LastAlive:  time.Now().UnixMilli(),
		Executions: make(map[string]int),
	}

	return nil
}

func (r *fakeScheduleRepo) IsActiveSchedule(ctx context.Context, scheduleID, name string) (bool, error) {
	r.mu.Lock()

	if r.activeErr != nil {
		r.mu.Unlock()
		return false, r.activeErr
	}

	cutoff := executionModel.DeadBefore(time.Now(), r.pingInterval)

	live := make([]*executionModel.ScheduleEntry, 0)
	for _, entry := range r.entries {
		if entry.Name == name && entry.LastAlive >= cutoff {
			live = append(live, entry)
		}
	}
	r.mu.Unlock()

	if len(live) == 0 {
		if err := r.AddSchedule(ctx, scheduleID, name); err != nil {
			return false, err
		}

		return true, nil
	}

	sort.Slice(live, func(i, k int) bool {
		if live[i].LastAlive != live[k].LastAlive {
			return live[i].LastAlive < live[k].LastAlive
		}

		return live[i].ScheduleID < live[k].ScheduleID
	})

	return live[0].ScheduleID == scheduleID, nil
}

func (r *fakeScheduleRepo) Ping(_ context.Context, scheduleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pingErr != nil {
		return r.pingErr
	}

	if entry, ok := r.entries[scheduleID]; ok {
		entry.LastAlive = time.Now().UnixMilli()
	}

	return nil
}

func (r *fakeScheduleRepo) DeleteOne(_ context.Context, scheduleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, scheduleID)

	return nil
}

func (r *fakeScheduleRepo) DeleteDead(_ context.Context, name string, olderThan int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, entry := range r.entries {
		if entry.Name == name && entry.LastAlive < olderThan {
			delete(r.entries, id)
		}
	}

	return nil
}

func (r *fakeScheduleRepo) CountRunning(_ context.Context, jobName string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total := 0
	for _, entry := range r.entries {
		total += entry.Executions[jobName]
	}

	return total, nil
}

func (r *fakeScheduleRepo) IncrementExecution(_ context.Context, scheduleID, jobName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[scheduleID]; ok {
		entry.Executions[jobName]++
	}

	return nil
}

func (r *fakeScheduleRepo) DecrementExecution(_ context.Context, scheduleID, jobName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[scheduleID]; ok && entry.Executions[jobName] > 0 {
		entry.Executions[jobName]--
	}

	return nil
}

func (r *fakeScheduleRepo) EnsureIndexes(_ context.Context) error {
	return nil
}

// has reports whether an entry exists for scheduleID.
func (r *fakeScheduleRepo) has(scheduleID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.entries[scheduleID]

	return ok
}

// age moves one entry's heartbeat into the past.
func (r *fakeScheduleRepo) age(scheduleID string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.entries[scheduleID]; ok {
		entry.LastAlive = time.Now().Add(-d).UnixMilli()
	}
}

// newTestSchedule builds a Schedule over fresh fakes.
func newTestSchedule(scheduleID string) (*Schedule, *fakeJobRepo, *fakeScheduleRepo) {
	jobs := newFakeJobRepo()
	executions := newFakeScheduleRepo(time.Second)

	s := New(scheduleID, "test-schedule", jobs, executions, newTestLogger(), trace.NewTraceID(), nil)

	return s, jobs, executions
}
