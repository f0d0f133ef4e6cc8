// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"time"

	jobModel "github.com/seakee/momo/app/model/job"
	"github.com/seakee/momo/app/pkg/interval"
)

type (
	// Handler executes one invocation of a job. The store records only the
	// definition, the in-process schedule holds the actual callable keyed
	// by job name. A non-nil error marks the invocation as failed.
	Handler func(ctx context.Context) error

	// Definition describes one job to register with a Schedule.
	Definition struct {
		Name        string // Unique job name within the store.
		Interval    string // Human-readable interval, e.g. "30 seconds".
		Concurrency int    // Invocations one tick may launch, defaults to 1.
		MaxRunning  int    // Cluster-wide cap on in-flight invocations, 0 is unbounded.
		Immediate   bool   // Whether the first tick fires right away.
		Handler     Handler
	}

	// Status describes the local scheduling state of a started job.
	Status struct {
		Interval time.Duration `json:"interval"` // Parsed tick period.
		Running  int           `json:"running"`  // Pending executions launched by this instance.
	}

	// Description combines a stored definition with local scheduling state.
	Description struct {
		jobModel.Job
		Schedule *Status `json:"schedule,omitempty"`
	}

	// Notifier receives operational events worth surfacing to operators.
	// Implementations must not block the scheduling loop.
	Notifier interface {
		NotifyJobFailure(ctx context.Context, jobName, detail string)
	}
)

// validate normalizes and checks a definition before persistence.
//
// Parameters:
//   - def: definition to check, mutated in place for defaults.
//
// Returns:
//   - error: first validation failure, nil when the definition is sound.
func validate(def *Definition) error {
	if def.Handler == nil {
		return ErrMissingHandler
	}

	if _, err := interval.Parse(def.Interval); err != nil {
		return err
	}

	if def.Concurrency == 0 {
		def.Concurrency = 1
	}

	if def.Concurrency < 0 {
		return ErrInvalidConcurrency
	}

	if def.MaxRunning < 0 {
		return ErrInvalidMaxRunning
	}

	return nil
}

// firstDelay computes the delay before the first fire of a job.
//
// Parameters:
//   - j: stored job definition with optional execution info.
//   - tickInterval: parsed interval of the job.
//   - now: current wall-clock time.
//
// Returns:
//   - time.Duration: delay before the first fire, never negative.
//
// Behavior:
//   - An immediate job with no prior execution fires right away.
//   - With a prior execution the remainder of the interval since
//     lastFinished is waited out, so the effective period survives
//     restarts and an immediate job does not double-fire on a fast
//     restart.
func firstDelay(j *jobModel.Job, tickInterval time.Duration, now time.Time) time.Duration {
	if j.ExecutionInfo == nil || j.ExecutionInfo.LastFinished.IsZero() {
		if j.Immediate {
			return 0
		}

		return tickInterval
	}

	delay := tickInterval - now.Sub(j.ExecutionInfo.LastFinished)
	if delay < 0 {
		return 0
	}

	return delay
}
