// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	jobModel "github.com/seakee/momo/app/model/job"
	executionRepo "github.com/seakee/momo/app/repository/execution"
	jobRepo "github.com/seakee/momo/app/repository/job"
)

// executor runs single job invocations and accounts for them in the
// job store and the executions ledger.
type executor struct {
	scheduleID string
	jobs       jobRepo.Repo
	executions executionRepo.Repo
}

// execute runs one invocation of a job handler.
//
// Parameters:
//   - ctx: trace-aware context for store calls and the handler.
//   - j: job definition loaded by the caller.
//   - handler: callable registered for the job name.
//
// Returns:
//   - jobModel.Result: outcome classification, always populated.
//   - error: unexpected bookkeeping failure, the outcome is still valid.
//
// Behavior:
//   - Increments the running counters before invoking the handler and
//     releases them on every exit path, including handler panics.
//   - Reports maxRunningReached without invoking the handler when the
//     cluster cap blocks the increment.
func (e *executor) execute(ctx context.Context, j *jobModel.Job, handler Handler) (jobModel.Result, error) {
	acquired, err := e.jobs.IncrementRunning(ctx, j.Name, j.MaxRunning)
	if err != nil {
		return jobModel.NewResult(jobModel.StatusFailed, err.Error()), errors.Wrap(err, "acquire running slot")
	}

	if !acquired {
		return jobModel.NewResult(jobModel.StatusMaxRunningReached, ""), nil
	}

	var bookkeeping error

	if err = e.executions.IncrementExecution(ctx, e.scheduleID, j.Name); err != nil {
		bookkeeping = err
	}

	started := time.Now()

	result := invoke(ctx, handler)

	// Release both counters and record the outcome on every exit path.
	if err = e.jobs.DecrementRunning(ctx, j.Name); err != nil && bookkeeping == nil {
		bookkeeping = err
	}

	if err = e.executions.DecrementExecution(ctx, e.scheduleID, j.Name); err != nil && bookkeeping == nil {
		bookkeeping = err
	}

	info := &jobModel.ExecutionInfo{
		LastStarted:  started,
		LastFinished: time.Now(),
		LastResult:   result,
	}

	if err = e.jobs.UpdateExecutionInfo(ctx, j.Name, info); err != nil && bookkeeping == nil {
		bookkeeping = err
	}

	return result, errors.Wrapf(bookkeeping, "bookkeeping of job %s", j.Name)
}

// invoke calls the handler with panic recovery.
//
// Parameters:
//   - ctx: trace-aware context passed to the handler.
//   - handler: callable to run.
//
// Returns:
//   - jobModel.Result: finished on a nil return, failed otherwise.
func invoke(ctx context.Context, handler Handler) (result jobModel.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = jobModel.NewResult(jobModel.StatusFailed, fmt.Sprintf("handler panic: %v", r))
		}
	}()

	if err := handler(ctx); err != nil {
		return jobModel.NewResult(jobModel.StatusFailed, err.Error())
	}

	return jobModel.NewResult(jobModel.StatusFinished, "")
}
