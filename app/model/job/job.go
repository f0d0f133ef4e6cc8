// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job defines persistence models for scheduled job definitions.
package job

import (
	"time"
)

// ExecutionStatus classifies the outcome of one job invocation.
type ExecutionStatus string

const (
	// StatusFinished means the handler returned normally.
	StatusFinished ExecutionStatus = "finished"
	// StatusFailed means the handler returned an error or panicked.
	StatusFailed ExecutionStatus = "failed"
	// StatusNotFound means the job definition disappeared before execution.
	StatusNotFound ExecutionStatus = "notFound"
	// StatusMaxRunningReached means the cluster-wide cap blocked the invocation.
	StatusMaxRunningReached ExecutionStatus = "maxRunningReached"
)

// maxDetailLength bounds the persisted failure detail text.
const maxDetailLength = 1000

type (
	// Job is one schedulable definition stored in the jobs collection.
	//
	// Name is unique within the store. Running is a cluster-wide counter
	// maintained by executors and must never go below zero.
	Job struct {
		Name          string         `bson:"name" json:"name"`
		Interval      string         `bson:"interval" json:"interval"`
		Concurrency   int            `bson:"concurrency" json:"concurrency"`
		MaxRunning    int            `bson:"maxRunning" json:"max_running"`
		Running       int            `bson:"running" json:"running"`
		Immediate     bool           `bson:"immediate" json:"immediate"`
		ExecutionInfo *ExecutionInfo `bson:"executionInfo,omitempty" json:"execution_info,omitempty"`
	}

	// ExecutionInfo records the most recent invocation of a job.
	ExecutionInfo struct {
		LastStarted  time.Time `bson:"lastStarted" json:"last_started"`
		LastFinished time.Time `bson:"lastFinished" json:"last_finished"`
		LastResult   Result    `bson:"lastResult" json:"last_result"`
	}

	// Result holds an outcome classification and optional failure detail.
	Result struct {
		Status ExecutionStatus `bson:"status" json:"status"`
		Detail string          `bson:"detail,omitempty" json:"detail,omitempty"`
	}
)

// CollectionName returns the jobs collection name in MongoDB.
//
// Returns:
//   - string: physical collection name.
func (j *Job) CollectionName() string {
	return "jobs"
}

// NewResult builds a Result with the detail text clipped to the stored bound.
//
// Parameters:
//   - status: outcome classification.
//   - detail: plaintext failure detail, may be empty.
//
// Returns:
//   - Result: result with length-bounded detail.
func NewResult(status ExecutionStatus, detail string) Result {
	if len(detail) > maxDetailLength {
		detail = detail[:maxDetailLength]
	}

	return Result{Status: status, Detail: detail}
}
