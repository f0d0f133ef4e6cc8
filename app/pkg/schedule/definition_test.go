// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobModel "github.com/seakee/momo/app/model/job"
)

// TestFirstDelay verifies the delay law for every immediate/history case.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestFirstDelay(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tickInterval := time.Minute

	withHistory := func(finishedAgo time.Duration, immediate bool) *jobModel.Job {
		return &jobModel.Job{
			Name:      "j",
			Immediate: immediate,
			ExecutionInfo: &jobModel.ExecutionInfo{
				LastFinished: now.Add(-finishedAgo),
			},
		}
	}

	cases := []struct {
		name string
		job  *jobModel.Job
		want time.Duration
	}{
		{"immediate without history fires now", &jobModel.Job{Name: "j", Immediate: true}, 0},
		{"not immediate without history waits one interval", &jobModel.Job{Name: "j"}, tickInterval},
		{"immediate with fresh history keeps the period", withHistory(20*time.Second, true), 40 * time.Second},
		{"not immediate with fresh history keeps the period", withHistory(20*time.Second, false), 40 * time.Second},
		{"overdue history fires now", withHistory(5*time.Minute, false), 0},
		{"immediate overdue history fires now", withHistory(5*time.Minute, true), 0},
		{"history exactly one interval old fires now", withHistory(time.Minute, false), 0},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, firstDelay(c.job, tickInterval, now))
		})
	}
}

// TestValidate verifies definition normalization and rejection.
//
// Parameters:
//   - t: testing context.
//
// Returns:
//   - None.
func TestValidate(t *testing.T) {
	handler := Handler(func(ctx context.Context) error { return nil })

	def := Definition{Name: "j", Interval: "one minute", Handler: handler}
	require.NoError(t, validate(&def))
	assert.Equal(t, 1, def.Concurrency)

	bad := Definition{Name: "j", Interval: "every blue moon", Handler: handler}
	assert.ErrorIs(t, validate(&bad), ErrNonParsableInterval)

	negative := Definition{Name: "j", Interval: "one minute", Concurrency: -1, Handler: handler}
	assert.ErrorIs(t, validate(&negative), ErrInvalidConcurrency)

	capped := Definition{Name: "j", Interval: "one minute", MaxRunning: -1, Handler: handler}
	assert.ErrorIs(t, validate(&capped), ErrInvalidMaxRunning)

	missing := Definition{Name: "j", Interval: "one minute"}
	assert.ErrorIs(t, validate(&missing), ErrMissingHandler)
}
