// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/seakee/momo/app/pkg/timer"
	"github.com/seakee/momo/app/pkg/trace"
	executionRepo "github.com/seakee/momo/app/repository/execution"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

// DefaultPingInterval is the heartbeat period used when none is configured.
const DefaultPingInterval = 60 * time.Second

// Ping is the liveness beacon of one schedule instance. It periodically
// marks the instance alive in the executions ledger, detects stale peers
// sharing the schedule name, and triggers job takeover.
//
// The job-start callback is injected at construction so the ping never
// holds a back-reference to its owning Schedule.
type Ping struct {
	scheduleID string
	name       string
	interval   time.Duration
	executions executionRepo.Repo
	logger     *logger.Manager
	traceID    *trace.ID
	startAll   func(ctx context.Context) error

	mu     sync.Mutex
	timer  *timer.Timer
	active bool
}

// NewPing creates a liveness beacon for one schedule instance.
//
// Parameters:
//   - scheduleID: process-unique instance identifier.
//   - name: logical schedule name shared by competing instances.
//   - pingInterval: heartbeat period, DefaultPingInterval when zero.
//   - executions: executions ledger adapter.
//   - log: logger manager.
//   - traceID: trace ID generator for tick contexts.
//   - startAll: callback starting all jobs of the owning schedule.
//
// Returns:
//   - *Ping: initialized beacon, not yet started.
func NewPing(scheduleID, name string, pingInterval time.Duration, executions executionRepo.Repo, log *logger.Manager, traceID *trace.ID, startAll func(ctx context.Context) error) *Ping {
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}

	return &Ping{
		scheduleID: scheduleID,
		name:       name,
		interval:   pingInterval,
		executions: executions,
		logger:     log,
		traceID:    traceID,
		startAll:   startAll,
	}
}

// Start arms the heartbeat loop. The first tick fires immediately.
//
// Returns:
//   - None.
func (p *Ping) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		return
	}

	p.timer = timer.Start(0, p.interval, p.tick)
}

// Stop cancels the heartbeat loop and removes the own ledger entry.
//
// Parameters:
//   - ctx: trace-aware context for the final cleanup.
//
// Returns:
//   - None.
func (p *Ping) Stop(ctx context.Context) {
	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.active = false
	p.mu.Unlock()

	if err := p.executions.DeleteOne(ctx, p.scheduleID); err != nil {
		p.logger.Error(ctx, "Removing the schedule from the repository failed", zap.Error(err))
	}
}

// tick runs one heartbeat round.
//
// Returns:
//   - None.
//
// Behavior:
//   - Checks activeness, starts all jobs on a fresh activation, writes
//     the heartbeat, and removes dead peers sharing the schedule name.
//   - Store errors are logged and absorbed, the loop never throws.
func (p *Ping) tick() {
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, p.traceID.New())

	if err := p.round(ctx); err != nil {
		p.logger.Error(ctx, "Pinging or cleaning the Schedules repository failed", zap.Error(err))
	}
}

// round performs the four heartbeat steps of one tick.
//
// Parameters:
//   - ctx: trace-aware context for this round.
//
// Returns:
//   - error: first failing store operation.
func (p *Ping) round(ctx context.Context) error {
	active, err := p.executions.IsActiveSchedule(ctx, p.scheduleID, p.name)
	if err != nil {
		return err
	}

	if p.activationTransition(active) {
		p.logger.Info(ctx, "Schedule became active, starting all jobs",
			zap.String("scheduleId", p.scheduleID),
			zap.String("schedule", p.name),
		)

		if err = p.startAll(ctx); err != nil {
			p.logger.Error(ctx, "Starting jobs on activation failed", zap.Error(err))
		}
	}

	if err = p.executions.Ping(ctx, p.scheduleID); err != nil {
		return err
	}

	olderThan := time.Now().Add(-2 * p.interval).UnixMilli()

	return p.executions.DeleteDead(ctx, p.name, olderThan)
}

// activationTransition records the activeness observation and reports
// whether it is a fresh not-active to active transition.
//
// Parameters:
//   - active: activeness observed this round.
//
// Returns:
//   - bool: true exactly once per activation transition.
func (p *Ping) activationTransition(active bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	transition := active && !p.active
	p.active = active

	return transition
}
