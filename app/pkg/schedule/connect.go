// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/seakee/momo/app/pkg/trace"
	executionRepo "github.com/seakee/momo/app/repository/execution"
	jobRepo "github.com/seakee/momo/app/repository/job"
	"github.com/sk-pkg/logger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Options configures a connected Schedule instance.
type Options struct {
	URI          string        // MongoDB connection string.
	Database     string        // Database holding the jobs and executions collections.
	Name         string        // Logical schedule name, instances sharing it compete for liveness.
	PingInterval time.Duration // Heartbeat period, DefaultPingInterval when zero.
	Logger       *logger.Manager
	TraceID      *trace.ID
	Notifier     Notifier // Optional failure notifier.
}

// Connect builds a fully wired Schedule owning its MongoDB connection.
//
// Parameters:
//   - ctx: startup context bounding the connection attempt.
//   - opts: connection and schedule options.
//
// Returns:
//   - *Schedule: connected schedule with a running ping loop.
//   - error: connection, index, or registration error.
//
// Behavior:
//   - Generates a fresh scheduleId, registers the instance in the
//     executions ledger, ensures collection indexes, and starts the
//     heartbeat loop. Jobs start when the instance becomes the active
//     holder of the schedule name.
func Connect(ctx context.Context, opts Options) (*Schedule, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping mongodb")
	}

	pingInterval := opts.PingInterval
	if pingInterval <= 0 {
		pingInterval = DefaultPingInterval
	}

	db := client.Database(opts.Database)
	jobs := jobRepo.NewJobRepo(db)
	executions := executionRepo.NewScheduleRepo(db, pingInterval)

	if err = jobs.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	if err = executions.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	scheduleID := uuid.NewString()

	s := New(scheduleID, opts.Name, jobs, executions, opts.Logger, opts.TraceID, opts.Notifier)
	s.disconnect = client.Disconnect

	if err = executions.AddSchedule(ctx, scheduleID, opts.Name); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	// The ping gets a start-all callback instead of a back-reference.
	s.ping = NewPing(scheduleID, opts.Name, pingInterval, executions, opts.Logger, opts.TraceID, s.StartAll)
	s.ping.Start()

	opts.Logger.Info(ctx, "Schedule connected",
		zap.String("scheduleId", scheduleID),
		zap.String("schedule", opts.Name),
		zap.Duration("pingInterval", pingInterval),
	)

	return s, nil
}
