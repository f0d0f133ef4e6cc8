// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package bootstrap

import (
	"context"
	"time"

	builtinJob "github.com/seakee/momo/app/job"
	"github.com/seakee/momo/app/pkg/notify"
	"github.com/seakee/momo/app/pkg/schedule"
	"go.uber.org/zap"
)

// loadSchedule connects the schedule instance and registers built-in jobs.
//
// Parameters:
//   - ctx: trace-aware context used for initialization logs.
//
// Returns:
//   - error: returned when connecting or registering jobs fails.
//
// Behavior:
//   - Skipped entirely when Mongo is disabled; the admin API then
//     responds with a not-ready code.
//   - Jobs start once the ping loop observes this instance as the
//     active holder of the schedule name.
func (a *App) loadSchedule(ctx context.Context) error {
	if !a.Config.Mongo.Enable {
		a.Logger.Warn(ctx, "Mongo is disabled, schedule subsystem not started")
		a.Registry = builtinJob.NewRegistry()
		return nil
	}

	var notifier schedule.Notifier
	if a.Feishu != nil && a.Config.Feishu.GroupWebhook != "" {
		notifier = notify.NewFeishuNotifier(a.Feishu, a.Logger)
	}

	connectTimeout := a.Config.Mongo.ConnectTimeout * time.Second
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	s, err := schedule.Connect(connectCtx, schedule.Options{
		URI:          a.Config.Mongo.URI,
		Database:     a.Config.Mongo.Database,
		Name:         a.Config.Schedule.Name,
		PingInterval: a.Config.Schedule.PingInterval * time.Second,
		Logger:       a.Logger,
		TraceID:      a.TraceID,
		Notifier:     notifier,
	})
	if err != nil {
		return err
	}

	a.Schedule = s

	a.Registry, err = builtinJob.Register(ctx, a.Config, a.Logger, s)
	if err != nil {
		return err
	}

	a.Logger.Info(ctx, "Schedule loaded successfully",
		zap.String("scheduleId", s.ScheduleID()),
		zap.String("schedule", s.Name()),
	)

	return nil
}
