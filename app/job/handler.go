// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job registers built-in job handlers and their definitions.
package job

import (
	"context"
	"sync"

	"github.com/seakee/momo/app"
	"github.com/seakee/momo/app/job/probe"
	"github.com/seakee/momo/app/pkg/schedule"
	"github.com/sk-pkg/logger"
)

// Registry maps handler names to in-process callables. The job store
// records only definitions; the handler behind a definition must be
// resolved here when a job is defined through the admin API.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]schedule.Handler
}

// NewRegistry creates an empty handler registry.
//
// Returns:
//   - *Registry: initialized registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]schedule.Handler)}
}

// Add registers one named handler, replacing any prior entry.
//
// Parameters:
//   - name: handler name referenced by job definitions.
//   - handler: callable executed on every invocation.
//
// Returns:
//   - None.
func (r *Registry) Add(name string, handler schedule.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[name] = handler
}

// Get resolves one named handler.
//
// Parameters:
//   - name: handler name referenced by a job definition.
//
// Returns:
//   - schedule.Handler: registered callable, nil when unknown.
func (r *Registry) Get(name string) schedule.Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.handlers[name]
}

// Register adds built-in handlers and defines their jobs.
//
// Parameters:
//   - ctx: trace-aware context for definition store calls.
//   - config: loaded runtime configuration.
//   - logger: logger manager for job execution logs.
//   - s: connected schedule that receives the definitions.
//
// Returns:
//   - *Registry: registry holding all built-in handlers.
//   - error: definition error of a built-in job.
//
// Behavior:
//   - Jobs are only defined here; they start when the instance becomes
//     the active holder of its schedule name.
func Register(ctx context.Context, config *app.Config, logger *logger.Manager, s *schedule.Schedule) (*Registry, error) {
	registry := NewRegistry()

	// HTTP endpoint probe
	prober := probe.New(logger, config.Probe.URL)
	registry.Add("probe", prober)

	if config.Probe.Enable {
		err := s.DefineJob(ctx, schedule.Definition{
			Name:        config.Probe.Name,
			Interval:    config.Probe.Interval,
			Concurrency: config.Probe.Concurrency,
			MaxRunning:  config.Probe.MaxRunning,
			Immediate:   config.Probe.Immediate,
			Handler:     prober,
		})
		if err != nil {
			return nil, err
		}
	}

	return registry, nil
}
