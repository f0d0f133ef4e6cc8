// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job provides HTTP handlers for job administration endpoints.
package job

import (
	"context"

	"github.com/gin-gonic/gin"
	builtinJob "github.com/seakee/momo/app/job"
	"github.com/seakee/momo/app/pkg/schedule"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
)

type (
	// Handler defines HTTP handlers for job administration.
	Handler interface {
		// i is an unexported marker method used to seal this interface.
		i()
		// ctx builds a request-scoped context with trace metadata.
		ctx(c *gin.Context) context.Context
		// Define handles job registration and redefinition.
		Define() gin.HandlerFunc
		// Remove handles job deletion.
		Remove() gin.HandlerFunc
		// List handles listing all stored jobs.
		List() gin.HandlerFunc
		// Get handles fetching one job description.
		Get() gin.HandlerFunc
		// Count handles counting locally registered jobs.
		Count() gin.HandlerFunc
		// Run handles ad-hoc job execution.
		Run() gin.HandlerFunc
		// Start handles starting one or all jobs.
		Start() gin.HandlerFunc
		// Stop handles stopping one or all jobs.
		Stop() gin.HandlerFunc
	}

	// handler is the concrete implementation of Handler.
	handler struct {
		logger   *logger.Manager
		i18n     *i18n.Manager
		schedule *schedule.Schedule
		registry *builtinJob.Registry
	}
)

// ctx builds a context carrying the trace ID from Gin context.
//
// Parameters:
//   - c: current Gin context for one HTTP request.
//
// Returns:
//   - context.Context: background-derived context with trace metadata.
func (h handler) ctx(c *gin.Context) context.Context {
	traceID, _ := c.Get("trace_id")

	return context.WithValue(context.Background(), logger.TraceIDKey, traceID.(string))
}

// i is a marker method that prevents external implementations.
//
// Returns:
//   - None.
func (h handler) i() {}

// New creates a job handler with schedule and infrastructure dependencies.
//
// Parameters:
//   - logger: structured logger manager.
//   - i18n: i18n manager for localized API responses.
//   - s: connected schedule instance, may be nil when Mongo is disabled.
//   - registry: named handler registry built at startup.
//
// Returns:
//   - Handler: initialized job HTTP handler.
func New(logger *logger.Manager, i18n *i18n.Manager, s *schedule.Schedule, registry *builtinJob.Registry) Handler {
	return &handler{
		logger:   logger,
		i18n:     i18n,
		schedule: s,
		registry: registry,
	}
}
