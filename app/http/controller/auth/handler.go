// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package auth provides HTTP handlers for server app authentication endpoints.
package auth

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/seakee/momo/app"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
)

type (
	// Handler defines HTTP handlers for token issuance.
	Handler interface {
		// i is an unexported marker method used to seal this interface.
		i()
		// ctx builds a request-scoped context with trace metadata.
		ctx(c *gin.Context) context.Context
		// GetToken handles token issuance for configured server apps.
		GetToken() gin.HandlerFunc
	}

	// handler is the concrete implementation of Handler.
	handler struct {
		logger *logger.Manager
		i18n   *i18n.Manager
		apps   []app.ServerApp
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

// New creates an auth handler over the configured server apps.
//
// Parameters:
//   - logger: structured logger manager.
//   - i18n: i18n manager for localized API responses.
//   - apps: credential pairs loaded from configuration.
//
// Returns:
//   - Handler: initialized auth HTTP handler.
func New(logger *logger.Manager, i18n *i18n.Manager, apps []app.ServerApp) Handler {
	return &handler{
		logger: logger,
		i18n:   i18n,
		apps:   apps,
	}
}
