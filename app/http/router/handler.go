// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package router wires HTTP route groups and registers controller handlers.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/seakee/momo/app"
	"github.com/seakee/momo/app/http/middleware"
	builtinJob "github.com/seakee/momo/app/job"
	"github.com/seakee/momo/app/pkg/schedule"
	"github.com/sk-pkg/i18n"
	"github.com/sk-pkg/logger"
)

type Core struct {
	Logger     *logger.Manager
	I18n       *i18n.Manager
	Middleware middleware.Middleware
	Schedule   *schedule.Schedule
	Registry   *builtinJob.Registry
	Apps       []app.ServerApp
}

// New registers internal and external API groups under /momo.
//
// Parameters:
//   - mux: gin engine that receives route registrations.
//   - core: shared dependency container for handlers.
//
// Returns:
//   - *gin.Engine: the same engine after route registration.
//
// Example:
//
//	router.New(mux, core)
func New(mux *gin.Engine, core *Core) *gin.Engine {
	api := mux.Group("momo")
	// Register internal APIs used by trusted services.
	internal(api.Group("internal"), core)
	// Register external APIs exposed to app clients.
	external(api.Group("external"), core)

	return mux
}

// external registers routes intended for external callers.
//
// Parameters:
//   - api: route group for external endpoints.
//   - core: shared dependency container.
//
// Returns:
//   - None.
func external(api *gin.RouterGroup, core *Core) {
	api.GET("ping", func(c *gin.Context) {
		core.I18n.JSON(c, 0, nil, nil)
	})

	registerAuthGroup(api.Group("auth"), core)
}

// internal registers routes intended for internal service calls.
//
// Parameters:
//   - api: route group for internal endpoints.
//   - core: shared dependency container.
//
// Returns:
//   - None.
func internal(api *gin.RouterGroup, core *Core) {
	api.GET("ping", func(c *gin.Context) {
		core.I18n.JSON(c, 0, nil, nil)
	})

	// Service endpoints, including job administration APIs.
	serviceGroup := api.Group("service")
	registerJobGroup(serviceGroup.Group("job"), core)
}
