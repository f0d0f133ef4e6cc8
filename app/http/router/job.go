// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package router

import (
	"github.com/gin-gonic/gin"
	authController "github.com/seakee/momo/app/http/controller/auth"
	jobController "github.com/seakee/momo/app/http/controller/job"
)

// registerJobGroup registers job administration routes.
//
// Parameters:
//   - group: route group mounted at internal/service/job.
//   - core: shared dependency container.
//
// Returns:
//   - None.
//
// Behavior:
//   - All job routes require a valid server app token.
func registerJobGroup(group *gin.RouterGroup, core *Core) {
	handler := jobController.New(core.Logger, core.I18n, core.Schedule, core.Registry)

	group.Use(core.Middleware.CheckAppAuth())

	group.POST("", handler.Define())
	group.GET("", handler.List())
	group.GET("count", handler.Count())
	group.POST("start", handler.Start())
	group.POST("stop", handler.Stop())
	group.GET(":name", handler.Get())
	group.DELETE(":name", handler.Remove())
	group.POST(":name/run", handler.Run())
	group.POST(":name/start", handler.Start())
	group.POST(":name/stop", handler.Stop())
}

// registerAuthGroup registers token issuance routes.
//
// Parameters:
//   - group: route group mounted at external/auth.
//   - core: shared dependency container.
//
// Returns:
//   - None.
func registerAuthGroup(group *gin.RouterGroup, core *Core) {
	handler := authController.New(core.Logger, core.I18n, core.Apps)

	group.POST("token", handler.GetToken())
}
