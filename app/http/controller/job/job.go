// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

package job

import (
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/seakee/momo/app/pkg/e"
	"github.com/seakee/momo/app/pkg/schedule"
)

type (
	// DefineJobReqParams is the request payload for defining a job.
	DefineJobReqParams struct {
		Name        string `json:"name" form:"name" binding:"required"`
		Interval    string `json:"interval" form:"interval" binding:"required"`
		Handler     string `json:"handler" form:"handler" binding:"required"`
		Concurrency int    `json:"concurrency" form:"concurrency"`
		MaxRunning  int    `json:"max_running" form:"max_running"`
		Immediate   bool   `json:"immediate" form:"immediate"`
	}

	// RunJobRepData is the response payload of an ad-hoc run.
	RunJobRepData struct {
		Status string `json:"status"`
		Detail string `json:"detail,omitempty"`
	}

	// CountRepData is the response payload of a count query.
	CountRepData struct {
		Count int `json:"count"`
	}
)

// Define returns a Gin handler that registers or replaces a job.
//
// Returns:
//   - gin.HandlerFunc: request handler for job definition.
//
// Behavior:
//   - Validates the request payload.
//   - Resolves the named handler from the in-process registry.
//   - Persists the definition and replaces any prior scheduler.
func (h handler) Define() gin.HandlerFunc {
	return func(c *gin.Context) {
		var params *DefineJobReqParams
		var err error

		errCode := e.ScheduleNotReady

		if h.schedule != nil {
			errCode = e.InvalidParams
			if err = c.ShouldBindJSON(&params); err == nil {
				// Only handlers registered in this process can be scheduled.
				jobHandler := h.registry.Get(params.Handler)
				errCode = e.JobInvalidParams
				if jobHandler != nil {
					err = h.schedule.DefineJob(h.ctx(c), schedule.Definition{
						Name:        params.Name,
						Interval:    params.Interval,
						Concurrency: params.Concurrency,
						MaxRunning:  params.MaxRunning,
						Immediate:   params.Immediate,
						Handler:     jobHandler,
					})

					errCode = errToCode(err)
				}
			}
		}

		h.i18n.JSON(c, errCode, nil, err)
	}
}

// Remove returns a Gin handler that deletes one job.
//
// Returns:
//   - gin.HandlerFunc: request handler for job removal.
func (h handler) Remove() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var err error

		if h.schedule != nil {
			err = h.schedule.RemoveJob(h.ctx(c), c.Param("name"))
			errCode = errToCode(err)
		}

		h.i18n.JSON(c, errCode, nil, err)
	}
}

// List returns a Gin handler that lists all stored jobs.
//
// Returns:
//   - gin.HandlerFunc: request handler for the job listing.
func (h handler) List() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var err error
		var data []*schedule.Description

		if h.schedule != nil {
			data, err = h.schedule.List(h.ctx(c))
			errCode = errToCode(err)
		}

		h.i18n.JSON(c, errCode, data, err)
	}
}

// Get returns a Gin handler that fetches one job description.
//
// Returns:
//   - gin.HandlerFunc: request handler for a single job.
func (h handler) Get() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var err error
		var data *schedule.Description

		if h.schedule != nil {
			data, err = h.schedule.Get(h.ctx(c), c.Param("name"))
			errCode = errToCode(err)
		}

		h.i18n.JSON(c, errCode, data, err)
	}
}

// Count returns a Gin handler that counts locally registered jobs.
//
// Returns:
//   - gin.HandlerFunc: request handler for the job count.
//
// Behavior:
//   - The started query flag restricts the count to armed jobs.
func (h handler) Count() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var data *CountRepData

		if h.schedule != nil {
			onlyStarted := c.Query("started") == "true"
			data = &CountRepData{Count: h.schedule.Count(onlyStarted)}
			errCode = e.SUCCESS
		}

		h.i18n.JSON(c, errCode, data, nil)
	}
}

// Run returns a Gin handler that executes one job immediately.
//
// Returns:
//   - gin.HandlerFunc: request handler for ad-hoc execution.
func (h handler) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var err error
		var data *RunJobRepData

		if h.schedule != nil {
			result, runErr := h.schedule.Run(h.ctx(c), c.Param("name"))
			err = runErr
			errCode = errToCode(err)

			data = &RunJobRepData{
				Status: string(result.Status),
				Detail: result.Detail,
			}
		}

		h.i18n.JSON(c, errCode, data, err)
	}
}

// Start returns a Gin handler that starts one or all jobs.
//
// Returns:
//   - gin.HandlerFunc: request handler for job start.
//
// Behavior:
//   - Starts every registered job when no name parameter is present.
func (h handler) Start() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var err error

		if h.schedule != nil {
			if name := c.Param("name"); name != "" {
				err = h.schedule.Start(h.ctx(c), name)
			} else {
				err = h.schedule.StartAll(h.ctx(c))
			}

			errCode = errToCode(err)
		}

		h.i18n.JSON(c, errCode, nil, err)
	}
}

// Stop returns a Gin handler that stops one or all jobs.
//
// Returns:
//   - gin.HandlerFunc: request handler for job stop.
//
// Behavior:
//   - Stopping waits until the pending executions of the affected jobs
//     have settled.
func (h handler) Stop() gin.HandlerFunc {
	return func(c *gin.Context) {
		errCode := e.ScheduleNotReady
		var err error

		if h.schedule != nil {
			if name := c.Param("name"); name != "" {
				err = h.schedule.Stop(h.ctx(c), name)
			} else {
				h.schedule.StopAll(h.ctx(c))
			}

			errCode = errToCode(err)
		}

		h.i18n.JSON(c, errCode, nil, err)
	}
}

// errToCode maps schedule errors onto API error codes.
//
// Parameters:
//   - err: error returned by the schedule, may be nil.
//
// Returns:
//   - int: matching application-level error code.
func errToCode(err error) int {
	switch {
	case err == nil:
		return e.SUCCESS
	case errors.Is(err, schedule.ErrJobNotFound):
		return e.JobNotFound
	case errors.Is(err, schedule.ErrNonParsableInterval):
		return e.JobInvalidInterval
	case errors.Is(err, schedule.ErrInvalidConcurrency),
		errors.Is(err, schedule.ErrInvalidMaxRunning),
		errors.Is(err, schedule.ErrMissingHandler):
		return e.JobInvalidParams
	default:
		return e.JobStoreError
	}
}
