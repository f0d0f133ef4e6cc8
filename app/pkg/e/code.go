// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package e defines business and HTTP error codes used in API responses.
package e

const (
	// Generic status codes.
	BUSY          = -1
	SUCCESS       = 0
	ERROR         = 500
	InvalidParams = 400

	// Server app authorization errors.
	ServerUnauthorized         = 10001
	ServerAuthorizationExpired = 10002
	ServerAuthorizationFail    = 10003
	ServerAppNotFound          = 10004

	// Job scheduling errors.
	JobNotFound        = 20001
	JobInvalidInterval = 20002
	JobInvalidParams   = 20003
	JobStoreError      = 20004
	ScheduleNotReady   = 20005
)
