// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package trace provides trace ID generation for logs and tick contexts.
package trace

import (
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sk-pkg/util"
)

// ID generates unique trace IDs prefixed with the host name so log
// lines can be attributed to the schedule instance that produced them.
type ID struct {
	prefix string
}

// NewTraceID creates a trace ID generator.
//
// Returns:
//   - *ID: generator seeded with the current host name.
//
// Example:
//
//	tid := trace.NewTraceID()
//	ctx := context.WithValue(ctx, logger.TraceIDKey, tid.New())
func NewTraceID() *ID {
	host, err := os.Hostname()
	if err != nil {
		log.Printf("failed to get hostname: %v", err)
		// Keep ID generation available with a stable fallback.
		host = "unknown"
	}

	return &ID{prefix: util.SpliceStr(host, "-")}
}

// New returns a fresh unique trace ID.
//
// Returns:
//   - string: host prefix plus a random UUID without dashes.
func (t *ID) New() string {
	return util.SpliceStr(t.prefix, strings.ReplaceAll(uuid.NewString(), "-", ""))
}
