// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package probe implements the built-in HTTP endpoint probe job.
package probe

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/seakee/momo/app/pkg/schedule"
	"github.com/sk-pkg/logger"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

// New creates a schedule handler that probes one HTTP endpoint.
//
// Parameters:
//   - log: logger manager for probe results.
//   - url: endpoint probed on every invocation.
//
// Returns:
//   - schedule.Handler: handler failing when the endpoint is unhealthy.
//
// Example:
//
//	registry.Add("probe", probe.New(logger, "https://example.com/health"))
func New(log *logger.Manager, url string) schedule.Handler {
	client := resty.New().SetTimeout(requestTimeout)

	return func(ctx context.Context) error {
		res, err := client.R().SetContext(ctx).Get(url)
		if err != nil {
			return fmt.Errorf("failed to probe %s: %w", url, err)
		}

		if res.StatusCode() != 200 {
			return fmt.Errorf("probe of %s returned status %d", url, res.StatusCode())
		}

		log.Info(ctx, "Probe succeeded",
			zap.String("url", url),
			zap.Duration("latency", res.Time()),
		)

		return nil
	}
}
