// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package notify forwards operational scheduler events to Feishu.
package notify

import (
	"context"

	"github.com/sk-pkg/feishu"
	"github.com/sk-pkg/logger"
	"github.com/sk-pkg/util"
	"go.uber.org/zap"
)

// FeishuNotifier sends job failure messages through a Feishu manager
// configured with a group webhook.
type FeishuNotifier struct {
	manager *feishu.Manager
	logger  *logger.Manager
}

// NewFeishuNotifier creates a notifier over an initialized Feishu manager.
//
// Parameters:
//   - manager: Feishu manager built with a group webhook.
//   - log: logger manager for delivery errors.
//
// Returns:
//   - *FeishuNotifier: initialized notifier.
func NewFeishuNotifier(manager *feishu.Manager, log *logger.Manager) *FeishuNotifier {
	return &FeishuNotifier{manager: manager, logger: log}
}

// NotifyJobFailure pushes one failure message to the configured group.
//
// Parameters:
//   - ctx: trace-aware context for delivery error logs.
//   - jobName: failing job.
//   - detail: length-bounded failure detail.
//
// Returns:
//   - None.
//
// Behavior:
//   - Delivery runs on its own goroutine so the scheduling loop is
//     never blocked by the webhook.
func (n *FeishuNotifier) NotifyJobFailure(ctx context.Context, jobName, detail string) {
	go func() {
		msg := util.SpliceStr("The scheduled job: ", jobName, " failed. ", detail)

		if err := n.manager.SendGroupTextMsg(msg); err != nil {
			n.logger.Error(ctx, "Sending job failure notification failed",
				zap.String("job", jobName),
				zap.Error(err),
			)
		}
	}()
}
