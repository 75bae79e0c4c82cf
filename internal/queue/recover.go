package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/panot-hq/edge-backend/pkg/logger"
)

// RecoverStaleJobs resets jobs stuck in processing for longer than
// olderThan and wakes a worker for every tenant with pending work, including
// tenants whose wake-up message was lost.
func RecoverStaleJobs(ctx context.Context, jobs JobStore, pub Publisher, olderThan time.Duration) error {
	reset, err := jobs.ResetStale(ctx, olderThan)
	if err != nil {
		return fmt.Errorf("reset stale jobs: %w", err)
	}
	if len(reset) > 0 {
		logger.Info("[Queue] Reset stale jobs", "count", len(reset))
	}

	tenants, err := jobs.PendingTenants(ctx)
	if err != nil {
		return fmt.Errorf("list pending tenants: %w", err)
	}
	if len(tenants) == 0 {
		logger.Debug("[Queue] No pending jobs found")
		return nil
	}

	for _, tenantID := range tenants {
		if err := PublishWake(ctx, pub, tenantID); err != nil {
			logger.Error("[Queue] Failed to wake tenant", "tenant", tenantID, "err", err)
			continue
		}
		logger.Info("[Queue] Woke tenant with pending jobs", "tenant", tenantID)
	}
	return nil
}
