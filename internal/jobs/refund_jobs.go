package jobs

import (
	"context"

	"kudos-backend/internal/logger"
)

// RetryFailedRefunds re-runs the wallet credit for gift orders whose refund
// did not commit at redemption time.
func (jr *JobRunner) RetryFailedRefunds() {
	jr.runWithRecovery("RetryFailedRefunds", func() {
		ctx := context.Background()

		tenants, err := jr.store.TenantRepository.List(ctx)
		if err != nil {
			logger.Error("Failed to list tenants for refund retry", "error", err)
			return
		}

		total := 0
		for i := range tenants {
			recovered, err := jr.services.Redemption.RetryFailedRefunds(ctx, tenants[i].ID)
			if err != nil {
				logger.Error("Refund retry failed for tenant", "tenant_id", tenants[i].ID, "error", err)
				continue
			}
			total += recovered
		}

		logger.Info("Refund retry complete", "tenants", len(tenants), "orders_recovered", total)
	})
}
