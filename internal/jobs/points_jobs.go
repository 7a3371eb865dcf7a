package jobs

import (
	"context"
	"time"

	"kudos-backend/internal/logger"
)

// GrantMonthlyPoints credits every active employee of every billed tenant
// with the monthly giftable allowance.
func (jr *JobRunner) GrantMonthlyPoints() {
	jr.runWithRecovery("GrantMonthlyPoints", func() {
		ctx := context.Background()

		tenants, err := jr.store.TenantRepository.List(ctx)
		if err != nil {
			logger.Error("Failed to list tenants for monthly grant", "error", err)
			return
		}

		now := time.Now().UTC()
		total := 0
		for i := range tenants {
			if !tenants[i].SubscriptionCurrent(now) {
				continue
			}
			granted, err := jr.services.PointsGrant.GrantMonthlyPoints(ctx, tenants[i].ID)
			if err != nil {
				logger.Error("Monthly grant failed for tenant", "tenant_id", tenants[i].ID, "error", err)
				continue
			}
			total += granted
		}

		logger.Info("Monthly grant sweep complete", "tenants", len(tenants), "wallets_granted", total)
	})
}

// ExpireGiftablePoints removes the unused giftable allowance from every
// wallet. Scheduled just before the next grant so the allowance does not
// accumulate across cycles.
func (jr *JobRunner) ExpireGiftablePoints() {
	jr.runWithRecovery("ExpireGiftablePoints", func() {
		ctx := context.Background()

		tenants, err := jr.store.TenantRepository.List(ctx)
		if err != nil {
			logger.Error("Failed to list tenants for giftable expiry", "error", err)
			return
		}

		total := 0
		for i := range tenants {
			processed, err := jr.services.PointsGrant.ExpireGiftablePoints(ctx, tenants[i].ID)
			if err != nil {
				logger.Error("Giftable expiry failed for tenant", "tenant_id", tenants[i].ID, "error", err)
				continue
			}
			total += processed
		}

		logger.Info("Giftable expiry sweep complete", "tenants", len(tenants), "wallets_processed", total)
	})
}
