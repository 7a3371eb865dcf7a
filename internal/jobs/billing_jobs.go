package jobs

import (
	"context"
	"time"
)

// ChargeDueTenants runs one recurring-billing sweep over every tenant whose
// paid term has lapsed.
func (jr *JobRunner) ChargeDueTenants() {
	jr.runWithRecovery("ChargeDueTenants", func() {
		ctx := context.Background()
		jr.services.Billing.ChargeDueTenants(ctx, time.Now().UTC())
	})
}
