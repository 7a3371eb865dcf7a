package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PointsForPrice converts a money price into a point cost at the given
// points-per-unit rate. The result always rounds up: the fulfillment
// provider is paid in full, never underpaid by a fractional point.
func PointsForPrice(price decimal.Decimal, quantity int32, pointsPerUnit decimal.Decimal) (int64, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	if price.IsNegative() {
		return 0, fmt.Errorf("price must not be negative, got %s", price)
	}
	if !pointsPerUnit.IsPositive() {
		return 0, fmt.Errorf("points-per-unit rate must be positive, got %s", pointsPerUnit)
	}

	total := price.Mul(decimal.NewFromInt32(quantity)).Mul(pointsPerUnit)
	return total.Ceil().IntPart(), nil
}

// UnitPoints is the per-item point cost at the given rate, rounded up.
func UnitPoints(price decimal.Decimal, pointsPerUnit decimal.Decimal) (int64, error) {
	return PointsForPrice(price, 1, pointsPerUnit)
}

// NextBillingPeriod computes one billing period starting from the tenant's
// current expiry, even when that expiry has already passed: a lapsed tenant
// keeps the same period start from sweep to sweep, so the derived order ID
// stays pinned to its payment row instead of minting a fresh charge key
// every day. A tenant with no expiry on record starts its period now.
// The period is one calendar month; AddDate normalizes month-end overflow
// (Jan 31 + 1 month = Mar 2/3) the same way every run.
func NextBillingPeriod(expiresAt *time.Time, now time.Time) (start, end time.Time) {
	start = now.UTC()
	if expiresAt != nil {
		start = expiresAt.UTC()
	}
	return start, start.AddDate(0, 1, 0)
}

// BillingOrderID derives the idempotency key for one tenant billing period.
// Deterministic per (tenant, period start date): re-running the billing job
// for a period produces the same key and therefore at most one charge.
func BillingOrderID(tenantID int32, periodStart time.Time) string {
	return fmt.Sprintf("sub-%d-%s", tenantID, periodStart.UTC().Format("2006-01-02"))
}
