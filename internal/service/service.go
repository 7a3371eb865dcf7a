package service

import (
	"context"
	"time"

	"kudos-backend/internal/domain"
)

// Callers of these services arrive with a validated (tenant, actor) pair;
// authentication and tenant resolution happen upstream.

type TransferService interface {
	// Transfer moves points between two employees' wallets as one atomic
	// debit+credit+ledger unit and returns the ledger entry ID.
	Transfer(ctx context.Context, tenantID, senderID, receiverID int32, amount int64, message string, tags []string) (int64, error)
	// Distribute applies an admin adjustment of amountPer points to every
	// receiver. Negative amounts claw back from each receiver's wallet.
	// Receivers are validated up front; once mutation starts, earlier
	// receivers are not rolled back if a later one fails.
	Distribute(ctx context.Context, tenantID, adminID int32, receiverIDs []int32, amountPer int64, message string, tags []string) ([]int64, error)
}

type RedemptionService interface {
	// Redeem spends points on an externally fulfilled gift. The returned
	// order is terminal: PLACED, or FAILED with the wallet refunded (or
	// RefundFailed set when the refund write itself failed).
	Redeem(ctx context.Context, tenantID, employeeID, itemID int32, quantity int32) (*domain.GiftOrder, error)
	ListOrders(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.GiftOrder, int32, error)
	// RetryFailedRefunds re-credits wallets for FAILED orders whose refund
	// write did not go through, and returns how many were recovered.
	RetryFailedRefunds(ctx context.Context, tenantID int32) (int, error)
}

type BillingService interface {
	// ChargeTenant runs one billing cycle for the tenant. Safe to re-run:
	// an already settled period is a no-op.
	ChargeTenant(ctx context.Context, tenant *domain.Tenant, now time.Time) error
	// ChargeDueTenants runs ChargeTenant for every tenant due as of now and
	// returns how many charges succeeded.
	ChargeDueTenants(ctx context.Context, now time.Time) (int, error)
	// RegisterBillingKey exchanges an authorization code for a
	// recurring-charge token and stores it on the tenant.
	RegisterBillingKey(ctx context.Context, tenantID int32, authorizationCode, tenantKey string) error
}

type LedgerService interface {
	GetBalance(ctx context.Context, employeeID int32) (*domain.Wallet, error)
	GetTransactions(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.Transaction, int32, error)
	GetSummary(ctx context.Context, employeeID int32) (*domain.LedgerSummary, error)
	// SumTenantBalances supports the conservation check: with no
	// redemptions, peer transfers keep this sum invariant.
	SumTenantBalances(ctx context.Context, tenantID int32) (int64, error)
}

type NotificationService interface {
	GetFeed(ctx context.Context, employeeID int32, sinceHours int32, unreadOnly bool, maxCount int32) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, employeeID int32, notificationID int64) error
}

type PointsGrantService interface {
	// GrantMonthlyPoints credits every active employee of the tenant with
	// the configured giftable allowance.
	GrantMonthlyPoints(ctx context.Context, tenantID int32) (int, error)
	// ExpireGiftablePoints removes whatever giftable allowance remains in
	// each wallet at the end of a cycle.
	ExpireGiftablePoints(ctx context.Context, tenantID int32) (int, error)
}

type EmailService interface {
	SendBillingFailureNotice(ctx context.Context, adminEmail, tenantName, failCode, failMessage string) error
	SendRefundReconciliationAlert(ctx context.Context, adminEmail, tenantName string, orderID int32, points int64) error
}
