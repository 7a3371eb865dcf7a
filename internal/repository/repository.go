package repository

import (
	"context"
	"time"

	"kudos-backend/internal/domain"
)

type TenantRepository interface {
	Create(ctx context.Context, tenant *domain.Tenant) error
	GetByID(ctx context.Context, id int32) (*domain.Tenant, error)
	// ListBillingDue returns tenants whose auto-renew is on, whose
	// recurring-charge token is registered, and whose subscription expires
	// before the given instant (or was never set).
	ListBillingDue(ctx context.Context, asOf time.Time) ([]domain.Tenant, error)
	List(ctx context.Context) ([]domain.Tenant, error)
	// ExtendSubscription moves the tenant's expiry to the given instant and
	// resets the billing status to ACTIVE.
	ExtendSubscription(ctx context.Context, tenantID int32, expiresAt time.Time) error
	SetBillingStatus(ctx context.Context, tenantID int32, status domain.BillingStatus) error
	SetBillingToken(ctx context.Context, tenantID int32, token string) error
}

type EmployeeRepository interface {
	Create(ctx context.Context, emp *domain.Employee) error
	GetByID(ctx context.Context, id int32) (*domain.Employee, error)
	ListActiveByTenant(ctx context.Context, tenantID int32) ([]domain.Employee, error)
	// ExistsAll reports whether every given ID is a live employee of the
	// tenant. Used by the transfer engine to pre-validate distribution
	// batches before any wallet is touched.
	ExistsAll(ctx context.Context, tenantID int32, ids []int32) (bool, error)
}

// WalletTx is the mutation scope handed to a wallet-lock callback. Both
// writes happen inside the same database transaction as the row lock, so a
// balance change and its ledger entry commit or roll back together. The
// ledger insert path is append-only; no repository method updates or deletes
// a transaction row.
type WalletTx interface {
	UpdateBalance(w *domain.Wallet) error
	AppendTransaction(tx *domain.Transaction) error
}

type WalletRepository interface {
	Create(ctx context.Context, employeeID, tenantID int32) error
	// Get is a read-path lookup and may serve a slightly stale balance. A
	// missing row reads as a zeroed wallet: onboarding and balance display
	// deliberately share this default-construction policy. Mutating paths
	// never use Get.
	Get(ctx context.Context, employeeID int32) (*domain.Wallet, error)
	SumBalances(ctx context.Context, tenantID int32) (int64, error)
	// WithWallet runs fn with an exclusive row lock on the wallet, inside
	// one database transaction. Fails with domain.ErrWalletNotFound if the
	// row does not exist; any error from fn rolls everything back.
	WithWallet(ctx context.Context, employeeID int32, fn func(tx WalletTx, w *domain.Wallet) error) error
	// WithWalletPair locks both wallets, always acquiring the lower
	// employee ID first so that opposing transfers cannot deadlock. The
	// callback receives the wallets in argument order, not lock order.
	WithWalletPair(ctx context.Context, firstID, secondID int32, fn func(tx WalletTx, first, second *domain.Wallet) error) error
}

type LedgerRepository interface {
	// Append writes one immutable ledger entry outside of any wallet lock.
	// Used by saga steps whose balance change already committed.
	Append(ctx context.Context, tx *domain.Transaction) error
	ListByEmployee(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.Transaction, int32, error)
	GetSummary(ctx context.Context, employeeID int32) (*domain.LedgerSummary, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *domain.GiftOrder) error
	GetByID(ctx context.Context, id int32) (*domain.GiftOrder, error)
	// MarkPlaced and MarkFailed are the only transitions out of PENDING;
	// both are terminal.
	MarkPlaced(ctx context.Context, id int32) error
	MarkFailed(ctx context.Context, id int32, failReason string, refundFailed bool) error
	ListByEmployee(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.GiftOrder, int32, error)
	ListUnreconciled(ctx context.Context, tenantID int32) ([]domain.GiftOrder, error)
	// ClearRefundFailed drops the refund_failed flag once the points made it
	// back to the wallet. The order stays FAILED.
	ClearRefundFailed(ctx context.Context, id int32) error
}

type CatalogRepository interface {
	Create(ctx context.Context, item *domain.CatalogItem) error
	GetByID(ctx context.Context, id int32) (*domain.CatalogItem, error)
	ListActive(ctx context.Context) ([]domain.CatalogItem, error)
}

type SubscriptionPaymentRepository interface {
	Create(ctx context.Context, payment *domain.SubscriptionPayment) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.SubscriptionPayment, error)
	MarkSuccess(ctx context.Context, id int32, providerChargeRef string, approvedOn time.Time) error
	MarkFailed(ctx context.Context, id int32, failCode, failMessage string) error
	// Reopen resets a FAILED row to PENDING for a same-period retry.
	Reopen(ctx context.Context, id int32) error
	ListByTenant(ctx context.Context, tenantID int32) ([]domain.SubscriptionPayment, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	// ListRecent returns the feed most-recent-first, bounded by a time
	// window in hours (0 means no window), optionally unread-only, capped
	// at maxCount.
	ListRecent(ctx context.Context, employeeID int32, sinceHours int32, unreadOnly bool, maxCount int32) ([]domain.Notification, error)
	MarkAsRead(ctx context.Context, id int64, employeeID int32) error
}
