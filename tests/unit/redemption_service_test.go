package unit

import (
	"context"
	"testing"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/events"
	"kudos-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func activeTenant() *domain.Tenant {
	expires := time.Now().UTC().Add(20 * 24 * time.Hour)
	return &domain.Tenant{
		ID:                    7,
		Name:                  "Acme",
		AdminEmail:            "admin@acme.test",
		BillingStatus:         domain.BillingStatusActive,
		SubscriptionExpiresAt: &expires,
	}
}

func giftItem() *domain.CatalogItem {
	return &domain.CatalogItem{
		ID:                 3,
		ExternalProductRef: "GC-25",
		Name:               "Coffee Card",
		Price:              decimal.RequireFromString("4.99"),
		Active:             true,
	}
}

type redemptionFixture struct {
	tenants     *MockTenantRepo
	employees   *MockEmployeeRepo
	wallets     *fakeWalletRepo
	ledger      *MockLedgerRepo
	orders      *MockOrderRepo
	catalog     *MockCatalogRepo
	fulfillment *MockFulfillment
	email       *MockEmail
	queue       *events.Queue
	svc         service.RedemptionService
}

func newRedemptionFixture(wallets *fakeWalletRepo) *redemptionFixture {
	f := &redemptionFixture{
		tenants:     new(MockTenantRepo),
		employees:   new(MockEmployeeRepo),
		wallets:     wallets,
		ledger:      new(MockLedgerRepo),
		orders:      new(MockOrderRepo),
		catalog:     new(MockCatalogRepo),
		fulfillment: new(MockFulfillment),
		email:       new(MockEmail),
		queue:       events.NewQueue(8),
	}
	f.svc = service.NewRedemptionService(
		f.tenants, f.employees, f.wallets, f.ledger, f.orders, f.catalog,
		f.fulfillment, f.email, f.queue, decimal.RequireFromString("100"),
	)
	return f
}

func TestRedemptionService_Redeem(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600, GiftableBalance: 100},
		))
		f.tenants.On("GetByID", ctx, int32(7)).Return(activeTenant(), nil)
		f.employees.On("GetByID", ctx, int32(2)).Return(&domain.Employee{ID: 2, Email: "pat@acme.test", Name: "Pat"}, nil)
		f.catalog.On("GetByID", ctx, int32(3)).Return(giftItem(), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(nil)
		f.fulfillment.On("PlaceOrder", ctx, mock.Anything).Return(nil)
		f.orders.On("MarkPlaced", ctx, int32(1)).Return(nil)
		f.ledger.On("Append", ctx, mock.Anything).Return(nil)

		order, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.NoError(t, err)
		assert.Equal(t, domain.OrderStatusPlaced, order.Status)
		// 4.99 at 100 points per unit rounds up to 499.
		assert.Equal(t, int64(499), order.TotalPoints)

		w := f.wallets.wallet(2)
		assert.Equal(t, int64(101), w.Balance)
		// Giftable is carried through untouched while covered by balance.
		assert.Equal(t, int64(100), w.GiftableBalance)

		published := drainEvents(f.queue)
		if assert.Len(t, published, 1) {
			assert.Equal(t, events.KindGiftPlaced, published[0].Kind)
			assert.Equal(t, int32(2), published[0].SubjectID)
		}
		f.ledger.AssertCalled(t, "Append", ctx, mock.MatchedBy(func(entry *domain.Transaction) bool {
			return entry.Type == domain.TransactionTypeItemRedemption &&
				entry.Amount == 499 && *entry.SenderID == 2 && entry.ReceiverID == nil
		}))
	})

	t.Run("BillingLapsed", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600},
		))
		expired := time.Now().UTC().Add(-24 * time.Hour)
		tenant := activeTenant()
		tenant.SubscriptionExpiresAt = &expired
		f.tenants.On("GetByID", ctx, int32(7)).Return(tenant, nil)

		_, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.ErrorIs(t, err, domain.ErrBillingRequired)
		f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Equal(t, int64(600), f.wallets.wallet(2).Balance)
	})

	t.Run("BillingFailedStatus", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600},
		))
		tenant := activeTenant()
		tenant.BillingStatus = domain.BillingStatusFailed
		f.tenants.On("GetByID", ctx, int32(7)).Return(tenant, nil)

		_, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.ErrorIs(t, err, domain.ErrBillingRequired)
	})

	t.Run("InactiveItem", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600},
		))
		f.tenants.On("GetByID", ctx, int32(7)).Return(activeTenant(), nil)
		f.employees.On("GetByID", ctx, int32(2)).Return(&domain.Employee{ID: 2}, nil)
		item := giftItem()
		item.Active = false
		f.catalog.On("GetByID", ctx, int32(3)).Return(item, nil)

		_, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.ErrorIs(t, err, domain.ErrItemNotFound)
	})

	t.Run("InsufficientPoints", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 100},
		))
		f.tenants.On("GetByID", ctx, int32(7)).Return(activeTenant(), nil)
		f.employees.On("GetByID", ctx, int32(2)).Return(&domain.Employee{ID: 2}, nil)
		f.catalog.On("GetByID", ctx, int32(3)).Return(giftItem(), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(nil)
		f.orders.On("MarkFailed", ctx, int32(1), mock.Anything, false).Return(nil)

		_, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.ErrorIs(t, err, domain.ErrInsufficientPoints)
		// Order never reached the provider.
		f.fulfillment.AssertNotCalled(t, "PlaceOrder", mock.Anything, mock.Anything)
		assert.Equal(t, int64(100), f.wallets.wallet(2).Balance)
	})

	t.Run("ProviderRejectsAndRefunds", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600, GiftableBalance: 50},
		))
		f.tenants.On("GetByID", ctx, int32(7)).Return(activeTenant(), nil)
		f.employees.On("GetByID", ctx, int32(2)).Return(&domain.Employee{ID: 2}, nil)
		f.catalog.On("GetByID", ctx, int32(3)).Return(giftItem(), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(nil)
		rejection := &domain.ProviderError{Kind: domain.ProviderErrorClient, Code: "out_of_stock", Message: "product unavailable"}
		f.fulfillment.On("PlaceOrder", ctx, mock.Anything).Return(rejection)
		f.orders.On("MarkFailed", ctx, int32(1), rejection.Error(), false).Return(nil)

		order, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.Nil(t, order)
		// The caller sees the provider's rejection, not a wrapped variant.
		assert.True(t, domain.IsClientRejected(err))

		// Points came back.
		assert.Equal(t, int64(600), f.wallets.wallet(2).Balance)
		f.orders.AssertCalled(t, "MarkFailed", ctx, int32(1), rejection.Error(), false)
		f.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)

		published := drainEvents(f.queue)
		if assert.Len(t, published, 1) {
			assert.Equal(t, events.KindGiftFailed, published[0].Kind)
		}
	})

	t.Run("ProviderUnreachableAndRefunds", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600},
		))
		f.tenants.On("GetByID", ctx, int32(7)).Return(activeTenant(), nil)
		f.employees.On("GetByID", ctx, int32(2)).Return(&domain.Employee{ID: 2}, nil)
		f.catalog.On("GetByID", ctx, int32(3)).Return(giftItem(), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(nil)
		outage := &domain.ProviderError{Kind: domain.ProviderErrorUpstream, Code: "network_error", Message: "connection refused"}
		f.fulfillment.On("PlaceOrder", ctx, mock.Anything).Return(outage)
		f.orders.On("MarkFailed", ctx, int32(1), outage.Error(), false).Return(nil)

		_, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		assert.True(t, domain.IsUpstream(err))
		assert.Equal(t, int64(600), f.wallets.wallet(2).Balance)
	})

	t.Run("RefundFailureFlagsOrder", func(t *testing.T) {
		wallets := newFakeWalletRepo(&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 600})
		// First balance write (the debit) succeeds, the refund write fails.
		wallets.updatesBeforeFailure = 1
		f := newRedemptionFixture(wallets)
		f.tenants.On("GetByID", ctx, int32(7)).Return(activeTenant(), nil)
		f.employees.On("GetByID", ctx, int32(2)).Return(&domain.Employee{ID: 2}, nil)
		f.catalog.On("GetByID", ctx, int32(3)).Return(giftItem(), nil)
		f.orders.On("Create", ctx, mock.Anything).Return(nil)
		outage := &domain.ProviderError{Kind: domain.ProviderErrorUpstream, Code: "timeout", Message: "deadline exceeded"}
		f.fulfillment.On("PlaceOrder", ctx, mock.Anything).Return(outage)
		f.orders.On("MarkFailed", ctx, int32(1), outage.Error(), true).Return(nil)
		f.email.On("SendRefundReconciliationAlert", ctx, "admin@acme.test", "Acme", int32(1), int64(499)).Return(nil)

		_, err := f.svc.Redeem(ctx, 7, 2, 3, 1)
		// Still the original provider error, not the refund error.
		assert.True(t, domain.IsUpstream(err))

		f.orders.AssertCalled(t, "MarkFailed", ctx, int32(1), outage.Error(), true)
		f.email.AssertExpectations(t)
		// The debit stands until reconciliation.
		assert.Equal(t, int64(101), f.wallets.wallet(2).Balance)
	})
}

func TestRedemptionService_RetryFailedRefunds(t *testing.T) {
	ctx := context.Background()

	unreconciled := func() []domain.GiftOrder {
		return []domain.GiftOrder{{
			ID: 1, TenantID: 7, EmployeeID: 2, TotalPoints: 499,
			Status: domain.OrderStatusFailed, RefundFailed: true,
		}}
	}

	t.Run("RecoversDebitedWallet", func(t *testing.T) {
		// The wallet still carries the debit from a redemption whose refund
		// never committed.
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 101},
		))
		f.orders.On("ListUnreconciled", ctx, int32(7)).Return(unreconciled(), nil)
		f.orders.On("ClearRefundFailed", ctx, int32(1)).Return(nil)

		recovered, err := f.svc.RetryFailedRefunds(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, 1, recovered)
		assert.Equal(t, int64(600), f.wallets.wallet(2).Balance)
	})

	t.Run("FlagClearedBeforeCredit", func(t *testing.T) {
		// An order whose flag cannot be cleared is not credited: the flag is
		// what guards against a double refund.
		f := newRedemptionFixture(newFakeWalletRepo(
			&domain.Wallet{EmployeeID: 2, TenantID: 7, Balance: 101},
		))
		f.orders.On("ListUnreconciled", ctx, int32(7)).Return(unreconciled(), nil)
		f.orders.On("ClearRefundFailed", ctx, int32(1)).Return(domain.ErrOrderNotFound)

		recovered, err := f.svc.RetryFailedRefunds(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, 0, recovered)
		assert.Equal(t, int64(101), f.wallets.wallet(2).Balance)
	})

	t.Run("NothingToReconcile", func(t *testing.T) {
		f := newRedemptionFixture(newFakeWalletRepo())
		f.orders.On("ListUnreconciled", ctx, int32(7)).Return([]domain.GiftOrder{}, nil)

		recovered, err := f.svc.RetryFailedRefunds(ctx, 7)
		assert.NoError(t, err)
		assert.Equal(t, 0, recovered)
	})
}

func TestRedemptionService_ListOrders(t *testing.T) {
	ctx := context.Background()
	f := newRedemptionFixture(newFakeWalletRepo())
	f.orders.On("ListByEmployee", ctx, int32(2), int32(1), int32(10)).
		Return([]domain.GiftOrder{{ID: 4, Status: domain.OrderStatusPlaced}}, int32(1), nil)

	orders, total, err := f.svc.ListOrders(ctx, 2, 1, 10)
	assert.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Equal(t, int32(4), orders[0].ID)
}
