package unit

import (
	"context"
	"errors"
	"sync"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/provider"
	"kudos-backend/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockTenantRepo
type MockTenantRepo struct {
	mock.Mock
}

func (m *MockTenantRepo) Create(ctx context.Context, tenant *domain.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}
func (m *MockTenantRepo) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Tenant), args.Error(1)
}
func (m *MockTenantRepo) ListBillingDue(ctx context.Context, asOf time.Time) ([]domain.Tenant, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).([]domain.Tenant), args.Error(1)
}
func (m *MockTenantRepo) List(ctx context.Context) ([]domain.Tenant, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Tenant), args.Error(1)
}
func (m *MockTenantRepo) ExtendSubscription(ctx context.Context, tenantID int32, expiresAt time.Time) error {
	args := m.Called(ctx, tenantID, expiresAt)
	return args.Error(0)
}
func (m *MockTenantRepo) SetBillingStatus(ctx context.Context, tenantID int32, status domain.BillingStatus) error {
	args := m.Called(ctx, tenantID, status)
	return args.Error(0)
}
func (m *MockTenantRepo) SetBillingToken(ctx context.Context, tenantID int32, token string) error {
	args := m.Called(ctx, tenantID, token)
	return args.Error(0)
}

// MockEmployeeRepo
type MockEmployeeRepo struct {
	mock.Mock
}

func (m *MockEmployeeRepo) Create(ctx context.Context, emp *domain.Employee) error {
	args := m.Called(ctx, emp)
	return args.Error(0)
}
func (m *MockEmployeeRepo) GetByID(ctx context.Context, id int32) (*domain.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Employee), args.Error(1)
}
func (m *MockEmployeeRepo) ListActiveByTenant(ctx context.Context, tenantID int32) ([]domain.Employee, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.Employee), args.Error(1)
}
func (m *MockEmployeeRepo) ExistsAll(ctx context.Context, tenantID int32, ids []int32) (bool, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Bool(0), args.Error(1)
}

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) Append(ctx context.Context, entry *domain.Transaction) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}
func (m *MockLedgerRepo) ListByEmployee(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	args := m.Called(ctx, employeeID, page, pageSize)
	return args.Get(0).([]domain.Transaction), args.Get(1).(int32), args.Error(2)
}
func (m *MockLedgerRepo) GetSummary(ctx context.Context, employeeID int32) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}

// MockOrderRepo
type MockOrderRepo struct {
	mock.Mock
}

func (m *MockOrderRepo) Create(ctx context.Context, order *domain.GiftOrder) error {
	args := m.Called(ctx, order)
	if args.Error(0) == nil && order.ID == 0 {
		order.ID = 1
	}
	return args.Error(0)
}
func (m *MockOrderRepo) GetByID(ctx context.Context, id int32) (*domain.GiftOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GiftOrder), args.Error(1)
}
func (m *MockOrderRepo) MarkPlaced(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockOrderRepo) MarkFailed(ctx context.Context, id int32, failReason string, refundFailed bool) error {
	args := m.Called(ctx, id, failReason, refundFailed)
	return args.Error(0)
}
func (m *MockOrderRepo) ListByEmployee(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.GiftOrder, int32, error) {
	args := m.Called(ctx, employeeID, page, pageSize)
	return args.Get(0).([]domain.GiftOrder), args.Get(1).(int32), args.Error(2)
}
func (m *MockOrderRepo) ListUnreconciled(ctx context.Context, tenantID int32) ([]domain.GiftOrder, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.GiftOrder), args.Error(1)
}
func (m *MockOrderRepo) ClearRefundFailed(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockCatalogRepo
type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) Create(ctx context.Context, item *domain.CatalogItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockCatalogRepo) GetByID(ctx context.Context, id int32) (*domain.CatalogItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CatalogItem), args.Error(1)
}
func (m *MockCatalogRepo) ListActive(ctx context.Context) ([]domain.CatalogItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.CatalogItem), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) Create(ctx context.Context, payment *domain.SubscriptionPayment) error {
	args := m.Called(ctx, payment)
	if args.Error(0) == nil && payment.ID == 0 {
		payment.ID = 1
	}
	return args.Error(0)
}
func (m *MockPaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*domain.SubscriptionPayment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubscriptionPayment), args.Error(1)
}
func (m *MockPaymentRepo) MarkSuccess(ctx context.Context, id int32, providerChargeRef string, approvedOn time.Time) error {
	args := m.Called(ctx, id, providerChargeRef, approvedOn)
	return args.Error(0)
}
func (m *MockPaymentRepo) MarkFailed(ctx context.Context, id int32, failCode, failMessage string) error {
	args := m.Called(ctx, id, failCode, failMessage)
	return args.Error(0)
}
func (m *MockPaymentRepo) Reopen(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockPaymentRepo) ListByTenant(ctx context.Context, tenantID int32) ([]domain.SubscriptionPayment, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).([]domain.SubscriptionPayment), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) ListRecent(ctx context.Context, employeeID int32, sinceHours int32, unreadOnly bool, maxCount int32) ([]domain.Notification, error) {
	args := m.Called(ctx, employeeID, sinceHours, unreadOnly, maxCount)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id int64, employeeID int32) error {
	args := m.Called(ctx, id, employeeID)
	return args.Error(0)
}

// MockFulfillment
type MockFulfillment struct {
	mock.Mock
}

func (m *MockFulfillment) PlaceOrder(ctx context.Context, req provider.PlaceOrderRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockBilling
type MockBilling struct {
	mock.Mock
}

func (m *MockBilling) IssueToken(ctx context.Context, authorizationCode, tenantKey string) (string, error) {
	args := m.Called(ctx, authorizationCode, tenantKey)
	return args.String(0), args.Error(1)
}
func (m *MockBilling) ChargeToken(ctx context.Context, token, orderID string, amount decimal.Decimal) (*provider.ChargeResult, error) {
	args := m.Called(ctx, token, orderID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.ChargeResult), args.Error(1)
}

// MockEmail
type MockEmail struct {
	mock.Mock
}

func (m *MockEmail) SendBillingFailureNotice(ctx context.Context, adminEmail, tenantName, failCode, failMessage string) error {
	args := m.Called(ctx, adminEmail, tenantName, failCode, failMessage)
	return args.Error(0)
}
func (m *MockEmail) SendRefundReconciliationAlert(ctx context.Context, adminEmail, tenantName string, orderID int32, points int64) error {
	args := m.Called(ctx, adminEmail, tenantName, orderID, points)
	return args.Error(0)
}

// fakeWalletRepo is an in-memory wallet store with the repository's
// transactional semantics: callback errors discard all staged writes, and a
// staged write only becomes visible after the callback returns nil.
// Mutation through callbacks does not mock cleanly, so this one is a fake
// rather than a testify mock.
type fakeWalletRepo struct {
	mu      sync.Mutex
	wallets map[int32]*domain.Wallet
	entries []domain.Transaction
	nextID  int64

	// updatesBeforeFailure > 0 makes UpdateBalance fail after that many
	// successful calls, for exercising compensation paths.
	updatesBeforeFailure int
	updates              int
}

func newFakeWalletRepo(wallets ...*domain.Wallet) *fakeWalletRepo {
	r := &fakeWalletRepo{wallets: make(map[int32]*domain.Wallet)}
	for _, w := range wallets {
		cp := *w
		r.wallets[w.EmployeeID] = &cp
	}
	return r
}

func (r *fakeWalletRepo) Create(ctx context.Context, employeeID, tenantID int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.wallets[employeeID]; !ok {
		r.wallets[employeeID] = &domain.Wallet{EmployeeID: employeeID, TenantID: tenantID}
	}
	return nil
}

func (r *fakeWalletRepo) Get(ctx context.Context, employeeID int32) (*domain.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.wallets[employeeID]; ok {
		cp := *w
		return &cp, nil
	}
	return &domain.Wallet{EmployeeID: employeeID}, nil
}

func (r *fakeWalletRepo) SumBalances(ctx context.Context, tenantID int32) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, w := range r.wallets {
		if w.TenantID == tenantID {
			sum += w.Balance
		}
	}
	return sum, nil
}

type fakeWalletTx struct {
	repo    *fakeWalletRepo
	staged  map[int32]domain.Wallet
	entries []domain.Transaction
}

var errInjectedUpdate = errors.New("injected update failure")

func (t *fakeWalletTx) UpdateBalance(w *domain.Wallet) error {
	t.repo.updates++
	if t.repo.updatesBeforeFailure > 0 && t.repo.updates > t.repo.updatesBeforeFailure {
		return errInjectedUpdate
	}
	t.staged[w.EmployeeID] = *w
	return nil
}

func (t *fakeWalletTx) AppendTransaction(entry *domain.Transaction) error {
	t.repo.nextID++
	entry.ID = t.repo.nextID
	if entry.OccurredOn.IsZero() {
		entry.OccurredOn = time.Now().UTC()
	}
	t.entries = append(t.entries, *entry)
	return nil
}

func (r *fakeWalletRepo) withTx(fn func(tx *fakeWalletTx) error) error {
	tx := &fakeWalletTx{repo: r, staged: make(map[int32]domain.Wallet)}
	if err := fn(tx); err != nil {
		return err
	}
	for id, w := range tx.staged {
		cp := w
		r.wallets[id] = &cp
	}
	r.entries = append(r.entries, tx.entries...)
	return nil
}

func (r *fakeWalletRepo) WithWallet(ctx context.Context, employeeID int32, fn func(tx repository.WalletTx, w *domain.Wallet) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.wallets[employeeID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	cp := *w
	return r.withTx(func(tx *fakeWalletTx) error {
		return fn(tx, &cp)
	})
}

func (r *fakeWalletRepo) WithWalletPair(ctx context.Context, firstID, secondID int32, fn func(tx repository.WalletTx, first, second *domain.Wallet) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	first, ok := r.wallets[firstID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	second, ok := r.wallets[secondID]
	if !ok {
		return domain.ErrWalletNotFound
	}
	firstCp, secondCp := *first, *second
	return r.withTx(func(tx *fakeWalletTx) error {
		return fn(tx, &firstCp, &secondCp)
	})
}

func (r *fakeWalletRepo) wallet(employeeID int32) domain.Wallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.wallets[employeeID]
}

func (r *fakeWalletRepo) ledger() []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Transaction(nil), r.entries...)
}
