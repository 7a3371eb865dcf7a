package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/events"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/provider"
	"kudos-backend/internal/repository"
	"kudos-backend/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type redemptionService struct {
	tenantRepo    repository.TenantRepository
	employeeRepo  repository.EmployeeRepository
	walletRepo    repository.WalletRepository
	ledgerRepo    repository.LedgerRepository
	orderRepo     repository.OrderRepository
	catalogRepo   repository.CatalogRepository
	fulfillment   provider.FulfillmentProvider
	email         EmailService
	queue         *events.Queue
	pointsPerUnit decimal.Decimal
}

func NewRedemptionService(
	tenantRepo repository.TenantRepository,
	employeeRepo repository.EmployeeRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	orderRepo repository.OrderRepository,
	catalogRepo repository.CatalogRepository,
	fulfillment provider.FulfillmentProvider,
	email EmailService,
	queue *events.Queue,
	pointsPerUnit decimal.Decimal,
) RedemptionService {
	return &redemptionService{
		tenantRepo:    tenantRepo,
		employeeRepo:  employeeRepo,
		walletRepo:    walletRepo,
		ledgerRepo:    ledgerRepo,
		orderRepo:     orderRepo,
		catalogRepo:   catalogRepo,
		fulfillment:   fulfillment,
		email:         email,
		queue:         queue,
		pointsPerUnit: pointsPerUnit,
	}
}

// Redeem runs the fulfillment exchange as debit first, compensate on
// failure. The wallet debit commits before the provider call; if the
// provider rejects or is unreachable, the points are refunded and the order
// is marked FAILED. A refund that itself fails does not retry the debit
// path: the order carries RefundFailed and an operator alert goes out.
func (s *redemptionService) Redeem(ctx context.Context, tenantID, employeeID, itemID, quantity int32) (*domain.GiftOrder, error) {
	logger.EnterMethod("RedemptionService.Redeem", "tenant_id", tenantID, "employee_id", employeeID, "item_id", itemID, "quantity", quantity)

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.SubscriptionCurrent(time.Now().UTC()) || tenant.BillingStatus == domain.BillingStatusFailed {
		return nil, domain.ErrBillingRequired
	}

	employee, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	item, err := s.catalogRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, domain.ErrItemNotFound
	}

	totalPoints, err := utils.PointsForPrice(item.Price, quantity, s.pointsPerUnit)
	if err != nil {
		return nil, err
	}
	unitPoints, err := utils.UnitPoints(item.Price, s.pointsPerUnit)
	if err != nil {
		return nil, err
	}

	order := &domain.GiftOrder{
		TenantID:           tenantID,
		EmployeeID:         employeeID,
		ItemID:             itemID,
		ExternalProductRef: item.ExternalProductRef,
		Quantity:           quantity,
		UnitPricePoints:    unitPoints,
		TotalPoints:        totalPoints,
		Status:             domain.OrderStatusPending,
		ExternalOrderID:    externalOrderID(employeeID, itemID),
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	// Step 1: debit. No ledger row yet; the entry is written only once the
	// order is known to have been placed.
	err = s.walletRepo.WithWallet(ctx, employeeID, func(tx repository.WalletTx, w *domain.Wallet) error {
		if err := w.Debit(totalPoints); err != nil {
			return err
		}
		return tx.UpdateBalance(w)
	})
	if err != nil {
		if markErr := s.orderRepo.MarkFailed(ctx, order.ID, err.Error(), false); markErr != nil {
			logger.Error("Failed to mark unfunded order failed", "order_id", order.ID, "error", markErr)
		}
		return nil, err
	}

	// Step 2: external call.
	placeErr := s.fulfillment.PlaceOrder(ctx, provider.PlaceOrderRequest{
		ExternalOrderID: order.ExternalOrderID,
		ProductRef:      item.ExternalProductRef,
		Quantity:        quantity,
		RecipientEmail:  employee.Email,
		RecipientName:   employee.Name,
	})
	if placeErr != nil {
		return nil, s.compensate(ctx, tenant, order, placeErr)
	}

	if err := s.orderRepo.MarkPlaced(ctx, order.ID); err != nil {
		// The provider accepted the order; a stale PENDING row is a
		// bookkeeping problem, not grounds to refund delivered goods.
		logger.Error("Placed order stuck in PENDING", "order_id", order.ID, "external_order_id", order.ExternalOrderID, "error", err)
	}
	order.Status = domain.OrderStatusPlaced

	entry := &domain.Transaction{
		TenantID: tenantID,
		SenderID: &employeeID,
		Amount:   totalPoints,
		Type:     domain.TransactionTypeItemRedemption,
		Message:  fmt.Sprintf("Redeemed %dx %s", quantity, item.Name),
	}
	if err := s.ledgerRepo.Append(ctx, entry); err != nil {
		logger.Error("Failed to append redemption ledger entry", "order_id", order.ID, "error", err)
	}

	s.queue.Publish(events.Event{
		Kind:      events.KindGiftPlaced,
		TenantID:  tenantID,
		SubjectID: employeeID,
		Amount:    totalPoints,
		Message:   item.Name,
	})

	logger.ExitMethod("RedemptionService.Redeem", "order_id", order.ID, "total_points", totalPoints)
	return order, nil
}

// compensate refunds the debited points and finalizes the order as FAILED.
// The original provider error is always what the caller sees; compensation
// problems are recorded on the order and alerted, never substituted.
func (s *redemptionService) compensate(ctx context.Context, tenant *domain.Tenant, order *domain.GiftOrder, placeErr error) error {
	logger.Warn("Gift order failed, refunding points", "order_id", order.ID, "total_points", order.TotalPoints, "error", placeErr)

	refundErr := s.walletRepo.WithWallet(ctx, order.EmployeeID, func(tx repository.WalletTx, w *domain.Wallet) error {
		if err := w.Credit(order.TotalPoints); err != nil {
			return err
		}
		return tx.UpdateBalance(w)
	})
	refundFailed := refundErr != nil
	if refundFailed {
		logger.Error("Refund failed, wallet needs manual reconciliation", "order_id", order.ID, "employee_id", order.EmployeeID, "total_points", order.TotalPoints, "error", refundErr)
		if s.email != nil {
			if mailErr := s.email.SendRefundReconciliationAlert(ctx, tenant.AdminEmail, tenant.Name, order.ID, order.TotalPoints); mailErr != nil {
				logger.Error("Failed to send refund reconciliation alert", "order_id", order.ID, "error", mailErr)
			}
		}
	}

	if err := s.orderRepo.MarkFailed(ctx, order.ID, placeErr.Error(), refundFailed); err != nil {
		logger.Error("Failed to mark order failed", "order_id", order.ID, "error", err)
	}
	order.Status = domain.OrderStatusFailed
	order.FailReason = placeErr.Error()
	order.RefundFailed = refundFailed

	s.queue.Publish(events.Event{
		Kind:      events.KindGiftFailed,
		TenantID:  order.TenantID,
		SubjectID: order.EmployeeID,
		Amount:    order.TotalPoints,
		Message:   placeErr.Error(),
	})
	return placeErr
}

func (s *redemptionService) ListOrders(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.GiftOrder, int32, error) {
	return s.orderRepo.ListByEmployee(ctx, employeeID, page, pageSize)
}

// RetryFailedRefunds sweeps the tenant's refund_failed orders and retries
// the wallet credit that compensate could not commit. The flag is cleared
// before the credit so an order is never refunded twice; a credit that
// fails after the clear drops out of the sweep and stays with the operator
// alert compensate already sent.
func (s *redemptionService) RetryFailedRefunds(ctx context.Context, tenantID int32) (int, error) {
	orders, err := s.orderRepo.ListUnreconciled(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	recovered := 0
	for i := range orders {
		order := &orders[i]
		if err := s.orderRepo.ClearRefundFailed(ctx, order.ID); err != nil {
			logger.Error("Failed to clear refund flag", "order_id", order.ID, "error", err)
			continue
		}
		err := s.walletRepo.WithWallet(ctx, order.EmployeeID, func(tx repository.WalletTx, w *domain.Wallet) error {
			if err := w.Credit(order.TotalPoints); err != nil {
				return err
			}
			return tx.UpdateBalance(w)
		})
		if err != nil {
			logger.Error("Refund retry failed, wallet still needs manual reconciliation", "order_id", order.ID, "employee_id", order.EmployeeID, "total_points", order.TotalPoints, "error", err)
			continue
		}
		recovered++
	}

	if len(orders) > 0 {
		logger.Info("Refund retry sweep complete", "tenant_id", tenantID, "unreconciled", len(orders), "recovered", recovered)
	}
	return recovered, nil
}

// externalOrderID is the key the fulfillment provider sees. The random
// suffix keeps repeated redemptions of the same item distinct.
func externalOrderID(employeeID, itemID int32) string {
	suffix := strings.Split(uuid.New().String(), "-")[0]
	return fmt.Sprintf("%d-%d-%s", employeeID, itemID, suffix)
}
