package service

import (
	"context"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/events"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/provider"
	"kudos-backend/internal/repository"
	"kudos-backend/internal/utils"
)

type billingService struct {
	tenantRepo  repository.TenantRepository
	paymentRepo repository.SubscriptionPaymentRepository
	billing     provider.BillingProvider
	email       EmailService
	queue       *events.Queue
}

func NewBillingService(
	tenantRepo repository.TenantRepository,
	paymentRepo repository.SubscriptionPaymentRepository,
	billing provider.BillingProvider,
	email EmailService,
	queue *events.Queue,
) BillingService {
	return &billingService{
		tenantRepo:  tenantRepo,
		paymentRepo: paymentRepo,
		billing:     billing,
		queue:       queue,
		email:       email,
	}
}

func (s *billingService) RegisterBillingKey(ctx context.Context, tenantID int32, authorizationCode, tenantKey string) error {
	token, err := s.billing.IssueToken(ctx, authorizationCode, tenantKey)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.SetBillingToken(ctx, tenantID, token); err != nil {
		return err
	}
	logger.Info("Billing token registered", "tenant_id", tenantID)
	return nil
}

// ChargeTenant settles one billing period for the tenant. The payment row
// keyed on the period's deterministic order ID is what makes this safe to
// re-run: a SUCCESS row short-circuits, a FAILED row is reopened and
// retried, and the unique order_id constraint stops two concurrent runs
// from both inserting a row for the same period.
func (s *billingService) ChargeTenant(ctx context.Context, tenant *domain.Tenant, now time.Time) error {
	logger.EnterMethod("BillingService.ChargeTenant", "tenant_id", tenant.ID)

	periodStart, periodEnd := utils.NextBillingPeriod(tenant.SubscriptionExpiresAt, now)
	orderID := utils.BillingOrderID(tenant.ID, periodStart)

	payment, err := s.paymentRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	switch {
	case payment == nil:
		payment = &domain.SubscriptionPayment{
			TenantID:    tenant.ID,
			OrderID:     orderID,
			Amount:      tenant.MonthlyPrice,
			Status:      domain.PaymentStatusPending,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return err
		}
	case payment.Status == domain.PaymentStatusSuccess:
		logger.Info("Billing period already settled", "tenant_id", tenant.ID, "order_id", orderID)
		return nil
	case payment.Status == domain.PaymentStatusFailed:
		if err := s.paymentRepo.Reopen(ctx, payment.ID); err != nil {
			return err
		}
	}

	result, chargeErr := s.billing.ChargeToken(ctx, tenant.BillingToken, orderID, payment.Amount)
	if chargeErr != nil {
		// Transport failure: nothing acknowledged, the charge still fails.
		// If the provider settled it anyway, the next run reuses the same
		// order ID and operators reconcile at the provider. The error keeps
		// its upstream kind unless the provider definitely rejected us.
		kind := domain.ProviderErrorUpstream
		if domain.IsClientRejected(chargeErr) {
			kind = domain.ProviderErrorClient
		}
		return s.failCharge(ctx, tenant, payment, kind, "provider_error", chargeErr.Error())
	}
	if !result.Success {
		return s.failCharge(ctx, tenant, payment, domain.ProviderErrorClient, result.FailCode, result.FailMessage)
	}

	approvedOn := result.ApprovedAt
	if approvedOn.IsZero() {
		approvedOn = now.UTC()
	}
	if err := s.paymentRepo.MarkSuccess(ctx, payment.ID, result.ChargeRef, approvedOn); err != nil {
		return err
	}
	if err := s.tenantRepo.ExtendSubscription(ctx, tenant.ID, payment.PeriodEnd); err != nil {
		return err
	}

	logger.ExitMethod("BillingService.ChargeTenant", "tenant_id", tenant.ID, "order_id", orderID, "period_end", payment.PeriodEnd)
	return nil
}

func (s *billingService) failCharge(ctx context.Context, tenant *domain.Tenant, payment *domain.SubscriptionPayment, kind domain.ProviderErrorKind, failCode, failMessage string) error {
	logger.Warn("Subscription charge failed", "tenant_id", tenant.ID, "order_id", payment.OrderID, "fail_code", failCode, "fail_message", failMessage)

	if err := s.paymentRepo.MarkFailed(ctx, payment.ID, failCode, failMessage); err != nil {
		return err
	}
	if err := s.tenantRepo.SetBillingStatus(ctx, tenant.ID, domain.BillingStatusFailed); err != nil {
		return err
	}

	if s.email != nil {
		if err := s.email.SendBillingFailureNotice(ctx, tenant.AdminEmail, tenant.Name, failCode, failMessage); err != nil {
			logger.Error("Failed to send billing failure notice", "tenant_id", tenant.ID, "error", err)
		}
	}

	s.queue.Publish(events.Event{
		Kind:     events.KindBillingFailed,
		TenantID: tenant.ID,
		Message:  failMessage,
	})
	return &domain.ProviderError{Kind: kind, Code: failCode, Message: failMessage}
}

// ChargeDueTenants is the daily sweep: every tenant whose paid term has
// lapsed gets one ChargeTenant run. Per-tenant failures are logged and do
// not stop the sweep.
func (s *billingService) ChargeDueTenants(ctx context.Context, now time.Time) (int, error) {
	tenants, err := s.tenantRepo.ListBillingDue(ctx, now)
	if err != nil {
		return 0, err
	}

	charged := 0
	for i := range tenants {
		if err := s.ChargeTenant(ctx, &tenants[i], now); err != nil {
			logger.Error("Tenant billing run failed", "tenant_id", tenants[i].ID, "error", err)
			continue
		}
		charged++
	}

	logger.Info("Billing sweep complete", "due", len(tenants), "charged", charged)
	return charged, nil
}
