package postgres

import (
	"context"
	"database/sql"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"
)

type subscriptionPaymentRepository struct {
	db *sql.DB
}

func NewSubscriptionPaymentRepository(db *sql.DB) repository.SubscriptionPaymentRepository {
	return &subscriptionPaymentRepository{db: db}
}

const paymentColumns = `id, tenant_id, order_id, amount, status, COALESCE(provider_charge_ref, ''),
	COALESCE(fail_code, ''), COALESCE(fail_message, ''), period_start, period_end, requested_on, approved_on`

func (r *subscriptionPaymentRepository) Create(ctx context.Context, payment *domain.SubscriptionPayment) error {
	if payment.RequestedOn.IsZero() {
		payment.RequestedOn = time.Now().UTC()
	}
	// order_id carries a unique constraint; a concurrent run for the same
	// tenant and period loses here instead of double-charging.
	query := `INSERT INTO subscription_payments (tenant_id, order_id, amount, status, period_start, period_end, requested_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		payment.TenantID, payment.OrderID, payment.Amount, payment.Status,
		payment.PeriodStart, payment.PeriodEnd, payment.RequestedOn,
	).Scan(&payment.ID)
}

func (r *subscriptionPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.SubscriptionPayment, error) {
	p := &domain.SubscriptionPayment{}
	query := `SELECT ` + paymentColumns + ` FROM subscription_payments WHERE order_id = $1`
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&p.ID, &p.TenantID, &p.OrderID, &p.Amount, &p.Status, &p.ProviderChargeRef,
		&p.FailCode, &p.FailMessage, &p.PeriodStart, &p.PeriodEnd, &p.RequestedOn, &p.ApprovedOn,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *subscriptionPaymentRepository) MarkSuccess(ctx context.Context, id int32, providerChargeRef string, approvedOn time.Time) error {
	query := `UPDATE subscription_payments SET status = $2, provider_charge_ref = $3, approved_on = $4 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, domain.PaymentStatusSuccess, providerChargeRef, approvedOn)
	return err
}

func (r *subscriptionPaymentRepository) MarkFailed(ctx context.Context, id int32, failCode, failMessage string) error {
	query := `UPDATE subscription_payments SET status = $2, fail_code = $3, fail_message = $4 WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, domain.PaymentStatusFailed, failCode, failMessage)
	return err
}

func (r *subscriptionPaymentRepository) Reopen(ctx context.Context, id int32) error {
	query := `UPDATE subscription_payments SET status = $2, fail_code = '', fail_message = '' WHERE id = $1 AND status = $3`
	_, err := r.db.ExecContext(ctx, query, id, domain.PaymentStatusPending, domain.PaymentStatusFailed)
	return err
}

func (r *subscriptionPaymentRepository) ListByTenant(ctx context.Context, tenantID int32) ([]domain.SubscriptionPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM subscription_payments WHERE tenant_id = $1 ORDER BY period_start DESC`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.SubscriptionPayment
	for rows.Next() {
		var p domain.SubscriptionPayment
		if err := rows.Scan(
			&p.ID, &p.TenantID, &p.OrderID, &p.Amount, &p.Status, &p.ProviderChargeRef,
			&p.FailCode, &p.FailMessage, &p.PeriodStart, &p.PeriodEnd, &p.RequestedOn, &p.ApprovedOn,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
