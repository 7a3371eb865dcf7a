package postgres

import (
	"context"
	"database/sql"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"
)

type tenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

const tenantColumns = `id, name, admin_email, auto_renew, COALESCE(billing_token, ''), billing_status, monthly_price, subscription_expires_at, created_on`

func scanTenant(row interface{ Scan(...any) error }) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := row.Scan(&t.ID, &t.Name, &t.AdminEmail, &t.AutoRenew, &t.BillingToken,
		&t.BillingStatus, &t.MonthlyPrice, &t.SubscriptionExpiresAt, &t.CreatedOn)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `INSERT INTO tenants (name, admin_email, auto_renew, billing_status, monthly_price, created_on)
	          VALUES ($1, $2, $3, $4, $5, NOW()) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		tenant.Name, tenant.AdminEmail, tenant.AutoRenew, tenant.BillingStatus, tenant.MonthlyPrice,
	).Scan(&tenant.ID)
}

func (r *tenantRepository) GetByID(ctx context.Context, id int32) (*domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	t, err := scanTenant(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrTenantNotFound
	}
	return t, err
}

// ListBillingDue skips tenants already in FAILED billing status: a hard
// decline pauses auto-renewal until an operator re-registers a key or the
// status is otherwise cleared, rather than re-charging the card every sweep.
func (r *tenantRepository) ListBillingDue(ctx context.Context, asOf time.Time) ([]domain.Tenant, error) {
	query := `SELECT ` + tenantColumns + ` FROM tenants
	          WHERE auto_renew = TRUE
	            AND COALESCE(billing_token, '') != ''
	            AND billing_status != $2
	            AND (subscription_expires_at IS NULL OR subscription_expires_at <= $1)`
	return r.queryTenants(ctx, query, asOf, domain.BillingStatusFailed)
}

func (r *tenantRepository) List(ctx context.Context) ([]domain.Tenant, error) {
	return r.queryTenants(ctx, `SELECT `+tenantColumns+` FROM tenants ORDER BY id`)
}

func (r *tenantRepository) queryTenants(ctx context.Context, query string, args ...any) ([]domain.Tenant, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []domain.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}
	return tenants, rows.Err()
}

func (r *tenantRepository) ExtendSubscription(ctx context.Context, tenantID int32, expiresAt time.Time) error {
	query := `UPDATE tenants SET subscription_expires_at = $2, billing_status = $3 WHERE id = $1`
	return r.exec(ctx, query, tenantID, expiresAt, domain.BillingStatusActive)
}

func (r *tenantRepository) SetBillingStatus(ctx context.Context, tenantID int32, status domain.BillingStatus) error {
	return r.exec(ctx, `UPDATE tenants SET billing_status = $2 WHERE id = $1`, tenantID, status)
}

func (r *tenantRepository) SetBillingToken(ctx context.Context, tenantID int32, token string) error {
	return r.exec(ctx, `UPDATE tenants SET billing_token = $2 WHERE id = $1`, tenantID, token)
}

func (r *tenantRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTenantNotFound
	}
	return nil
}
