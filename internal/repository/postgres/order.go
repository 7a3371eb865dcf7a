package postgres

import (
	"context"
	"database/sql"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"
)

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) repository.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, tenant_id, employee_id, item_id, external_product_ref, quantity,
	unit_price_points, total_points, status, external_order_id, COALESCE(fail_reason, ''), refund_failed, ordered_on`

func (r *orderRepository) Create(ctx context.Context, order *domain.GiftOrder) error {
	if order.OrderedOn.IsZero() {
		order.OrderedOn = time.Now().UTC()
	}
	query := `INSERT INTO gift_orders (tenant_id, employee_id, item_id, external_product_ref, quantity,
	              unit_price_points, total_points, status, external_order_id, ordered_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		order.TenantID, order.EmployeeID, order.ItemID, order.ExternalProductRef, order.Quantity,
		order.UnitPricePoints, order.TotalPoints, order.Status, order.ExternalOrderID, order.OrderedOn,
	).Scan(&order.ID)
}

func (r *orderRepository) GetByID(ctx context.Context, id int32) (*domain.GiftOrder, error) {
	order := &domain.GiftOrder{}
	query := `SELECT ` + orderColumns + ` FROM gift_orders WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.TenantID, &order.EmployeeID, &order.ItemID, &order.ExternalProductRef,
		&order.Quantity, &order.UnitPricePoints, &order.TotalPoints, &order.Status,
		&order.ExternalOrderID, &order.FailReason, &order.RefundFailed, &order.OrderedOn,
	)
	if err == sql.ErrNoRows {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) MarkPlaced(ctx context.Context, id int32) error {
	query := `UPDATE gift_orders SET status = $2 WHERE id = $1 AND status = $3`
	return r.transition(ctx, query, id, domain.OrderStatusPlaced, domain.OrderStatusPending)
}

func (r *orderRepository) MarkFailed(ctx context.Context, id int32, failReason string, refundFailed bool) error {
	query := `UPDATE gift_orders SET status = $2, fail_reason = $4, refund_failed = $5 WHERE id = $1 AND status = $3`
	return r.transition(ctx, query, id, domain.OrderStatusFailed, domain.OrderStatusPending, failReason, refundFailed)
}

// transition guards the PENDING -> terminal state machine: a row already in
// a terminal state is never rewritten.
func (r *orderRepository) transition(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *orderRepository) ListByEmployee(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.GiftOrder, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + orderColumns + ` FROM gift_orders
	          WHERE employee_id = $1 ORDER BY ordered_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, employeeID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	var count int32
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM gift_orders WHERE employee_id = $1`, employeeID).Scan(&count)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

func (r *orderRepository) ClearRefundFailed(ctx context.Context, id int32) error {
	query := `UPDATE gift_orders SET refund_failed = FALSE WHERE id = $1 AND refund_failed = TRUE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// ListUnreconciled returns FAILED orders whose refund write also failed.
// These are the wallets waiting on manual reconciliation.
func (r *orderRepository) ListUnreconciled(ctx context.Context, tenantID int32) ([]domain.GiftOrder, error) {
	query := `SELECT ` + orderColumns + ` FROM gift_orders
	          WHERE tenant_id = $1 AND status = 'FAILED' AND refund_failed = TRUE ORDER BY ordered_on`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]domain.GiftOrder, error) {
	var orders []domain.GiftOrder
	for rows.Next() {
		var order domain.GiftOrder
		if err := rows.Scan(
			&order.ID, &order.TenantID, &order.EmployeeID, &order.ItemID, &order.ExternalProductRef,
			&order.Quantity, &order.UnitPricePoints, &order.TotalPoints, &order.Status,
			&order.ExternalOrderID, &order.FailReason, &order.RefundFailed, &order.OrderedOn,
		); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}
