package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	logger.EnterMethod("notificationRepository.Create", "employeeID", n.EmployeeID, "kind", n.Kind)

	if n.CreatedOn.IsZero() {
		n.CreatedOn = time.Now().UTC()
	}
	query := `INSERT INTO notifications (tenant_id, employee_id, kind, actor_id, amount, message, is_read, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	logger.DatabaseCall("INSERT", "notifications", "employeeID", n.EmployeeID, "kind", n.Kind)

	err := r.db.QueryRowContext(ctx, query,
		n.TenantID, n.EmployeeID, n.Kind, n.ActorID, n.Amount, n.Message, n.IsRead, n.CreatedOn,
	).Scan(&n.ID)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)

	if err != nil {
		logger.ExitMethodWithError("notificationRepository.Create", err, "employeeID", n.EmployeeID)
	} else {
		logger.ExitMethod("notificationRepository.Create", "notificationID", n.ID)
	}
	return err
}

func (r *notificationRepository) ListRecent(ctx context.Context, employeeID int32, sinceHours int32, unreadOnly bool, maxCount int32) ([]domain.Notification, error) {
	query := `SELECT id, tenant_id, employee_id, kind, actor_id, amount, COALESCE(message, ''), is_read, created_on
	          FROM notifications WHERE employee_id = $1`
	args := []any{employeeID}

	if sinceHours > 0 {
		args = append(args, time.Now().UTC().Add(-time.Duration(sinceHours)*time.Hour))
		query += fmt.Sprintf(" AND created_on >= $%d", len(args))
	}
	if unreadOnly {
		query += " AND is_read = FALSE"
	}
	args = append(args, maxCount)
	query += fmt.Sprintf(" ORDER BY created_on DESC, id DESC LIMIT $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.TenantID, &n.EmployeeID, &n.Kind, &n.ActorID, &n.Amount, &n.Message, &n.IsRead, &n.CreatedOn); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id int64, employeeID int32) error {
	query := `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND employee_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, employeeID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("notification not found or access denied")
	}
	return nil
}
