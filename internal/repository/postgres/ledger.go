package postgres

import (
	"context"
	"database/sql"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"

	"github.com/lib/pq"
)

type ledgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Append is the only write the ledger repository offers. Transactions are
// an audit trail: nothing updates or deletes a row once it exists.
func (r *ledgerRepository) Append(ctx context.Context, entry *domain.Transaction) error {
	if entry.OccurredOn.IsZero() {
		entry.OccurredOn = time.Now().UTC()
	}
	query := `INSERT INTO transactions (tenant_id, sender_id, receiver_id, amount, type, message, tags, occurred_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		entry.TenantID, entry.SenderID, entry.ReceiverID, entry.Amount,
		entry.Type, entry.Message, pq.Array(entry.Tags), entry.OccurredOn,
	).Scan(&entry.ID)
}

func (r *ledgerRepository) ListByEmployee(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT id, tenant_id, sender_id, receiver_id, amount, type, COALESCE(message, ''), tags, occurred_on
	          FROM transactions WHERE sender_id = $1 OR receiver_id = $1
	          ORDER BY occurred_on DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, employeeID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.Transaction
	for rows.Next() {
		var entry domain.Transaction
		if err := rows.Scan(&entry.ID, &entry.TenantID, &entry.SenderID, &entry.ReceiverID,
			&entry.Amount, &entry.Type, &entry.Message, pq.Array(&entry.Tags), &entry.OccurredOn); err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var count int32
	countQuery := `SELECT count(*) FROM transactions WHERE sender_id = $1 OR receiver_id = $1`
	if err := r.db.QueryRowContext(ctx, countQuery, employeeID).Scan(&count); err != nil {
		return nil, 0, err
	}
	return entries, count, nil
}

func (r *ledgerRepository) GetSummary(ctx context.Context, employeeID int32) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{}

	query := `SELECT COALESCE(balance, 0), COALESCE(giftable_balance, 0) FROM wallets WHERE employee_id = $1`
	err := r.db.QueryRowContext(ctx, query, employeeID).Scan(&summary.Balance, &summary.GiftableBalance)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM transactions WHERE sender_id = $1`, employeeID).Scan(&summary.SentCount)
	if err != nil {
		return nil, err
	}
	err = r.db.QueryRowContext(ctx, `SELECT count(*) FROM transactions WHERE receiver_id = $1`, employeeID).Scan(&summary.ReceivedCount)
	if err != nil {
		return nil, err
	}
	return summary, nil
}
