package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"

	"github.com/lib/pq"
)

type walletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) repository.WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(ctx context.Context, employeeID, tenantID int32) error {
	query := `INSERT INTO wallets (employee_id, tenant_id, balance, giftable_balance, updated_on)
	          VALUES ($1, $2, 0, 0, NOW())
	          ON CONFLICT (employee_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, employeeID, tenantID)
	return err
}

// Get serves read paths only. A missing row reads as a zeroed wallet for
// that employee; mutating paths go through WithWallet and require the row.
func (r *walletRepository) Get(ctx context.Context, employeeID int32) (*domain.Wallet, error) {
	w := &domain.Wallet{EmployeeID: employeeID}
	query := `SELECT tenant_id, balance, giftable_balance, updated_on FROM wallets WHERE employee_id = $1`
	err := r.db.QueryRowContext(ctx, query, employeeID).Scan(&w.TenantID, &w.Balance, &w.GiftableBalance, &w.UpdatedOn)
	if err == sql.ErrNoRows {
		return w, nil
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (r *walletRepository) SumBalances(ctx context.Context, tenantID int32) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(balance), 0) FROM wallets WHERE tenant_id = $1`
	err := r.db.QueryRowContext(ctx, query, tenantID).Scan(&sum)
	return sum, err
}

// walletTx implements repository.WalletTx over one open database
// transaction. Balance writes and ledger appends issued through it commit
// atomically with the row lock release.
type walletTx struct {
	tx *sql.Tx
}

func (t *walletTx) UpdateBalance(w *domain.Wallet) error {
	w.UpdatedOn = time.Now().UTC()
	res, err := t.tx.Exec(
		`UPDATE wallets SET balance = $2, giftable_balance = $3, updated_on = $4 WHERE employee_id = $1`,
		w.EmployeeID, w.Balance, w.GiftableBalance, w.UpdatedOn,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrWalletNotFound
	}
	return nil
}

func (t *walletTx) AppendTransaction(entry *domain.Transaction) error {
	if entry.OccurredOn.IsZero() {
		entry.OccurredOn = time.Now().UTC()
	}
	query := `INSERT INTO transactions (tenant_id, sender_id, receiver_id, amount, type, message, tags, occurred_on)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return t.tx.QueryRow(query,
		entry.TenantID, entry.SenderID, entry.ReceiverID, entry.Amount,
		entry.Type, entry.Message, pq.Array(entry.Tags), entry.OccurredOn,
	).Scan(&entry.ID)
}

// lockWallet takes the exclusive row lock for one wallet. The lock is held
// until the surrounding transaction commits or rolls back.
func lockWallet(ctx context.Context, tx *sql.Tx, employeeID int32) (*domain.Wallet, error) {
	w := &domain.Wallet{EmployeeID: employeeID}
	query := `SELECT tenant_id, balance, giftable_balance, updated_on FROM wallets WHERE employee_id = $1 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, employeeID).Scan(&w.TenantID, &w.Balance, &w.GiftableBalance, &w.UpdatedOn)
	if err == sql.ErrNoRows {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet %d: %w", employeeID, err)
	}
	return w, nil
}

func (r *walletRepository) WithWallet(ctx context.Context, employeeID int32, fn func(tx repository.WalletTx, w *domain.Wallet) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin wallet transaction: %w", err)
	}
	defer tx.Rollback()

	w, err := lockWallet(ctx, tx, employeeID)
	if err != nil {
		return err
	}
	if err := fn(&walletTx{tx: tx}, w); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *walletRepository) WithWalletPair(ctx context.Context, firstID, secondID int32, fn func(tx repository.WalletTx, first, second *domain.Wallet) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin wallet transaction: %w", err)
	}
	defer tx.Rollback()

	// Fixed global lock order: ascending employee ID, whatever the transfer
	// direction. Opposing transfers between the same two wallets then always
	// contend on the same first row instead of deadlocking.
	lockFirst, lockSecond := firstID, secondID
	if lockSecond < lockFirst {
		lockFirst, lockSecond = lockSecond, lockFirst
	}

	locked := make(map[int32]*domain.Wallet, 2)
	for _, id := range []int32{lockFirst, lockSecond} {
		w, err := lockWallet(ctx, tx, id)
		if err != nil {
			return err
		}
		locked[id] = w
	}

	if err := fn(&walletTx{tx: tx}, locked[firstID], locked[secondID]); err != nil {
		return err
	}
	return tx.Commit()
}
