package repos

import (
	"context"
	"testing"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository/postgres"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestLedgerRepository_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sender, receiver := int32(1), int32(2)
		entry := &domain.Transaction{
			TenantID:   7,
			SenderID:   &sender,
			ReceiverID: &receiver,
			Amount:     30,
			Type:       domain.TransactionTypePeerAward,
			Message:    "great demo",
			Tags:       []string{"teamwork", "q3"},
		}

		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(entry.TenantID, entry.SenderID, entry.ReceiverID, entry.Amount,
				entry.Type, entry.Message, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(41))

		err := repo.Append(ctx, entry)
		assert.NoError(t, err)
		assert.Equal(t, int64(41), entry.ID)
		assert.False(t, entry.OccurredOn.IsZero())
	})
}

func TestLedgerRepository_ListByEmployee(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		sender := int32(1)
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "sender_id", "receiver_id", "amount", "type", "message", "tags", "occurred_on"}).
			AddRow(41, 7, sender, 2, 30, "PEER_AWARD", "great demo", "{teamwork}", time.Now().UTC()).
			AddRow(40, 7, nil, 2, 500, "AUTOMATED_AWARD", "Monthly giftable allowance", "{}", time.Now().UTC())

		mock.ExpectQuery("FROM transactions WHERE sender_id = \\$1 OR receiver_id = \\$1").
			WithArgs(int32(2), int32(10), int32(0)).
			WillReturnRows(rows)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM transactions").
			WithArgs(int32(2)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		entries, total, err := repo.ListByEmployee(ctx, 2, 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, int32(2), total)
		if assert.Len(t, entries, 2) {
			assert.Equal(t, int64(41), entries[0].ID)
			assert.Equal(t, int32(1), *entries[0].SenderID)
			assert.Nil(t, entries[1].SenderID)
		}
	})
}

func TestLedgerRepository_GetSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := postgres.NewLedgerRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("FROM wallets WHERE employee_id = \\$1").
		WithArgs(int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "giftable_balance"}).AddRow(350, 40))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM transactions WHERE sender_id = \\$1").
		WithArgs(int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM transactions WHERE receiver_id = \\$1").
		WithArgs(int32(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(8))

	summary, err := repo.GetSummary(ctx, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(350), summary.Balance)
	assert.Equal(t, int32(3), summary.SentCount)
	assert.Equal(t, int32(8), summary.ReceivedCount)
}
