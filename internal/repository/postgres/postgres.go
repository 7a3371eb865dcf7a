package postgres

import (
	"database/sql"

	"kudos-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.TenantRepository
	repository.EmployeeRepository
	repository.WalletRepository
	repository.LedgerRepository
	repository.OrderRepository
	repository.CatalogRepository
	repository.SubscriptionPaymentRepository
	repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                            db,
		TenantRepository:              NewTenantRepository(db),
		EmployeeRepository:            NewEmployeeRepository(db),
		WalletRepository:              NewWalletRepository(db),
		LedgerRepository:              NewLedgerRepository(db),
		OrderRepository:               NewOrderRepository(db),
		CatalogRepository:             NewCatalogRepository(db),
		SubscriptionPaymentRepository: NewSubscriptionPaymentRepository(db),
		NotificationRepository:        NewNotificationRepository(db),
	}
}
