package service

import (
	"context"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"
)

type ledgerService struct {
	walletRepo repository.WalletRepository
	ledgerRepo repository.LedgerRepository
}

func NewLedgerService(walletRepo repository.WalletRepository, ledgerRepo repository.LedgerRepository) LedgerService {
	return &ledgerService{walletRepo: walletRepo, ledgerRepo: ledgerRepo}
}

func (s *ledgerService) GetBalance(ctx context.Context, employeeID int32) (*domain.Wallet, error) {
	return s.walletRepo.Get(ctx, employeeID)
}

func (s *ledgerService) GetTransactions(ctx context.Context, employeeID int32, page, pageSize int32) ([]domain.Transaction, int32, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.ledgerRepo.ListByEmployee(ctx, employeeID, page, pageSize)
}

func (s *ledgerService) GetSummary(ctx context.Context, employeeID int32) (*domain.LedgerSummary, error) {
	summary, err := s.ledgerRepo.GetSummary(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	wallet, err := s.walletRepo.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	summary.Balance = wallet.Balance
	summary.GiftableBalance = wallet.GiftableBalance
	return summary, nil
}

func (s *ledgerService) SumTenantBalances(ctx context.Context, tenantID int32) (int64, error) {
	return s.walletRepo.SumBalances(ctx, tenantID)
}
