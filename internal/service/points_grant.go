package service

import (
	"context"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/repository"
)

type pointsGrantService struct {
	employeeRepo repository.EmployeeRepository
	walletRepo   repository.WalletRepository
	grantAmount  int64
}

func NewPointsGrantService(
	employeeRepo repository.EmployeeRepository,
	walletRepo repository.WalletRepository,
	grantAmount int64,
) PointsGrantService {
	return &pointsGrantService{
		employeeRepo: employeeRepo,
		walletRepo:   walletRepo,
		grantAmount:  grantAmount,
	}
}

// GrantMonthlyPoints tops up every active employee with the monthly giftable
// allowance. Each wallet is its own transaction; a failed wallet is logged
// and skipped so one bad row cannot starve the rest of the tenant.
func (s *pointsGrantService) GrantMonthlyPoints(ctx context.Context, tenantID int32) (int, error) {
	employees, err := s.employeeRepo.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	granted := 0
	for _, emp := range employees {
		err := s.walletRepo.WithWallet(ctx, emp.ID, func(tx repository.WalletTx, w *domain.Wallet) error {
			if err := w.CreditGiftable(s.grantAmount); err != nil {
				return err
			}
			if err := tx.UpdateBalance(w); err != nil {
				return err
			}
			receiverID := emp.ID
			return tx.AppendTransaction(&domain.Transaction{
				TenantID:   tenantID,
				ReceiverID: &receiverID,
				Amount:     s.grantAmount,
				Type:       domain.TransactionTypeAutomatedAward,
				Message:    "Monthly giftable allowance",
			})
		})
		if err != nil {
			logger.Error("Monthly grant failed for employee", "tenant_id", tenantID, "employee_id", emp.ID, "error", err)
			continue
		}
		granted++
	}

	logger.Info("Monthly giftable grant complete", "tenant_id", tenantID, "employees", len(employees), "granted", granted)
	return granted, nil
}

// ExpireGiftablePoints zeroes whatever giftable allowance is left in each
// active employee's wallet. Expired points leave the balance too; the
// allowance is use-it-or-lose-it, not converted to redeemable points.
func (s *pointsGrantService) ExpireGiftablePoints(ctx context.Context, tenantID int32) (int, error) {
	employees, err := s.employeeRepo.ListActiveByTenant(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, emp := range employees {
		err := s.walletRepo.WithWallet(ctx, emp.ID, func(tx repository.WalletTx, w *domain.Wallet) error {
			remaining := w.GiftableBalance
			if remaining == 0 {
				return nil
			}
			if err := w.DebitGiftable(remaining); err != nil {
				return err
			}
			if err := tx.UpdateBalance(w); err != nil {
				return err
			}
			senderID := emp.ID
			return tx.AppendTransaction(&domain.Transaction{
				TenantID: tenantID,
				SenderID: &senderID,
				Amount:   remaining,
				Type:     domain.TransactionTypePointExpiry,
				Message:  "Unused giftable allowance expired",
			})
		})
		if err != nil {
			logger.Error("Giftable expiry failed for employee", "tenant_id", tenantID, "employee_id", emp.ID, "error", err)
			continue
		}
		expired++
	}

	logger.Info("Giftable expiry complete", "tenant_id", tenantID, "employees", len(employees), "processed", expired)
	return expired, nil
}
