package service

import (
	"context"
	"fmt"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/events"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/repository"
)

type transferService struct {
	walletRepo   repository.WalletRepository
	employeeRepo repository.EmployeeRepository
	queue        *events.Queue
}

func NewTransferService(
	walletRepo repository.WalletRepository,
	employeeRepo repository.EmployeeRepository,
	queue *events.Queue,
) TransferService {
	return &transferService{
		walletRepo:   walletRepo,
		employeeRepo: employeeRepo,
		queue:        queue,
	}
}

func validateTransferInput(amount int64, tags []string) error {
	if amount == 0 {
		return domain.ErrInvalidAmount
	}
	if len(tags) > domain.MaxTransactionTags {
		return domain.ErrTooManyTags
	}
	return nil
}

func (s *transferService) Transfer(ctx context.Context, tenantID, senderID, receiverID int32, amount int64, message string, tags []string) (int64, error) {
	if senderID == receiverID {
		return 0, domain.ErrSelfTransfer
	}
	if err := validateTransferInput(amount, tags); err != nil {
		return 0, err
	}
	if amount < 0 {
		return 0, domain.ErrInvalidAmount
	}

	var entryID int64
	err := s.walletRepo.WithWalletPair(ctx, senderID, receiverID, func(tx repository.WalletTx, sender, receiver *domain.Wallet) error {
		if err := sender.DebitGiftable(amount); err != nil {
			return err
		}
		if err := receiver.Credit(amount); err != nil {
			return err
		}
		if err := tx.UpdateBalance(sender); err != nil {
			return err
		}
		if err := tx.UpdateBalance(receiver); err != nil {
			return err
		}

		entry := &domain.Transaction{
			TenantID:   tenantID,
			SenderID:   &senderID,
			ReceiverID: &receiverID,
			Amount:     amount,
			Type:       domain.TransactionTypePeerAward,
			Message:    message,
			Tags:       tags,
		}
		if err := tx.AppendTransaction(entry); err != nil {
			return err
		}
		entryID = entry.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	// The transfer is committed; the notification can neither delay nor
	// roll it back.
	s.queue.Publish(events.Event{
		Kind:      events.KindPointsReceived,
		TenantID:  tenantID,
		ActorID:   &senderID,
		SubjectID: receiverID,
		Amount:    amount,
		Message:   message,
	})

	logger.Info("Points transferred", "tenant_id", tenantID, "sender_id", senderID, "receiver_id", receiverID, "amount", amount)
	return entryID, nil
}

func (s *transferService) Distribute(ctx context.Context, tenantID, adminID int32, receiverIDs []int32, amountPer int64, message string, tags []string) ([]int64, error) {
	if err := validateTransferInput(amountPer, tags); err != nil {
		return nil, err
	}
	if len(receiverIDs) == 0 {
		return nil, fmt.Errorf("%w: no receivers", domain.ErrInvalidAmount)
	}

	// Validate the whole batch before touching any wallet.
	ok, err := s.employeeRepo.ExistsAll(ctx, tenantID, receiverIDs)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	entryIDs := make([]int64, 0, len(receiverIDs))
	for i, receiverID := range receiverIDs {
		entryID, err := s.adjustOne(ctx, tenantID, receiverID, amountPer, message, tags)
		if err != nil {
			// Earlier receivers keep their adjustments. Known non-atomic
			// batch property; surfaced to the operator, not hidden.
			logger.Warn("Distribution stopped mid-batch, earlier receivers already adjusted",
				"tenant_id", tenantID, "admin_id", adminID, "applied", i, "total", len(receiverIDs),
				"failed_receiver_id", receiverID, "error", err)
			return entryIDs, err
		}
		entryIDs = append(entryIDs, entryID)
	}

	logger.Info("Points distributed", "tenant_id", tenantID, "admin_id", adminID, "receivers", len(receiverIDs), "amount_per", amountPer)
	return entryIDs, nil
}

// adjustOne applies one admin adjustment. A positive amount credits the
// receiver from outside the economy; a negative amount claws back from the
// receiver's own wallet, so the admin needs no funded wallet.
func (s *transferService) adjustOne(ctx context.Context, tenantID, receiverID int32, amountPer int64, message string, tags []string) (int64, error) {
	var entryID int64
	err := s.walletRepo.WithWallet(ctx, receiverID, func(tx repository.WalletTx, w *domain.Wallet) error {
		entry := &domain.Transaction{
			TenantID: tenantID,
			Amount:   amountPer,
			Type:     domain.TransactionTypeAdminAdjustment,
			Message:  message,
			Tags:     tags,
		}
		if amountPer > 0 {
			if err := w.Credit(amountPer); err != nil {
				return err
			}
			entry.ReceiverID = &receiverID
		} else {
			if err := w.Debit(-amountPer); err != nil {
				return err
			}
			entry.SenderID = &receiverID
			entry.Amount = -amountPer
		}

		if err := tx.UpdateBalance(w); err != nil {
			return err
		}
		if err := tx.AppendTransaction(entry); err != nil {
			return err
		}
		entryID = entry.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	if amountPer > 0 {
		s.queue.Publish(events.Event{
			Kind:      events.KindPointsReceived,
			TenantID:  tenantID,
			SubjectID: receiverID,
			Amount:    amountPer,
			Message:   message,
		})
	}
	return entryID, nil
}
