package events

import (
	"context"
	"time"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/logger"
	"kudos-backend/internal/repository"
)

// FeedSink persists each event as an in-app notification row, so employees
// who were not connected for the live push can still read it later.
type FeedSink struct {
	noteRepo repository.NotificationRepository
	timeout  time.Duration
}

func NewFeedSink(noteRepo repository.NotificationRepository) *FeedSink {
	return &FeedSink{noteRepo: noteRepo, timeout: 5 * time.Second}
}

var feedKinds = map[Kind]domain.NotificationKind{
	KindPointsReceived: domain.NotificationKindPointsReceived,
	KindGiftPlaced:     domain.NotificationKindGiftPlaced,
	KindGiftFailed:     domain.NotificationKindGiftFailed,
	KindBillingFailed:  domain.NotificationKindBillingFailed,
}

func (s *FeedSink) Deliver(event Event) {
	kind, ok := feedKinds[event.Kind]
	if !ok {
		logger.Warn("Feed sink received unknown event kind", "kind", event.Kind)
		return
	}
	if event.SubjectID == 0 {
		// Tenant-scoped events (billing) have no employee feed to land in.
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	note := &domain.Notification{
		TenantID:   event.TenantID,
		EmployeeID: event.SubjectID,
		Kind:       kind,
		ActorID:    event.ActorID,
		Amount:     event.Amount,
		Message:    event.Message,
		CreatedOn:  event.OccurredOn,
	}
	if err := s.noteRepo.Create(ctx, note); err != nil {
		// Best-effort by contract: the ledger operation already committed.
		logger.Error("Failed to persist feed notification", "kind", event.Kind, "employee_id", event.SubjectID, "error", err)
	}
}
