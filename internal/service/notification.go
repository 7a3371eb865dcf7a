package service

import (
	"context"

	"kudos-backend/internal/domain"
	"kudos-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) GetFeed(ctx context.Context, employeeID int32, sinceHours int32, unreadOnly bool, maxCount int32) ([]domain.Notification, error) {
	if maxCount < 1 || maxCount > 200 {
		maxCount = 50
	}
	if sinceHours < 0 {
		sinceHours = 0
	}
	return s.noteRepo.ListRecent(ctx, employeeID, sinceHours, unreadOnly, maxCount)
}

func (s *notificationService) MarkAsRead(ctx context.Context, employeeID int32, notificationID int64) error {
	return s.noteRepo.MarkAsRead(ctx, notificationID, employeeID)
}
