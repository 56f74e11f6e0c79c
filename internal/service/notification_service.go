package service

import (
	"context"

	"recipebox/internal/feed"
	"recipebox/internal/models"
	"recipebox/internal/repository"
)

const (
	defaultNotificationLimit = 20
	maxNotificationLimit     = 100
)

// NotificationPage is one page of a user's notifications.
type NotificationPage = feed.Page[*models.Notification]

// NotificationService reads and acknowledges a user's own notifications.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
}

func NewNotificationService(notificationRepo repository.NotificationRepository) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// List returns userID's notifications, oldest first.
func (s *NotificationService) List(ctx context.Context, userID uint, page, limit int) (NotificationPage, error) {
	q := feed.Query{
		Page:     clampPage(page),
		PageSize: clampLimit(limit, defaultNotificationLimit, maxNotificationLimit),
	}
	items, total, err := s.notificationRepo.ListForUser(ctx, userID, q.PageSize, q.Offset())
	if err != nil {
		return NotificationPage{}, err
	}
	return feed.NewPage(items, total, q), nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) (*models.Notification, error) {
	return s.notificationRepo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}
