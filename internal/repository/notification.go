package repository

import (
	"context"

	"recipebox/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	// ListForUser returns userID's notifications oldest first, and their total.
	ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, int64, error)
	// MarkRead flips one notification addressed to userID and returns it.
	MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error)
	// MarkAllRead flips every unread notification of userID.
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListForUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, int64, error) {
	db := r.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	items := []*models.Notification{}
	if err := db.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return items, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uint) (*models.Notification, error) {
	var notification models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Notification{}).
			Where("id = ? AND user_id = ?", id, userID).
			Update("read", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&notification, id).Error
	})
	if err != nil {
		return nil, translateError(err, "Notification", id)
	}
	return &notification, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Update("read", true)
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
