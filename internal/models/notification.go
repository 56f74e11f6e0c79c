package models

import (
	"time"

	"gorm.io/datatypes"
)

// NotificationType identifies the event that produced a notification.
type NotificationType string

const (
	NotificationComment NotificationType = "comment"
	NotificationFollow  NotificationType = "follow"
	NotificationRating  NotificationType = "rating"
	NotificationSystem  NotificationType = "system"
)

// Notification is addressed to one user and only ever mutated to flip Read.
type Notification struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"userId"`
	Type      NotificationType  `gorm:"type:varchar(16);not null" json:"type"`
	Data      datatypes.JSONMap `json:"data"`
	Read      bool              `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time         `gorm:"index:idx_notifications_user_created,priority:2" json:"createdAt"`
}
