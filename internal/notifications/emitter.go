package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/observability"

	"gorm.io/datatypes"
)

// Emission outcomes recorded in observability.Notifications.
const (
	outcomeStored      = "stored"
	outcomeSkippedSelf = "skipped_self"
	outcomeDropped     = "dropped"
)

// Store persists notifications.
type Store interface {
	Create(ctx context.Context, notification *models.Notification) error
}

// Publisher pushes a stored notification to live subscribers.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, payload string) error
}

// Event is something an actor did that may concern another user.
type Event struct {
	Kind         models.NotificationType
	ActorID      uint
	TargetUserID uint
	Payload      map[string]interface{}
}

// Emitter turns events into notifications. Delivery is at most once: a
// failed write is logged and the event is lost, and the caller's own state
// change stands.
type Emitter struct {
	store     Store
	publisher Publisher
}

// NewEmitter creates an Emitter. publisher may be nil.
func NewEmitter(store Store, publisher Publisher) *Emitter {
	return &Emitter{store: store, publisher: publisher}
}

// Emit creates a notification for ev.TargetUserID unless the actor is the
// target. It never fails the caller.
func (e *Emitter) Emit(ctx context.Context, ev Event) {
	if e == nil {
		return
	}
	kind := string(ev.Kind)
	if ev.ActorID == ev.TargetUserID || ev.TargetUserID == 0 {
		observability.Notifications.WithLabelValues(kind, outcomeSkippedSelf).Inc()
		return
	}

	notification := &models.Notification{
		UserID: ev.TargetUserID,
		Type:   ev.Kind,
		Data:   datatypes.JSONMap(ev.Payload),
	}
	if err := e.store.Create(ctx, notification); err != nil {
		observability.Notifications.WithLabelValues(kind, outcomeDropped).Inc()
		middleware.Logger.WarnContext(ctx, "Failed to store notification",
			slog.String("type", kind),
			slog.Uint64("target_user_id", uint64(ev.TargetUserID)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.Notifications.WithLabelValues(kind, outcomeStored).Inc()

	if e.publisher == nil {
		return
	}
	payload, err := json.Marshal(Message{Type: "notification", Payload: notification})
	if err != nil {
		return
	}
	if err := e.publisher.PublishUser(ctx, ev.TargetUserID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish notification",
			slog.Uint64("notification_id", uint64(notification.ID)),
			slog.String("error", err.Error()),
		)
	}
}

// Message is the envelope written to websocket clients.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
