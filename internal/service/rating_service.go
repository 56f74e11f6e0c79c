package service

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/observability"
	"recipebox/internal/rating"
	"recipebox/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// RatingService records per-user ratings and keeps recipe aggregates exact.
type RatingService struct {
	ratingRepo repository.RatingRepository
	emitter    NotificationEmitter
}

// NewRatingService returns a new RatingService. emitter may be nil.
func NewRatingService(ratingRepo repository.RatingRepository, emitter NotificationEmitter) *RatingService {
	return &RatingService{ratingRepo: ratingRepo, emitter: emitter}
}

// SubmitRating sets actorID's rating of recipeID to value and returns the
// recomputed aggregate. The recipe author is notified only the first time a
// given user rates the recipe.
func (s *RatingService) SubmitRating(ctx context.Context, recipeID, actorID uint, value int) (summary rating.Summary, err error) {
	ctx, span := observability.StartSpan(ctx, "rating.submit",
		attribute.Int64("recipe.id", int64(recipeID)),
		attribute.Int("rating.value", value),
	)
	defer func() { observability.EndSpan(span, err) }()

	if !rating.Valid(value) {
		return rating.Summary{}, models.NewValidationError("Rating must be an integer between 1 and 5")
	}

	res, err := s.ratingRepo.Submit(ctx, recipeID, actorID, value)
	if err != nil {
		return rating.Summary{}, err
	}
	observability.RecordRating(res.First)

	if res.First && s.emitter != nil {
		s.emitter.Emit(ctx, notifications.Event{
			Kind:         models.NotificationRating,
			ActorID:      actorID,
			TargetUserID: res.AuthorID,
			Payload: map[string]interface{}{
				"recipeId":   recipeID,
				"fromUserId": actorID,
				"value":      value,
			},
		})
	}

	return res.Summary, nil
}

// GetRating returns actorID's current rating of recipeID, if any.
func (s *RatingService) GetRating(ctx context.Context, recipeID, actorID uint) (int, bool, error) {
	return s.ratingRepo.Get(ctx, recipeID, actorID)
}
