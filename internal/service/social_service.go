package service

import (
	"context"

	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/observability"
	"recipebox/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FollowState is the follow relation between the actor and a target after
// a follow or unfollow.
type FollowState struct {
	Following      bool  `json:"following"`
	FollowersCount int64 `json:"followersCount"`
	FollowingCount int64 `json:"followingCount"`
}

// SaveState is the actor's membership in a recipe's saved set.
type SaveState struct {
	Saved      bool  `json:"saved"`
	SavedCount int64 `json:"savedCount"`
}

// SocialService maintains the follow graph and saved sets.
type SocialService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	saveRepo   repository.SaveRepository
	emitter    NotificationEmitter
}

// NewSocialService returns a new SocialService. emitter may be nil.
func NewSocialService(
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
	saveRepo repository.SaveRepository,
	emitter NotificationEmitter,
) *SocialService {
	return &SocialService{
		userRepo:   userRepo,
		followRepo: followRepo,
		saveRepo:   saveRepo,
		emitter:    emitter,
	}
}

// Follow makes actorID follow targetID. Repeating it is a no-op and does not
// notify again.
func (s *SocialService) Follow(ctx context.Context, actorID, targetID uint) (*FollowState, error) {
	if actorID == targetID {
		return nil, models.NewInvalidOperationError("You cannot follow yourself")
	}
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}

	created, err := s.followRepo.Follow(ctx, actorID, targetID)
	if err != nil {
		return nil, err
	}
	if created && s.emitter != nil {
		s.emitter.Emit(ctx, notifications.Event{
			Kind:         models.NotificationFollow,
			ActorID:      actorID,
			TargetUserID: targetID,
			Payload:      map[string]interface{}{"fromUserId": actorID},
		})
	}

	return s.followState(ctx, targetID, true)
}

// Unfollow removes the edge if present. It never notifies.
func (s *SocialService) Unfollow(ctx context.Context, actorID, targetID uint) (*FollowState, error) {
	if err := s.requireUser(ctx, targetID); err != nil {
		return nil, err
	}
	if _, err := s.followRepo.Unfollow(ctx, actorID, targetID); err != nil {
		return nil, err
	}
	return s.followState(ctx, targetID, false)
}

// ToggleSave flips userID's bookmark on recipeID.
func (s *SocialService) ToggleSave(ctx context.Context, userID, recipeID uint) (state *SaveState, err error) {
	ctx, span := observability.StartSpan(ctx, "recipe.toggle_save",
		attribute.Int64("recipe.id", int64(recipeID)),
	)
	defer func() { observability.EndSpan(span, err) }()

	saved, count, err := s.saveRepo.Toggle(ctx, userID, recipeID)
	if err != nil {
		return nil, err
	}
	observability.RecordSaveToggle(saved)
	return &SaveState{Saved: saved, SavedCount: count}, nil
}

func (s *SocialService) requireUser(ctx context.Context, id uint) error {
	ok, err := s.userRepo.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (s *SocialService) followState(ctx context.Context, targetID uint, following bool) (*FollowState, error) {
	followers, followingCount, err := s.followRepo.Counts(ctx, targetID)
	if err != nil {
		return nil, err
	}
	return &FollowState{
		Following:      following,
		FollowersCount: followers,
		FollowingCount: followingCount,
	}, nil
}
