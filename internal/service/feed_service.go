package service

import (
	"context"

	"recipebox/internal/feed"
	"recipebox/internal/models"
	"recipebox/internal/observability"
	"recipebox/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// RecipePage is one page of a recipe listing.
type RecipePage = feed.Page[*models.Recipe]

// FeedRequest is a listing query plus the axes that need resolving before
// the store can be asked.
type FeedRequest struct {
	feed.Query
	// AuthorUsername is ignored when AuthorID is set.
	AuthorUsername string
	// FollowingOnly restricts authors to those ActorID follows.
	FollowingOnly bool
	ActorID       uint
}

// FeedService composes filtered, ranked, paginated recipe listings.
type FeedService struct {
	recipeRepo repository.RecipeRepository
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
}

// NewFeedService returns a new FeedService.
func NewFeedService(
	recipeRepo repository.RecipeRepository,
	userRepo repository.UserRepository,
	followRepo repository.FollowRepository,
) *FeedService {
	return &FeedService{
		recipeRepo: recipeRepo,
		userRepo:   userRepo,
		followRepo: followRepo,
	}
}

// List returns one page of public recipes. An unknown author username or an
// empty following set yields an empty page without listing recipes.
func (s *FeedService) List(ctx context.Context, req FeedRequest) (page RecipePage, err error) {
	q := req.Query.Normalize()

	ctx, span := observability.StartSpan(ctx, "feed.list",
		attribute.String("feed.sort", string(q.Sort)),
		attribute.Int("feed.page", q.Page),
		attribute.Int("feed.page_size", q.PageSize),
	)
	defer func() { observability.EndSpan(span, err) }()

	if req.FollowingOnly && req.ActorID == 0 {
		return RecipePage{}, models.NewUnauthorizedError("Authentication required for followingOnly")
	}
	observability.FeedQueries.WithLabelValues(string(q.Sort)).Inc()

	if q.AuthorID == 0 && req.AuthorUsername != "" {
		id, ok, err := s.userRepo.ResolveUsername(ctx, req.AuthorUsername)
		if err != nil {
			return RecipePage{}, err
		}
		if !ok {
			return feed.EmptyPage[*models.Recipe](q), nil
		}
		q.AuthorID = id
	}

	if req.FollowingOnly {
		ids, err := s.followRepo.FollowingIDs(ctx, req.ActorID)
		if err != nil {
			return RecipePage{}, err
		}
		if ids == nil {
			ids = []uint{}
		}
		q.AuthorIDs = ids
	}

	if q.MatchesNothing() {
		return feed.EmptyPage[*models.Recipe](q), nil
	}

	items, total, err := s.recipeRepo.List(ctx, q)
	if err != nil {
		return RecipePage{}, err
	}
	return feed.NewPage(items, total, q), nil
}

// Saved lists the public recipes userID has saved, newest first.
func (s *FeedService) Saved(ctx context.Context, userID uint, page, pageSize int) (RecipePage, error) {
	return s.List(ctx, FeedRequest{
		Query: feed.Query{
			Filter:   feed.Filter{SavedBy: userID},
			Sort:     feed.SortRecent,
			Page:     page,
			PageSize: pageSize,
		},
		ActorID: userID,
	})
}
