package service

import (
	"context"
	"time"

	"recipebox/internal/feed"
	"recipebox/internal/models"
	"recipebox/internal/repository"
)

// PublicUser is the part of an account anyone may see.
type PublicUser struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Bio            string    `json:"bio"`
	AvatarURL      string    `json:"avatarUrl"`
	FollowersCount int       `json:"followersCount"`
	FollowingCount int       `json:"followingCount"`
	IsFollowing    bool      `json:"isFollowing"`
	IsMe           bool      `json:"isMe"`
	JoinedAt       time.Time `json:"joinedAt"`
}

// Profile is a public user summary together with one page of their public recipes.
type Profile struct {
	User    PublicUser       `json:"user"`
	Recipes []*models.Recipe `json:"recipes"`
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Pages   int              `json:"pages"`
}

// ProfileService renders public profiles.
type ProfileService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	feed       *FeedService
}

func NewProfileService(userRepo repository.UserRepository, followRepo repository.FollowRepository, feedService *FeedService) *ProfileService {
	return &ProfileService{
		userRepo:   userRepo,
		followRepo: followRepo,
		feed:       feedService,
	}
}

// GetProfile looks username up and lists their public recipes under q's
// sort and pagination. viewerID is zero for anonymous viewers.
func (s *ProfileService) GetProfile(ctx context.Context, username string, viewerID uint, q feed.Query) (*Profile, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	summary := PublicUser{
		ID:             user.ID,
		Username:       user.Username,
		Bio:            user.Bio,
		AvatarURL:      user.AvatarURL,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
		IsMe:           viewerID != 0 && viewerID == user.ID,
		JoinedAt:       user.CreatedAt,
	}
	if viewerID != 0 && !summary.IsMe {
		summary.IsFollowing, err = s.followRepo.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, err
		}
	}

	page, err := s.feed.List(ctx, FeedRequest{
		Query: feed.Query{
			Filter:   feed.Filter{AuthorID: user.ID},
			Sort:     q.Sort,
			Page:     q.Page,
			PageSize: q.PageSize,
		},
		ActorID: viewerID,
	})
	if err != nil {
		return nil, err
	}

	return &Profile{
		User:    summary,
		Recipes: page.Items,
		Total:   page.Total,
		Page:    page.Page,
		Pages:   page.Pages,
	}, nil
}

func toPublicUser(u *models.User) *PublicUser {
	if u == nil {
		return nil
	}
	return &PublicUser{
		ID:             u.ID,
		Username:       u.Username,
		Bio:            u.Bio,
		AvatarURL:      u.AvatarURL,
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		JoinedAt:       u.CreatedAt,
	}
}
