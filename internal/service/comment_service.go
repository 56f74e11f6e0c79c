package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"recipebox/internal/feed"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/repository"
)

const (
	defaultCommentLimit = 10
	maxCommentLimit     = 50
)

// CommentPage is one page of top-level comments.
type CommentPage = feed.Page[*models.Comment]

type CommentService struct {
	commentRepo repository.CommentRepository
	recipeRepo  repository.RecipeRepository
	emitter     NotificationEmitter
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID   uint
	RecipeID uint
	ParentID *uint
	Text     string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	recipeRepo repository.RecipeRepository,
	emitter NotificationEmitter,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		recipeRepo:  recipeRepo,
		emitter:     emitter,
		isAdmin:     isAdmin,
	}
}

// ListComments returns top-level comments on a recipe, oldest first.
func (s *CommentService) ListComments(ctx context.Context, recipeID, viewerID uint, page, limit int) (CommentPage, error) {
	q := feed.Query{
		Page:     clampPage(page),
		PageSize: clampLimit(limit, defaultCommentLimit, maxCommentLimit),
	}
	if _, err := s.visibleRecipe(ctx, recipeID, viewerID); err != nil {
		return CommentPage{}, err
	}
	items, total, err := s.commentRepo.ListTopLevel(ctx, recipeID, q.PageSize, q.Offset())
	if err != nil {
		return CommentPage{}, err
	}
	return feed.NewPage(items, total, q), nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, models.NewValidationError("Text is required")
	}
	if utf8.RuneCountInString(text) > models.MaxCommentLength {
		return nil, models.NewValidationError("Comment too long (max 100 characters)")
	}

	recipe, err := s.visibleRecipe(ctx, in.RecipeID, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.RecipeID != in.RecipeID {
			return nil, models.NewValidationError("Parent comment belongs to another recipe")
		}
	}

	comment := &models.Comment{
		RecipeID: in.RecipeID,
		AuthorID: in.UserID,
		ParentID: in.ParentID,
		Text:     text,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	if s.emitter != nil {
		s.emitter.Emit(ctx, notifications.Event{
			Kind:         models.NotificationComment,
			ActorID:      in.UserID,
			TargetUserID: recipe.AuthorID,
			Payload: map[string]interface{}{
				"recipeId":   recipe.ID,
				"commentId":  comment.ID,
				"fromUserId": in.UserID,
			},
		})
	}

	return s.commentRepo.GetByID(ctx, comment.ID)
}

// DeleteComment removes a comment. Its author and admins may delete it.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}

	if comment.AuthorID != in.UserID {
		if s.isAdmin == nil {
			return nil, models.NewForbiddenError("You can only delete your own comments")
		}
		admin, err := s.isAdmin(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewForbiddenError("You can only delete your own comments")
		}
	}

	if err := s.commentRepo.Delete(ctx, in.CommentID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) visibleRecipe(ctx context.Context, recipeID, viewerID uint) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if !recipe.IsPublic && (viewerID == 0 || recipe.AuthorID != viewerID) {
		return nil, models.NewNotFoundError("Recipe", recipeID)
	}
	return recipe, nil
}
