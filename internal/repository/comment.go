package repository

import (
	"context"

	"recipebox/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListTopLevel returns comments on recipeID without a parent, oldest
	// first, and their total count.
	ListTopLevel(ctx context.Context, recipeID uint, limit, offset int) ([]*models.Comment, int64, error)
	Delete(ctx context.Context, id uint) error
}

// commentRepository implements CommentRepository
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author", preloadAuthor).First(&comment, id).Error; err != nil {
		return nil, translateError(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListTopLevel(ctx context.Context, recipeID uint, limit, offset int) ([]*models.Comment, int64, error) {
	db := r.db.WithContext(ctx)
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("recipe_id = ? AND parent_id IS NULL", recipeID)
	}

	var total int64
	if err := db.Model(&models.Comment{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	comments := []*models.Comment{}
	if err := db.Scopes(scope).
		Preload("Author", preloadAuthor).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
