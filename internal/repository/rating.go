package repository

import (
	"context"
	"errors"

	"recipebox/internal/models"
	"recipebox/internal/rating"

	"gorm.io/gorm"
)

// RatingResult describes the state of a recipe right after a rating write.
type RatingResult struct {
	rating.Summary
	// First is true when the user had not rated the recipe before.
	First    bool
	AuthorID uint
}

// RatingRepository stores per-user ratings and the aggregate derived from them.
type RatingRepository interface {
	// Submit inserts or overwrites userID's rating of recipeID and rewrites
	// the recipe's average and count from all of its ratings, in one
	// transaction holding the recipe row.
	Submit(ctx context.Context, recipeID, userID uint, value int) (RatingResult, error)
	Get(ctx context.Context, recipeID, userID uint) (int, bool, error)
}

type ratingRepository struct {
	db *gorm.DB
}

// NewRatingRepository creates a new rating repository
func NewRatingRepository(db *gorm.DB) RatingRepository {
	return &ratingRepository{db: db}
}

func (r *ratingRepository) Submit(ctx context.Context, recipeID, userID uint, value int) (RatingResult, error) {
	var result RatingResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := lockForUpdate(tx).Select("id", "author_id").First(&recipe, recipeID).Error; err != nil {
			return err
		}
		result.AuthorID = recipe.AuthorID

		var existing models.RecipeRating
		err := tx.Where("recipe_id = ? AND user_id = ?", recipeID, userID).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.First = true
			if err := tx.Create(&models.RecipeRating{RecipeID: recipeID, UserID: userID, Value: value}).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := tx.Model(&models.RecipeRating{}).
				Where("recipe_id = ? AND user_id = ?", recipeID, userID).
				Update("value", value).Error; err != nil {
				return err
			}
		}

		var values []int
		if err := tx.Model(&models.RecipeRating{}).Where("recipe_id = ?", recipeID).Pluck("value", &values).Error; err != nil {
			return err
		}
		result.Summary = rating.Summarize(values)

		return tx.Model(&models.Recipe{}).Where("id = ?", recipeID).Updates(map[string]interface{}{
			"rating_avg":   result.Avg,
			"rating_count": result.Count,
		}).Error
	})
	if err != nil {
		return RatingResult{}, translateError(err, "Recipe", recipeID)
	}
	return result, nil
}

func (r *ratingRepository) Get(ctx context.Context, recipeID, userID uint) (int, bool, error) {
	var existing models.RecipeRating
	err := r.db.WithContext(ctx).Where("recipe_id = ? AND user_id = ?", recipeID, userID).Take(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}
	return existing.Value, true, nil
}
