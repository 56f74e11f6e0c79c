package repository

import (
	"context"

	"recipebox/internal/models"

	"gorm.io/gorm"
)

// SaveRepository maintains the save relation. One row per (user, recipe)
// serves both the savedBy and savedRecipes projections.
type SaveRepository interface {
	// Toggle flips userID's membership in recipeID's saved set and returns
	// the new membership and saved count. Toggles on one recipe serialize on
	// its row.
	Toggle(ctx context.Context, userID, recipeID uint) (bool, int64, error)
	IsSaved(ctx context.Context, userID, recipeID uint) (bool, error)
}

type saveRepository struct {
	db *gorm.DB
}

// NewSaveRepository creates a new save repository
func NewSaveRepository(db *gorm.DB) SaveRepository {
	return &saveRepository{db: db}
}

func (r *saveRepository) Toggle(ctx context.Context, userID, recipeID uint) (bool, int64, error) {
	var saved bool
	var count int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := lockForUpdate(tx).Select("id").First(&recipe, recipeID).Error; err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(&models.RecipeSave{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if err := tx.Create(&models.RecipeSave{UserID: userID, RecipeID: recipeID}).Error; err != nil {
				return err
			}
			saved = true
		}

		return tx.Model(&models.RecipeSave{}).Where("recipe_id = ?", recipeID).Count(&count).Error
	})
	if err != nil {
		return false, 0, translateError(err, "Recipe", recipeID)
	}
	return saved, count, nil
}

func (r *saveRepository) IsSaved(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RecipeSave{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
