package repository

import (
	"context"
	"strings"
	"time"

	"recipebox/internal/feed"
	"recipebox/internal/models"

	"gorm.io/gorm"
)

// RecipeRepository defines the interface for recipe data operations
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id uint) (*models.Recipe, error)
	// Update writes the mutable columns. When categories is non-nil the
	// category links are replaced by it.
	Update(ctx context.Context, recipe *models.Recipe, categories []models.Category) error
	// Delete removes the recipe together with its ratings, saves and
	// category links.
	Delete(ctx context.Context, id uint) error
	// List returns one page of public recipes matching q.Filter in q.Sort
	// order, and the size of the whole filtered set.
	List(ctx context.Context, q feed.Query) ([]*models.Recipe, int64, error)
	// GetPublicByIDs returns the public recipes among ids, in no particular order.
	GetPublicByIDs(ctx context.Context, ids []uint) ([]*models.Recipe, error)
	// ListPublicAfter returns up to limit public recipes with id > afterID,
	// ascending by id.
	ListPublicAfter(ctx context.Context, afterID uint, limit int) ([]*models.Recipe, error)
}

type recipeRepository struct {
	db *gorm.DB
}

// NewRecipeRepository creates a new recipe repository
func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// applyRecipeDetails adds the derived saved count as a subquery so it can be
// both returned and sorted on.
func applyRecipeDetails(db *gorm.DB) *gorm.DB {
	return db.Select("recipes.*, " +
		"(SELECT COUNT(*) FROM recipe_saves WHERE recipe_saves.recipe_id = recipes.id) AS saved_count")
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author", preloadAuthor).
		Preload("Categories", func(db *gorm.DB) *gorm.DB { return db.Order("categories.name ASC") })
}

func (r *recipeRepository) Create(ctx context.Context, recipe *models.Recipe) error {
	if err := r.db.WithContext(ctx).Create(recipe).Error; err != nil {
		return translateError(err, "Recipe", recipe.Title)
	}
	return nil
}

func (r *recipeRepository) GetByID(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withRelations(applyRecipeDetails(r.db.WithContext(ctx))).First(&recipe, id).Error
	if err != nil {
		return nil, translateError(err, "Recipe", id)
	}
	return &recipe, nil
}

func (r *recipeRepository) Update(ctx context.Context, recipe *models.Recipe, categories []models.Category) error {
	recipe.UpdatedAt = time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Recipe{ID: recipe.ID}).
			Select("title", "description", "ingredients", "steps", "images", "is_public", "updated_at").
			Updates(recipe)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if categories != nil {
			if err := tx.Model(&models.Recipe{ID: recipe.ID}).Association("Categories").Replace(categories); err != nil {
				return err
			}
			recipe.Categories = categories
		}
		return nil
	})
	return translateError(err, "Recipe", recipe.ID)
}

func (r *recipeRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeRating{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.RecipeSave{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Recipe{ID: id}).Association("Categories").Clear(); err != nil {
			return err
		}
		res := tx.Delete(&models.Recipe{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return translateError(err, "Recipe", id)
}

func (r *recipeRepository) List(ctx context.Context, q feed.Query) ([]*models.Recipe, int64, error) {
	q = q.Normalize()

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Recipe{}), q.Filter).
		Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 {
		return []*models.Recipe{}, 0, nil
	}

	var recipes []*models.Recipe
	err := withRelations(applyFilter(applyRecipeDetails(r.db.WithContext(ctx)), q.Filter)).
		Order(orderClause(q.Sort)).
		Limit(q.PageSize).
		Offset(q.Offset()).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return recipes, total, nil
}

func (r *recipeRepository) GetPublicByIDs(ctx context.Context, ids []uint) ([]*models.Recipe, error) {
	recipes := []*models.Recipe{}
	if len(ids) == 0 {
		return recipes, nil
	}
	err := withRelations(applyRecipeDetails(r.db.WithContext(ctx))).
		Where("recipes.id IN ? AND recipes.is_public = ?", ids, true).
		Find(&recipes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func (r *recipeRepository) ListPublicAfter(ctx context.Context, afterID uint, limit int) ([]*models.Recipe, error) {
	var recipes []*models.Recipe
	err := r.db.WithContext(ctx).
		Where("id > ? AND is_public = ?", afterID, true).
		Order("id ASC").
		Limit(limit).
		Find(&recipes).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

// applyFilter appends the WHERE clauses for every set axis of f.
func applyFilter(db *gorm.DB, f feed.Filter) *gorm.DB {
	db = db.Where("recipes.is_public = ?", true)
	if f.MinRating != nil {
		db = db.Where("recipes.rating_avg >= ?", *f.MinRating)
	}
	if len(f.CategoryIDs) > 0 {
		db = db.Where("recipes.id IN (SELECT recipe_categories.recipe_id FROM recipe_categories WHERE recipe_categories.category_id IN ?)", f.CategoryIDs)
	}
	if f.SavedBy != 0 {
		db = db.Where("recipes.id IN (SELECT recipe_saves.recipe_id FROM recipe_saves WHERE recipe_saves.user_id = ?)", f.SavedBy)
	}
	if f.AuthorID != 0 {
		db = db.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.AuthorIDs != nil {
		if len(f.AuthorIDs) == 0 {
			return db.Where("1 = 0")
		}
		db = db.Where("recipes.author_id IN ?", f.AuthorIDs)
	}
	return db
}

// orderClause renders the ranking tuple of s as ORDER BY terms. Derived
// fields are SELECT aliases from applyRecipeDetails.
func orderClause(s feed.Sort) string {
	keys := s.Keys()
	terms := make([]string, 0, len(keys))
	for _, k := range keys {
		if k.Field == feed.FieldScore {
			continue
		}
		col := string(k.Field)
		if !k.Field.Derived() {
			col = "recipes." + col
		}
		if k.Desc {
			col += " DESC"
		} else {
			col += " ASC"
		}
		terms = append(terms, col)
	}
	return strings.Join(terms, ", ")
}
