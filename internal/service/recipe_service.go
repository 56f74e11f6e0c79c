package service

import (
	"context"
	"log/slog"
	"strings"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/observability"
	"recipebox/internal/repository"
	"recipebox/internal/search"
)

const (
	minTitleLen = 3
	maxTitleLen = 120
)

// CreateRecipeInput describes a new recipe. Images are URIs already stored
// by the upload collaborator.
type CreateRecipeInput struct {
	AuthorID    uint
	Title       string
	Description string
	Ingredients []string
	Steps       []string
	CategoryIDs []uint
	// IsPublic defaults to true.
	IsPublic *bool
	Images   []string
}

// UpdateRecipeInput carries a partial update. Nil fields are left unchanged;
// Images are appended to the existing list.
type UpdateRecipeInput struct {
	ActorID     uint
	RecipeID    uint
	Title       *string
	Description *string
	Ingredients []string
	Steps       []string
	CategoryIDs []uint
	IsPublic    *bool
	Images      []string
}

// RecipeService manages recipe lifecycle and ownership.
type RecipeService struct {
	recipeRepo   repository.RecipeRepository
	categoryRepo repository.CategoryRepository
	indexer      RecipeIndexer
}

// NewRecipeService returns a new RecipeService. indexer may be nil.
func NewRecipeService(
	recipeRepo repository.RecipeRepository,
	categoryRepo repository.CategoryRepository,
	indexer RecipeIndexer,
) *RecipeService {
	return &RecipeService{
		recipeRepo:   recipeRepo,
		categoryRepo: categoryRepo,
		indexer:      indexer,
	}
}

func (s *RecipeService) CreateRecipe(ctx context.Context, in CreateRecipeInput) (*models.Recipe, error) {
	title := strings.TrimSpace(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	categories, err := s.resolveCategories(ctx, in.CategoryIDs)
	if err != nil {
		return nil, err
	}

	isPublic := true
	if in.IsPublic != nil {
		isPublic = *in.IsPublic
	}

	recipe := &models.Recipe{
		AuthorID:    in.AuthorID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Ingredients: trimAll(in.Ingredients),
		Steps:       trimAll(in.Steps),
		Images:      nonNil(in.Images),
		Categories:  categories,
		IsPublic:    isPublic,
	}
	if err := s.recipeRepo.Create(ctx, recipe); err != nil {
		return nil, err
	}

	created, err := s.recipeRepo.GetByID(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, created)
	return created, nil
}

// GetRecipe returns a recipe. Private recipes are reported as missing to
// everyone except their author.
func (s *RecipeService) GetRecipe(ctx context.Context, id, viewerID uint) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recipe.IsPublic && recipe.AuthorID != viewerID {
		return nil, models.NewNotFoundError("Recipe", id)
	}
	return recipe, nil
}

func (s *RecipeService) UpdateRecipe(ctx context.Context, in UpdateRecipeInput) (*models.Recipe, error) {
	recipe, err := s.ownedRecipe(ctx, in.RecipeID, in.ActorID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		recipe.Title = title
	}
	if in.Description != nil {
		recipe.Description = strings.TrimSpace(*in.Description)
	}
	if in.Ingredients != nil {
		recipe.Ingredients = trimAll(in.Ingredients)
	}
	if in.Steps != nil {
		recipe.Steps = trimAll(in.Steps)
	}
	if in.IsPublic != nil {
		recipe.IsPublic = *in.IsPublic
	}
	if len(in.Images) > 0 {
		recipe.Images = append(nonNil(recipe.Images), in.Images...)
	}

	var categories []models.Category
	if in.CategoryIDs != nil {
		categories, err = s.resolveCategories(ctx, in.CategoryIDs)
		if err != nil {
			return nil, err
		}
	}

	if err := s.recipeRepo.Update(ctx, recipe, categories); err != nil {
		return nil, err
	}

	updated, err := s.recipeRepo.GetByID(ctx, recipe.ID)
	if err != nil {
		return nil, err
	}
	s.syncIndex(ctx, updated)
	return updated, nil
}

func (s *RecipeService) DeleteRecipe(ctx context.Context, id, actorID uint) (*models.Recipe, error) {
	recipe, err := s.ownedRecipe(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.recipeRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	s.removeFromIndex(ctx, id)
	return recipe, nil
}

func (s *RecipeService) ownedRecipe(ctx context.Context, id, actorID uint) (*models.Recipe, error) {
	recipe, err := s.recipeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if recipe.AuthorID != actorID {
		return nil, models.NewForbiddenError("Only the author can modify this recipe")
	}
	return recipe, nil
}

// resolveCategories loads ids, failing when any of them is unknown.
func (s *RecipeService) resolveCategories(ctx context.Context, ids []uint) ([]models.Category, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Category{}, nil
	}
	categories, err := s.categoryRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(categories) != len(ids) {
		return nil, models.NewValidationError("Unknown category")
	}
	return categories, nil
}

// syncIndex keeps public recipes searchable and drops private ones.
func (s *RecipeService) syncIndex(ctx context.Context, recipe *models.Recipe) {
	if s.indexer == nil {
		return
	}
	if !recipe.IsPublic {
		s.removeFromIndex(ctx, recipe.ID)
		return
	}
	if err := s.indexer.IndexDocument(search.DocumentFromRecipe(recipe)); err != nil {
		observability.SearchIndexErrors.WithLabelValues("index").Inc()
		middleware.Logger.WarnContext(ctx, "Failed to index recipe",
			slog.Uint64("recipe_id", uint64(recipe.ID)),
			slog.String("error", err.Error()),
		)
	}
}

func (s *RecipeService) removeFromIndex(ctx context.Context, id uint) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.DeleteDocument(id); err != nil {
		observability.SearchIndexErrors.WithLabelValues("delete").Inc()
		middleware.Logger.WarnContext(ctx, "Failed to remove recipe from index",
			slog.Uint64("recipe_id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}
}

func validateTitle(title string) error {
	if len(title) < minTitleLen {
		return models.NewValidationError("Title must be at least 3 characters")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 120 characters)")
	}
	return nil
}

// trimAll trims every entry and drops blank ones.
func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
