// Package seed populates the database with demo data for development. Data
// goes through the service layer so aggregates and the search index stay
// consistent with what the API would have produced.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/search"
	"recipebox/internal/service"

	"gorm.io/gorm"
)

// Options controls how much data is generated.
type Options struct {
	Users          int
	RecipesPerUser int
	// FollowPercent and SavePercent are the chances (0-100) that a given
	// user follows another user or saves a given public recipe.
	FollowPercent int
	SavePercent   int
	// RatePercent is the chance that a user rates a public recipe by someone else.
	RatePercent int
	// Seed makes runs reproducible. Zero picks a fixed default.
	Seed int64
}

// DefaultOptions returns a small, well-connected data set.
func DefaultOptions() Options {
	return Options{
		Users:          20,
		RecipesPerUser: 4,
		FollowPercent:  25,
		SavePercent:    10,
		RatePercent:    30,
		Seed:           42,
	}
}

// Stats reports what a run created.
type Stats struct {
	Users      int
	Categories int
	Recipes    int
	Follows    int
	Saves      int
	Ratings    int
}

// Seeder creates demo data through the service layer.
type Seeder struct {
	db         *gorm.DB
	users      *service.UserService
	categories *service.CategoryService
	recipes    *service.RecipeService
	social     *service.SocialService
	ratings    *service.RatingService
}

// NewSeeder wires the services against db. index may be nil, in which case
// the server rebuilds the search index on its next start.
func NewSeeder(db *gorm.DB, index *search.Index) *Seeder {
	userRepo := repository.NewUserRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)

	var indexer service.RecipeIndexer
	if index != nil {
		indexer = index
	}

	// no emitter: seeded activity does not produce notifications
	return &Seeder{
		db:         db,
		users:      service.NewUserService(userRepo),
		categories: service.NewCategoryService(categoryRepo),
		recipes:    service.NewRecipeService(recipeRepo, categoryRepo, indexer),
		social: service.NewSocialService(userRepo, repository.NewFollowRepository(db),
			repository.NewSaveRepository(db), nil),
		ratings: service.NewRatingService(repository.NewRatingRepository(db), nil),
	}
}

// ClearAll deletes every row of every application table.
func (s *Seeder) ClearAll(ctx context.Context) error {
	middleware.Logger.Info("Clearing existing data")
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		return db.Exec(`TRUNCATE TABLE notifications, comments, recipe_saves, recipe_ratings,
			recipe_categories, recipes, categories, follows, users RESTART IDENTITY CASCADE`).Error
	}
	for _, table := range []string{
		"notifications", "comments", "recipe_saves", "recipe_ratings",
		"recipe_categories", "recipes", "categories", "follows", "users",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run generates users, categories, recipes and the social graph around them.
func (s *Seeder) Run(ctx context.Context, opts Options) (Stats, error) {
	if opts.Seed == 0 {
		opts.Seed = DefaultOptions().Seed
	}
	f := newFactory(opts.Seed)
	var stats Stats

	categoryIDs, err := s.seedCategories(ctx)
	if err != nil {
		return stats, err
	}
	stats.Categories = len(categoryIDs)

	users := make([]*models.User, 0, opts.Users)
	for i := 0; i < opts.Users; i++ {
		user, err := s.users.Register(ctx, f.register(i+1))
		if err != nil {
			return stats, fmt.Errorf("register user %d: %w", i+1, err)
		}
		bio := f.bio()
		if _, err := s.users.UpdateProfile(ctx, service.UpdateProfileInput{UserID: user.ID, Bio: &bio}); err != nil {
			return stats, fmt.Errorf("update profile: %w", err)
		}
		users = append(users, user)
	}
	stats.Users = len(users)

	var public []*models.Recipe
	for _, user := range users {
		for j := 0; j < opts.RecipesPerUser; j++ {
			recipe, err := s.recipes.CreateRecipe(ctx, f.recipe(user.ID, categoryIDs))
			if err != nil {
				return stats, fmt.Errorf("create recipe: %w", err)
			}
			stats.Recipes++
			if recipe.IsPublic {
				public = append(public, recipe)
			}
		}
	}

	for _, follower := range users {
		for _, target := range users {
			if follower.ID == target.ID || !f.chance(opts.FollowPercent) {
				continue
			}
			if _, err := s.social.Follow(ctx, follower.ID, target.ID); err != nil {
				return stats, fmt.Errorf("follow: %w", err)
			}
			stats.Follows++
		}
	}

	for _, user := range users {
		for _, recipe := range public {
			if f.chance(opts.SavePercent) {
				if _, err := s.social.ToggleSave(ctx, user.ID, recipe.ID); err != nil {
					return stats, fmt.Errorf("save: %w", err)
				}
				stats.Saves++
			}
			if recipe.AuthorID != user.ID && f.chance(opts.RatePercent) {
				if _, err := s.ratings.SubmitRating(ctx, recipe.ID, user.ID, f.rating()); err != nil {
					return stats, fmt.Errorf("rate: %w", err)
				}
				stats.Ratings++
			}
		}
	}

	middleware.Logger.Info("Seeding completed",
		slog.Int("users", stats.Users),
		slog.Int("categories", stats.Categories),
		slog.Int("recipes", stats.Recipes),
		slog.Int("follows", stats.Follows),
		slog.Int("saves", stats.Saves),
		slog.Int("ratings", stats.Ratings),
	)
	return stats, nil
}

// seedCategories creates the built-in categories, keeping any that exist.
func (s *Seeder) seedCategories(ctx context.Context) ([]uint, error) {
	existing, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	bySlug := make(map[string]uint, len(existing))
	for _, c := range existing {
		bySlug[c.Slug] = c.ID
	}

	ids := make([]uint, 0, len(Categories))
	for _, in := range Categories {
		if id, ok := bySlug[in.Slug]; ok {
			ids = append(ids, id)
			continue
		}
		category, err := s.categories.CreateCategory(ctx, in)
		if err != nil {
			if models.HasCode(err, models.CodeConflict) {
				continue
			}
			return nil, fmt.Errorf("create category %s: %w", in.Slug, err)
		}
		ids = append(ids, category.ID)
	}
	if len(ids) == 0 {
		return nil, errors.New("no categories available")
	}
	return ids, nil
}
