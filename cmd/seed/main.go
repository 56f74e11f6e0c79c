// Command seed fills the database with demo users, recipes and activity.
package main

import (
	"context"
	"flag"
	"log"

	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/middleware"
	"recipebox/internal/search"
	"recipebox/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	recipesPerUser := flag.Int("recipes", defaults.RecipesPerUser, "Recipes per user")
	followPercent := flag.Int("follow", defaults.FollowPercent, "Chance (0-100) that a user follows another")
	savePercent := flag.Int("save", defaults.SavePercent, "Chance (0-100) that a user saves a public recipe")
	ratePercent := flag.Int("rate", defaults.RatePercent, "Chance (0-100) that a user rates a public recipe")
	randSeed := flag.Int64("seed", defaults.Seed, "Random seed")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// An on-disk index is updated in place; an in-memory one would be thrown
	// away, so the server rebuilds it on start instead.
	var index *search.Index
	if cfg.SearchIndexPath != "" {
		if index, err = search.Open(search.Options{DataPath: cfg.SearchIndexPath, Logger: middleware.Logger}); err != nil {
			log.Fatalf("Failed to open search index: %v", err)
		}
		defer func() { _ = index.Close() }()
	}

	ctx := context.Background()
	s := seed.NewSeeder(db, index)

	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	if _, err := s.Run(ctx, seed.Options{
		Users:          *numUsers,
		RecipesPerUser: *recipesPerUser,
		FollowPercent:  *followPercent,
		SavePercent:    *savePercent,
		RatePercent:    *ratePercent,
		Seed:           *randSeed,
	}); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
}
