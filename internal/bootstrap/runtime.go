// Package bootstrap wires the process-wide runtime: database, Redis and the
// search index.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/database"
	"recipebox/internal/middleware"
	"recipebox/internal/repository"
	"recipebox/internal/search"
	"recipebox/internal/service"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Runtime holds the connections shared by the server and the CLI tools.
// Redis is nil when the server is unreachable.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	Index *search.Index
}

// InitRuntime connects to the database and Redis, opens the search index and
// ensures the development admin account.
func InitRuntime(cfg *config.Config) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	rdb := cache.GetClient()

	index, err := search.Open(search.Options{
		DataPath: cfg.SearchIndexPath,
		Logger:   middleware.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	if err := ensureDevAdmin(context.Background(), cfg, db); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to bootstrap development admin: %w", err)
	}

	return &Runtime{DB: db, Redis: rdb, Index: index}, nil
}

// ensureDevAdmin creates DEV_ADMIN_EMAIL as an admin in development so the
// category endpoints can be exercised locally.
func ensureDevAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB) error {
	if !strings.EqualFold(cfg.Env, "development") {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.DevAdminEmail))
	if email == "" || cfg.DevAdminPassword == "" {
		return nil
	}

	username := "admin"
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		username = local
	}

	users := service.NewUserService(repository.NewUserRepository(db))
	user, created, err := users.EnsureAdmin(ctx, username, email, cfg.DevAdminPassword)
	if err != nil {
		return err
	}
	if created {
		middleware.Logger.Info("Development admin created",
			slog.Uint64("user_id", uint64(user.ID)),
			slog.String("email", email))
	}
	return nil
}
