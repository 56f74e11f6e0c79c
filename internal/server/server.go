// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"recipebox/internal/bootstrap"
	"recipebox/internal/config"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/repository"
	"recipebox/internal/search"
	"recipebox/internal/service"
	"recipebox/internal/upload"
	"recipebox/internal/validation"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	index          *search.Index
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens    *middleware.TokenManager
	validator *validation.Validator
	uploads   *upload.Store
	notifier  *notifications.Notifier
	hub       *notifications.Hub

	userService         *service.UserService
	profileService      *service.ProfileService
	socialService       *service.SocialService
	ratingService       *service.RatingService
	feedService         *service.FeedService
	recipeService       *service.RecipeService
	categoryService     *service.CategoryService
	commentService      *service.CommentService
	notificationService *service.NotificationService
	searchService       *service.SearchService
}

// NewServer connects every backing service described by cfg and returns a
// ready Server.
func NewServer(cfg *config.Config) (*Server, error) {
	rt, err := bootstrap.InitRuntime(cfg)
	if err != nil {
		return nil, err
	}
	return NewServerWithDeps(cfg, rt.DB, rt.Redis, rt.Index)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient and index may be nil; the server then runs without cache,
// live notifications or full-text search respectively.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, index *search.Index) (*Server, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	saveRepo := repository.NewSaveRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		index:          index,
		promMiddleware: middleware.InitMetrics("recipebox-api"),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn, redisClient),
		validator:      validation.New(),
		uploads:        upload.NewStore(cfg.UploadDir, cfg.UploadMaxBytes, cfg.UploadMaxFiles),
	}

	// Initialize notifier and hub if Redis is available
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
		server.hub = notifications.NewHub()
	}
	var publisher notifications.Publisher
	if server.notifier != nil {
		publisher = server.notifier
	}
	emitter := notifications.NewEmitter(notificationRepo, publisher)

	var indexer service.RecipeIndexer
	var searchIndex service.SearchIndex
	if index != nil {
		indexer = index
		searchIndex = index
	}

	server.userService = service.NewUserService(userRepo)
	server.feedService = service.NewFeedService(recipeRepo, userRepo, followRepo)
	server.profileService = service.NewProfileService(userRepo, followRepo, server.feedService)
	server.socialService = service.NewSocialService(userRepo, followRepo, saveRepo, emitter)
	server.ratingService = service.NewRatingService(ratingRepo, emitter)
	server.recipeService = service.NewRecipeService(recipeRepo, categoryRepo, indexer)
	server.categoryService = service.NewCategoryService(categoryRepo)
	server.commentService = service.NewCommentService(commentRepo, recipeRepo, emitter, server.userService.IsAdmin)
	server.notificationService = service.NewNotificationService(notificationRepo)
	server.searchService = service.NewSearchService(userRepo, recipeRepo, searchIndex)

	return server, nil
}

// RebuildSearchIndex fills an empty search index from the store.
func (s *Server) RebuildSearchIndex(ctx context.Context) error {
	if _, err := s.searchService.RebuildIndex(ctx); err != nil {
		return fmt.Errorf("rebuild search index: %w", err)
	}
	return nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())
	app.Use(middleware.TracingMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		// uploaded images are embedded by the web client on another origin
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static(upload.PublicPrefix, s.uploads.Dir(), fiber.Static{
		ByteRange: true,
		MaxAge:    3600,
	})

	api := app.Group("/api")
	required := s.tokens.Required()
	optional := s.tokens.Optional()

	users := api.Group("/users")
	authLimit := middleware.RateLimit(s.redis, 20, 15*time.Minute, "auth")
	users.Post("/register", authLimit, s.Register)
	users.Post("/login", authLimit, s.Login)
	users.Post("/logout", optional, s.Logout)
	users.Get("/me", required, s.GetMe)
	users.Put("/me", required, s.UpdateMe)
	users.Post("/:id/follow", required, s.FollowUser)
	users.Delete("/:id/follow", required, s.UnfollowUser)
	users.Get("/:username", optional, s.GetPublicProfile)

	recipes := api.Group("/recipes")
	recipes.Get("/", optional, s.ListRecipes)
	recipes.Post("/", required, s.CreateRecipe)
	recipes.Get("/me/saved/list", required, s.GetMySavedRecipes)
	recipes.Get("/:id", optional, s.GetRecipe)
	recipes.Put("/:id", required, s.UpdateRecipe)
	recipes.Delete("/:id", required, s.DeleteRecipe)
	recipes.Post("/:id/rate", required,
		middleware.RateLimit(s.redis, 30, time.Minute, "rate"), s.RateRecipe)
	recipes.Post("/:id/save", required, s.ToggleSave)
	recipes.Get("/:id/comments", optional, s.GetComments)
	recipes.Post("/:id/comments", required,
		middleware.RateLimit(s.redis, 10, time.Minute, "comment"), s.CreateComment)

	api.Delete("/comments/:id", required, s.DeleteComment)

	categories := api.Group("/categories")
	categories.Get("/", s.ListCategories)
	categories.Post("/", required, s.AdminRequired(), s.CreateCategory)
	categories.Put("/:id", required, s.AdminRequired(), s.UpdateCategory)
	categories.Delete("/:id", required, s.AdminRequired(), s.DeleteCategory)

	notificationRoutes := api.Group("/notifications", required)
	notificationRoutes.Get("/", s.GetNotifications)
	notificationRoutes.Patch("/read-all", s.MarkAllNotificationsRead)
	notificationRoutes.Patch("/:id/read", s.MarkNotificationRead)

	api.Get("/search", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.Search)

	api.Get("/ws", required, s.upgradeRequired, s.NotificationSocket())
}

func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck pings the database and Redis. A missing Redis client is
// reported but does not fail readiness; the API degrades without it.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AdminRequired must run after the token middleware.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, err := s.userService.IsAdmin(c.UserContext(), middleware.CurrentUserID(c))
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authentication required"))
			}
			return models.RespondWithAppError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

// App returns the Fiber application with middleware and routes installed,
// building it on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimit := 4 * 1024 * 1024
	if s.config.UploadMaxBytes > 0 && s.config.UploadMaxFiles > 0 {
		// room for every image plus the text fields
		bodyLimit = int(s.config.UploadMaxBytes)*s.config.UploadMaxFiles + 1024*1024
	}

	app := fiber.New(fiber.Config{
		AppName:   "Recipebox API",
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "Unhandled request error",
				slog.String("path", c.Path()), slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	s.app = app
	return app
}

// Start wires live notifications and serves HTTP until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := s.App()

	if s.notifier != nil && s.hub != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("Failed to start notification wiring",
				slog.String("hub", s.hub.Name()), slog.String("error", err.Error()))
		}
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	if s.hub != nil {
		if err := s.hub.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down hub", slog.String("error", err.Error()))
		}
	}

	if s.index != nil {
		if err := s.index.Close(); err != nil {
			middleware.Logger.Error("error closing search index", slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("Server shutdown complete")
	return nil
}
