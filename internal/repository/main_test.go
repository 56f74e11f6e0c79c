package repository

import (
	"fmt"
	"testing"
	"time"

	"recipebox/internal/database"
	"recipebox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		Role:     models.RoleUser,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

type recipeOpt func(*models.Recipe)

func private() recipeOpt { return func(r *models.Recipe) { r.IsPublic = false } }

func rated(avg float64, count int) recipeOpt {
	return func(r *models.Recipe) {
		r.RatingAvg = avg
		r.RatingCount = count
	}
}

func createdAt(offset time.Duration) recipeOpt {
	return func(r *models.Recipe) { r.CreatedAt = baseTime.Add(offset) }
}

func inCategories(cats ...models.Category) recipeOpt {
	return func(r *models.Recipe) { r.Categories = cats }
}

func createRecipe(t *testing.T, db *gorm.DB, author *models.User, opts ...recipeOpt) *models.Recipe {
	t.Helper()
	var n int64
	db.Model(&models.Recipe{}).Count(&n)
	r := &models.Recipe{
		AuthorID:    author.ID,
		Title:       fmt.Sprintf("Recipe %d", n+1),
		Ingredients: []string{"salt"},
		Steps:       []string{"cook"},
		IsPublic:    true,
		CreatedAt:   baseTime.Add(time.Duration(n) * time.Minute),
	}
	for _, opt := range opts {
		opt(r)
	}
	require.NoError(t, db.Create(r).Error)
	return r
}

func createCategory(t *testing.T, db *gorm.DB, name string) models.Category {
	t.Helper()
	c := models.Category{Name: name, Slug: name}
	require.NoError(t, db.Create(&c).Error)
	return c
}
