package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"recipebox/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingRepository_Submit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	u1 := createUser(t, db, "u1")
	u2 := createUser(t, db, "u2")
	recipe := createRecipe(t, db, author)

	res, err := repo.Submit(ctx, recipe.ID, u1.ID, 5)
	require.NoError(t, err)
	assert.True(t, res.First)
	assert.Equal(t, author.ID, res.AuthorID)
	assert.Equal(t, 5.0, res.Avg)
	assert.Equal(t, 1, res.Count)

	res, err = repo.Submit(ctx, recipe.ID, u2.ID, 3)
	require.NoError(t, err)
	assert.True(t, res.First)
	assert.Equal(t, 4.0, res.Avg)
	assert.Equal(t, 2, res.Count)

	// re-rate overwrites in place
	res, err = repo.Submit(ctx, recipe.ID, u1.ID, 1)
	require.NoError(t, err)
	assert.False(t, res.First)
	assert.Equal(t, 2.0, res.Avg)
	assert.Equal(t, 2, res.Count)

	var stored models.Recipe
	require.NoError(t, db.First(&stored, recipe.ID).Error)
	assert.Equal(t, 2.0, stored.RatingAvg)
	assert.Equal(t, 2, stored.RatingCount)

	var rows int64
	db.Model(&models.RecipeRating{}).Where("recipe_id = ?", recipe.ID).Count(&rows)
	assert.Equal(t, int64(2), rows)

	value, ok, err := repo.Get(ctx, recipe.ID, u1.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, value)
}

func TestRatingRepository_SubmitCountTracksDistinctRaters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	recipe := createRecipe(t, db, author)

	values := []int{5, 4, 4, 2, 1}
	sum := 0
	for i, v := range values {
		u := createUser(t, db, "rater"+string(rune('a'+i)))
		sum += v
		res, err := repo.Submit(ctx, recipe.ID, u.ID, v)
		require.NoError(t, err)
		assert.Equal(t, i+1, res.Count)
		assert.InDelta(t, float64(sum)/float64(i+1), res.Avg, 0.005)
	}
}

func TestRatingRepository_SubmitMissingRecipe(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRatingRepository(db)
	u := createUser(t, db, "u1")

	_, err := repo.Submit(context.Background(), 999, u.ID, 4)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestRatingRepository_SubmitLocksRecipeRowOnPostgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRatingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM "recipes" WHERE .+ FOR UPDATE`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), 1, 2, 5)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRatingRepository_SubmitStoreFailureRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRatingRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "author_id"}).AddRow(1, 9))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "recipe_ratings"`)).
		WillReturnError(errors.New("timeout"))
	mock.ExpectRollback()

	_, err := repo.Submit(context.Background(), 1, 2, 5)
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.NoError(t, mock.ExpectationsWereMet())
}
