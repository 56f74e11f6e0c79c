package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipebox/internal/feed"
	"recipebox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recipeEntry(r *models.Recipe) feed.Entry {
	return feed.Entry{
		ID:          r.ID,
		CreatedAt:   r.CreatedAt,
		RatingAvg:   r.RatingAvg,
		RatingCount: r.RatingCount,
		SavedCount:  r.SavedCount,
	}
}

func ptr[T any](v T) *T { return &v }

func TestRecipeRepository_ListExcludesPrivate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	author := createUser(t, db, "author")

	public := createRecipe(t, db, author)
	createRecipe(t, db, author, private())

	items, total, err := repo.List(context.Background(), feed.Query{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, public.ID, items[0].ID)
	require.NotNil(t, items[0].Author)
	assert.Equal(t, "author", items[0].Author.Username)
	assert.Empty(t, items[0].Author.Email)
}

func TestRecipeRepository_ListMinRatingIsAFloor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	author := createUser(t, db, "author")

	for _, avg := range []float64{0, 3.99, 4, 4.5, 5, 2} {
		createRecipe(t, db, author, rated(avg, 1))
	}

	items, total, err := repo.List(context.Background(), feed.Query{
		Filter: feed.Filter{MinRating: ptr(4.0)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, r := range items {
		assert.GreaterOrEqual(t, r.RatingAvg, 4.0)
	}
}

func TestRecipeRepository_ListPaginationLaw(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	saves := NewSaveRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	fan := createUser(t, db, "fan")
	for i := 0; i < 23; i++ {
		// duplicate timestamps and ratings force the id tie-breaker
		r := createRecipe(t, db, author, rated(float64(i%3), i%2), createdAt(time.Duration(i/4)*time.Hour))
		if i%5 == 0 {
			_, _, err := saves.Toggle(ctx, fan.ID, r.ID)
			require.NoError(t, err)
		}
	}

	for _, sort := range []feed.Sort{feed.SortRecent, feed.SortTop, feed.SortPopular} {
		t.Run(string(sort), func(t *testing.T) {
			q := feed.Query{Sort: sort, PageSize: 5}
			first, total, err := repo.List(ctx, q)
			require.NoError(t, err)
			require.Equal(t, int64(23), total)
			pages := feed.Pages(total, 5)
			require.Equal(t, 5, pages)

			all := append([]*models.Recipe{}, first...)
			for page := 2; page <= pages; page++ {
				q.Page = page
				items, pageTotal, err := repo.List(ctx, q)
				require.NoError(t, err)
				assert.Equal(t, total, pageTotal)
				all = append(all, items...)
			}

			require.Len(t, all, int(total))
			seen := map[uint]bool{}
			for _, r := range all {
				assert.False(t, seen[r.ID], "duplicate recipe %d", r.ID)
				seen[r.ID] = true
			}
			assert.True(t, feed.IsSorted(sort, all, recipeEntry), "pages are not in %s order", sort)
		})
	}
}

func TestRecipeRepository_ListPopularUsesSavedCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	saves := NewSaveRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	users := []*models.User{createUser(t, db, "a"), createUser(t, db, "b")}

	once := createRecipe(t, db, author, rated(5, 1))
	twice := createRecipe(t, db, author, rated(1, 1))
	never := createRecipe(t, db, author, rated(5, 3))
	for _, u := range users {
		_, _, err := saves.Toggle(ctx, u.ID, twice.ID)
		require.NoError(t, err)
	}
	_, _, err := saves.Toggle(ctx, users[0].ID, once.ID)
	require.NoError(t, err)

	items, _, err := repo.List(ctx, feed.Query{Sort: feed.SortPopular})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []uint{twice.ID, once.ID, never.ID}, []uint{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, 2, items[0].SavedCount)
}

func TestRecipeRepository_ListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	saves := NewSaveRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	dessert := createCategory(t, db, "dessert")
	vegan := createCategory(t, db, "vegan")
	other := createCategory(t, db, "other")

	cake := createRecipe(t, db, alice, inCategories(dessert))
	salad := createRecipe(t, db, bob, inCategories(vegan))
	sorbet := createRecipe(t, db, bob, inCategories(dessert, vegan))
	_, _, err := saves.Toggle(ctx, alice.ID, salad.ID)
	require.NoError(t, err)

	ids := func(items []*models.Recipe) []uint {
		out := []uint{}
		for _, r := range items {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter feed.Filter
		want   []uint
	}{
		{"category intersects", feed.Filter{CategoryIDs: []uint{dessert.ID}}, []uint{sorbet.ID, cake.ID}},
		{"category without recipes", feed.Filter{CategoryIDs: []uint{other.ID}}, []uint{}},
		{"author", feed.Filter{AuthorID: bob.ID}, []uint{sorbet.ID, salad.ID}},
		{"author set", feed.Filter{AuthorIDs: []uint{alice.ID}}, []uint{cake.ID}},
		{"empty author set", feed.Filter{AuthorIDs: []uint{}}, []uint{}},
		{"saved by", feed.Filter{SavedBy: alice.ID}, []uint{salad.ID}},
		{"and-ed axes", feed.Filter{AuthorID: bob.ID, CategoryIDs: []uint{dessert.ID}}, []uint{sorbet.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := repo.List(ctx, feed.Query{Filter: tt.filter})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(items))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestRecipeRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	ratings := NewRatingRepository(db)
	saves := NewSaveRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	fan := createUser(t, db, "fan")
	dessert := createCategory(t, db, "dessert")
	vegan := createCategory(t, db, "vegan")
	recipe := createRecipe(t, db, author, inCategories(dessert))

	recipe.Title = "Renamed"
	recipe.IsPublic = false
	require.NoError(t, repo.Update(ctx, recipe, []models.Category{vegan}))

	got, err := repo.GetByID(ctx, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.False(t, got.IsPublic)
	assert.Equal(t, []uint{vegan.ID}, got.CategoryIDs())

	_, err = ratings.Submit(ctx, recipe.ID, fan.ID, 4)
	require.NoError(t, err)
	_, _, err = saves.Toggle(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, recipe.ID))
	_, err = repo.GetByID(ctx, recipe.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	for _, model := range []interface{}{&models.RecipeRating{}, &models.RecipeSave{}} {
		var n int64
		db.Model(model).Count(&n)
		assert.Zero(t, n)
	}
	var links int64
	db.Table("recipe_categories").Count(&links)
	assert.Zero(t, links)

	err = repo.Delete(ctx, recipe.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestRecipeRepository_GetPublicByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRecipeRepository(db)
	author := createUser(t, db, "author")

	a := createRecipe(t, db, author)
	b := createRecipe(t, db, author, private())

	items, err := repo.GetPublicByIDs(context.Background(), []uint{a.ID, b.ID, 999})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, a.ID, items[0].ID)

	batch, err := repo.ListPublicAfter(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}

func TestRecipeRepository_ListStoreFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRecipeRepository(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "recipes"`).
		WillReturnError(errors.New("connection refused"))

	_, _, err := repo.List(context.Background(), feed.Query{})
	require.Error(t, err)
	assert.True(t, models.HasCode(err, models.CodeInternal))
	assert.Equal(t, 500, models.StatusFor(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "recipes.created_at DESC, recipes.id DESC", orderClause(feed.SortRecent))
	assert.Equal(t, "recipes.rating_avg DESC, recipes.rating_count DESC, recipes.created_at DESC, recipes.id DESC", orderClause(feed.SortTop))
	assert.Equal(t, "saved_count DESC, recipes.rating_avg DESC, recipes.created_at DESC, recipes.id DESC", orderClause(feed.SortPopular))
}
