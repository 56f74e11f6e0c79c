package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestAside_FetchesOnceThenServesFromCache(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			calls++
			*dest = cachedUser{ID: 7, Username: "chef"}
			return nil
		}
	}

	var first cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "chef", first.Username)
	assert.True(t, mr.Exists("user:7"))

	var second cachedUser
	require.NoError(t, Aside(ctx, UserKey(7), &second, UserTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
	assert.Equal(t, UserTTL, mr.TTL("user:7"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	boom := errors.New("boom")

	var dest cachedUser
	err := Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("user:1"))
}

func TestAside_WithoutClientCallsFetch(t *testing.T) {
	SetClient(nil)

	calls := 0
	var dest cachedUser
	require.NoError(t, Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		calls++
		return nil
	}))
	require.NoError(t, Aside(context.Background(), UserKey(1), &dest, UserTTL, func() error {
		calls++
		return nil
	}))
	assert.Equal(t, 2, calls)
}

func TestInvalidateUser(t *testing.T) {
	mr := setupMiniredis(t)
	require.NoError(t, mr.Set("user:1", "{}"))
	require.NoError(t, mr.Set("user:2", "{}"))
	require.NoError(t, mr.Set(CategoriesKey, "[]"))

	InvalidateUser(context.Background(), 1, 2)
	InvalidateCategories(context.Background())

	assert.False(t, mr.Exists("user:1"))
	assert.False(t, mr.Exists("user:2"))
	assert.False(t, mr.Exists(CategoriesKey))
}
