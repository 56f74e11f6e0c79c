package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix = "user:%d"
	CategoriesKey = "categories:all"
)

const (
	UserTTL       = 5 * time.Minute
	CategoriesTTL = 30 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateUser drops the cached profile, including its follower counts.
func InvalidateUser(ctx context.Context, userIDs ...uint) {
	for _, id := range userIDs {
		Invalidate(ctx, UserKey(id))
	}
}

func InvalidateCategories(ctx context.Context) {
	Invalidate(ctx, CategoriesKey)
}
