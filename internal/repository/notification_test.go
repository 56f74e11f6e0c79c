package repository

import (
	"context"
	"testing"

	"recipebox/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestNotificationRepository_ReadFlags(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	var mine []*models.Notification
	for i := 0; i < 3; i++ {
		n := &models.Notification{
			UserID: alice.ID,
			Type:   models.NotificationFollow,
			Data:   datatypes.JSONMap{"fromUserId": bob.ID},
		}
		require.NoError(t, repo.Create(ctx, n))
		mine = append(mine, n)
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{UserID: bob.ID, Type: models.NotificationSystem}))

	items, total, err := repo.ListForUser(ctx, alice.ID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, mine[0].ID, items[0].ID)
	assert.Equal(t, float64(bob.ID), items[0].Data["fromUserId"])

	// not addressed to bob
	_, err = repo.MarkRead(ctx, mine[0].ID, bob.ID)
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	n, err := repo.MarkRead(ctx, mine[0].ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, n.Read)

	count, err := repo.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
