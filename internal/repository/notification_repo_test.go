package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
)

func TestNotificationRepositoryMarkReadScopesByUser(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)

	mine := models.Notification{UserID: 7, Type: models.NotificationActivityApproved, Message: "approved"}
	theirs := models.Notification{UserID: 8, Type: models.NotificationActivityRejected, Message: "rejected"}
	require.NoError(t, repo.Create(context.Background(), &mine))
	require.NoError(t, repo.Create(context.Background(), &theirs))

	_, err := repo.MarkRead(context.Background(), theirs.ID, 7)
	require.True(t, IsNotFound(err))

	updated, err := repo.MarkRead(context.Background(), mine.ID, 7)
	require.NoError(t, err)
	require.True(t, updated.Read)

	unread, err := repo.ListByUser(context.Background(), 7, true, 0, 0)
	require.NoError(t, err)
	require.Empty(t, unread)

	all, err := repo.ListByUser(context.Background(), 7, false, 10, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAuditLogRepositoryListFilters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAuditLogRepository(db)

	entityID := uint(3)
	entries := []models.ActivityLog{
		{ActorID: 1, ActorRole: "faculty", Action: "activity.approved", EntityType: "activity", EntityID: &entityID},
		{ActorID: 1, ActorRole: "faculty", Action: "activity.rejected", EntityType: "activity"},
		{ActorID: 2, ActorRole: "admin", Action: "user.created", EntityType: "user"},
	}
	for i := range entries {
		require.NoError(t, repo.Create(context.Background(), &entries[i]))
	}

	actor := uint(1)
	items, total, err := repo.List(context.Background(), AuditLogFilter{ActorID: &actor, PageSize: 1})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)

	items, total, err = repo.List(context.Background(), AuditLogFilter{EntityType: "activity", EntityID: &entityID})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "activity.approved", items[0].Action)
}
