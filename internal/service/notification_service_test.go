package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/arpanpramanik2003/smart-student-hub/internal/dto"
	"github.com/arpanpramanik2003/smart-student-hub/internal/models"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
)

type memoryNotificationRepo struct {
	items []models.Notification
}

func (m *memoryNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = uint(len(m.items) + 1)
	notification.CreatedAt = time.Now()
	m.items = append(m.items, *notification)
	return nil
}

func (m *memoryNotificationRepo) ListByUser(ctx context.Context, userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var out []models.Notification
	for _, item := range m.items {
		if item.UserID == userID && (!unreadOnly || !item.Read) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memoryNotificationRepo) MarkRead(ctx context.Context, id, userID uint) (models.Notification, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].UserID == userID {
			m.items[i].Read = true
			return m.items[i], nil
		}
	}
	return models.Notification{}, gorm.ErrRecordNotFound
}

var _ repository.NotificationRepository = (*memoryNotificationRepo)(nil)

func TestNotificationServicePublishSanitizesAndFansOut(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	pubsub := client.Subscribe(ctx, "ssh:notifications")
	t.Cleanup(func() { _ = pubsub.Close() })
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	repo := &memoryNotificationRepo{}
	svc := NewNotificationService(repo, client, "ssh", nil, testValidator(), testLogger())

	stream, cancel := svc.Subscribe(7)
	defer cancel()

	resp, err := svc.Publish(ctx, dto.NotificationCreateRequest{
		UserID:     7,
		ActivityID: ptrUint(3),
		Type:       models.NotificationActivityApproved,
		Message:    "<b>Hackathon</b> approved",
	})
	require.NoError(t, err)
	require.Equal(t, "Hackathon approved", resp.Message)
	require.Len(t, repo.items, 1)

	select {
	case got := <-stream:
		require.Equal(t, resp.ID, got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected local subscriber to receive notification")
	}

	msgCtx, msgCancel := context.WithTimeout(ctx, 2*time.Second)
	defer msgCancel()
	msg, err := pubsub.ReceiveMessage(msgCtx)
	require.NoError(t, err)

	var event notificationEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &event))
	require.Equal(t, uint(7), event.Notification.UserID)
}

func TestNotificationServiceHandleEventSkipsOwnNode(t *testing.T) {
	svc := NewNotificationService(&memoryNotificationRepo{}, nil, "", nil, testValidator(), testLogger()).(*notificationService)

	stream, cancel := svc.Subscribe(4)
	defer cancel()

	own, err := json.Marshal(notificationEvent{Source: svc.nodeID, Notification: dto.NotificationResponse{ID: 1, UserID: 4}})
	require.NoError(t, err)
	svc.handleEvent(own)

	remote, err := json.Marshal(notificationEvent{Source: "other-node", Notification: dto.NotificationResponse{ID: 2, UserID: 4}})
	require.NoError(t, err)
	svc.handleEvent(remote)

	select {
	case got := <-stream:
		require.Equal(t, uint(2), got.ID)
	case <-time.After(time.Second):
		t.Fatal("expected remote notification")
	}
	require.Len(t, stream, 0)
}

func TestNotificationServiceMarkReadNotFound(t *testing.T) {
	svc := NewNotificationService(&memoryNotificationRepo{}, nil, "", nil, testValidator(), testLogger())

	_, err := svc.MarkRead(context.Background(), 10, 1)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	cancelTwice := func() {
		_, cancel := svc.Subscribe(1)
		cancel()
		cancel()
	}
	require.NotPanics(t, cancelTwice)
}
