package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/repository"
	"github.com/noah-isme/seka-portal-api/internal/service"
)

func setupNotificationService(t *testing.T) service.NotificationService {
	t.Helper()

	db := openTestDB(t)
	hub := service.NewEventHub("notifications", testLogger())

	return service.NewNotificationService(
		repository.NewNotificationRepository(db),
		hub,
		nil,
		newTestValidator(),
		30*time.Second,
		testLogger(),
	)
}

func TestNotificationService_TargetedDelivery(t *testing.T) {
	svc := setupNotificationService(t)

	alice, cancelAlice := svc.Subscribe("1")
	bob, cancelBob := svc.Subscribe("2")
	defer cancelAlice()
	defer cancelBob()

	resp, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "1",
		Type:    "portfolio_evaluated",
		Message: "your work was graded",
	})
	require.NoError(t, err)
	require.Equal(t, "1", resp.UserID)
	require.False(t, resp.Read)

	select {
	case event := <-alice:
		require.Equal(t, service.EventNotification, event.Type)
		require.Equal(t, "your work was graded", event.Message)
	case <-time.After(time.Second):
		t.Fatal("targeted notification was not delivered")
	}

	select {
	case <-bob:
		t.Fatal("notification leaked to another user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationService_CommunityWideDelivery(t *testing.T) {
	svc := setupNotificationService(t)

	alice, cancelAlice := svc.Subscribe("1")
	bob, cancelBob := svc.Subscribe("2")
	defer cancelAlice()
	defer cancelBob()

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Type:    "announcement",
		Message: "school closed tomorrow",
	})
	require.NoError(t, err)

	for _, ch := range []<-chan dto.StreamEvent{alice, bob} {
		select {
		case event := <-ch:
			require.Equal(t, "school closed tomorrow", event.Message)
		case <-time.After(time.Second):
			t.Fatal("community notification was not delivered to all users")
		}
	}
}

func TestNotificationService_ListIncludesCommunityWide(t *testing.T) {
	svc := setupNotificationService(t)

	require.NoError(t, svc.NotifyUser(context.Background(), 1, "grade", "personal"))

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		Type:    "announcement",
		Message: "for everyone",
	})
	require.NoError(t, err)

	mine, err := svc.List(context.Background(), "1", 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	others, err := svc.List(context.Background(), "99", 20, 0)
	require.NoError(t, err)
	require.Len(t, others, 1)
	require.Equal(t, "for everyone", others[0].Message)
}

func TestNotificationService_MarkRead(t *testing.T) {
	svc := setupNotificationService(t)

	created, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  "1",
		Type:    "grade",
		Message: "graded",
	})
	require.NoError(t, err)

	read, err := svc.MarkRead(context.Background(), "1", created.ID)
	require.NoError(t, err)
	require.True(t, read.Read)

	// Marking again is a no-op, not an error.
	again, err := svc.MarkRead(context.Background(), "1", created.ID)
	require.NoError(t, err)
	require.True(t, again.Read)

	// Another user cannot mark it.
	_, err = svc.MarkRead(context.Background(), "2", created.ID)
	require.ErrorIs(t, err, service.ErrNotificationNotFound)
}
