package service_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/repository"
	"github.com/noah-isme/seka-portal-api/internal/service"
)

func setupChatService(t *testing.T) (service.ChatService, *service.EventHub) {
	t.Helper()

	db := openTestDB(t)
	hub := service.NewEventHub("chat", testLogger())

	svc := service.NewChatService(
		repository.NewChatRepository(db),
		repository.NewStudentRepository(db),
		hub,
		nil,
		newTestValidator(),
		30*time.Second,
		testLogger(),
	)

	return svc, hub
}

func TestChatService_PostPersistsAndBroadcasts(t *testing.T) {
	svc, _ := setupChatService(t)

	events, cancel := svc.Subscribe()
	defer cancel()

	actor := service.Actor{UserID: 7, Role: models.RoleStudent}
	resp, err := svc.Post(context.Background(), actor, "Budi", dto.ChatSendRequest{Content: "hello everyone"})
	require.NoError(t, err)
	require.Equal(t, "hello everyone", resp.Content)
	require.Equal(t, "7", resp.SenderID)
	require.Equal(t, "Budi", resp.SenderName)
	require.Equal(t, "text", resp.Type)

	select {
	case event := <-events:
		require.Equal(t, service.EventChatMessage, event.Type)

		var message dto.ChatMessageResponse
		require.NoError(t, json.Unmarshal(event.Data, &message))
		require.Equal(t, resp.ID, message.ID)
	case <-time.After(time.Second):
		t.Fatal("chat event was not broadcast")
	}
}

func TestChatService_PostStripsHTML(t *testing.T) {
	svc, _ := setupChatService(t)

	actor := service.Actor{UserID: 7, Role: models.RoleStudent}
	resp, err := svc.Post(context.Background(), actor, "Budi", dto.ChatSendRequest{
		Content: `hi <script>alert("xss")</script>there`,
	})
	require.NoError(t, err)
	require.NotContains(t, resp.Content, "<script>")
	require.Contains(t, resp.Content, "hi")
}

func TestChatService_PostRejectsEmptyAfterSanitize(t *testing.T) {
	svc, _ := setupChatService(t)

	actor := service.Actor{UserID: 7, Role: models.RoleStudent}
	_, err := svc.Post(context.Background(), actor, "Budi", dto.ChatSendRequest{Content: "<b></b>"})
	require.Error(t, err)
}

func TestChatService_HistoryChronological(t *testing.T) {
	svc, _ := setupChatService(t)

	actor := service.Actor{UserID: 7, Role: models.RoleStudent}
	for _, content := range []string{"first", "second", "third"} {
		_, err := svc.Post(context.Background(), actor, "Budi", dto.ChatSendRequest{Content: content})
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	history, err := svc.History(context.Background(), dto.ChatHistoryQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, "first", history[0].Content)
	require.Equal(t, "third", history[2].Content)
}

func TestChatService_HistoryBeforeCursor(t *testing.T) {
	svc, _ := setupChatService(t)

	actor := service.Actor{UserID: 7, Role: models.RoleStudent}
	_, err := svc.Post(context.Background(), actor, "Budi", dto.ChatSendRequest{Content: "old"})
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(10 * time.Millisecond)

	_, err = svc.Post(context.Background(), actor, "Budi", dto.ChatSendRequest{Content: "new"})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), dto.ChatHistoryQuery{Before: &cutoff, Limit: 10})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "old", history[0].Content)
}
