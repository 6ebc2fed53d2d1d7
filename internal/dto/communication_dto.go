package dto

import (
	"encoding/json"
	"time"

	"github.com/noah-isme/seka-portal-api/internal/models"
)

// StreamEvent is the frame shape written to every SSE client.
type StreamEvent struct {
	Type      string          `json:"type"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// ChatSendRequest is the payload for posting a chat message.
type ChatSendRequest struct {
	Content string `json:"content" validate:"required,min=1,max=2000"`
	Type    string `json:"type" validate:"omitempty,oneof=text system"`
}

// ChatHistoryQuery filters the chat history listing.
type ChatHistoryQuery struct {
	Before *time.Time `query:"before"`
	Limit  int        `query:"limit" validate:"omitempty,gte=1,lte=200"`
}

// ChatMessageResponse serialises a chat message.
type ChatMessageResponse struct {
	ID         uint      `json:"id"`
	SenderID   string    `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Content    string    `json:"content"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewChatMessageResponse converts a chat message model into a DTO.
func NewChatMessageResponse(model models.ChatMessage) ChatMessageResponse {
	return ChatMessageResponse{
		ID:         model.ID,
		SenderID:   model.SenderID,
		SenderName: model.SenderName,
		Content:    model.Content,
		Type:       model.Type,
		CreatedAt:  model.CreatedAt,
	}
}

// NewChatMessageResponseSlice converts chat message models into DTOs.
func NewChatMessageResponseSlice(messages []models.ChatMessage) []ChatMessageResponse {
	responses := make([]ChatMessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, NewChatMessageResponse(message))
	}

	return responses
}

// NotificationCreateRequest publishes a notification. An empty UserID
// broadcasts to the whole community.
type NotificationCreateRequest struct {
	UserID  string `json:"user_id" validate:"omitempty,max=64"`
	Type    string `json:"type" validate:"required,max=64"`
	Message string `json:"message" validate:"required,min=1"`
}

// NotificationResponse serialises a notification.
type NotificationResponse struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// NewNotificationResponse converts a notification model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Type:      model.Type,
		Message:   model.Message,
		Read:      model.Read,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts notification models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, NewNotificationResponse(notification))
	}

	return responses
}
