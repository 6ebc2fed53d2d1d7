package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/websocket/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/repository"
)

// EventChatMessage is the stream frame type for chat messages.
const EventChatMessage = "chat_message"

// ChatService persists community chat messages and fans them out to every
// open stream.
type ChatService interface {
	Post(ctx context.Context, actor Actor, senderName string, req dto.ChatSendRequest) (dto.ChatMessageResponse, error)
	History(ctx context.Context, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error)
	Subscribe() (<-chan dto.StreamEvent, func())
	ServeWebsocket(conn *websocket.Conn, actor Actor, senderName string)
	KeepAlive() time.Duration
}

type chatService struct {
	messages  repository.ChatRepository
	students  repository.StudentRepository
	hub       *EventHub
	bridge    *EventBridge
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	keepAlive time.Duration
	logger    zerolog.Logger
}

// NewChatService wires the chat service. bridge may be nil for single-node
// deployments.
func NewChatService(
	messages repository.ChatRepository,
	students repository.StudentRepository,
	hub *EventHub,
	bridge *EventBridge,
	validate *validator.Validate,
	keepAlive time.Duration,
	logger zerolog.Logger,
) ChatService {
	return &chatService{
		messages:  messages,
		students:  students,
		hub:       hub,
		bridge:    bridge,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		keepAlive: keepAlive,
		logger:    logger.With().Str("component", "chat_service").Logger(),
	}
}

// Post sanitizes, persists and broadcasts one chat message. Persistence
// failures abort the post; broadcast is best-effort.
func (s *chatService) Post(ctx context.Context, actor Actor, senderName string, req dto.ChatSendRequest) (dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.ChatMessageResponse{}, err
	}

	content := strings.TrimSpace(s.sanitizer.Sanitize(req.Content))
	if content == "" {
		return dto.ChatMessageResponse{}, fmt.Errorf("message content is empty after sanitization")
	}

	messageType := req.Type
	if messageType == "" {
		messageType = "text"
	}

	if senderName == "" || senderName == "anonymous" {
		senderName = s.resolveSenderName(ctx, actor.UserID, senderName)
	}

	message := models.ChatMessage{
		SenderID:   strconv.FormatUint(uint64(actor.UserID), 10),
		SenderName: senderName,
		Content:    content,
		Type:       messageType,
	}

	if err := s.messages.Save(ctx, &message); err != nil {
		return dto.ChatMessageResponse{}, fmt.Errorf("failed to save chat message: %w", err)
	}

	response := dto.NewChatMessageResponse(message)
	s.broadcast(ctx, response)

	return response, nil
}

func (s *chatService) History(ctx context.Context, query dto.ChatHistoryQuery) ([]dto.ChatMessageResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, err
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}

	messages, err := s.messages.ListRecent(ctx, before, query.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}

	// Reverse into chronological order for the client.
	responses := make([]dto.ChatMessageResponse, len(messages))
	for i, message := range messages {
		responses[len(messages)-1-i] = dto.NewChatMessageResponse(message)
	}

	return responses, nil
}

func (s *chatService) Subscribe() (<-chan dto.StreamEvent, func()) {
	return s.hub.Subscribe("")
}

func (s *chatService) KeepAlive() time.Duration {
	return s.keepAlive
}

// ServeWebsocket runs one websocket session: inbound frames are posted as
// chat messages, hub events are written out, and pings keep the connection
// alive. Returns when either direction fails.
func (s *chatService) ServeWebsocket(conn *websocket.Conn, actor Actor, senderName string) {
	events, cancel := s.hub.Subscribe("")
	defer cancel()

	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			var req dto.ChatSendRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}

			ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Second)
			if _, err := s.Post(ctx, actor, senderName, req); err != nil {
				s.logger.Warn().Err(err).Str("sender", senderName).Msg("websocket chat post rejected")
			}
			ctxCancel()
		}
	}()

	ticker := time.NewTicker(s.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// resolveSenderName falls back to the student record when the token carried
// no display name.
func (s *chatService) resolveSenderName(ctx context.Context, userID uint, fallback string) string {
	if s.students == nil {
		if fallback == "" {
			return "anonymous"
		}
		return fallback
	}

	student, err := s.students.GetByID(ctx, userID)
	if err != nil || student.Name == "" {
		if fallback == "" {
			return "anonymous"
		}
		return fallback
	}

	return student.Name
}

func (s *chatService) broadcast(ctx context.Context, message dto.ChatMessageResponse) {
	payload, err := json.Marshal(message)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode chat event")
		return
	}

	event := dto.StreamEvent{
		Type:      EventChatMessage,
		Message:   "new chat message",
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}

	s.hub.Broadcast(event)

	if s.bridge != nil {
		if err := s.bridge.Publish(ctx, "", event); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish chat event to bridge")
		}
	}
}
