package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/repository"
)

// EventNotification is the stream frame type for notifications.
const EventNotification = "notification"

// ErrNotificationNotFound indicates the notification does not exist or
// belongs to another user.
var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService persists notifications and pushes them to per-user
// streams. An empty target user means community-wide delivery.
type NotificationService interface {
	Publish(ctx context.Context, req dto.NotificationCreateRequest) (dto.NotificationResponse, error)
	NotifyUser(ctx context.Context, userID uint, notifType, message string) error
	List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, userID string, id uint) (dto.NotificationResponse, error)
	Subscribe(userID string) (<-chan dto.StreamEvent, func())
	KeepAlive() time.Duration
}

type notificationService struct {
	notifications repository.NotificationRepository
	hub           *EventHub
	bridge        *EventBridge
	validator     *validator.Validate
	keepAlive     time.Duration
	logger        zerolog.Logger
}

// NewNotificationService wires the notification service. bridge may be nil
// for single-node deployments.
func NewNotificationService(
	notifications repository.NotificationRepository,
	hub *EventHub,
	bridge *EventBridge,
	validate *validator.Validate,
	keepAlive time.Duration,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		notifications: notifications,
		hub:           hub,
		bridge:        bridge,
		validator:     validate,
		keepAlive:     keepAlive,
		logger:        logger.With().Str("component", "notification_service").Logger(),
	}
}

// Publish persists the notification and pushes it to the target user's open
// streams, or to everyone when no target is set.
func (s *notificationService) Publish(ctx context.Context, req dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.NotificationResponse{}, err
	}

	notification := models.Notification{
		UserID:  req.UserID,
		Type:    req.Type,
		Message: req.Message,
	}

	if err := s.notifications.Create(ctx, &notification); err != nil {
		return dto.NotificationResponse{}, fmt.Errorf("failed to create notification: %w", err)
	}

	response := dto.NewNotificationResponse(notification)
	s.push(ctx, response)

	return response, nil
}

// NotifyUser is the programmatic entry point used by other services.
func (s *notificationService) NotifyUser(ctx context.Context, userID uint, notifType, message string) error {
	_, err := s.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  strconv.FormatUint(uint64(userID), 10),
		Type:    notifType,
		Message: message,
	})

	return err
}

func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]dto.NotificationResponse, error) {
	notifications, err := s.notifications.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return dto.NewNotificationResponseSlice(notifications), nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, id uint) (dto.NotificationResponse, error) {
	notification, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, fmt.Errorf("failed to mark notification read: %w", err)
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) Subscribe(userID string) (<-chan dto.StreamEvent, func()) {
	return s.hub.Subscribe(userID)
}

func (s *notificationService) KeepAlive() time.Duration {
	return s.keepAlive
}

func (s *notificationService) push(ctx context.Context, notification dto.NotificationResponse) {
	payload, err := json.Marshal(notification)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode notification event")
		return
	}

	event := dto.StreamEvent{
		Type:      EventNotification,
		Message:   notification.Message,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}

	if notification.UserID == "" {
		s.hub.Broadcast(event)
	} else {
		s.hub.BroadcastTo(notification.UserID, event)
	}

	if s.bridge != nil {
		if err := s.bridge.Publish(ctx, notification.UserID, event); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification event to bridge")
		}
	}
}
