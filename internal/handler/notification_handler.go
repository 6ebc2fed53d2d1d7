package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// NotificationHandler exposes notification listing, publishing and the
// per-user stream.
type NotificationHandler struct {
	notifications service.NotificationService
	logger        zerolog.Logger
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		logger:        logger.With().Str("component", "notification_handler").Logger(),
	}
}

// List handles GET /notifications for the authenticated user.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)

	userID := strconv.FormatUint(uint64(actor.UserID), 10)
	notifications, err := h.notifications.List(c.Context(), userID, limit, offset)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notifications retrieved", notifications)
}

// Publish handles POST /notifications (staff only).
func (h *NotificationHandler) Publish(c *fiber.Ctx) error {
	var req dto.NotificationCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	notification, err := h.notifications.Publish(c.Context(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "notification published", notification)
}

// MarkRead handles PATCH /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	userID := strconv.FormatUint(uint64(actor.UserID), 10)
	notification, err := h.notifications.MarkRead(c.Context(), userID, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "notification marked read", notification)
}

// Stream handles GET /notifications/stream as server-sent events keyed to
// the authenticated user.
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	userID := strconv.FormatUint(uint64(actor.UserID), 10)
	events, cancel := h.notifications.Subscribe(userID)

	return streamEvents(c, events, cancel, h.notifications.KeepAlive())
}
