package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// AnnouncementHandler exposes the announcement endpoints.
type AnnouncementHandler struct {
	announcements service.AnnouncementService
	logger        zerolog.Logger
}

// NewAnnouncementHandler constructs the handler.
func NewAnnouncementHandler(announcements service.AnnouncementService, logger zerolog.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{
		announcements: announcements,
		logger:        logger.With().Str("component", "announcement_handler").Logger(),
	}
}

// List handles GET /announcements. Students see published entries only;
// staff may pass all=true to include drafts.
func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	publishedOnly := true
	if c.Query("all") == "true" && actor.Role != "" && actor.Role != "student" {
		publishedOnly = false
	}

	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 20)

	listing, err := h.announcements.List(c.Context(), page, pageSize, publishedOnly)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "announcements retrieved", listing)
}

// Get handles GET /announcements/:id.
func (h *AnnouncementHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	announcement, err := h.announcements.Get(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "announcement retrieved", announcement)
}

// Create handles POST /announcements (staff only).
func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	var req dto.AnnouncementCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	announcement, err := h.announcements.Create(c.Context(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "announcement created", announcement)
}

// Update handles PUT /announcements/:id (staff only).
func (h *AnnouncementHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.AnnouncementUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	announcement, err := h.announcements.Update(c.Context(), id, req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "announcement updated", announcement)
}

// Delete handles DELETE /announcements/:id (staff only).
func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.announcements.Delete(c.Context(), id); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "announcement deleted", nil)
}

// Publish handles POST /announcements/:id/publish (staff only).
func (h *AnnouncementHandler) Publish(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	announcement, err := h.announcements.Publish(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "announcement published", announcement)
}
