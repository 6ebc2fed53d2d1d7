package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// PortfolioTaskHandler exposes the task catalogue endpoints.
type PortfolioTaskHandler struct {
	tasks  service.PortfolioTaskService
	logger zerolog.Logger
}

// NewPortfolioTaskHandler constructs the handler.
func NewPortfolioTaskHandler(tasks service.PortfolioTaskService, logger zerolog.Logger) *PortfolioTaskHandler {
	return &PortfolioTaskHandler{
		tasks:  tasks,
		logger: logger.With().Str("component", "portfolio_task_handler").Logger(),
	}
}

// List handles GET /portfolio/tasks.
func (h *PortfolioTaskHandler) List(c *fiber.Ctx) error {
	var classLevel *string
	if value := c.Query("class_level"); value != "" {
		classLevel = &value
	}

	var active *bool
	if value := c.Query("active"); value != "" {
		parsed := value == "true" || value == "1"
		active = &parsed
	}

	tasks, err := h.tasks.List(c.Context(), classLevel, active)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "tasks retrieved", tasks)
}

// Get handles GET /portfolio/tasks/:id.
func (h *PortfolioTaskHandler) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	task, err := h.tasks.Get(c.Context(), id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "task retrieved", task)
}

// Create handles POST /portfolio/tasks (admin).
func (h *PortfolioTaskHandler) Create(c *fiber.Ctx) error {
	var req dto.PortfolioTaskCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.tasks.Create(c.Context(), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "task created", task)
}

// Update handles PUT /portfolio/tasks/:id (admin).
func (h *PortfolioTaskHandler) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.PortfolioTaskUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	task, err := h.tasks.Update(c.Context(), id, req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "task updated", task)
}

// Delete handles DELETE /portfolio/tasks/:id (admin).
func (h *PortfolioTaskHandler) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.tasks.Delete(c.Context(), id); err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "task deleted", nil)
}
