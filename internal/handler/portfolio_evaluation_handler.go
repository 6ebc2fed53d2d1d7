package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// PortfolioEvaluationHandler exposes the grading endpoints.
type PortfolioEvaluationHandler struct {
	evaluations service.PortfolioEvaluationService
	logger      zerolog.Logger
}

// NewPortfolioEvaluationHandler constructs the handler.
func NewPortfolioEvaluationHandler(evaluations service.PortfolioEvaluationService, logger zerolog.Logger) *PortfolioEvaluationHandler {
	return &PortfolioEvaluationHandler{
		evaluations: evaluations,
		logger:      logger.With().Str("component", "portfolio_evaluation_handler").Logger(),
	}
}

// Evaluate handles POST /portfolio/submissions/:id/evaluate (staff only).
func (h *PortfolioEvaluationHandler) Evaluate(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.PortfolioEvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	evaluation, err := h.evaluations.Evaluate(c.Context(), actor, id, req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission evaluated", evaluation)
}

// GetLatest handles GET /portfolio/submissions/:id/evaluation.
func (h *PortfolioEvaluationHandler) GetLatest(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	evaluation, err := h.evaluations.GetLatest(c.Context(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "evaluation retrieved", evaluation)
}
