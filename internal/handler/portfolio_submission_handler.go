package handler

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// PortfolioSubmissionHandler exposes the submission lifecycle endpoints.
type PortfolioSubmissionHandler struct {
	submissions service.PortfolioSubmissionService
	logger      zerolog.Logger
}

// NewPortfolioSubmissionHandler constructs the handler.
func NewPortfolioSubmissionHandler(submissions service.PortfolioSubmissionService, logger zerolog.Logger) *PortfolioSubmissionHandler {
	return &PortfolioSubmissionHandler{
		submissions: submissions,
		logger:      logger.With().Str("component", "portfolio_submission_handler").Logger(),
	}
}

// Create handles POST /portfolio/submissions.
func (h *PortfolioSubmissionHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req dto.PortfolioSubmissionCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.Create(c.Context(), actor, req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission opened", submission)
}

// List handles GET /portfolio/submissions.
func (h *PortfolioSubmissionHandler) List(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var filter dto.PortfolioSubmissionFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	submissions, err := h.submissions.List(c.Context(), actor, filter)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

// Get handles GET /portfolio/submissions/:id.
func (h *PortfolioSubmissionHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submission, err := h.submissions.Get(c.Context(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

// UpdateDraft handles PATCH /portfolio/submissions/:id/draft.
func (h *PortfolioSubmissionHandler) UpdateDraft(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var req dto.PortfolioDraftUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.submissions.UpdateDraft(c.Context(), actor, id, req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "draft updated", submission)
}

// Upload handles POST /portfolio/submissions/:id/upload (multipart field "file").
func (h *PortfolioSubmissionHandler) Upload(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "multipart field 'file' is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to read uploaded file")
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "failed to read uploaded file")
	}

	submission, err := h.submissions.UploadArchive(c.Context(), actor, id, fileHeader.Filename, data)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "archive ingested", submission)
}

// Submit handles POST /portfolio/submissions/:id/submit.
func (h *PortfolioSubmissionHandler) Submit(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.submissions.Submit(c.Context(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "submission locked", result)
}

// Preview handles GET /portfolio/submissions/:id/preview. The response is a
// full HTML document, not a JSON envelope.
func (h *PortfolioSubmissionHandler) Preview(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	document, err := h.submissions.Preview(c.Context(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	c.Set("Content-Security-Policy", service.PreviewContentPolicy)
	c.Set("X-Frame-Options", "DENY")

	return c.SendString(document)
}

// Versions handles GET /portfolio/submissions/:id/versions.
func (h *PortfolioSubmissionHandler) Versions(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	versions, err := h.submissions.Versions(c.Context(), actor, id)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "versions retrieved", versions)
}
