package handler

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/noah-isme/seka-portal-api/internal/archive"
	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/repository"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// EventHeartbeat is the periodic keepalive frame written to idle streams.
const EventHeartbeat = "heartbeat"

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	userID, ok := c.Locals("user_id").(uint)
	if !ok || userID == 0 {
		return service.Actor{}, errors.New("missing authenticated user")
	}

	role, _ := c.Locals("user_role").(string)

	return service.Actor{UserID: userID, Role: role}, nil
}

func userNameFromContext(c *fiber.Ctx) string {
	if name, ok := c.Locals("user_name").(string); ok && name != "" {
		return name
	}
	return "anonymous"
}

func parseIDParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || parsed == 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(parsed), nil
}

// handleError maps service errors onto the shared HTTP error taxonomy.
// Unrecognised errors are logged and surfaced as a generic 500.
func handleError(c *fiber.Ctx, logger zerolog.Logger, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return utils.SendError(c, fiber.StatusBadRequest, formatValidationError(validationErrs))
	}

	switch {
	case errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSubmissionNotFound),
		errors.Is(err, service.ErrVersionNotFound),
		errors.Is(err, service.ErrEvaluationNotFound),
		errors.Is(err, service.ErrNotificationNotFound),
		errors.Is(err, service.ErrAnnouncementNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())

	case errors.Is(err, service.ErrNotOwner):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())

	case errors.Is(err, repository.ErrStateConflict),
		errors.Is(err, service.ErrSubmissionLocked),
		errors.Is(err, service.ErrDuplicateTask),
		errors.Is(err, service.ErrTaskInactive):
		return utils.SendError(c, fiber.StatusConflict, err.Error())

	case errors.Is(err, service.ErrUploadTooLarge):
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, err.Error())

	case errors.Is(err, archive.ErrInvalidArchive),
		errors.Is(err, archive.ErrUnsafeEntry),
		errors.Is(err, archive.ErrDisallowedEntry),
		errors.Is(err, archive.ErrMissingIndex),
		errors.Is(err, archive.ErrContentTooLarge),
		errors.Is(err, service.ErrArtifactIncomplete),
		errors.Is(err, service.ErrUnknownCriterion),
		errors.Is(err, service.ErrInvalidInstructions),
		errors.Is(err, service.ErrVersionMismatch):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())

	default:
		logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}

func formatValidationError(errs validator.ValidationErrors) string {
	fields := make([]string, 0, len(errs))
	for _, fieldErr := range errs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", strings.ToLower(fieldErr.Field()), fieldErr.Tag()))
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// streamEvents writes the subscription to the client as server-sent events,
// emitting a heartbeat frame whenever the stream has been idle for the
// keepalive interval. The subscription is cancelled when the client goes away.
func streamEvents(c *fiber.Ctx, events <-chan dto.StreamEvent, cancel func(), keepAlive time.Duration) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		ticker := time.NewTicker(keepAlive)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-events:
				if !ok {
					return
				}
				if err := writeStreamEvent(w, event); err != nil {
					return
				}
			case <-ticker.C:
				heartbeat := dto.StreamEvent{Type: EventHeartbeat, Timestamp: time.Now().UTC()}
				if err := writeStreamEvent(w, heartbeat); err != nil {
					return
				}
			}
		}
	}))

	return nil
}

func writeStreamEvent(w *bufio.Writer, event dto.StreamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return err
	}

	return w.Flush()
}
