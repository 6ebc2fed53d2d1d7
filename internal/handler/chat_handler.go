package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/dto"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// ChatHandler exposes chat history, posting and the realtime streams.
type ChatHandler struct {
	chat   service.ChatService
	logger zerolog.Logger
}

// NewChatHandler constructs the handler.
func NewChatHandler(chat service.ChatService, logger zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		chat:   chat,
		logger: logger.With().Str("component", "chat_handler").Logger(),
	}
}

// History handles GET /chat/history.
func (h *ChatHandler) History(c *fiber.Ctx) error {
	var query dto.ChatHistoryQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	if raw := c.Query("before"); raw != "" && query.Before == nil {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "before must be an RFC3339 timestamp")
		}
		query.Before = &parsed
	}

	messages, err := h.chat.History(c.Context(), query)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccess(c, "chat history retrieved", messages)
}

// Post handles POST /chat/messages.
func (h *ChatHandler) Post(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req dto.ChatSendRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.chat.Post(c.Context(), actor, userNameFromContext(c), req)
	if err != nil {
		return handleError(c, h.logger, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "message sent", message)
}

// Stream handles GET /chat/stream as server-sent events.
func (h *ChatHandler) Stream(c *fiber.Ctx) error {
	if _, err := actorFromContext(c); err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	events, cancel := h.chat.Subscribe()

	return streamEvents(c, events, cancel, h.chat.KeepAlive())
}

// WebsocketUpgrade gates GET /chat/ws behind a websocket handshake check and
// captures the authenticated identity before the protocol switch.
func (h *ChatHandler) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return utils.SendError(c, fiber.StatusUpgradeRequired, "websocket upgrade required")
	}

	actor, err := actorFromContext(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
	}

	c.Locals("ws_actor", actor)
	c.Locals("ws_name", userNameFromContext(c))

	return c.Next()
}

// Websocket runs the chat session over an upgraded connection.
func (h *ChatHandler) Websocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		defer func() { _ = conn.Close() }()

		actor, ok := conn.Locals("ws_actor").(service.Actor)
		if !ok {
			return
		}
		name, _ := conn.Locals("ws_name").(string)

		h.chat.ServeWebsocket(conn, actor, name)
	})
}
