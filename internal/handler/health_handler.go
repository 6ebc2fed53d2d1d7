package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/noah-isme/seka-portal-api/internal/utils"
)

// HealthHandler reports liveness and dependency readiness.
type HealthHandler struct {
	db    *gorm.DB
	redis *redis.Client
	nats  *nats.Conn
}

// NewHealthHandler constructs the handler. redis and nats may be nil.
func NewHealthHandler(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, nats: natsConn}
}

// Live handles GET /healthz.
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "ok", fiber.Map{"status": "up"})
}

// Ready handles GET /readyz: the database must answer, optional brokers are
// reported but only degrade the status.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	checks := fiber.Map{}
	healthy := true

	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		checks["database"] = "down"
		healthy = false
	} else {
		checks["database"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Context()).Err(); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	}

	if h.nats != nil {
		if h.nats.IsConnected() {
			checks["nats"] = "up"
		} else {
			checks["nats"] = "down"
		}
	}

	if !healthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(utils.APIResponse{
			Success: false,
			Message: "degraded",
			Data:    checks,
		})
	}

	return utils.SendSuccess(c, "ready", checks)
}
