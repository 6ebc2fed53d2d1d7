package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/seka-portal-api/internal/handler"
	"github.com/noah-isme/seka-portal-api/internal/middleware"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/observability"
)

// Dependencies bundles everything the router needs to wire routes.
type Dependencies struct {
	JWTSecret string

	Health      *handler.HealthHandler
	Tasks       *handler.PortfolioTaskHandler
	Submissions *handler.PortfolioSubmissionHandler
	Evaluations *handler.PortfolioEvaluationHandler
	Chat        *handler.ChatHandler
	Notify      *handler.NotificationHandler
	Announce    *handler.AnnouncementHandler
}

// Register mounts every route group on the app.
func Register(app *fiber.App, deps Dependencies) {
	app.Get("/healthz", deps.Health.Live)
	app.Get("/readyz", deps.Health.Ready)
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1")

	protected := middleware.JWTProtected(deps.JWTSecret)
	staffOnly := middleware.RequireRole(models.RoleTeacher, models.RoleAdmin)

	tasks := api.Group("/portfolio/tasks", protected)
	tasks.Get("/", deps.Tasks.List)
	tasks.Get("/:id", deps.Tasks.Get)
	tasks.Post("/", staffOnly, deps.Tasks.Create)
	tasks.Put("/:id", staffOnly, deps.Tasks.Update)
	tasks.Delete("/:id", staffOnly, deps.Tasks.Delete)

	submissions := api.Group("/portfolio/submissions", protected)
	submissions.Get("/", deps.Submissions.List)
	submissions.Post("/", deps.Submissions.Create)
	submissions.Get("/:id", deps.Submissions.Get)
	submissions.Patch("/:id/draft", deps.Submissions.UpdateDraft)
	submissions.Post("/:id/upload", deps.Submissions.Upload)
	submissions.Post("/:id/submit", deps.Submissions.Submit)
	submissions.Get("/:id/preview", deps.Submissions.Preview)
	submissions.Get("/:id/versions", deps.Submissions.Versions)
	submissions.Post("/:id/evaluate", staffOnly, deps.Evaluations.Evaluate)
	submissions.Get("/:id/evaluation", deps.Evaluations.GetLatest)

	chat := api.Group("/chat", protected)
	chat.Get("/history", deps.Chat.History)
	chat.Post("/messages", deps.Chat.Post)
	chat.Get("/stream", deps.Chat.Stream)
	chat.Get("/ws", deps.Chat.WebsocketUpgrade, deps.Chat.Websocket())

	notifications := api.Group("/notifications", protected)
	notifications.Get("/", deps.Notify.List)
	notifications.Post("/", staffOnly, deps.Notify.Publish)
	notifications.Patch("/:id/read", deps.Notify.MarkRead)
	notifications.Get("/stream", deps.Notify.Stream)

	announcements := api.Group("/announcements", protected)
	announcements.Get("/", deps.Announce.List)
	announcements.Get("/:id", deps.Announce.Get)
	announcements.Post("/", staffOnly, deps.Announce.Create)
	announcements.Put("/:id", staffOnly, deps.Announce.Update)
	announcements.Delete("/:id", staffOnly, deps.Announce.Delete)
	announcements.Post("/:id/publish", staffOnly, deps.Announce.Publish)
}
