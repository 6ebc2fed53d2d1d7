package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seka-portal-api/internal/config"
	"github.com/noah-isme/seka-portal-api/internal/database"
	"github.com/noah-isme/seka-portal-api/internal/handler"
	"github.com/noah-isme/seka-portal-api/internal/middleware"
	"github.com/noah-isme/seka-portal-api/internal/models"
	"github.com/noah-isme/seka-portal-api/internal/repository"
	"github.com/noah-isme/seka-portal-api/internal/router"
	"github.com/noah-isme/seka-portal-api/internal/service"
	"github.com/noah-isme/seka-portal-api/pkg/cloudinary"
	"github.com/noah-isme/seka-portal-api/pkg/storage"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "seka-portal-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.AppEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := db.AutoMigrate(
		&models.Student{},
		&models.PortfolioTask{},
		&models.PortfolioSubmission{},
		&models.PortfolioVersion{},
		&models.PortfolioEvaluation{},
		&models.PortfolioRubricScore{},
		&models.ChatMessage{},
		&models.Notification{},
		&models.Announcement{},
	); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, caching and bridging disabled")
		redisClient = nil
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, cross-node bridging disabled")
		natsConn = nil
	}

	var fileStorage service.FileStorage
	switch cfg.StorageDriver {
	case "cloudinary":
		cloudStorage, err := cloudinary.New(cloudinary.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize cloudinary storage")
		}
		fileStorage = cloudStorage
	default:
		localStorage, err := storage.NewLocal(cfg.UploadDir, cfg.UploadPublicPath, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize local storage")
		}
		fileStorage = localStorage
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	taskRepo := repository.NewPortfolioTaskRepository(db)
	submissionRepo := repository.NewPortfolioSubmissionRepository(db)
	evaluationRepo := repository.NewPortfolioEvaluationRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nodeID := uuid.NewString()

	chatHub := service.NewEventHub("chat", logger)
	chatBridge := service.NewEventBridge(chatHub, redisClient, cfg.BroadcastChannel, natsConn, nodeID, logger)
	chatBridge.Start(ctx)

	notifyHub := service.NewEventHub("notifications", logger)
	notifyBridge := service.NewEventBridge(notifyHub, redisClient, cfg.BroadcastChannel, natsConn, nodeID, logger)
	notifyBridge.Start(ctx)

	uploadMaxBytes := int64(cfg.UploadMaxMB) << 20

	taskService := service.NewPortfolioTaskService(taskRepo, validate, logger)
	submissionService := service.NewPortfolioSubmissionService(submissionRepo, taskRepo, fileStorage, validate, uploadMaxBytes, logger)
	notificationService := service.NewNotificationService(notificationRepo, notifyHub, notifyBridge, validate, cfg.StreamKeepAlive, logger)
	evaluationService := service.NewPortfolioEvaluationService(evaluationRepo, submissionRepo, notificationService, validate, logger)
	chatService := service.NewChatService(chatRepo, studentRepo, chatHub, chatBridge, validate, cfg.StreamKeepAlive, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, redisClient, cfg.AnnouncementCacheTTL, notificationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:   cfg.AppName,
		BodyLimit: int(uploadMaxBytes) + (1 << 20),
	})

	middleware.Register(app, middleware.Config{Logger: &logger})

	app.Static(cfg.UploadPublicPath, cfg.UploadDir)

	router.Register(app, router.Dependencies{
		JWTSecret:   cfg.JWTSecret,
		Health:      handler.NewHealthHandler(db, redisClient, natsConn),
		Tasks:       handler.NewPortfolioTaskHandler(taskService, logger),
		Submissions: handler.NewPortfolioSubmissionHandler(submissionService, logger),
		Evaluations: handler.NewPortfolioEvaluationHandler(evaluationService, logger),
		Chat:        handler.NewChatHandler(chatService, logger),
		Notify:      handler.NewNotificationHandler(notificationService, logger),
		Announce:    handler.NewAnnouncementHandler(announcementService, logger),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("starting http server")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	if natsConn != nil {
		natsConn.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
