package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/arpanpramanik2003/smart-student-hub/internal/config"
	"github.com/arpanpramanik2003/smart-student-hub/internal/database"
	"github.com/arpanpramanik2003/smart-student-hub/internal/handler"
	"github.com/arpanpramanik2003/smart-student-hub/internal/middleware"
	"github.com/arpanpramanik2003/smart-student-hub/internal/repository"
	"github.com/arpanpramanik2003/smart-student-hub/internal/router"
	"github.com/arpanpramanik2003/smart-student-hub/internal/service"
	cloud "github.com/arpanpramanik2003/smart-student-hub/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "smart-student-hub").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: 30 * time.Minute,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
	} else {
		logger.Warn().Msg("redis not configured; statistics caching and cross-instance notifications disabled")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to nats")
		}
		defer natsConn.Drain()
	}

	var (
		storage service.FileStorage
		signer  service.URLSigner
	)
	cloudinary, err := cloud.New(cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("cloudinary disabled; certificate uploads and signed downloads unavailable")
	} else {
		storage = cloudinary
		signer = cloudinary
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	activityRepo := repository.NewActivityRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	uploadRepo := repository.NewUploadRepository(db)

	auditService := service.NewAuditService(auditRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, redisClient, cfg.RealtimeChannel, natsConn, validate, logger)
	reportService := service.NewReportService(activityRepo, userRepo, redisClient, cfg.ReportCacheTTL, validate, logger)
	reviewService := service.NewReviewService(activityRepo, auditService, notificationService, reportService, validate, logger)
	userService := service.NewUserService(userRepo, validate, auditService, reportService, logger)
	fileProxyService := service.NewFileProxyService(cfg.CloudinaryCloudName, signer, resty.New(), cfg.FileProxyTimeout, logger)

	var uploadService service.UploadService
	if storage != nil {
		uploadService = service.NewUploadService(storage, uploadRepo, cfg.UploadMaxMB, logger)
	}
	activityService := service.NewActivityService(activityRepo, uploadService, auditService, reportService, validate, logger)

	deps := router.Dependencies{
		ActivityHandler:     handler.NewActivityHandler(activityService, middleware.RateLimit("activity_submit", cfg.SubmitRateLimit, time.Minute), logger),
		ReviewHandler:       handler.NewReviewHandler(reviewService, logger),
		ReportHandler:       handler.NewReportHandler(reportService, logger),
		AdminUserHandler:    handler.NewAdminUserHandler(userService, logger),
		AuditHandler:        handler.NewAuditHandler(auditService, logger),
		ProfileHandler:      handler.NewProfileHandler(userService, logger),
		FileHandler:         handler.NewFileHandler(fileProxyService, logger),
		NotificationHandler: handler.NewNotificationHandler(notificationService, logger, 30*time.Second),
		HealthProbes: map[string]handler.HealthProbe{
			"database": database.DatabaseProbe(db),
		},
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		StreamJWTMiddleware: middleware.JWTProtected(cfg.JWTSecret, middleware.JWTOptions{AllowQueryToken: true}),
	}
	if uploadService != nil {
		deps.UploadHandler = handler.NewUploadHandler(uploadService, logger)
	}
	if redisClient != nil {
		deps.HealthProbes["redis"] = database.RedisProbe(redisClient)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    (cfg.UploadMaxMB + 1) * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, deps)

	notifyCtx, stopNotifications := context.WithCancel(context.Background())
	defer stopNotifications()
	notificationService.Start(notifyCtx)

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddress()).Msg("http server listening")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
