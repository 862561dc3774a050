package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifa-ai/notifa-engine/internal/classifier"
	"github.com/notifa-ai/notifa-engine/internal/config"
	"github.com/notifa-ai/notifa-engine/internal/devicegw"
	"github.com/notifa-ai/notifa-engine/internal/flags"
	"github.com/notifa-ai/notifa-engine/internal/handler"
	"github.com/notifa-ai/notifa-engine/internal/infra/postgresql"
	"github.com/notifa-ai/notifa-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/notifa-ai/notifa-engine/internal/infra/redis"
	"github.com/notifa-ai/notifa-engine/internal/observability"
	"github.com/notifa-ai/notifa-engine/internal/queue"
	"github.com/notifa-ai/notifa-engine/internal/repository"
	"github.com/notifa-ai/notifa-engine/internal/service"
	"github.com/notifa-ai/notifa-engine/internal/stream"
	"github.com/notifa-ai/notifa-engine/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine terminated", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	rmq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer rmq.Close()

	publisher := queue.NewRabbitMQPublisher(rmq)
	consumer := queue.NewRabbitMQConsumer(rmq, cfg.WorkerConcurrency, logger)

	gemini, err := classifier.NewGeminiClassifier(cfg.GeminiAPIURL, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("classifier initialization failed: %w", err)
	}

	gateway, err := devicegw.NewHTTPGateway(cfg.DeviceBridgeURL)
	if err != nil {
		return fmt.Errorf("device gateway initialization failed: %w", err)
	}

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.ClassifyRatePerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	retentionLock, err := infraredis.NewPeriodLock(rdb, "maintenance")
	if err != nil {
		return fmt.Errorf("period lock initialization failed: %w", err)
	}

	changes := stream.NewBroadcaster()

	notificationRepo := repository.NewGormNotificationRepo(db, changes)
	preferenceRepo := repository.NewGormAppPreferenceRepo(db, changes)
	scheduleRepo := repository.NewGormBatchScheduleRepo(db, changes)
	feedbackRepo := repository.NewGormFeedbackRepo(db, changes)

	flagStore, err := flags.NewRedisStore(rdb, changes)
	if err != nil {
		return fmt.Errorf("flag store initialization failed: %w", err)
	}

	metrics := observability.NewMetrics()

	intake, err := service.NewIntakeService(
		notificationRepo,
		preferenceRepo,
		feedbackRepo,
		consumer,
		gemini,
		gateway,
		rateLimiter,
		cfg.OwnPackage,
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		return fmt.Errorf("intake service initialization failed: %w", err)
	}
	intake.SetMetrics(metrics)

	aggregator, err := service.NewAggregatorService(
		notificationRepo,
		preferenceRepo,
		gemini,
		gateway,
		changes,
		logger,
	)
	if err != nil {
		return fmt.Errorf("aggregator initialization failed: %w", err)
	}
	aggregator.SetMetrics(metrics)

	feedback, err := service.NewFeedbackService(notificationRepo, preferenceRepo, feedbackRepo, logger)
	if err != nil {
		return fmt.Errorf("feedback service initialization failed: %w", err)
	}

	retention, err := service.NewRetentionService(
		notificationRepo,
		retentionLock,
		time.Duration(cfg.RetentionHours)*time.Hour,
		logger,
	)
	if err != nil {
		return fmt.Errorf("retention service initialization failed: %w", err)
	}
	retention.SetMetrics(metrics)

	dispatcher, err := service.NewBatchDispatcher(scheduleRepo, aggregator, flagStore, logger)
	if err != nil {
		return fmt.Errorf("batch dispatcher initialization failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterEventRoutes(app, publisher); err != nil {
		return fmt.Errorf("failed to register event routes: %w", err)
	}
	if err := handler.RegisterNotificationRoutes(app, notificationRepo, feedback, aggregator); err != nil {
		return fmt.Errorf("failed to register notification routes: %w", err)
	}
	if err := handler.RegisterPreferenceRoutes(app, preferenceRepo); err != nil {
		return fmt.Errorf("failed to register preference routes: %w", err)
	}
	if err := handler.RegisterScheduleRoutes(app, scheduleRepo, dispatcher); err != nil {
		return fmt.Errorf("failed to register schedule routes: %w", err)
	}
	if err := handler.RegisterSummaryRoutes(app, aggregator); err != nil {
		return fmt.Errorf("failed to register summary routes: %w", err)
	}
	if err := handler.RegisterFlagRoutes(app, flagStore); err != nil {
		return fmt.Errorf("failed to register flag routes: %w", err)
	}

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("notifa-engine api started", zap.Int("port", cfg.APIPort))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	g.Go(func() error {
		return intake.Start(groupCtx)
	})

	g.Go(func() error {
		return aggregator.Run(groupCtx)
	})

	g.Go(func() error {
		return retention.Start(groupCtx)
	})

	g.Go(func() error {
		return dispatcher.Start(groupCtx)
	})

	logger.Info("notifa-engine started",
		zap.Int("workerConcurrency", cfg.WorkerConcurrency),
		zap.Int("classifyRatePerSec", cfg.ClassifyRatePerSec),
		zap.Int("retentionHours", cfg.RetentionHours),
	)

	if err := g.Wait(); err != nil && groupCtx.Err() == nil {
		return err
	}

	logger.Info("notifa-engine stopped")
	return nil
}
