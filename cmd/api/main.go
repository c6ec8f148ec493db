package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/roadguard/internal/api/http"
	"github.com/spec-kit/roadguard/internal/api/http/handlers"
	"github.com/spec-kit/roadguard/internal/auth"
	"github.com/spec-kit/roadguard/internal/config"
	"github.com/spec-kit/roadguard/internal/detection"
	"github.com/spec-kit/roadguard/internal/events"
	"github.com/spec-kit/roadguard/internal/observability"
	"github.com/spec-kit/roadguard/internal/persistence"
	"github.com/spec-kit/roadguard/internal/repository"
	"github.com/spec-kit/roadguard/internal/repository/memory"
	"github.com/spec-kit/roadguard/internal/service"
	"github.com/spec-kit/roadguard/internal/worker"
)

type repositories struct {
	users         repository.UserRepository
	refreshTokens repository.RefreshTokenRepository
	problems      repository.ProblemRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, logger)

	dispatcher := events.NewInMemoryDispatcher()
	stopWorker := worker.StartNotificationWorker(dispatcher, service.NewNotificationService(dispatcher, logger), cfg.Events, logger)
	defer stopWorker()

	authService, err := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:         repos.users,
		RefreshTokenRepo: repos.refreshTokens,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	if err != nil {
		logger.Fatal("failed to init auth service", zap.Error(err))
	}
	if cfg.Bootstrap.AdminEmail != "" {
		if _, err := authService.EnsureAdmin(ctx, cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword); err != nil {
			logger.Fatal("failed to bootstrap admin", zap.Error(err))
		}
	}

	userService := service.NewUserService(repos.users, dispatcher, logger)
	problemService := service.NewProblemService(repos.problems, dispatcher, logger)
	analysisService := buildAnalysisService(cfg, redis, logger)
	gate := auth.NewGate(authService.TokenManager(), repos.users)

	metrics := observability.NewMetrics()
	bodyLimit := 4 * 1024 * 1024
	if cfg.Detector.MaxUploadBytes+64*1024 > bodyLimit {
		bodyLimit = cfg.Detector.MaxUploadBytes + 64*1024
	}
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ErrorHandler: httptransport.ErrorHandler(logger),
		BodyLimit:    bodyLimit,
	})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:         logger,
		Metrics:        metrics,
		Timeout:        cfg.App.RequestTimeout(),
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
	})

	dependencies := map[string]handlers.Pinger{}
	if pg.Enabled() {
		dependencies["postgres"] = pg
	}
	if redis.Enabled() {
		dependencies["redis"] = redis
	}

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies),
		Auth:     handlers.NewAuthHandler(authService),
		Admin:    handlers.NewAdminHandler(userService),
		Problems: handlers.NewProblemsHandler(problemService),
		Analysis: handlers.NewAnalysisHandler(analysisService, cfg.Detector.MaxUploadBytes),
		Gate:     gate,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func buildRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	if !pg.Enabled() {
		logger.Warn("using in-memory storage; data is lost on restart")
		return repositories{
			users:         memory.NewUserRepository(),
			refreshTokens: memory.NewRefreshTokenRepository(),
			problems:      memory.NewProblemRepository(),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		users:         repository.NewUserRepository(pool),
		refreshTokens: repository.NewRefreshTokenRepository(pool),
		problems:      repository.NewProblemRepository(pool),
	}
}

func buildAnalysisService(cfg *config.Config, redis *persistence.Redis, logger *zap.Logger) *service.AnalysisService {
	var detector detection.Detector
	if cfg.Detector.URL != "" {
		detector = detection.NewClient(cfg.Detector.URL, cfg.Detector.Timeout(), cfg.Detector.ConfidenceThreshold)
	} else {
		logger.Warn("DETECTOR_URL not provided; image analysis disabled")
	}

	var cache service.AnalysisCache
	if redis.Enabled() {
		cache = persistence.NewAnalysisCache(redis.Client, cfg.Redis.AnalysisCacheTTL())
	}
	return service.NewAnalysisService(detector, cache, logger)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
