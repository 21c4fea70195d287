package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"ngo_connect_backend/database"
	"ngo_connect_backend/internal/algorithms"
	"ngo_connect_backend/internal/catalog"
	"ngo_connect_backend/internal/config"
	"ngo_connect_backend/internal/delivery"
	"ngo_connect_backend/internal/handlers"
	"ngo_connect_backend/internal/logger"
	"ngo_connect_backend/internal/metrics"
	"ngo_connect_backend/internal/middleware"
	"ngo_connect_backend/internal/repositories"
	"ngo_connect_backend/internal/routes"
	"ngo_connect_backend/internal/services"
	"ngo_connect_backend/internal/validator"
	"ngo_connect_backend/internal/workers"
	"ngo_connect_backend/pkg/apperrors"
)

const shutdownTimeout = 10 * time.Second

// App is the wired service. Build it with New, run it with Start.
type App struct {
	Config   *config.Config
	DB       *gorm.DB
	Redis    *redis.Client
	Metrics  *metrics.Metrics
	Services *services.ServiceContainer
	Router   *gin.Engine

	dispatchWorker *workers.DispatchWorker
	catalogWorker  *workers.CatalogWorker
	closers        []io.Closer
}

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...", "driver", cfg.Database.Driver)
	gormDB, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}
	logger.Info("Database connected")

	if cfg.Catalog.SeedOnStart {
		if err := seedCatalog(gormDB); err != nil {
			logger.Fatal("Failed to seed NGO catalog", "error", err)
		}
	}

	application, err := New(cfg, gormDB)
	if err != nil {
		logger.Fatal("Failed to build application", "error", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		logger.Fatal("Server error", "error", err)
	}
	logger.Info("Server stopped")
}

// New wires every component on top of an open database. Nothing is started.
func New(cfg *config.Config, gormDB *gorm.DB) (*App, error) {
	a := &App{
		Config:  cfg,
		DB:      gormDB,
		Metrics: metrics.New(),
	}

	a.Redis = connectRedis(cfg)
	if a.Redis != nil {
		a.closers = append(a.closers, a.Redis)
	}

	ngoRepo := repositories.NewNGORepository(gormDB)
	provider, cached, err := buildCatalog(cfg, ngoRepo, a.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if cached != nil {
		a.catalogWorker = workers.NewCatalogWorker(cached, cfg.Catalog.RefreshInterval)
	}

	channels, closers, err := buildChannels(cfg)
	a.closers = append(a.closers, closers...)
	if err != nil {
		a.Close()
		return nil, err
	}
	dispatcher := delivery.NewDispatcher(channels, delivery.DispatcherConfig{
		InitialInterval:    cfg.Delivery.InitialInterval,
		MaxElapsed:         cfg.Delivery.MaxElapsed,
		BreakerMaxFailures: cfg.Delivery.BreakerMaxFailures,
		BreakerTimeout:     cfg.Delivery.BreakerTimeout,
	}, a.Metrics)
	logger.Info("Delivery channels ready", "channels", dispatcher.Channels())

	a.dispatchWorker = workers.NewDispatchWorker(dispatcher, cfg.Delivery.Workers, cfg.Delivery.QueueSize, a.Metrics)

	a.Services = initializeServices(cfg, gormDB, provider, ngoRepo, a.dispatchWorker, a.Metrics)
	a.Router = SetupRouter(cfg, a.Services, a.Metrics, a.Redis)
	return a, nil
}

// Start runs the HTTP server and the background workers until ctx ends,
// then shuts the server down gracefully.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.dispatchWorker.Start(ctx)
	})
	if a.catalogWorker != nil {
		g.Go(func() error {
			a.catalogWorker.Start(ctx)
			return nil
		})
	}

	address := fmt.Sprintf("%s:%d", a.Config.Server.Host, a.Config.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// DispatchWorker exposes the delivery queue, mainly for tests.
func (a *App) DispatchWorker() *workers.DispatchWorker {
	return a.dispatchWorker
}

// Close releases brokers, Redis and the database.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("Failed to close resource", "error", err)
		}
	}
	a.closers = nil
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

func SetupRouter(cfg *config.Config, container *services.ServiceContainer, m *metrics.Metrics, redisClient *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	apperrors.SetDebug(!cfg.IsProduction())

	appHandlers := initializeHandlers(container)
	ginRouter := initializeGinRouter(cfg, m, redisClient)
	routes.RegisterRoutes(ginRouter, appHandlers, m.Handler())
	return ginRouter
}

func initializeServices(
	cfg *config.Config,
	gormDB *gorm.DB,
	provider catalog.Provider,
	ngoRepo repositories.NGORepository,
	queue services.Enqueuer,
	m *metrics.Metrics,
) *services.ServiceContainer {
	notificationRepo := repositories.NewNotificationRepository(gormDB)
	postRepo := repositories.NewPostRepository(gormDB)
	preferenceRepo := repositories.NewPreferenceRepository(gormDB)

	matchingService := services.NewMatchingService(services.MatchingDeps{
		Catalog:          provider,
		NGORepo:          ngoRepo,
		NotificationRepo: notificationRepo,
		Queue:            queue,
		Metrics:          m,
		Options: algorithms.MatchOptions{
			RadiusKm:       cfg.Matching.DefaultRadiusKm,
			TieThresholdKm: cfg.Matching.TieThresholdKm,
			Ranking:        algorithms.RankingMode(cfg.Matching.Ranking),
		},
	})

	return &services.ServiceContainer{
		MatchingService:   matchingService,
		PostService:       services.NewPostService(postRepo, matchingService),
		PreferenceService: services.NewPreferenceService(preferenceRepo),
	}
}

func initializeHandlers(container *services.ServiceContainer) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		PostHandler:         handlers.NewPostHandler(baseHandler, container.PostService, container.MatchingService),
		NGOHandler:          handlers.NewNGOHandler(baseHandler, container.MatchingService),
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, container.MatchingService),
		PreferenceHandler:   handlers.NewPreferenceHandler(baseHandler, container.PreferenceService),
	}
}

func initializeGinRouter(cfg *config.Config, m *metrics.Metrics, redisClient *redis.Client) *gin.Engine {
	limiter := middleware.NewRateLimiter(redisClient, middleware.RateLimitConfig{
		Requests: cfg.RateLimit.Requests,
		Window:   cfg.RateLimit.Window,
		Prefix:   cfg.Redis.Prefix,
	})

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(limiter.Middleware())
	return router
}
