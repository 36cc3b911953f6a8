package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/stockroute/api/internal/di"
	"github.com/stockroute/api/internal/handlers"
	"github.com/stockroute/api/internal/platform/config"
	"github.com/stockroute/api/internal/platform/events"
	pfirestore "github.com/stockroute/api/internal/platform/firestore"
	"github.com/stockroute/api/internal/platform/observability"
	firestoreRepo "github.com/stockroute/api/internal/repositories/firestore"
	"github.com/stockroute/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	registry, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	var shortfallPublisher services.PlanEventPublisher
	if cfg.PubSub.ShortfallTopic != "" {
		client, topic, err := newShortfallTopic(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to initialise pubsub topic", zap.Error(err))
		}
		defer func() {
			topic.Stop()
			if err := client.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		publisher, err := events.NewPubSubShortfallPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise shortfall publisher", zap.Error(err))
		}
		shortfallPublisher = publisher
		logger.Info("shortfall publishing enabled", zap.String("topic", cfg.PubSub.ShortfallTopic))
	}

	planningLogger := logger.Named("planning")
	container, err := di.NewContainer(ctx, cfg, registry, di.ContainerDeps{
		Events: shortfallPublisher,
		Logger: func(_ context.Context, event string, fields map[string]any) {
			zFields := make([]zap.Field, 0, len(fields)+1)
			zFields = append(zFields, zap.String("event", event))
			for k, v := range fields {
				zFields = append(zFields, zap.Any(k, v))
			}
			planningLogger.Debug("planning log", zFields...)
		},
		Version:   buildVersion(),
		StartedAt: startedAt,
	})
	if err != nil {
		logger.Fatal("failed to build services", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("container close error", zap.Error(err))
		}
	}()

	limiter := handlers.NewRequestRateLimiter(cfg.RateLimits.PlanningPerWindow, cfg.RateLimits.Window, nil)
	deliveryHandlers := handlers.NewDeliveryHandlers(container.Services.DeliveryPlans, limiter)
	pickupHandlers := handlers.NewPickupPointHandlers(container.Services.PickupPoints)
	healthHandlers := handlers.NewHealthHandlers(container.Services.Health)

	projectID := cfg.Firestore.ProjectID
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithDeliveryRoutes(deliveryHandlers.Routes),
		handlers.WithPickupPointRoutes(pickupHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("stockroute api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newShortfallTopic(ctx context.Context, cfg config.Config) (*pubsub.Client, *pubsub.Topic, error) {
	projectID := cfg.PubSub.ProjectID
	if projectID == "" {
		projectID = cfg.Firestore.ProjectID
	}
	if projectID == "" {
		return nil, nil, errors.New("pubsub project id is required")
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Topic(cfg.PubSub.ShortfallTopic), nil
}

func buildVersion() string {
	if version := strings.TrimSpace(os.Getenv("BUILD_VERSION")); version != "" {
		return version
	}
	return "dev"
}
