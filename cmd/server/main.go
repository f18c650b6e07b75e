package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/internal/config"
	"github.com/Ved-panchal/fcarena-2.0/internal/events"
	"github.com/Ved-panchal/fcarena-2.0/internal/handlers"
	"github.com/Ved-panchal/fcarena-2.0/internal/logging"
	"github.com/Ved-panchal/fcarena-2.0/internal/metrics"
	"github.com/Ved-panchal/fcarena-2.0/internal/middleware"
	"github.com/Ved-panchal/fcarena-2.0/internal/repository"
	"github.com/Ved-panchal/fcarena-2.0/internal/router"
	"github.com/Ved-panchal/fcarena-2.0/internal/service"
	"github.com/Ved-panchal/fcarena-2.0/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	repo := repository.NewRepository(pool)

	// Create Temporal client
	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHost,
		Namespace: cfg.TemporalNamespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	// Relay session events published by the worker to websocket clients
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	hub := websocket.NewHub(cfg.AllowedOrigin, logger)
	go hub.Run()

	sub, err := events.NewSessionBus(redisClient, logger).Subscribe(ctx)
	if err != nil {
		logger.Fatal("Failed to subscribe to session events", zap.Error(err))
	}
	defer sub.Close()
	go sub.Run(ctx, hub.Broadcast)

	bookingService := service.NewBookingService(temporalClient, repo, service.Config{
		TaskQueue:     cfg.TaskQueue,
		PaymentWindow: cfg.PaymentWindow,
		IdleTimeout:   cfg.SessionIdleTimeout,
	})
	h := handlers.NewHandler(bookingService, handlers.QueryRedirectOutcome)

	trusted, err := middleware.ParseTrustedProxies(cfg.TrustedProxyList())
	if err != nil {
		logger.Fatal("Invalid TRUSTED_PROXIES", zap.Error(err))
	}

	r := router.SetupRouter(h, hub, router.Options{
		AllowedOrigin:  cfg.AllowedOrigin,
		TrustedProxies: trusted,
		SubmitLimiter:  middleware.NewRateLimiter(cfg.SubmitRateLimit, cfg.SubmitBurst, trusted, logger),
		Metrics:        metrics.NewHTTPMetrics(nil),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API server starting", zap.String("port", cfg.APIPort), zap.String("temporal", cfg.TemporalHost))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Server exited")
}
