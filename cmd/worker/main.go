package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/Ved-panchal/fcarena-2.0/internal/activities"
	"github.com/Ved-panchal/fcarena-2.0/internal/checkout"
	"github.com/Ved-panchal/fcarena-2.0/internal/config"
	"github.com/Ved-panchal/fcarena-2.0/internal/events"
	"github.com/Ved-panchal/fcarena-2.0/internal/logging"
	"github.com/Ved-panchal/fcarena-2.0/internal/metrics"
	"github.com/Ved-panchal/fcarena-2.0/internal/notify"
	"github.com/Ved-panchal/fcarena-2.0/internal/payments"
	"github.com/Ved-panchal/fcarena-2.0/internal/repository"
	"github.com/Ved-panchal/fcarena-2.0/internal/workflows"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Connect to database
	logger.Info("Connecting to database")
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	repo := repository.NewRepository(pool)

	// Session events go to the API server through Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	bus := events.NewSessionBus(redisClient, logger)

	var bookingEvents events.BookingPublisher = events.NoopBookingPublisher{}
	if brokers := cfg.KafkaBrokerList(); len(brokers) > 0 {
		bookingEvents = events.NewKafkaBookingPublisher(events.NewKafkaWriter(brokers, cfg.KafkaBookingTopic), logger)
		logger.Info("Publishing booking events", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaBookingTopic))
	}
	defer bookingEvents.Close()

	paymentClient, err := payments.NewClient(payments.Config{
		BaseURL: cfg.PaymentBaseURL,
		Timeout: cfg.PaymentHTTPTimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal("Failed to create payment client", zap.Error(err))
	}

	// A configured key secret verifies signatures locally instead of calling the backend
	var verifier activities.PaymentVerifier = paymentClient
	if cfg.PaymentKeySecret != "" {
		verifier, err = payments.NewSignatureVerifier(cfg.PaymentKeySecret)
		if err != nil {
			logger.Fatal("Failed to create signature verifier", zap.Error(err))
		}
	}

	mailer, err := newMailer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create mailer", zap.Error(err))
	}

	notifier, err := notify.NewNotifier(mailer, cfg.EmailTo, logger)
	if err != nil {
		logger.Fatal("Failed to create notifier", zap.Error(err))
	}

	bookingMetrics := metrics.NewBookingMetrics(nil)

	acts := activities.NewActivities(activities.Deps{
		Slots:     repo,
		Orders:    paymentClient,
		Verifier:  verifier,
		Bookings:  repo,
		Events:    bookingEvents,
		Notifier:  notifier,
		Launcher:  checkout.NewLauncher(bus, logger),
		Presenter: checkout.NewPresenter(bus, logger),
		Branding: checkout.Branding{
			Name:          cfg.CheckoutName,
			Description:   cfg.CheckoutDescription,
			Image:         cfg.CheckoutImage,
			ThemeColor:    cfg.CheckoutThemeColor,
			AddressNote:   cfg.CheckoutAddressNote,
			PublicBaseURL: cfg.PublicBaseURL,
		},
		Metrics: bookingMetrics,
	})

	// Connect to Temporal
	logger.Info("Connecting to Temporal", zap.String("host", cfg.TemporalHost))
	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHost,
		Namespace: cfg.TemporalNamespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("Failed to connect to Temporal", zap.Error(err))
	}
	defer c.Close()

	w := worker.New(c, cfg.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.BookingSessionWorkflow)
	w.RegisterActivity(acts)

	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	defer metricsSrv.Close()

	logger.Info("Starting Temporal worker", zap.String("taskQueue", cfg.TaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Worker failed", zap.Error(err))
	}
}

func newMailer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (notify.Mailer, error) {
	switch cfg.EmailProvider {
	case "sendgrid":
		return notify.NewSendGridMailer(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, err
		}
		return notify.NewSESMailer(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
	default:
		return notify.NewStubMailer(logger), nil
	}
}
