// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/unclebandit/collab-engine/internal/auth"
	"github.com/unclebandit/collab-engine/internal/config"
	"github.com/unclebandit/collab-engine/internal/controller"
	"github.com/unclebandit/collab-engine/internal/db"
	"github.com/unclebandit/collab-engine/internal/email"
	"github.com/unclebandit/collab-engine/internal/events"
	"github.com/unclebandit/collab-engine/internal/handler"
	"github.com/unclebandit/collab-engine/internal/logger"
	"github.com/unclebandit/collab-engine/internal/metrics"
	"github.com/unclebandit/collab-engine/internal/queue"
	"github.com/unclebandit/collab-engine/internal/repository"
	"github.com/unclebandit/collab-engine/internal/repository/memory"
	"github.com/unclebandit/collab-engine/internal/service"
	"github.com/unclebandit/collab-engine/internal/storage"
	"github.com/unclebandit/collab-engine/internal/telemetry"
)

func main() {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	log = logger.NewLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "collab-engine", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Warn("tracing setup failed", "error", err)
	}
	defer shutdownTracing(context.Background())

	metrics.Init()

	deps := service.Deps{
		EmailTopic:        cfg.EmailQueue,
		FanoutConcurrency: cfg.FanoutConcurrency,
		Logger:            log,
	}
	var pinger handler.Pinger

	if cfg.DatabaseURL != "" {
		conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		defer conn.Close()
		if err := db.Migrate(ctx, conn, log); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		pinger = conn

		deps.Tx = &repository.SQLTransactor{DB: conn}
		deps.Campaigns = &repository.CampaignRepository{DB: conn}
		deps.Applications = &repository.ApplicationRepository{DB: conn}
		deps.Submissions = &repository.SubmissionRepository{DB: conn}
		deps.Messages = &repository.MessageRepository{DB: conn}
		deps.Notifications = &repository.NotificationRepository{DB: conn}
		deps.Profiles = &repository.ProfileRepository{DB: conn}
		deps.Preferences = &repository.PreferenceRepository{DB: conn}
		deps.Outbox = &repository.EmailDeliveryRepository{DB: conn}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		store := memory.New()
		deps.Tx = store
		deps.Campaigns = store.Campaigns
		deps.Applications = store.Applications
		deps.Submissions = store.Submissions
		deps.Messages = store.Messages
		deps.Notifications = store.Notifications
		deps.Profiles = store.Profiles
		deps.Preferences = store.Preferences
		deps.Outbox = store.Deliveries
	}

	var gateway email.Gateway = &email.LogGateway{Logger: log.With("component", "emailGateway")}
	if cfg.EmailAPIURL != "" {
		gateway = email.NewHTTPGateway(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
	}

	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL, log)
		if err != nil {
			log.Error("rabbitmq unavailable", "error", err)
			os.Exit(1)
		}
		defer q.Close()
		q.MaxRetries = cfg.EmailMaxRetries
		deps.Queue = q
	} else {
		q := queue.NewInMemoryQueue(log)
		q.MaxRetries = cfg.EmailMaxRetries
		worker := service.NewEmailWorker(deps.Outbox, gateway, cfg.EmailMaxRetries, log)
		if err := q.Subscribe(cfg.EmailQueue, worker.Handle); err != nil {
			log.Error("subscribe email worker", "error", err)
			os.Exit(1)
		}
		deps.Queue = q
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer, err := sarama.NewAsyncProducer(cfg.KafkaBrokers, events.NewProducerConfig("collab-engine"))
		if err != nil {
			log.Error("kafka unavailable", "error", err)
			os.Exit(1)
		}
		publisher := events.NewKafkaPublisher(producer, cfg.KafkaEligibilityTopic, log.With("component", "eligibilityEvents"))
		publisher.Start()
		defer publisher.Close()
		deps.Events = publisher
	}

	var store storage.ObjectStore = storage.NewMemoryStore(cfg.StorageBucket)
	if cfg.SupabaseURL != "" {
		store = storage.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket)
	}

	secret := cfg.JWTSecret
	if secret == "" {
		log.Warn("JWT_SECRET not set, using development secret")
		secret = "development-secret"
	}

	services := service.New(deps)
	router := controller.NewRouter(controller.RouterDeps{
		Services: services,
		Gate:     auth.NewGate(secret),
		Profiles: deps.Profiles,
		Storage:  store,
		DB:       pinger,
		Logger:   log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🚀 server running", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if q, ok := deps.Queue.(*queue.InMemoryQueue); ok {
		q.Wait()
	}
}
