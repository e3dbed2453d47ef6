// cmd/worker/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/unclebandit/collab-engine/internal/config"
	"github.com/unclebandit/collab-engine/internal/db"
	"github.com/unclebandit/collab-engine/internal/email"
	"github.com/unclebandit/collab-engine/internal/logger"
	"github.com/unclebandit/collab-engine/internal/metrics"
	"github.com/unclebandit/collab-engine/internal/queue"
	"github.com/unclebandit/collab-engine/internal/repository"
	"github.com/unclebandit/collab-engine/internal/service"
	"github.com/unclebandit/collab-engine/internal/telemetry"
)

func main() {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := checkConfig(cfg); err != nil {
		log.Error("worker cannot start", "error", err)
		os.Exit(1)
	}
	log = logger.NewLogger(cfg.LogLevel).With("process", "emailWorker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "collab-engine-worker", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Warn("tracing setup failed", "error", err)
	}
	defer shutdownTracing(context.Background())
	metrics.Init()

	conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	q, err := queue.DialAMQP(cfg.AMQPURL, log)
	if err != nil {
		log.Error("rabbitmq unavailable", "error", err)
		os.Exit(1)
	}
	defer q.Close()
	q.MaxRetries = cfg.EmailMaxRetries

	outbox := &repository.EmailDeliveryRepository{DB: conn}
	worker := service.NewEmailWorker(outbox, gatewayFor(cfg, log), cfg.EmailMaxRetries, log)

	if err := q.Subscribe(cfg.EmailQueue, worker.Handle); err != nil {
		log.Error("failed to register consumer", "error", err)
		os.Exit(1)
	}

	log.Info("worker running, waiting for deliveries", "queue", cfg.EmailQueue)
	<-ctx.Done()
	log.Info("worker stopping")
}

// checkConfig reports settings the worker cannot run without.
func checkConfig(cfg *config.Config) error {
	var errs []error
	if cfg.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if cfg.AMQPURL == "" {
		errs = append(errs, errors.New("AMQP_URL is required"))
	}
	return errors.Join(errs...)
}

func gatewayFor(cfg *config.Config, log *slog.Logger) email.Gateway {
	if cfg.EmailAPIURL == "" {
		log.Warn("EMAIL_API_URL not set, emails will only be logged")
		return &email.LogGateway{Logger: log}
	}
	return email.NewHTTPGateway(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
}
