package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL    string `env:"DATABASE_URL"`
	DBMaxOpenConns int    `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`

	JWTSecret string `env:"JWT_SECRET"`

	AMQPURL    string `env:"AMQP_URL"`
	EmailQueue string `env:"EMAIL_QUEUE" envDefault:"email_deliveries"`

	KafkaBrokers          []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaEligibilityTopic string   `env:"KAFKA_ELIGIBILITY_TOPIC" envDefault:"campaign.eligibility"`

	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	StorageBucket      string `env:"STORAGE_BUCKET" envDefault:"campaign-assets"`

	EmailAPIURL string `env:"EMAIL_API_URL"`
	EmailAPIKey string `env:"EMAIL_API_KEY"`
	EmailFrom   string `env:"EMAIL_FROM" envDefault:"no-reply@collab.local"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	FanoutConcurrency int `env:"FANOUT_CONCURRENCY" envDefault:"8"`
	EmailMaxRetries   int `env:"EMAIL_MAX_RETRIES" envDefault:"3"`
}

// Load reads an optional .env file, then the process environment.
func Load(logger *slog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("could not load .env file", "error", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.IsProduction() && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required in production")
	}
	if c.FanoutConcurrency < 1 {
		return fmt.Errorf("FANOUT_CONCURRENCY must be at least 1, got %d", c.FanoutConcurrency)
	}
	if c.EmailMaxRetries < 0 {
		return fmt.Errorf("EMAIL_MAX_RETRIES must not be negative, got %d", c.EmailMaxRetries)
	}
	return nil
}
