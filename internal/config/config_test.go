package config

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load(discard())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "email_deliveries", cfg.EmailQueue)
	assert.Equal(t, 8, cfg.FanoutConcurrency)
	assert.Equal(t, 3, cfg.EmailMaxRetries)
	assert.False(t, cfg.IsProduction())
}

func TestLoadSplitsBrokers(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"development without secret", Config{Environment: "development", FanoutConcurrency: 1}, false},
		{"production without secret", Config{Environment: "production", DatabaseURL: "postgres://x", FanoutConcurrency: 1}, true},
		{"production without database", Config{Environment: "production", JWTSecret: "s", FanoutConcurrency: 1}, true},
		{"production complete", Config{Environment: "production", JWTSecret: "s", DatabaseURL: "postgres://x", FanoutConcurrency: 1}, false},
		{"zero concurrency", Config{FanoutConcurrency: 0}, true},
		{"negative retries", Config{FanoutConcurrency: 1, EmailMaxRetries: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
