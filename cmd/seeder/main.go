// cmd/seeder/main.go
package main

import (
	"context"
	"os"

	"github.com/unclebandit/collab-engine/internal/config"
	"github.com/unclebandit/collab-engine/internal/db"
	"github.com/unclebandit/collab-engine/internal/logger"
)

var seedFiles = []string{
	"seed/profiles.sql",
	"seed/campaigns.sql",
}

func main() {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))

	cfg, err := config.Load(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		log.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL, 1)
	if err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn, log); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Error("failed to read seed file", "file", file, "error", err)
			os.Exit(1)
		}
		if _, err := conn.ExecContext(ctx, string(content)); err != nil {
			log.Error("failed to execute seed file", "file", file, "error", err)
			os.Exit(1)
		}
		log.Info("seeded", "file", file)
	}

	log.Info("database seeding completed")
}
