package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/aipothole/pothole-api/internal/adapters/postgres"
	"github.com/aipothole/pothole-api/internal/pkg/config"
	"github.com/aipothole/pothole-api/internal/pkg/logging"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up>")
	}

	cfg, err := config.Load("potholes-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("potholes-migrate")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch os.Args[1] {
	case "up":
		db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer db.Close()

		applied, err := postgres.Migrate(ctx, db)
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		for _, name := range applied {
			slog.Info("migration applied", "file", name)
		}
		slog.Info("migrations complete", "applied", len(applied))
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
