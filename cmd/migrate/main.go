package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"mlm-platform/internal/config"
	"mlm-platform/internal/database"
	"mlm-platform/internal/logging"
)

func main() {
	list := flag.Bool("list", false, "print the migrations that would run and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logging.Init(cfg.IsProduction())
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	if *list {
		names, err := database.MigrationNames()
		if err != nil {
			zap.L().Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, name := range names {
			zap.L().Info("Migration", zap.String("file", name))
		}
		return
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		zap.L().Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}

	if err := database.ApplyMigrations(ctx, db); err != nil {
		zap.L().Fatal("Failed to apply migrations", zap.Error(err))
	}
	zap.L().Info("Migrations applied successfully")
}
