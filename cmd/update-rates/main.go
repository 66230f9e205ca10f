package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"budgetd/internal/config"
	"budgetd/internal/log"
	"budgetd/internal/rates"
	"budgetd/internal/storage"
)

// One-shot exchange rate refresh, meant to run from cron.
func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client := rates.NewClient(cfg.RatesAPIURL, repo, logger)
	if err := client.Update(ctx, cfg.RateCodes); err != nil {
		logger.Error("Rate update failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Exchange rates updated", "codes", cfg.RateCodes)
}
