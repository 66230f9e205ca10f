package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetd/internal/amqp"
	"budgetd/internal/budgets"
	"budgetd/internal/config"
	"budgetd/internal/log"
	"budgetd/internal/notify"
	"budgetd/internal/storage"
	"budgetd/internal/worker"
)

// Standalone budget checker for running alert scans outside the main
// server, either once (-once) or on the configured interval.
func main() {
	once := flag.Bool("once", false, "run a single check and exit")
	flag.Parse()

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

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqp.NewNotifier(amqpClient)
	}

	evaluator := budgets.NewEvaluator(repo, notifier, logger)
	checker := worker.NewBudgetChecker(repo, evaluator, cfg.BudgetCheckInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *once {
		checker.CheckOnce(ctx)
		return
	}

	logger.Info("Starting budget checker", "interval", cfg.BudgetCheckInterval.String())
	if err := checker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("Budget checker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Budget checker stopped gracefully")
}
