package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"budgetd/internal/amqp"
	"budgetd/internal/analytics"
	"budgetd/internal/budgets"
	"budgetd/internal/cache"
	"budgetd/internal/config"
	apphttp "budgetd/internal/http"
	"budgetd/internal/ledger"
	"budgetd/internal/loans"
	"budgetd/internal/log"
	"budgetd/internal/notify"
	"budgetd/internal/storage"
	"budgetd/internal/worker"
)

func main() {
	// Load .env for local development; absent in production is fine.
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

	// Budget alerts go through AMQP when a broker is configured, to the
	// log otherwise.
	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		notifier = amqp.NewNotifier(amqpClient)
		logger.Info("AMQP notifier initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled, budget alerts go to the log")
	}

	cacheManager := cache.NewManager()
	summaryCache := cache.NewLRUCache[*analytics.Summary](256, 5*time.Minute)
	cacheManager.Register(summaryCache)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	evaluator := budgets.NewEvaluator(repo, notifier, logger)
	aggregator := analytics.NewAggregator(repo, logger).WithSummaryCache(summaryCache)
	processor := ledger.NewProcessor(repo, logger,
		evaluator.CheckTransaction,
		aggregator.InvalidateUser)
	engine := loans.NewEngine(repo, logger)

	srv := apphttp.NewServer(":"+cfg.Port, repo, processor, engine, evaluator, aggregator, logger)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	checker := worker.NewBudgetChecker(repo, evaluator, cfg.BudgetCheckInterval, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("Starting budgetd server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := checker.Run(ctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
