package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stocktracker/internal/amqp"
	"stocktracker/internal/config"
	applog "stocktracker/internal/log"
	"stocktracker/internal/marketdata"
	"stocktracker/internal/storage"
	"stocktracker/internal/worker"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     applog.DefaultConfig().Level,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting sync worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the sync worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	fetcher := marketdata.NewClient(cfg.MarketDataBaseURL, cfg.MarketDataTimeout)
	syncWorker := worker.NewSyncWorker(fetcher, repo, cfg.SyncConcurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	// Periodic full refresh runs alongside on-demand messages.
	if cfg.RefreshInterval > 0 {
		go syncWorker.RunPeriodicRefresh(ctx, cfg.RefreshInterval)
	}

	err = amqpClient.ConsumeCompanySync(ctx, func(msg *amqp.CompanySyncMessage) error {
		return syncWorker.HandleSyncMessage(ctx, msg)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Sync worker stopped")
}
