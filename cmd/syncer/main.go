package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"legispulse/internal/config"
	"legispulse/internal/publisher"
	"legispulse/internal/scheduler"
	"legispulse/internal/service"
	"legispulse/internal/source/legiscan"
	"legispulse/internal/storage/memstore"
	"legispulse/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	sessionID := flag.Int64("session", 0, "LegiScan session id (0 = resolve current session)")
	once := flag.Bool("once", false, "run a single sync and exit")
	flag.Parse()

	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	// Without a configured database the syncer still runs, against an
	// in-memory store. Useful for local development and dry runs.
	var (
		billStore      service.BillStore
		syncStateStore service.SyncStateStore
		txManager      service.TransactionManager
	)
	if cfg.Database.Host == "" {
		logger.Warn("no database configured, using in-memory store")
		billStore = memstore.NewBillStore()
		syncStateStore = memstore.NewSyncStateStore()
		txManager = memstore.TxManager{}
	} else {
		db, err := sqlx.Connect("postgres", cfg.Database.DSN())
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		logger.Info("connected to database")

		billStore = postgres.NewBillStore(db)
		syncStateStore = postgres.NewSyncStateStore(db)
		txManager = postgres.NewTransactionManager(db)
	}

	// Initialize RabbitMQ publisher
	rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
		URL:        cfg.RabbitMQ.URL,
		Exchange:   cfg.RabbitMQ.Exchange,
		RoutingKey: cfg.RabbitMQ.RoutingKey,
		QueueName:  cfg.RabbitMQ.QueueName,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rabbitMQ.Close()

	// Initialize LegiScan source
	legiscanSource := legiscan.New(legiscan.Config{
		BaseURL:        cfg.LegiScan.BaseURL,
		APIKey:         cfg.LegiScan.APIKey,
		State:          cfg.LegiScan.State,
		Timeout:        cfg.LegiScan.Timeout,
		MaxAttempts:    cfg.LegiScan.Retry.MaxAttempts,
		InitialBackoff: cfg.LegiScan.Retry.InitialBackoff,
		MaxBackoff:     cfg.LegiScan.Retry.MaxBackoff,
	}, logger)

	syncService := service.NewSyncService(
		legiscanSource,
		billStore,
		syncStateStore,
		txManager,
		rabbitMQ,
		logger,
		cfg.Sync,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if *once {
		stats, err := syncService.SyncSession(ctx, *sessionID)
		if err != nil {
			logger.Error("sync failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sync finished",
			"session_id", stats.SessionID,
			"fetched", stats.Fetched,
			"new", stats.New,
			"updated", stats.Updated,
		)
		return
	}

	sched := scheduler.NewScheduler(syncService, cfg.Sync.Interval, logger)

	logger.Info("starting bill syncer",
		"source", legiscanSource.Name(),
		"state", cfg.LegiScan.State,
		"interval", cfg.Sync.Interval,
	)

	if err := sched.Start(ctx); err != nil && err != context.Canceled {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
