package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/repertoire/internal/app"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/subscribers"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/repertoire/pkg/config"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logConfig := observability.LogConfigFor(cfg.AppEnv, cfg.LogLevel, cfg.LogFormat)
	logConfig.ServiceName = "repertoire-worker"
	logger := observability.NewLogger(logConfig)

	if !cfg.OutboxProcessorEnabled {
		logger.Info("outbox processor disabled, nothing to do")
		return
	}

	logger.Info("starting repertoire worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	conn, err := app.OpenDatabase(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("connected to database", "driver", conn.Driver())

	repos, err := app.NewRepositories(conn)
	if err != nil {
		logger.Error("failed to create repositories", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewInMemoryMetrics()
	registry := eventbus.NewConsumerRegistry(logger).WithMetrics(metrics)
	activity := subscribers.NewQueueActivitySubscriber(logger, metrics)

	publisher, closePublisher := newPublisher(ctx, cfg, registry, activity, logger)
	defer closePublisher()

	processorConfig := outbox.ProcessorConfig{
		PollInterval:    cfg.OutboxPollInterval,
		BatchSize:       cfg.OutboxBatchSize,
		MaxRetries:      cfg.OutboxMaxRetries,
		CleanupInterval: cfg.OutboxCleanupInterval,
		RetentionDays:   cfg.OutboxRetentionDays,
	}
	processor := outbox.NewProcessor(repos.Outbox, publisher, processorConfig, logger).WithMetrics(metrics)

	// Start processing
	logger.Info("starting outbox processor",
		"poll_interval", processorConfig.PollInterval,
		"batch_size", processorConfig.BatchSize,
		"max_retries", processorConfig.MaxRetries,
		"retention_days", processorConfig.RetentionDays,
	)

	if err := processor.Start(ctx); err != nil {
		logger.Error("failed to start outbox processor", "error", err)
		os.Exit(1)
	}

	if cfg.WorkerHealthAddr != "" {
		startHealthServer(ctx, cfg.WorkerHealthAddr, processor, conn, logger)
	}

	statsTicker := time.NewTicker(cfg.OutboxStatsInterval)
	defer statsTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-statsTicker.C:
				stats := processor.GetStats()
				logger.Info("outbox stats",
					"running", stats.IsRunning,
					"published", stats.PublishedCount,
					"failed", stats.FailedCount,
					"dead", stats.DeadCount,
					"lag_seconds", stats.LagSeconds,
					"oldest_message_at", stats.OldestMessageAt,
					"consumers", registry.ConsumerCount(),
				)
				logger.Debug("worker metrics", "series", metrics.Snapshot())
			}
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down worker")
	processor.Stop()

	logger.Info("worker stopped")
}

// newPublisher picks RabbitMQ when configured. Without a broker, events are
// delivered in-process to the registered subscribers.
func newPublisher(
	ctx context.Context,
	cfg *config.Config,
	registry *eventbus.ConsumerRegistry,
	activity *subscribers.QueueActivitySubscriber,
	logger *slog.Logger,
) (eventbus.Publisher, func()) {
	if cfg.RabbitMQURL == "" {
		bus := eventbus.NewInProcessBus(registry, logger)
		bus.RegisterConsumer(activity)
		logger.Info("event publisher initialized", "transport", "in-process")
		return bus, func() { _ = bus.Close() }
	}

	rabbitPublisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		logger.Warn("RabbitMQ not available, using noop publisher", "error", err)
		return eventbus.NewNoopPublisher(logger), func() {}
	}

	consumer, err := eventbus.NewRabbitMQConsumer(eventbus.RabbitMQConsumerConfig{
		URL:    cfg.RabbitMQURL,
		Logger: logger,
	}, registry)
	if err != nil {
		logger.Error("failed to start RabbitMQ consumer", "error", err)
		_ = rabbitPublisher.Close()
		os.Exit(1)
	}
	consumer.RegisterConsumer(activity)

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error("RabbitMQ consumer stopped", "error", err)
		}
	}()

	logger.Info("event publisher initialized", "transport", "rabbitmq")
	return rabbitPublisher, func() {
		_ = consumer.Close()
		_ = rabbitPublisher.Close()
	}
}

func startHealthServer(ctx context.Context, addr string, processor *outbox.Processor, conn database.Connection, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := processor.GetStats()
		response := map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})

	health := observability.NewHealthRegistry()
	health.Register("database", observability.PingHealthChecker("database", conn.Ping, observability.HealthStatusUnhealthy))
	health.Register("outbox", observability.PingHealthChecker("outbox", func(context.Context) error {
		if !processor.IsRunning() {
			return errors.New("processor not running")
		}
		return nil
	}, observability.HealthStatusDegraded))

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		overall := health.Check(checkCtx)
		w.Header().Set("Content-Type", "application/json")
		if overall.Status == observability.HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(overall)
	})

	healthSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("health server starting", "addr", addr)
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("health server shutdown error", "error", err)
		}
	}()
}
