package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/repertoire/internal/practice/application/commands"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/preferences"
	"github.com/felixgeelhaar/repertoire/internal/practice/application/queries"
	"github.com/felixgeelhaar/repertoire/internal/practice/domain"
	"github.com/felixgeelhaar/repertoire/internal/practice/infrastructure/redislock"
	sharedApplication "github.com/felixgeelhaar/repertoire/internal/shared/application"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/repertoire/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/repertoire/pkg/config"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *observability.InMemoryMetrics

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Identity of the local learner and repertoire.
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID

	// Repositories
	CandidateRepo   domain.CandidateRepository
	QueueStore      domain.QueueStore
	PreferencesRepo domain.PreferencesRepository
	CatalogRepo     domain.CatalogRepository
	OutboxRepo      outbox.Repository

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Queue lock; NoopLock when Redis is not configured.
	QueueLock domain.QueueLock

	// Preferences
	PreferencesService *preferences.Service

	// Queue Command Handlers
	GenerateQueueHandler *commands.GenerateQueueHandler
	RefillQueueHandler   *commands.RefillQueueHandler
	CompleteEntryHandler *commands.CompleteEntryHandler

	// Catalog Command Handlers
	AddTuneHandler        *commands.AddTuneHandler
	ScheduleTuneHandler   *commands.ScheduleTuneHandler
	RecordPracticeHandler *commands.RecordPracticeHandler
	RemoveTuneHandler     *commands.RemoveTuneHandler
	ImportTunesHandler    *commands.ImportTunesHandler

	// Query Handlers
	GetActiveQueueHandler    *queries.GetActiveQueueHandler
	ClassifyTimestampHandler *queries.ClassifyTimestampHandler
}

// NewContainer creates and wires all dependencies. The database driver follows the
// configuration: SQLite in local mode, PostgreSQL otherwise.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewInMemoryMetrics(),
	}

	var err error
	if c.UserRef, err = uuid.Parse(cfg.UserID); err != nil {
		return nil, fmt.Errorf("invalid user id: %w", err)
	}
	if c.RepertoireRef, err = uuid.Parse(cfg.RepertoireID); err != nil {
		return nil, fmt.Errorf("invalid repertoire id: %w", err)
	}

	conn, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.DBConn = conn
	c.DBDriver = conn.Driver()

	if err := c.wireRepositories(conn); err != nil {
		conn.Close()
		return nil, err
	}

	if err := c.connectRedis(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	c.wireHandlers()

	logger.Info("container initialized",
		"driver", c.DBDriver,
		"redis_lock", c.RedisClient != nil,
	)

	return c, nil
}

// OpenDatabase connects to the configured database and applies migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.Driver(cfg.DatabaseDriver),
		URL:        cfg.DatabaseURL,
		SQLitePath: cfg.SQLitePath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("running migrations", "driver", conn.Driver())
	if err := migrations.Run(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}

func (c *Container) wireRepositories(conn database.Connection) error {
	repos, err := NewRepositories(conn)
	if err != nil {
		return err
	}
	c.CandidateRepo = repos.Candidates
	c.QueueStore = repos.Queue
	c.PreferencesRepo = repos.Preferences
	c.CatalogRepo = repos.Catalog
	c.OutboxRepo = repos.Outbox
	c.UnitOfWork = database.NewUnitOfWork(conn)
	return nil
}

// connectRedis sets up the queue lock. Redis is optional in development.
func (c *Container) connectRedis(ctx context.Context) error {
	c.QueueLock = domain.NoopLock{}
	if c.Config.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(c.Config.RedisURL)
	if err != nil {
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		c.Logger.Warn("invalid Redis URL, queue generation will run unlocked", "error", err)
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, queue generation will run unlocked", "error", err)
		return nil
	}

	lockConfig := redislock.DefaultConfig()
	if c.Config.QueueLockTTL > 0 {
		lockConfig.TTL = c.Config.QueueLockTTL
	}
	if c.Config.RedisBreakerFailures > 0 {
		lockConfig.BreakerFailures = uint32(c.Config.RedisBreakerFailures)
	}
	if c.Config.RedisBreakerTimeout > 0 {
		lockConfig.BreakerTimeout = c.Config.RedisBreakerTimeout
	}

	c.RedisClient = client
	c.QueueLock = redislock.New(client, lockConfig, c.Logger)
	c.Logger.Info("connected to Redis")
	return nil
}

func (c *Container) wireHandlers() {
	c.PreferencesService = preferences.NewService(c.PreferencesRepo, preferences.Defaults{
		DelinquencyWindowDays: c.Config.DefaultDelinquencyWindowDays,
		MaxDailyReviews:       c.Config.DefaultMaxDailyReviews,
		EnableNewItems:        c.Config.DefaultEnableNewItems,
	})

	c.GenerateQueueHandler = commands.NewGenerateQueueHandler(
		c.CandidateRepo, c.QueueStore, c.PreferencesService, c.OutboxRepo, c.UnitOfWork, c.Logger,
	).WithLock(c.QueueLock).WithMetrics(c.Metrics)
	c.RefillQueueHandler = commands.NewRefillQueueHandler(
		c.CandidateRepo, c.QueueStore, c.PreferencesService, c.OutboxRepo, c.UnitOfWork, c.Logger,
	).WithLock(c.QueueLock).WithMetrics(c.Metrics)
	c.CompleteEntryHandler = commands.NewCompleteEntryHandler(c.QueueStore, c.UnitOfWork)

	c.AddTuneHandler = commands.NewAddTuneHandler(c.CatalogRepo, c.UnitOfWork)
	c.ScheduleTuneHandler = commands.NewScheduleTuneHandler(c.CatalogRepo)
	c.RecordPracticeHandler = commands.NewRecordPracticeHandler(c.CatalogRepo, c.UnitOfWork)
	c.RemoveTuneHandler = commands.NewRemoveTuneHandler(c.CatalogRepo)
	c.ImportTunesHandler = commands.NewImportTunesHandler(c.CatalogRepo, c.UnitOfWork)

	c.GetActiveQueueHandler = queries.NewGetActiveQueueHandler(c.QueueStore, c.PreferencesService, c.Logger)
	c.ClassifyTimestampHandler = queries.NewClassifyTimestampHandler(c.Logger, c.Metrics)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		} else {
			c.Logger.Info("Redis connection closed")
		}
	}

	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing database connection", "error", err, "driver", c.DBDriver)
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
}
