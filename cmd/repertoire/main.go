package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/repertoire/adapter/cli"
	"github.com/felixgeelhaar/repertoire/adapter/cli/prefs"
	"github.com/felixgeelhaar/repertoire/adapter/cli/queue"
	"github.com/felixgeelhaar/repertoire/adapter/cli/tune"
	"github.com/felixgeelhaar/repertoire/internal/app"
	"github.com/felixgeelhaar/repertoire/pkg/config"
	"github.com/felixgeelhaar/repertoire/pkg/observability"
)

func main() {
	// Create context with cancellation
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logConfig := observability.LogConfigFor("", string(observability.LogLevelWarn), "")
	logConfig.ServiceVersion = cli.Version
	logger := observability.NewLogger(logConfig)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Only an explicit LOG_LEVEL makes the CLI chatty
	level := string(observability.LogLevelWarn)
	if os.Getenv("LOG_LEVEL") != "" {
		level = cfg.LogLevel
	}
	logConfig = observability.LogConfigFor(cfg.AppEnv, level, cfg.LogFormat)
	logConfig.ServiceVersion = cli.Version
	logger = observability.NewLogger(logConfig)
	cli.SetLogger(logger)

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}

	cli.SetApp(cli.NewApp(container))

	// Register commands
	cli.AddCommand(queue.Cmd)
	cli.AddCommand(tune.Cmd)
	cli.AddCommand(prefs.Cmd)

	// Execute CLI
	err = cli.ExecuteContext(ctx)
	container.Close()
	if err != nil {
		os.Exit(1)
	}
}
