package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"ContentGenesis/internal/app"
	"ContentGenesis/internal/config"
	"ContentGenesis/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep over the catalog and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	if *once {
		state, err := application.RunOnce(ctx)
		if err != nil {
			logger.Error("sweep failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sweep finished", "status", state.Status,
			"completed", state.CompletedItems, "total", state.TotalItems,
			"generated", state.GeneratedItems, "skipped", state.SkippedItems, "failed", state.FailedItems)
		return
	}

	if err := application.Run(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
