package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/unionlens/contract-assistant/internal/config"
	"github.com/unionlens/contract-assistant/internal/platform/factory"
	"github.com/unionlens/contract-assistant/internal/platform/logger"
	"github.com/unionlens/contract-assistant/internal/retention"
)

func main() {
	lg := logger.New("retention-worker")

	cfg, err := config.New()
	if err != nil {
		lg.Fatal().Err(err).Msg("config")
	}

	st, err := factory.NewStore(cfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("storage driver unavailable")
	}

	sweeper := retention.NewSweeper(st, retention.Config{
		Interval: cfg.SweepInterval,
	}, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sweeper.Run(ctx); err != nil && err != context.Canceled {
		lg.Error().Err(err).Msg("retention sweeper exit")
		os.Exit(1)
	}
}
