package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abelzeko/riverflow/internal/cli"
	"github.com/abelzeko/riverflow/internal/config"
	"github.com/abelzeko/riverflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, cli.ErrorMessage(err))
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, os.Stderr)
	log.Debug("starting riverflow", "base_url", cfg.API.BaseURL, "history", cfg.History.DBPath != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRoot(cfg, log).ExecuteContext(ctx); err != nil {
		stop()
		// Interrupted while a request was in flight.
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			log.Debug("interrupted", "err", err)
			return
		}
		fmt.Fprintln(os.Stderr, cli.ErrorMessage(err))
		os.Exit(1)
	}
}
