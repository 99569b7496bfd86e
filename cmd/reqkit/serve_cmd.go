// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/reqkit/app"
	"github.com/ManuGH/reqkit/config"
	xglog "github.com/ManuGH/reqkit/internal/log"
	"github.com/rs/zerolog"
)

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("reqkit serve", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var cf configFlags
	cf.register(fs)
	var watch bool
	fs.BoolVar(&watch, "watch", false, "reload configuration when its files change")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := cf.load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", cf.dir, err)
		return 1
	}
	settings, err := config.LoadAppSettings(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Validation error in %s:\n  %v\n", cf.dir, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, settings)
	if err != nil {
		fmt.Fprintf(stderr, "Startup error: %v\n", err)
		return 1
	}
	logger := xglog.WithComponent("serve")

	cfg.OnReload(func() { applyReload(cfg, logger) })
	if watch {
		// best effort: serving does not depend on the watcher
		if err := cfg.Watch(ctx); err != nil {
			logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}
	go reloadOnSignal(ctx, cfg, logger)

	if err := a.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return 1
	}
	return 0
}

// applyReload applies the settings that can change at runtime: the log
// level. Everything else needs a restart.
func applyReload(cfg *config.Configuration, logger zerolog.Logger) {
	settings, err := config.LoadAppSettings(cfg)
	if err != nil {
		logger.Warn().Err(err).Str("event", "config.reload_invalid").Msg("reloaded configuration is invalid, keeping current settings")
		return
	}
	if level, err := zerolog.ParseLevel(settings.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	logger.Info().
		Str("event", "config.reloaded").
		Str("log_level", settings.Log.Level).
		Msg("configuration reloaded; server settings apply after restart")
}

func reloadOnSignal(ctx context.Context, cfg *config.Configuration, logger zerolog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			logger.Info().Str("event", "config.reload_signal").Msg("received SIGHUP, reloading config")
			if err := cfg.Reload(); err != nil {
				logger.Warn().Err(err).Str("event", "config.reload_failed").Msg("config reload failed")
			}
		}
	}
}
