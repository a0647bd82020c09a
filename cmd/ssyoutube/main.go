// SPDX-License-Identifier: MIT

// Command ssyoutube resolves the live broadcasts of a channel catalog and
// writes one M3U playlist per category.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/youngsadsatan/ssYouTube/internal/config"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/telemetry"
	"github.com/youngsadsatan/ssYouTube/internal/version"
)

const serviceName = "ssyoutube"

// errInterrupted marks a run stopped by a signal.
var errInterrupted = errors.New("interrupted")

func main() {
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: serviceName,
		Version: version.Version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	logger := xglog.WithComponent("daemon")
	switch {
	case err == nil:
	case errors.Is(err, flag.ErrHelp):
		return
	case errors.Is(err, errInterrupted):
		logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "daemon.interrupted").
			Msg("run interrupted")
		os.Exit(130)
	default:
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "daemon.failed").
			Msg("refresh failed")
	}
}

// run parses flags, loads the configuration and performs one refresh, or
// keeps refreshing on the configured schedule until ctx is done.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fs.SetOutput(stdout)
	showVersion := fs.Bool("version", false, "print version and exit")
	configPath := fs.String("config", "", "path to config file (YAML)")
	catalogPath := fs.String("catalog", "", "path to channel catalog (YAML), overrides catalog_path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	if *showVersion {
		_, err := fmt.Fprintln(stdout, version.String())
		return err
	}

	logger := xglog.WithComponent("daemon")

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
		return err
	}
	if c := strings.TrimSpace(*catalogPath); c != "" {
		cfg.CatalogPath = c
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: serviceName,
		Version: cfg.Version,
	})
	logger = xglog.WithComponent("daemon")

	source := "env+defaults"
	if path != "" {
		source = "file"
	}
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("source", source).
		Str("config_path", path).
		Str("playlist_dir", cfg.PlaylistDir).
		Str("icon_dir", cfg.IconDir).
		Strs("live_strategies", cfg.Live.Strategies).
		Strs("stream_strategies", cfg.Stream.Strategies).
		Int("workers", cfg.Workers).
		Msg("configuration loaded")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "telemetry.shutdown_failed").Msg("telemetry shutdown failed")
		}
	}()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "daemon.close_failed").Msg("close failed")
		}
	}()

	if cfg.Schedule != "" {
		return a.schedule(ctx, cfg.Schedule)
	}
	if _, err := a.refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", errInterrupted, err)
		}
		return err
	}
	return nil
}
