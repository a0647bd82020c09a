// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/robfig/cron/v3"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/config"
	"github.com/youngsadsatan/ssYouTube/internal/history"
	"github.com/youngsadsatan/ssYouTube/internal/icon"
	"github.com/youngsadsatan/ssYouTube/internal/jobs"
	"github.com/youngsadsatan/ssYouTube/internal/live"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/ratelimit"
	"github.com/youngsadsatan/ssYouTube/internal/stream"
	"github.com/youngsadsatan/ssYouTube/internal/upstream"
)

// app holds the wired pipeline for the lifetime of the process.
type app struct {
	deps    jobs.Deps
	history *history.Store
}

func newApp(ctx context.Context, cfg config.AppConfig) (*app, error) {
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	pacer := ratelimit.NewPacer(cfg.MinRequestInterval)
	client := upstream.New(upstream.Options{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.FetchTimeout,
		Pacer:     pacer,
	})

	locator, err := live.NewLocator(client, live.Options{
		OriginBase: cfg.OriginBase,
		Strategies: cfg.Live.Strategies,
	})
	if err != nil {
		return nil, err
	}

	var resolver stream.Resolver
	if slices.Contains(cfg.Stream.Strategies, config.StreamExternalResolver) {
		resolver, err = stream.NewResolver(cfg.Resolver, stream.ProcessRunner{})
		if err != nil {
			return nil, err
		}
	}
	extractor, err := stream.NewExtractor(client, stream.Options{
		OriginBase: cfg.OriginBase,
		Strategies: cfg.Stream.Strategies,
		Resolver:   resolver,
		Timeout:    cfg.Resolver.Timeout,
		Pacer:      pacer,
	})
	if err != nil {
		return nil, err
	}

	icons, err := icon.NewResolver(client, icon.Options{
		Dir:         cfg.IconDir,
		URLTemplate: cfg.Icon.URLTemplate,
		Resolutions: cfg.Icon.Resolutions,
		Size:        cfg.Icon.Size,
	})
	if err != nil {
		return nil, err
	}

	a := &app{deps: jobs.Deps{
		Config:    cfg,
		Catalog:   cat,
		Locator:   locator,
		Extractor: extractor,
		Icons:     icons,
	}}
	if cfg.HistoryPath != "" {
		store, err := history.Open(ctx, cfg.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("open run history: %w", err)
		}
		a.history = store
		a.deps.History = store
	}
	return a, nil
}

// Close releases the run history database.
func (a *app) Close() error {
	if a.history == nil {
		return nil
	}
	return a.history.Close()
}

func (a *app) refresh(ctx context.Context) (*jobs.Report, error) {
	return jobs.Refresh(ctx, a.deps)
}

// schedule refreshes immediately and then on every tick of expr until ctx is
// done. A failed run is logged and the next tick proceeds; overlapping
// ticks are skipped.
func (a *app) schedule(ctx context.Context, expr string) error {
	logger := xglog.WithComponent("scheduler")

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(expr, func() { a.scheduledRun(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}

	a.scheduledRun(ctx)
	c.Start()
	logger.Info().
		Str(xglog.FieldEvent, "scheduler.started").
		Str("schedule", expr).
		Msg("waiting for next scheduled refresh")

	<-ctx.Done()
	<-c.Stop().Done()
	logger.Info().Str(xglog.FieldEvent, "scheduler.stopped").Msg("scheduler stopped")
	return nil
}

func (a *app) scheduledRun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := a.refresh(ctx); err != nil && ctx.Err() == nil {
		logger := xglog.WithComponent("scheduler")
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "scheduler.run_failed").
			Msg("scheduled refresh failed")
	}
}
