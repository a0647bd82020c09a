// SPDX-License-Identifier: MIT

// Package jobs runs a complete refresh: every catalog channel through the
// live, stream and icon stages, then one playlist per category.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/history"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/metrics"
	"github.com/youngsadsatan/ssYouTube/internal/playlist"
	"github.com/youngsadsatan/ssYouTube/internal/telemetry"
)

var tracer = telemetry.Tracer("ssyoutube/jobs")

// Refresh processes every category of the catalog in order and writes one
// playlist per non-empty category. Channel failures are counted in the
// report; only write failures and cancellation are returned as errors. A
// category interrupted by cancellation is never written.
func Refresh(ctx context.Context, deps Deps) (report *Report, err error) {
	if err := validateDeps(deps); err != nil {
		return nil, err
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	runID := xglog.JobIDFromContext(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = xglog.ContextWithJobID(ctx, runID)
	}

	ctx, span := tracer.Start(ctx, "refresh.run", trace.WithAttributes(attribute.String(telemetry.RunIDKey, runID)))
	defer func() { telemetry.End(span, err) }()

	logger := xglog.WithComponentFromContext(ctx, "jobs")
	report = &Report{
		RunID:           runID,
		StartedAt:       clock(),
		FailuresByStage: map[string]int{StageLive: 0, StageStream: 0},
	}
	categories := deps.Catalog.Categories()
	workers := deps.Config.Workers
	if workers < 1 {
		workers = 1
	}

	logger.Info().
		Str(xglog.FieldEvent, "refresh.start").
		Int("categories", len(categories)).
		Int("channels", deps.Catalog.Len()).
		Int("workers", workers).
		Time("started_at", report.StartedAt).
		Msg("starting refresh")

	var outcomes []history.ChannelOutcome
	for _, cat := range categories {
		if err = ctx.Err(); err != nil {
			break
		}
		var cr CategoryReport
		var catOutcomes []history.ChannelOutcome
		cr, catOutcomes, err = runCategory(ctx, deps, cat, workers, report)
		outcomes = append(outcomes, catOutcomes...)
		if err != nil {
			break
		}
		report.Categories = append(report.Categories, cr)
		if cr.Path != "" {
			report.Written = append(report.Written, cr.Path)
		} else {
			report.EmptyCategories = append(report.EmptyCategories, cr.Name)
		}
	}
	report.FinishedAt = clock()

	outcome := history.RunSuccess
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = history.RunCanceled
	case err != nil:
		outcome = history.RunFailure
	}
	finish(ctx, deps, report, outcome, outcomes)

	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "refresh.failed").
			Str("outcome", outcome).
			Int("resolved", report.Resolved).
			Int("failed", report.Failed).
			Msg("refresh aborted")
		return report, err
	}

	logger.Info().
		Str(xglog.FieldEvent, "refresh.success").
		Int("resolved", report.Resolved).
		Int("failed", report.Failed).
		Int("failed_live", report.FailuresByStage[StageLive]).
		Int("failed_stream", report.FailuresByStage[StageStream]).
		Int("icons_missing", report.IconsMissing).
		Strs("written", report.Written).
		Strs("empty_categories", report.EmptyCategories).
		Dur("duration", report.Duration()).
		Msg("refresh completed")
	return report, nil
}

// runCategory resolves the channels of cat on a bounded pool, then writes
// or clears its playlist. Each worker owns one slot of the result slice.
func runCategory(ctx context.Context, deps Deps, cat catalog.Category, workers int, report *Report) (CategoryReport, []history.ChannelOutcome, error) {
	logger := xglog.WithComponentFromContext(ctx, "jobs").With().Str(xglog.FieldCategory, cat.Name).Logger()
	cr := CategoryReport{Name: cat.Name, Channels: len(cat.Handles)}

	slots := make([]channelResult, len(cat.Handles))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, handle := range cat.Handles {
		if ctx.Err() != nil {
			break
		}
		ch := catalog.ChannelRef{Category: cat.Name, Handle: handle}
		g.Go(func() error {
			slots[i] = processChannel(ctx, deps, ch)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		logger.Warn().
			Str(xglog.FieldEvent, "category.interrupted").
			Msg("category interrupted, playlist left untouched")
		return cr, nil, err
	}

	entries := make([]playlist.Entry, 0, len(slots))
	outcomes := make([]history.ChannelOutcome, 0, len(slots))
	for _, res := range slots {
		report.Channels++
		outcomes = append(outcomes, res.outcome())
		if res.iconMissing {
			report.IconsMissing++
		}
		if res.failure != nil {
			report.addFailure(*res.failure)
			cr.Failed++
			continue
		}
		report.Resolved++
		entries = append(entries, res.entry)
	}

	doc := playlist.Assemble(cat.Name, entries)
	cr.Entries = len(doc.Entries)
	metrics.RecordPlaylistEntries(cat.Name, cr.Entries)

	if doc.Empty() {
		removed, err := playlist.RemoveStale(deps.Config.PlaylistDir, cat.Name)
		if err != nil {
			metrics.IncPlaylistWrite("error")
			return cr, outcomes, fmt.Errorf("category %s: %w", cat.Name, err)
		}
		cr.StaleRemoved = removed
		metrics.IncPlaylistWrite("empty")
		logger.Info().
			Str(xglog.FieldEvent, "playlist.empty").
			Int("failed", cr.Failed).
			Msg("no live channels, playlist not written")
		if removed {
			metrics.IncPlaylistWrite("stale_removed")
			logger.Info().
				Str(xglog.FieldEvent, "playlist.stale_removed").
				Str(xglog.FieldPlaylistPath, playlistPath(deps, cat.Name)).
				Msg("removed playlist from previous run")
		}
		return cr, outcomes, nil
	}

	added, dropped := diffPrevious(playlistPath(deps, cat.Name), doc)
	path, err := playlist.WriteFile(ctx, deps.Config.PlaylistDir, doc)
	if err != nil {
		metrics.IncPlaylistWrite("error")
		return cr, outcomes, fmt.Errorf("category %s: %w", cat.Name, err)
	}
	cr.Path = path
	metrics.IncPlaylistWrite("written")
	logger.Info().
		Str(xglog.FieldEvent, "playlist.write").
		Str(xglog.FieldPlaylistPath, path).
		Int("entries", cr.Entries).
		Int("failed", cr.Failed).
		Int("added", added).
		Int("dropped", dropped).
		Msg("playlist written")
	return cr, outcomes, nil
}

// finish records metrics, history and the metrics textfile. None of these
// can fail the run.
func finish(ctx context.Context, deps Deps, report *Report, outcome string, outcomes []history.ChannelOutcome) {
	logger := xglog.WithComponentFromContext(ctx, "jobs")
	metrics.RecordRefresh(outcome, report.Resolved, report.Duration())

	if deps.History != nil {
		run := history.Run{
			ID:         report.RunID,
			StartedAt:  report.StartedAt,
			FinishedAt: report.FinishedAt,
			Outcome:    outcome,
			Resolved:   report.Resolved,
			Failed:     report.Failed,
			Channels:   outcomes,
		}
		// The run context may already be canceled; the record still belongs to it.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if err := deps.History.Record(recCtx, run); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "history.record_failed").Msg("could not record run history")
		}
		cancel()
	}

	if path := deps.Config.MetricsTextfile; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			logger.Warn().Err(err).Str(xglog.FieldEvent, "metrics.write_failed").Str(xglog.FieldPath, path).Msg("could not write metrics textfile")
		}
	}
}

func validateDeps(deps Deps) error {
	var errs []error
	if deps.Catalog == nil {
		errs = append(errs, errors.New("catalog is required"))
	}
	if deps.Locator == nil {
		errs = append(errs, errors.New("locator is required"))
	}
	if deps.Extractor == nil {
		errs = append(errs, errors.New("extractor is required"))
	}
	if deps.Config.PlaylistDir == "" {
		errs = append(errs, errors.New("playlist dir is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	return nil
}
