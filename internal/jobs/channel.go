// SPDX-License-Identifier: MIT

package jobs

import (
	"context"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/history"
	"github.com/youngsadsatan/ssYouTube/internal/icon"
	"github.com/youngsadsatan/ssYouTube/internal/live"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/m3u"
	"github.com/youngsadsatan/ssYouTube/internal/metrics"
	"github.com/youngsadsatan/ssYouTube/internal/playlist"
	"github.com/youngsadsatan/ssYouTube/internal/stream"
	"github.com/youngsadsatan/ssYouTube/internal/telemetry"
	"github.com/youngsadsatan/ssYouTube/internal/upstream"
)

// persistentFailureRuns is the streak length at which a failing channel is
// logged as a warning instead of info.
const persistentFailureRuns = 3

type channelResult struct {
	channel     catalog.ChannelRef
	broadcast   live.Broadcast
	handle      stream.Handle
	entry       playlist.Entry
	failure     *Failure
	iconMissing bool
}

func (r channelResult) outcome() history.ChannelOutcome {
	o := history.ChannelOutcome{
		Category:  r.channel.Category,
		Handle:    r.channel.Handle,
		Outcome:   history.OutcomeResolved,
		WatchID:   r.broadcast.WatchID,
		LiveVia:   r.broadcast.Via,
		MediaURL:  r.handle.MediaURL,
		StreamVia: r.handle.Via,
	}
	if r.failure != nil {
		o.Outcome = history.OutcomeFailedLive
		if r.failure.Stage == StageStream {
			o.Outcome = history.OutcomeFailedStream
		}
		o.Error = r.failure.Err.Error()
	}
	return o
}

// processChannel runs one channel through locate, extract and icon. It never
// returns an error; failures are carried in the result.
func processChannel(ctx context.Context, deps Deps, ch catalog.ChannelRef) (res channelResult) {
	res.channel = ch
	ctx, span := tracer.Start(ctx, "channel.process", trace.WithAttributes(telemetry.ChannelAttributes(ch.Category, ch.Handle)...))
	defer func() {
		if res.failure != nil {
			span.SetAttributes(attribute.String("failure.stage", res.failure.Stage))
			telemetry.End(span, res.failure.Err)
			return
		}
		telemetry.End(span, nil)
	}()

	logger := xglog.WithComponentFromContext(ctx, "jobs").With().
		Str(xglog.FieldCategory, ch.Category).
		Str(xglog.FieldHandle, ch.Handle).
		Logger()

	b, err := deps.Locator.Resolve(ctx, ch)
	if err != nil {
		res.failure = &Failure{Channel: ch, Stage: StageLive, Err: err}
		skipped(ctx, deps, res, "failed_live")
		return res
	}
	res.broadcast = b

	h, err := deps.Extractor.Extract(ctx, b)
	if err != nil {
		res.failure = &Failure{Channel: ch, Stage: StageStream, Err: err}
		skipped(ctx, deps, res, "failed_stream")
		return res
	}
	res.handle = h

	logo := ""
	if deps.Icons != nil {
		asset, err := deps.Icons.Ensure(ctx, ch, b.WatchID)
		if err != nil {
			res.iconMissing = true
			logger.Debug().Err(err).Str(xglog.FieldEvent, "icon.unavailable").Msg("continuing without icon")
		} else {
			logo = icon.LogoURL(deps.Config.Icon.BaseURL, deps.Config.PlaylistDir, asset)
		}
	}

	res.entry = playlist.Entry{
		Category:    ch.Category,
		DisplayName: ch.DisplayName(),
		TvgID:       ch.Handle,
		LogoURL:     logo,
		MediaURL:    h.MediaURL,
	}
	metrics.IncChannel(ch.Category, "resolved")
	logger.Info().
		Str(xglog.FieldEvent, "channel.resolved").
		Str(xglog.FieldWatchID, b.WatchID).
		Str("live_via", b.Via).
		Str("stream_via", h.Via).
		Str("kind", string(h.Kind)).
		Msg("channel is live")
	return res
}

func skipped(ctx context.Context, deps Deps, res channelResult, outcome string) {
	ch := res.channel
	metrics.IncChannel(ch.Category, outcome)
	logger := xglog.WithComponentFromContext(ctx, "jobs")

	streak := 1
	if deps.History != nil && ctx.Err() == nil {
		if n, err := deps.History.ConsecutiveFailures(ctx, ch.Category, ch.Handle); err == nil {
			streak += n
		}
	}
	ev := logger.Info()
	if streak >= persistentFailureRuns {
		ev = logger.Warn()
	}
	if status := upstream.StatusOf(res.failure.Err); status != 0 {
		ev = ev.Int("http_status", status)
	}
	ev.Err(res.failure.Err).
		Str(xglog.FieldEvent, "channel.skipped").
		Str(xglog.FieldCategory, ch.Category).
		Str(xglog.FieldHandle, ch.Handle).
		Str(xglog.FieldStage, res.failure.Stage).
		Int("consecutive_failures", streak).
		Msg("channel skipped")
}

func playlistPath(deps Deps, category string) string {
	return filepath.Join(deps.Config.PlaylistDir, playlist.FileName(category))
}

// diffPrevious compares doc with the playlist currently on disk by tvg-id.
// A missing or unreadable file counts as empty.
func diffPrevious(path string, doc playlist.Document) (added, dropped int) {
	prev := map[string]bool{}
	if channels, err := m3u.ParseFile(path); err == nil {
		for _, c := range channels {
			prev[c.TvgID] = true
		}
	}
	for _, e := range doc.Entries {
		if prev[e.TvgID] {
			delete(prev, e.TvgID)
			continue
		}
		added++
	}
	return added, len(prev)
}
