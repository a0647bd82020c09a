// SPDX-License-Identifier: MIT

// Package live locates the currently live broadcast of a channel.
package live

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/youngsadsatan/ssYouTube/internal/catalog"
	"github.com/youngsadsatan/ssYouTube/internal/config"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/metrics"
	"github.com/youngsadsatan/ssYouTube/internal/strategy"
	"github.com/youngsadsatan/ssYouTube/internal/telemetry"
	"github.com/youngsadsatan/ssYouTube/internal/upstream"
)

// ErrNotFound means no strategy could identify a live broadcast.
var ErrNotFound = errors.New("live: no live broadcast found")

// Broadcast is a located live broadcast.
type Broadcast struct {
	Channel catalog.ChannelRef
	WatchID string
	// Via names the strategy that found the identifier.
	Via string
}

// Fetcher retrieves a page. *upstream.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*upstream.Page, error)
}

// Options configure a Locator.
type Options struct {
	OriginBase string
	// Strategies lists strategy names in the order they are tried.
	Strategies []string
}

// Locator runs the live strategies against a channel's landing page.
type Locator struct {
	fetcher Fetcher
	origin  string
	order   []string
	tracer  trace.Tracer
}

var builtin = map[string]func(*document) strategy.Result[string]{
	config.LiveRedirect:       fromRedirect,
	config.LiveStructuredData: fromStructuredData,
	config.LiveEmbeddedScript: fromEmbeddedScript,
	config.LiveDOMLink:        fromDOMLink,
}

// NewLocator validates the strategy order and returns a Locator.
func NewLocator(f Fetcher, opts Options) (*Locator, error) {
	if f == nil {
		return nil, errors.New("live: fetcher is required")
	}
	if opts.OriginBase == "" {
		opts.OriginBase = config.DefaultOriginBase
	}
	if opts.Strategies == nil {
		opts.Strategies = config.AllLiveStrategies()
	}
	for _, name := range opts.Strategies {
		if _, ok := builtin[name]; !ok {
			return nil, fmt.Errorf("live: unknown strategy %q", name)
		}
	}
	return &Locator{
		fetcher: f,
		origin:  opts.OriginBase,
		order:   append([]string(nil), opts.Strategies...),
		tracer:  telemetry.Tracer("ssyoutube/live"),
	}, nil
}

// Resolve fetches the channel's live landing page once and runs the
// strategies in order. Every failure mode ends in an error wrapping
// ErrNotFound.
func (l *Locator) Resolve(ctx context.Context, ch catalog.ChannelRef) (b Broadcast, err error) {
	ctx, span := l.tracer.Start(ctx, "live.resolve", trace.WithAttributes(telemetry.ChannelAttributes(ch.Category, ch.Handle)...))
	defer func() { telemetry.End(span, err) }()

	logger := xglog.WithComponentFromContext(ctx, "live").With().
		Str(xglog.FieldCategory, ch.Category).
		Str(xglog.FieldHandle, ch.Handle).
		Logger()

	landing := LandingURL(l.origin, ch.Handle)
	page, err := l.fetcher.Get(ctx, landing)
	if err != nil {
		logger.Debug().Err(err).Str(xglog.FieldEvent, "live.fetch_failed").Str(xglog.FieldURL, landing).Msg("landing page fetch failed")
		return Broadcast{}, fmt.Errorf("%w: %s: %w", ErrNotFound, ch.Handle, err)
	}

	doc := &document{finalURL: page.FinalURL, body: page.Body}
	attempts := make([]strategy.Attempt[string], 0, len(l.order))
	for _, name := range l.order {
		fn := builtin[name]
		attempts = append(attempts, strategy.Attempt[string]{
			Name: name,
			Run:  func(context.Context) strategy.Result[string] { return fn(doc) },
		})
	}

	id, via, err := strategy.First(ctx, attempts, func(o strategy.Outcome) {
		metrics.IncStrategyAttempt("live", o.Name, o.Status.String())
		span.AddEvent("strategy", trace.WithAttributes(telemetry.StrategyAttributes(o.Name, o.Status.String())...))
		ev := logger.Debug().Str(xglog.FieldEvent, "live.attempt").Str(xglog.FieldStrategy, o.Name).Str("result", o.Status.String())
		if o.Err != nil {
			ev = ev.Err(o.Err)
		}
		ev.Msg("live strategy finished")
	})
	if err != nil {
		if ctx.Err() != nil {
			return Broadcast{}, err
		}
		return Broadcast{}, fmt.Errorf("%w: %s: %w", ErrNotFound, ch.Handle, err)
	}

	span.SetAttributes(attribute.String(telemetry.WatchIDKey, id), attribute.String(telemetry.StrategyNameKey, via))
	logger.Info().
		Str(xglog.FieldEvent, "live.resolved").
		Str(xglog.FieldWatchID, id).
		Str(xglog.FieldStrategy, via).
		Msg("live broadcast located")
	return Broadcast{Channel: ch, WatchID: id, Via: via}, nil
}
