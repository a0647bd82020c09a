// SPDX-License-Identifier: MIT

// Package stream turns a located broadcast into a playable media URL.
package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/youngsadsatan/ssYouTube/internal/config"
	xglog "github.com/youngsadsatan/ssYouTube/internal/log"
	"github.com/youngsadsatan/ssYouTube/internal/live"
	"github.com/youngsadsatan/ssYouTube/internal/metrics"
	"github.com/youngsadsatan/ssYouTube/internal/ratelimit"
	"github.com/youngsadsatan/ssYouTube/internal/strategy"
	"github.com/youngsadsatan/ssYouTube/internal/telemetry"
	"github.com/youngsadsatan/ssYouTube/internal/upstream"
)

// ErrNotFound means no strategy produced a media URL.
var ErrNotFound = errors.New("stream: no playable stream found")

// Kind classifies a media URL.
type Kind string

const (
	KindHLS         Kind = "hls"
	KindProgressive Kind = "progressive"
)

// KindOf reports KindHLS for manifest URLs and KindProgressive otherwise.
func KindOf(mediaURL string) Kind {
	if u, err := url.Parse(mediaURL); err == nil && strings.Contains(strings.ToLower(u.Path), ".m3u8") {
		return KindHLS
	}
	if strings.Contains(strings.ToLower(mediaURL), "/manifest/hls") {
		return KindHLS
	}
	return KindProgressive
}

// Handle is a playable stream for a broadcast.
type Handle struct {
	Broadcast live.Broadcast
	MediaURL  string
	Kind      Kind
	// Via names the strategy that produced MediaURL.
	Via string
}

// Fetcher retrieves a page. *upstream.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, url string) (*upstream.Page, error)
}

// Options configure an Extractor.
type Options struct {
	OriginBase string
	// Strategies lists strategy names in the order they are tried.
	Strategies []string
	// Resolver backs the external_resolver strategy.
	Resolver Resolver
	// Timeout bounds a single resolver run.
	Timeout time.Duration
	// Pacer is consulted before every resolver run.
	Pacer *ratelimit.Pacer
}

// Extractor runs the stream strategies for a broadcast.
type Extractor struct {
	fetcher  Fetcher
	resolver Resolver
	origin   string
	order    []string
	timeout  time.Duration
	pacer    *ratelimit.Pacer
	tracer   trace.Tracer
}

var known = map[string]bool{
	config.StreamExternalResolver: true,
	config.StreamPlayerConfig:     true,
	config.StreamManifestScan:     true,
}

// NewExtractor validates the strategy order and returns an Extractor.
func NewExtractor(f Fetcher, opts Options) (*Extractor, error) {
	if f == nil {
		return nil, errors.New("stream: fetcher is required")
	}
	if opts.OriginBase == "" {
		opts.OriginBase = config.DefaultOriginBase
	}
	if opts.Strategies == nil {
		opts.Strategies = config.AllStreamStrategies()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultResolverTimeout
	}
	for _, name := range opts.Strategies {
		if !known[name] {
			return nil, fmt.Errorf("stream: unknown strategy %q", name)
		}
		if name == config.StreamExternalResolver && opts.Resolver == nil {
			return nil, fmt.Errorf("stream: strategy %q needs a resolver", name)
		}
	}
	return &Extractor{
		fetcher:  f,
		resolver: opts.Resolver,
		origin:   opts.OriginBase,
		order:    append([]string(nil), opts.Strategies...),
		timeout:  opts.Timeout,
		pacer:    opts.Pacer,
		tracer:   telemetry.Tracer("ssyoutube/stream"),
	}, nil
}

// Extract runs the strategies in order and returns the first valid media
// URL. The watch page is fetched at most once.
func (e *Extractor) Extract(ctx context.Context, b live.Broadcast) (h Handle, err error) {
	ctx, span := e.tracer.Start(ctx, "stream.extract", trace.WithAttributes(
		append(telemetry.ChannelAttributes(b.Channel.Category, b.Channel.Handle),
			attribute.String(telemetry.WatchIDKey, b.WatchID))...))
	defer func() { telemetry.End(span, err) }()

	logger := xglog.WithComponentFromContext(ctx, "stream").With().
		Str(xglog.FieldCategory, b.Channel.Category).
		Str(xglog.FieldHandle, b.Channel.Handle).
		Str(xglog.FieldWatchID, b.WatchID).
		Logger()

	watchURL := live.WatchURL(e.origin, b.WatchID)
	page := &watchPage{fetcher: e.fetcher, url: watchURL}

	attempts := make([]strategy.Attempt[string], 0, len(e.order))
	for _, name := range e.order {
		var run func(context.Context) strategy.Result[string]
		switch name {
		case config.StreamExternalResolver:
			run = func(ctx context.Context) strategy.Result[string] { return e.runResolver(ctx, watchURL) }
		case config.StreamPlayerConfig:
			run = func(ctx context.Context) strategy.Result[string] { return page.with(ctx, fromPlayerConfig) }
		case config.StreamManifestScan:
			run = func(ctx context.Context) strategy.Result[string] { return page.with(ctx, fromManifestScan) }
		}
		attempts = append(attempts, strategy.Attempt[string]{Name: name, Run: run})
	}

	mediaURL, via, err := strategy.First(ctx, attempts, func(o strategy.Outcome) {
		metrics.IncStrategyAttempt("stream", o.Name, o.Status.String())
		span.AddEvent("strategy", trace.WithAttributes(telemetry.StrategyAttributes(o.Name, o.Status.String())...))
		ev := logger.Debug().Str(xglog.FieldEvent, "stream.attempt").Str(xglog.FieldStrategy, o.Name).Str("result", o.Status.String())
		if o.Err != nil {
			ev = ev.Err(o.Err)
		}
		ev.Msg("stream strategy finished")
	})
	if err != nil {
		if ctx.Err() != nil {
			return Handle{}, err
		}
		return Handle{}, fmt.Errorf("%w: %s: %w", ErrNotFound, b.WatchID, err)
	}

	kind := KindOf(mediaURL)
	span.SetAttributes(attribute.String(telemetry.StrategyNameKey, via), attribute.String(telemetry.StreamKindKey, string(kind)))
	logger.Info().
		Str(xglog.FieldEvent, "stream.resolved").
		Str(xglog.FieldStrategy, via).
		Str("kind", string(kind)).
		Msg("stream extracted")
	return Handle{Broadcast: b, MediaURL: mediaURL, Kind: kind, Via: via}, nil
}

func (e *Extractor) runResolver(ctx context.Context, watchURL string) strategy.Result[string] {
	backend := e.resolver.Backend()
	if err := e.pacer.WaitURL(ctx, watchURL); err != nil {
		return strategy.Failed[string](err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	out, err := e.resolver.Resolve(runCtx, watchURL)
	switch {
	case err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		metrics.IncResolverRun(backend, "timeout")
		return strategy.Failed[string](fmt.Errorf("%s timed out after %s: %w", backend, e.timeout, err))
	case err != nil:
		metrics.IncResolverRun(backend, "exit_error")
		return strategy.Failed[string](err)
	}

	mediaURL := ParseResolverOutput(out)
	if !validMediaURL(mediaURL) {
		metrics.IncResolverRun(backend, "no_url")
		return strategy.Missing[string]("resolver printed no media URL")
	}
	metrics.IncResolverRun(backend, "ok")
	return strategy.Found(mediaURL)
}

// watchPage fetches the watch page on first use and caches the outcome,
// including a failed fetch.
type watchPage struct {
	fetcher Fetcher
	url     string

	done bool
	body string
	err  error
}

func (p *watchPage) with(ctx context.Context, fn func(body string) strategy.Result[string]) strategy.Result[string] {
	if !p.done {
		p.done = true
		page, err := p.fetcher.Get(ctx, p.url)
		if err != nil {
			p.err = fmt.Errorf("fetch watch page: %w", err)
		} else {
			p.body = string(page.Body)
		}
	}
	if p.err != nil {
		return strategy.Failed[string](p.err)
	}
	return fn(p.body)
}

func validMediaURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
