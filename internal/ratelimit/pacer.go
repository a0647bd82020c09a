// SPDX-License-Identifier: MIT

// Package ratelimit paces outbound requests per origin host.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var (
	pacerWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ssyoutube",
			Name:      "pacer_wait_seconds",
			Help:      "Time spent waiting for the per-host pacer before a request",
			Buckets:   []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"host"},
	)
)

// Pacer enforces a minimum interval between requests to the same host.
// A nil Pacer or a zero interval never waits.
type Pacer struct {
	interval time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewPacer creates a pacer allowing one request per interval per host.
func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Interval reports the configured minimum spacing.
func (p *Pacer) Interval() time.Duration {
	if p == nil {
		return 0
	}
	return p.interval
}

// Wait blocks until a request to host may proceed or ctx is done.
func (p *Pacer) Wait(ctx context.Context, host string) error {
	if p == nil || p.interval <= 0 {
		return ctx.Err()
	}
	host = strings.ToLower(host)
	start := time.Now()
	err := p.limiter(host).Wait(ctx)
	pacerWaitSeconds.WithLabelValues(host).Observe(time.Since(start).Seconds())
	return err
}

// WaitURL is Wait keyed by the host of rawURL. Unparseable URLs share one
// bucket.
func (p *Pacer) WaitURL(ctx context.Context, rawURL string) error {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Hostname()
	}
	return p.Wait(ctx, host)
}

func (p *Pacer) limiter(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.limiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(p.interval), 1)
		p.limiters[host] = l
	}
	return l
}
