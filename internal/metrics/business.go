// SPDX-License-Identifier: MIT

// Package metrics records refresh outcomes as Prometheus series.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	strategyAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssyoutube_strategy_attempts_total",
		Help: "Extraction strategy attempts by stage, strategy and result",
	}, []string{"stage", "strategy", "result"}) // stage=live|stream, result=success|not_found|error

	channelsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssyoutube_channels_total",
		Help: "Channels processed per category by outcome",
	}, []string{"category", "outcome"}) // outcome=resolved|failed_live|failed_stream

	iconsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssyoutube_icons_total",
		Help: "Icon lookups by outcome",
	}, []string{"outcome"}) // outcome=cached|downloaded|missing

	resolverRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssyoutube_resolver_runs_total",
		Help: "External resolver invocations by backend and outcome",
	}, []string{"backend", "outcome"}) // outcome=ok|exit_error|timeout|no_url

	playlistEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ssyoutube_playlist_entries",
		Help: "Entries written per category playlist (last refresh)",
	}, []string{"category"})

	playlistWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssyoutube_playlist_writes_total",
		Help: "Playlist file operations by outcome",
	}, []string{"outcome"}) // outcome=written|empty|stale_removed|error

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ssyoutube_refresh_duration_seconds",
		Help:    "Duration of complete refresh runs",
		Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1200},
	})

	refreshRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ssyoutube_refresh_runs_total",
		Help: "Refresh runs by outcome",
	}, []string{"outcome"}) // outcome=success|failure|canceled

	lastRefreshSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ssyoutube_last_refresh_success_timestamp_seconds",
		Help: "Unix time of the last successful refresh",
	})

	channelsResolved = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ssyoutube_channels_resolved",
		Help: "Channels with a playable stream in the last refresh",
	})
)

func IncStrategyAttempt(stage, strategy, result string) {
	strategyAttemptsTotal.WithLabelValues(stage, strategy, result).Inc()
}

func IncChannel(category, outcome string) { channelsTotal.WithLabelValues(category, outcome).Inc() }
func IncIcon(outcome string)              { iconsTotal.WithLabelValues(outcome).Inc() }
func IncPlaylistWrite(outcome string)     { playlistWritesTotal.WithLabelValues(outcome).Inc() }

func IncResolverRun(backend, outcome string) {
	resolverRunsTotal.WithLabelValues(backend, outcome).Inc()
}

// RecordPlaylistEntries sets the entry gauge for one category.
func RecordPlaylistEntries(category string, n int) {
	playlistEntries.WithLabelValues(category).Set(float64(n))
}

// RecordRefresh records a finished run.
func RecordRefresh(outcome string, resolved int, d time.Duration) {
	refreshRunsTotal.WithLabelValues(outcome).Inc()
	refreshDuration.Observe(d.Seconds())
	if outcome == "success" {
		channelsResolved.Set(float64(resolved))
		lastRefreshSuccess.SetToCurrentTime()
	}
}
