// SPDX-License-Identifier: MIT

package upstream

import (
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssyoutube",
		Name:      "upstream_requests_total",
		Help:      "Outbound GET requests by host and result",
	}, []string{"host", "result"})

	requestSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ssyoutube",
		Name:      "upstream_request_seconds",
		Help:      "Latency of successful outbound GET requests",
		Buckets:   prometheus.DefBuckets,
	}, []string{"host"})
)

func observeRequest(host, result string) {
	requestsTotal.WithLabelValues(host, result).Inc()
}

func observeLatency(host string, d time.Duration) {
	requestSeconds.WithLabelValues(host).Observe(d.Seconds())
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}
	return u.Hostname()
}
