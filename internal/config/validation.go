// SPDX-License-Identifier: MIT

package config

import (
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/youngsadsatan/ssYouTube/internal/validate"
)

// Validate checks a resolved AppConfig and reports every problem at once.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("data_dir", cfg.DataDir)
	v.NotEmpty("playlist_dir", cfg.PlaylistDir)
	v.NotEmpty("icon_dir", cfg.IconDir)
	if _, err := validate.ParseLogLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		v.AddError("log_level", err.Error(), cfg.LogLevel)
	}

	v.NotEmpty("user_agent", cfg.UserAgent)
	v.URL("origin_base", cfg.OriginBase, []string{"http", "https"})
	v.PositiveDuration("fetch_timeout", cfg.FetchTimeout)
	v.NonNegativeDuration("min_request_interval", cfg.MinRequestInterval)
	v.Range("workers", cfg.Workers, 1, 64)

	v.Sequence("live.strategies", cfg.Live.Strategies, AllLiveStrategies())
	v.Sequence("stream.strategies", cfg.Stream.Strategies, AllStreamStrategies())

	v.OneOf("resolver.backend", cfg.Resolver.Backend, []string{BackendStreamlink, BackendYTDLP})
	v.NotEmpty("resolver.command", cfg.Resolver.Command)
	v.NotEmpty("resolver.quality", cfg.Resolver.Quality)
	v.PositiveDuration("resolver.timeout", cfg.Resolver.Timeout)

	if cfg.Icon.BaseURL != "" {
		v.URL("icon.base_url", cfg.Icon.BaseURL, []string{"http", "https"})
	}
	v.Template("icon.url_template", cfg.Icon.URLTemplate, "{id}", "{res}")
	if len(cfg.Icon.Resolutions) == 0 {
		v.AddError("icon.resolutions", "list cannot be empty", cfg.Icon.Resolutions)
	}
	v.Range("icon.size", cfg.Icon.Size, 16, 1024)

	if cfg.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
			v.AddError("schedule", err.Error(), cfg.Schedule)
		}
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			v.AddError("telemetry.sampling_rate", "must be between 0 and 1", cfg.Telemetry.SamplingRate)
		}
	}

	return v.Err()
}
