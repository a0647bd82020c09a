// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
// defaults < file < environment.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseStringList(key, defaultVal)
}

// Load resolves the configuration: defaults, then the strict YAML file (if
// any), then environment overrides, then validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := l.mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	if cfg.Resolver.Backend == BackendYTDLP && cfg.Resolver.Command == DefaultResolverCommand {
		cfg.Resolver.Command = "yt-dlp"
	}
	cfg.resolveDirs()
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies the values present in the file onto dst.
func (l *Loader) mergeFileConfig(dst *AppConfig, src *FileConfig) error {
	setString(&dst.DataDir, expandEnv(src.DataDir))
	setString(&dst.PlaylistDir, expandEnv(src.PlaylistDir))
	setString(&dst.IconDir, expandEnv(src.IconDir))
	setString(&dst.CatalogPath, expandEnv(src.CatalogPath))
	setString(&dst.LogLevel, src.LogLevel)
	setString(&dst.UserAgent, src.UserAgent)
	setString(&dst.OriginBase, src.OriginBase)
	setString(&dst.MetricsTextfile, expandEnv(src.MetricsTextfile))
	setString(&dst.HistoryPath, expandEnv(src.HistoryPath))
	setString(&dst.Schedule, src.Schedule)

	if err := setDuration(&dst.FetchTimeout, "fetch_timeout", src.FetchTimeout); err != nil {
		return err
	}
	if err := setDuration(&dst.MinRequestInterval, "min_request_interval", src.MinRequestInterval); err != nil {
		return err
	}
	if src.Workers != nil {
		dst.Workers = *src.Workers
	}

	if src.Live.Strategies != nil {
		dst.Live.Strategies = src.Live.Strategies
	}
	if src.Stream.Strategies != nil {
		dst.Stream.Strategies = src.Stream.Strategies
	}

	setString(&dst.Resolver.Backend, src.Resolver.Backend)
	setString(&dst.Resolver.Command, src.Resolver.Command)
	setString(&dst.Resolver.Quality, src.Resolver.Quality)
	if err := setDuration(&dst.Resolver.Timeout, "resolver.timeout", src.Resolver.Timeout); err != nil {
		return err
	}

	setString(&dst.Icon.BaseURL, src.Icon.BaseURL)
	setString(&dst.Icon.URLTemplate, src.Icon.URLTemplate)
	if src.Icon.Resolutions != nil {
		dst.Icon.Resolutions = src.Icon.Resolutions
	}
	if src.Icon.Size != nil {
		dst.Icon.Size = *src.Icon.Size
	}

	if src.Telemetry.Enabled != nil {
		dst.Telemetry.Enabled = *src.Telemetry.Enabled
	}
	setString(&dst.Telemetry.Exporter, src.Telemetry.Exporter)
	setString(&dst.Telemetry.Endpoint, src.Telemetry.Endpoint)
	if src.Telemetry.SamplingRate != nil {
		dst.Telemetry.SamplingRate = *src.Telemetry.SamplingRate
	}
	return nil
}

// mergeEnvConfig applies SSYT_* overrides. Every value read uses the current
// (file or default) value as its fallback.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString("SSYT_DATA_DIR", cfg.DataDir)
	cfg.PlaylistDir = l.envString("SSYT_PLAYLIST_DIR", cfg.PlaylistDir)
	cfg.IconDir = l.envString("SSYT_ICON_DIR", cfg.IconDir)
	cfg.CatalogPath = l.envString("SSYT_CATALOG", cfg.CatalogPath)
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogLevel = l.envString("SSYT_LOG_LEVEL", cfg.LogLevel)
	cfg.UserAgent = l.envString("SSYT_USER_AGENT", cfg.UserAgent)
	cfg.OriginBase = l.envString("SSYT_ORIGIN_BASE", cfg.OriginBase)
	cfg.FetchTimeout = l.envDuration("SSYT_FETCH_TIMEOUT", cfg.FetchTimeout)
	cfg.MinRequestInterval = l.envDuration("SSYT_MIN_REQUEST_INTERVAL", cfg.MinRequestInterval)
	cfg.Workers = l.envInt("SSYT_WORKERS", cfg.Workers)

	cfg.Live.Strategies = l.envList("SSYT_LIVE_STRATEGIES", cfg.Live.Strategies)
	cfg.Stream.Strategies = l.envList("SSYT_STREAM_STRATEGIES", cfg.Stream.Strategies)

	cfg.Resolver.Backend = l.envString("SSYT_RESOLVER_BACKEND", cfg.Resolver.Backend)
	cfg.Resolver.Command = l.envString("SSYT_RESOLVER_COMMAND", cfg.Resolver.Command)
	cfg.Resolver.Quality = l.envString("SSYT_RESOLVER_QUALITY", cfg.Resolver.Quality)
	cfg.Resolver.Timeout = l.envDuration("SSYT_RESOLVER_TIMEOUT", cfg.Resolver.Timeout)

	cfg.Icon.BaseURL = l.envString("SSYT_ICON_BASE_URL", cfg.Icon.BaseURL)
	cfg.Icon.URLTemplate = l.envString("SSYT_ICON_URL_TEMPLATE", cfg.Icon.URLTemplate)
	cfg.Icon.Resolutions = l.envList("SSYT_ICON_RESOLUTIONS", cfg.Icon.Resolutions)
	cfg.Icon.Size = l.envInt("SSYT_ICON_SIZE", cfg.Icon.Size)

	cfg.MetricsTextfile = l.envString("SSYT_METRICS_TEXTFILE", cfg.MetricsTextfile)
	cfg.HistoryPath = l.envString("SSYT_HISTORY_PATH", cfg.HistoryPath)
	cfg.Schedule = l.envString("SSYT_SCHEDULE", cfg.Schedule)

	cfg.Telemetry.Enabled = l.envBool("SSYT_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("SSYT_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("SSYT_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat("SSYT_OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, field, v string) error {
	if v == "" {
		return nil
	}
	d, err := parseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
