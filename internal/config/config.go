// SPDX-License-Identifier: MIT

// Package config loads the runtime configuration for a refresh run.
package config

import (
	"path/filepath"
	"time"
)

// Live strategy names, in default order.
const (
	LiveRedirect       = "redirect"
	LiveStructuredData = "structured_data"
	LiveEmbeddedScript = "embedded_script"
	LiveDOMLink        = "dom_link"
)

// Stream strategy names, in default order.
const (
	StreamExternalResolver = "external_resolver"
	StreamPlayerConfig     = "player_config"
	StreamManifestScan     = "manifest_scan"
)

// External resolver backends.
const (
	BackendStreamlink = "streamlink"
	BackendYTDLP      = "ytdlp"
)

// Default values applied before the file and environment layers.
const (
	DefaultUserAgent          = "IPTV-Updater/1.0"
	DefaultOriginBase         = "https://www.youtube.com"
	DefaultFetchTimeout       = 15 * time.Second
	DefaultMinRequestInterval = time.Second
	DefaultWorkers            = 4
	DefaultResolverCommand    = "streamlink"
	DefaultResolverQuality    = "best"
	DefaultResolverTimeout    = 30 * time.Second
	DefaultIconURLTemplate    = "https://img.youtube.com/vi/{id}/{res}.jpg"
	DefaultIconSize           = 128
)

// AllLiveStrategies lists every live strategy in default order.
func AllLiveStrategies() []string {
	return []string{LiveRedirect, LiveStructuredData, LiveEmbeddedScript, LiveDOMLink}
}

// AllStreamStrategies lists every stream strategy in default order.
func AllStreamStrategies() []string {
	return []string{StreamExternalResolver, StreamPlayerConfig, StreamManifestScan}
}

// DefaultIconResolutions lists thumbnail variants from highest to lowest.
func DefaultIconResolutions() []string {
	return []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}
}

// AppConfig is the fully resolved configuration. It is built once per process
// and passed by value into the pipeline.
type AppConfig struct {
	Version string

	DataDir     string
	PlaylistDir string
	IconDir     string
	CatalogPath string
	LogLevel    string

	UserAgent          string
	OriginBase         string
	FetchTimeout       time.Duration
	MinRequestInterval time.Duration
	Workers            int

	Live     LiveConfig
	Stream   StreamConfig
	Resolver ResolverConfig
	Icon     IconConfig

	MetricsTextfile string
	HistoryPath     string
	Schedule        string

	Telemetry TelemetryConfig
}

// LiveConfig controls broadcast location.
type LiveConfig struct {
	Strategies []string
}

// StreamConfig controls media URL extraction.
type StreamConfig struct {
	Strategies []string
}

// ResolverConfig controls the external stream resolver process.
type ResolverConfig struct {
	Backend string
	Command string
	Quality string
	Timeout time.Duration
}

// IconConfig controls thumbnail download and publication.
type IconConfig struct {
	BaseURL     string
	URLTemplate string
	Resolutions []string
	Size        int
}

// TelemetryConfig controls OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// FileConfig mirrors the YAML file. Durations are Go duration strings; unset
// values keep their defaults.
type FileConfig struct {
	DataDir            string `yaml:"data_dir"`
	PlaylistDir        string `yaml:"playlist_dir"`
	IconDir            string `yaml:"icon_dir"`
	CatalogPath        string `yaml:"catalog_path"`
	LogLevel           string `yaml:"log_level"`
	UserAgent          string `yaml:"user_agent"`
	OriginBase         string `yaml:"origin_base"`
	FetchTimeout       string `yaml:"fetch_timeout"`
	MinRequestInterval string `yaml:"min_request_interval"`
	Workers            *int   `yaml:"workers"`

	Live struct {
		Strategies []string `yaml:"strategies"`
	} `yaml:"live"`
	Stream struct {
		Strategies []string `yaml:"strategies"`
	} `yaml:"stream"`
	Resolver struct {
		Backend string `yaml:"backend"`
		Command string `yaml:"command"`
		Quality string `yaml:"quality"`
		Timeout string `yaml:"timeout"`
	} `yaml:"resolver"`
	Icon struct {
		BaseURL     string   `yaml:"base_url"`
		URLTemplate string   `yaml:"url_template"`
		Resolutions []string `yaml:"resolutions"`
		Size        *int     `yaml:"size"`
	} `yaml:"icon"`

	MetricsTextfile string `yaml:"metrics_textfile"`
	HistoryPath     string `yaml:"history_path"`
	Schedule        string `yaml:"schedule"`

	Telemetry struct {
		Enabled      *bool    `yaml:"enabled"`
		Exporter     string   `yaml:"exporter"`
		Endpoint     string   `yaml:"endpoint"`
		SamplingRate *float64 `yaml:"sampling_rate"`
	} `yaml:"telemetry"`
}

// Defaults returns a configuration populated with built-in defaults.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:            ".",
		LogLevel:           "info",
		UserAgent:          DefaultUserAgent,
		OriginBase:         DefaultOriginBase,
		FetchTimeout:       DefaultFetchTimeout,
		MinRequestInterval: DefaultMinRequestInterval,
		Workers:            DefaultWorkers,
		Live:               LiveConfig{Strategies: AllLiveStrategies()},
		Stream:             StreamConfig{Strategies: AllStreamStrategies()},
		Resolver: ResolverConfig{
			Backend: BackendStreamlink,
			Command: DefaultResolverCommand,
			Quality: DefaultResolverQuality,
			Timeout: DefaultResolverTimeout,
		},
		Icon: IconConfig{
			URLTemplate: DefaultIconURLTemplate,
			Resolutions: DefaultIconResolutions(),
			Size:        DefaultIconSize,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// resolveDirs fills derived directories from DataDir.
func (c *AppConfig) resolveDirs() {
	if abs, err := filepath.Abs(c.DataDir); err == nil {
		c.DataDir = abs
	}
	if c.PlaylistDir == "" {
		c.PlaylistDir = filepath.Join(c.DataDir, "playlists")
	}
	if c.IconDir == "" {
		c.IconDir = filepath.Join(c.DataDir, "icons")
	}
}
