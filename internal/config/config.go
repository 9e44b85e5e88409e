// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package config

import (
	"time"
	// Embedded zone database so MATOMO_TIMEZONE resolves in minimal images.
	_ "time/tzdata"
)

// Hourly aggregation modes.
const (
	// HourlyModeLastWrite copies the pre-bucketed per-hour counts Matomo returns
	// for the whole range. A repeated hour overwrites the earlier value.
	HourlyModeLastWrite = "last_write"

	// HourlyModeAverage fetches raw visits one day at a time, buckets them by
	// local hour and divides the per-hour sums by the number of days.
	HourlyModeAverage = "average"
)

// DefaultCategoryKey is the category that unmatched site IDs fall into.
const DefaultCategoryKey = "diger"

// Config holds all application configuration.
// Loaded once at startup by Load and passed explicitly to every component
// that needs it; nothing reads configuration from globals.
type Config struct {
	Server         ServerConfig     `koanf:"server"`
	Matomo         MatomoConfig     `koanf:"matomo"`
	Hourly         HourlyConfig     `koanf:"hourly"`
	CORS           CORSConfig       `koanf:"cors"`
	RateLimit      RateLimitConfig  `koanf:"rate_limit"`
	Cache          CacheConfig      `koanf:"cache"`
	CircuitBreaker BreakerConfig    `koanf:"circuit_breaker"`
	Logging        LoggingConfig    `koanf:"logging"`
	Categories     []CategoryConfig `koanf:"categories"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the bind address.
	// Environment variable: HTTP_HOST
	// Default: "0.0.0.0"
	Host string `koanf:"host"`

	// Port is the listen port.
	// Environment variable: PORT (HTTP_PORT is accepted as an alias)
	// Default: 3000
	Port int `koanf:"port"`

	// ReadTimeout bounds reading the inbound request.
	// Environment variable: HTTP_TIMEOUT
	// Default: 30s
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing the response. Zero disables it, which is the
	// default because upstream calls carry no deadline of their own.
	// Environment variable: HTTP_WRITE_TIMEOUT
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on SIGTERM.
	// Default: 10s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// MatomoConfig holds the upstream analytics API connection.
type MatomoConfig struct {
	// URL is the Matomo base URL; requests go to {URL}/index.php.
	// Environment variable: MATOMO_API_URL
	URL string `koanf:"url"`

	// Token is the token_auth credential shared by every upstream call.
	// Environment variable: MATOMO_TOKEN
	// Required.
	Token string `koanf:"token"`

	// DefaultSiteID is used when a request carries no siteId.
	// Environment variable: MATOMO_DEFAULT_SITE_ID
	DefaultSiteID string `koanf:"default_site_id"`

	// Timezone is the IANA zone used to compute "today" and to bucket visit
	// timestamps by local hour.
	// Environment variable: MATOMO_TIMEZONE
	// Default: "UTC"
	Timezone string `koanf:"timezone"`

	// RequestsPerSecond caps outbound calls to Matomo across all inbound
	// requests. Zero disables the limiter.
	// Environment variable: MATOMO_MAX_RPS
	RequestsPerSecond float64 `koanf:"requests_per_second"`

	// Burst is the limiter bucket size.
	// Default: 8
	// Environment variable: MATOMO_BURST
	Burst int `koanf:"burst"`
}

// HourlyConfig controls the hourly visit aggregator.
type HourlyConfig struct {
	// Mode is last_write or average.
	// Environment variable: HOURLY_MODE
	// Default: last_write
	Mode string `koanf:"mode"`

	// MaxParallel bounds concurrent per-day upstream calls in average mode.
	// Environment variable: HOURLY_MAX_PARALLEL
	// Default: 8
	MaxParallel int `koanf:"max_parallel"`
}

// CORSConfig holds cross-origin settings for the dashboard frontend.
type CORSConfig struct {
	// AllowedOrigins is the list of known frontend origins.
	// Environment variable: CORS_ORIGINS (comma-separated)
	AllowedOrigins []string `koanf:"allowed_origins"`

	// AllowUnlisted lets origins outside AllowedOrigins through after logging
	// them. Defaults to true to match the deployed frontend's expectations.
	// Environment variable: CORS_ALLOW_UNLISTED
	AllowUnlisted bool `koanf:"allow_unlisted"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Requests allowed per Window per client IP.
	// Environment variable: RATE_LIMIT_REQUESTS
	// Default: 300
	Requests int `koanf:"requests"`

	// Window is the rate limit window.
	// Environment variable: RATE_LIMIT_WINDOW
	// Default: 1m
	Window time.Duration `koanf:"window"`

	// Disabled turns rate limiting off.
	// Environment variable: DISABLE_RATE_LIMIT
	Disabled bool `koanf:"disabled"`
}

// CacheConfig controls the optional response cache.
// Disabled by default: every dashboard request reaches Matomo.
type CacheConfig struct {
	// Environment variable: CACHE_ENABLED
	Enabled bool `koanf:"enabled"`

	// TTL is how long cached upstream responses are served.
	// Environment variable: CACHE_TTL
	// Default: 1m
	TTL time.Duration `koanf:"ttl"`
}

// BreakerConfig tunes the circuit breaker in front of Matomo.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32 `koanf:"max_requests"`

	// Interval is the closed-state counter reset period.
	Interval time.Duration `koanf:"interval"`

	// Timeout is how long the breaker stays open before probing.
	// Environment variable: CIRCUIT_BREAKER_TIMEOUT
	Timeout time.Duration `koanf:"timeout"`

	// MinRequests is the request count required before the breaker may trip.
	MinRequests uint32 `koanf:"min_requests"`

	// FailureRatio trips the breaker once reached (0 < ratio <= 1).
	FailureRatio float64 `koanf:"failure_ratio"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Environment variable: LOG_LEVEL
	Level string `koanf:"level"`
	// Environment variable: LOG_FORMAT
	Format string `koanf:"format"`
	// Environment variable: LOG_CALLER
	Caller bool `koanf:"caller"`
}

// CategoryConfig is one entry of the ordered site category table.
// Table order decides which category wins when a site ID is listed twice.
type CategoryConfig struct {
	Key   string `koanf:"key"`
	Name  string `koanf:"name"`
	Icon  string `koanf:"icon"`
	Color string `koanf:"color"`
	Sites []int  `koanf:"sites"`
}

// DefaultCategories returns the shipped site category table.
// Site 190 is listed under both avm and diger; avm wins by table order.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Key: "avm", Name: "AVM", Icon: "🛍️", Color: "#FF6B6B",
			Sites: []int{16, 26, 195, 15, 50, 178, 8, 91, 199, 190}},
		{Key: "havalimani", Name: "Havalimanı", Icon: "✈️", Color: "#4ECDC4",
			Sites: []int{37, 32, 30, 172, 173, 174, 175, 83, 42, 100, 58}},
		{Key: "magaza", Name: "Mağaza", Icon: "👔", Color: "#9B59B6",
			Sites: []int{157, 158, 159, 160, 161, 162, 163, 198}},
		{Key: "fuar", Name: "Fuar", Icon: "🎪", Color: "#F39C12",
			Sites: []int{191, 192, 196}},
		{Key: "egitim", Name: "Eğitim/Kampüs", Icon: "🎓", Color: "#3498DB",
			Sites: []int{193, 194}},
		{Key: "kamu", Name: "Kamu/Belediye", Icon: "🏛️", Color: "#1ABC9C",
			Sites: []int{94}},
		{Key: DefaultCategoryKey, Name: "Diğer", Icon: "📍", Color: "#95A5A6",
			Sites: []int{2, 183, 190}},
	}
}

// OverlappingSiteIDs reports site IDs listed in more than one category,
// mapped to the category keys that list them in table order.
func (c *Config) OverlappingSiteIDs() map[int][]string {
	seen := make(map[int][]string)
	for _, cat := range c.Categories {
		for _, id := range cat.Sites {
			keys := seen[id]
			if len(keys) > 0 && keys[len(keys)-1] == cat.Key {
				continue
			}
			seen[id] = append(keys, cat.Key)
		}
	}

	overlaps := make(map[int][]string)
	for id, keys := range seen {
		if len(keys) > 1 {
			overlaps[id] = keys
		}
	}
	return overlaps
}

// Location returns the configured time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Matomo.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
