// Matomo Relay - Analytics Proxy for the Matomo Reporting API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/matomo-relay

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/matomo-relay/internal/logging"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateMatomo(); err != nil {
		return err
	}

	if err := c.validateHourly(); err != nil {
		return err
	}

	if err := c.validateRateLimit(); err != nil {
		return err
	}

	if err := c.validateCircuitBreaker(); err != nil {
		return err
	}

	if err := c.validateCategories(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return fmt.Errorf("HTTP timeouts must not be negative")
	}
	return nil
}

func (c *Config) validateMatomo() error {
	if c.Matomo.URL == "" {
		return fmt.Errorf("MATOMO_API_URL is required")
	}
	if err := validateHTTPURL(c.Matomo.URL, "MATOMO_API_URL"); err != nil {
		return fmt.Errorf("MATOMO_API_URL is invalid: %w", err)
	}
	if strings.TrimSpace(c.Matomo.Token) == "" {
		return fmt.Errorf("MATOMO_TOKEN is required")
	}
	if _, err := time.LoadLocation(c.Matomo.Timezone); err != nil {
		return fmt.Errorf("MATOMO_TIMEZONE %q is not a known time zone: %w", c.Matomo.Timezone, err)
	}
	if c.Matomo.RequestsPerSecond < 0 {
		return fmt.Errorf("MATOMO_MAX_RPS must not be negative, got %v", c.Matomo.RequestsPerSecond)
	}
	if c.Matomo.RequestsPerSecond > 0 && c.Matomo.Burst < 1 {
		return fmt.Errorf("MATOMO_BURST must be at least 1 when MATOMO_MAX_RPS is set, got %d", c.Matomo.Burst)
	}
	return nil
}

func (c *Config) validateHourly() error {
	switch c.Hourly.Mode {
	case HourlyModeLastWrite, HourlyModeAverage:
	default:
		return fmt.Errorf("HOURLY_MODE must be %q or %q, got %q",
			HourlyModeLastWrite, HourlyModeAverage, c.Hourly.Mode)
	}
	if c.Hourly.MaxParallel < 1 {
		return fmt.Errorf("HOURLY_MAX_PARALLEL must be at least 1, got %d", c.Hourly.MaxParallel)
	}
	return nil
}

func (c *Config) validateRateLimit() error {
	if c.RateLimit.Disabled {
		return nil
	}
	if c.RateLimit.Requests < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.RateLimit.Requests)
	}
	if c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive, got %s", c.RateLimit.Window)
	}
	return nil
}

func (c *Config) validateCircuitBreaker() error {
	cb := c.CircuitBreaker
	if cb.FailureRatio <= 0 || cb.FailureRatio > 1 {
		return fmt.Errorf("circuit_breaker.failure_ratio must be in (0, 1], got %v", cb.FailureRatio)
	}
	if cb.Timeout <= 0 {
		return fmt.Errorf("CIRCUIT_BREAKER_TIMEOUT must be positive, got %s", cb.Timeout)
	}
	return nil
}

// validateCategories requires unique, non-empty keys, positive site IDs and
// a default category entry. Overlapping site IDs are allowed; see
// OverlappingSiteIDs.
func (c *Config) validateCategories() error {
	keys := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Key == "" {
			return fmt.Errorf("categories[%d]: key is required", i)
		}
		if keys[cat.Key] {
			return fmt.Errorf("categories[%d]: duplicate category key %q", i, cat.Key)
		}
		keys[cat.Key] = true
		for _, id := range cat.Sites {
			if id <= 0 {
				return fmt.Errorf("categories[%d] (%s): site ID must be positive, got %d", i, cat.Key, id)
			}
		}
	}
	if !keys[DefaultCategoryKey] {
		return fmt.Errorf("categories must include the default %q category", DefaultCategoryKey)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

// validateHTTPURL validates that a URL is properly formatted for HTTP/HTTPS services.
// Validates: scheme (http/https), host present, no paths or query params.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		return fmt.Errorf("%s should be base URL only, remove path: %s", fieldName, parsedURL.Path)
	}

	if parsedURL.RawQuery != "" {
		return fmt.Errorf("%s should not contain query parameters, remove: ?%s", fieldName, parsedURL.RawQuery)
	}

	return nil
}
