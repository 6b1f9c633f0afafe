// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateAirtable(); err != nil {
		return err
	}
	if err := c.validateMessaging(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateAirtable only checks shape. Missing credentials are allowed and
// put the API into mock/503 mode; /api/health reports each one separately.
func (c *Config) validateAirtable() error {
	a := c.Airtable
	if err := validateHTTPURL("AIRTABLE_BASE_URL", a.BaseURL); err != nil {
		return err
	}
	if a.ClientsTable == "" || a.AppointmentsTable == "" || a.ServicesTable == "" || a.EmployeesTable == "" {
		return fmt.Errorf("airtable table names must not be empty")
	}
	if a.RequestsPerSecond <= 0 || a.RequestsPerSecond > 50 {
		return fmt.Errorf("AIRTABLE_REQUESTS_PER_SECOND must be in (0, 50]")
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("AIRTABLE_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateMessaging() error {
	if c.Messaging.GatewayURL == "" {
		return nil
	}
	if err := validateHTTPURL("MESSAGING_GATEWAY_URL", c.Messaging.GatewayURL); err != nil {
		return err
	}
	if c.Messaging.Timeout <= 0 {
		return fmt.Errorf("MESSAGING_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateNotify() error {
	if c.Notify.Topic == "" {
		return fmt.Errorf("NOTIFY_TOPIC must not be empty")
	}
	if c.Notify.NATSURL != "" {
		u, err := url.Parse(c.Notify.NATSURL)
		if err != nil || (u.Scheme != "nats" && u.Scheme != "tls") || u.Host == "" {
			return fmt.Errorf("NATS_URL must be a nats:// or tls:// URL, got %q", c.Notify.NATSURL)
		}
	}
	if c.Notify.Embedded && (c.Notify.EmbeddedPort < 1 || c.Notify.EmbeddedPort > 65535) {
		return fmt.Errorf("NATS_PORT must be between 1 and 65535")
	}
	return nil
}

const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
	minJWTSecretLength   = 32
)

func (c *Config) validateSecurity() error {
	if c.Security.JWTSecret != "" && len(c.Security.JWTSecret) < minJWTSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minJWTSecretLength)
	}
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true,
	"error": true, "fatal": true, "panic": true, "disabled": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal, panic, disabled")
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}
	return nil
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
	}
	return nil
}

// HasWildcardCORS reports whether any origin is allowed.
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// IsProduction reports whether ENVIRONMENT is production.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}
