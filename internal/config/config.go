// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

// Package config loads Salondesk configuration from struct defaults, an
// optional YAML file, a .env file and environment variables (in increasing
// priority), then validates it.
package config

import (
	"time"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Airtable  AirtableConfig  `koanf:"airtable"`
	Messaging MessagingConfig `koanf:"messaging"`
	Notify    NotifyConfig    `koanf:"notify"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // development, staging, production
}

// AirtableConfig holds record store credentials and table names.
//
// The store is optional: with no API key or base ID the read endpoints serve
// mock data and the write endpoints answer 503.
type AirtableConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseID            string        `koanf:"base_id"`
	BaseURL           string        `koanf:"base_url"`
	ClientsTable      string        `koanf:"clients_table"` // AIRTABLE_TABLE_NAME
	AppointmentsTable string        `koanf:"appointments_table"`
	ServicesTable     string        `koanf:"services_table"`
	EmployeesTable    string        `koanf:"employees_table"`
	AvailabilityTable string        `koanf:"availability_table"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Timeout           time.Duration `koanf:"timeout"`
}

// Configured reports whether both credentials are present.
func (a AirtableConfig) Configured() bool {
	return a.APIKey != "" && a.BaseID != ""
}

// MessagingConfig holds the WhatsApp-style gateway settings.
type MessagingConfig struct {
	GatewayURL       string        `koanf:"gateway_url"`
	APIToken         string        `koanf:"api_token"`
	WebhookSecret    string        `koanf:"webhook_secret"` // HMAC-SHA256 key for inbound callbacks (optional)
	Timeout          time.Duration `koanf:"timeout"`
	ConversationsDir string        `koanf:"conversations_dir"` // empty keeps history in memory
}

// NotifyConfig holds new-message fan-out settings.
type NotifyConfig struct {
	Topic        string `koanf:"topic"`
	NATSURL      string `koanf:"nats_url"` // empty uses the in-process channel
	Embedded     bool   `koanf:"embedded"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"`
}

// UseNATS reports whether notifications travel over NATS.
func (n NotifyConfig) UseNATS() bool {
	return n.NATSURL != "" || n.Embedded
}

// SecurityConfig holds CORS, rate limiting and the optional write-route token.
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from all sources and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
