// Salondesk - Salon Booking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/salondesk

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/salondesk/config.yaml",
	"/etc/salondesk/config.yml",
}

const (
	// ConfigPathEnvVar overrides the YAML config location.
	ConfigPathEnvVar = "CONFIG_PATH"

	// DotEnvPathEnvVar overrides the .env location.
	DotEnvPathEnvVar = "DOTENV_PATH"

	defaultDotEnvPath = ".env"
)

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8001,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Airtable: AirtableConfig{
			BaseURL:           "https://api.airtable.com/v0",
			ClientsTable:      "Table 1",
			AppointmentsTable: "Appointments",
			ServicesTable:     "Services",
			EmployeesTable:    "Employees",
			AvailabilityTable: "Availability",
			RequestsPerSecond: 5,
			Timeout:           30 * time.Second,
		},
		Messaging: MessagingConfig{
			Timeout: 15 * time.Second,
		},
		Notify: NotifyConfig{
			Topic:        "salon.messages.new",
			EmbeddedHost: "127.0.0.1",
			EmbeddedPort: 4222,
		},
		Security: SecurityConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, the YAML file and the environment.
//
// A .env file is read into the process environment before the env layer, so
// variables already set in the real environment win over .env entries.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv reads DOTENV_PATH (or ./.env). A missing default file is fine;
// a missing explicit file is an error.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	explicit := path != ""
	if !explicit {
		path = defaultDotEnvPath
	}

	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
// The Airtable names match the ones the dashboard frontend already uses.
var envMappings = map[string]string{
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	"airtable_api_key":             "airtable.api_key",
	"airtable_base_id":             "airtable.base_id",
	"airtable_base_url":            "airtable.base_url",
	"airtable_table_name":          "airtable.clients_table",
	"airtable_appointments_table":  "airtable.appointments_table",
	"airtable_services_table":      "airtable.services_table",
	"airtable_employees_table":     "airtable.employees_table",
	"airtable_availability_table":  "airtable.availability_table",
	"airtable_requests_per_second": "airtable.requests_per_second",
	"airtable_timeout":             "airtable.timeout",

	"messaging_gateway_url":    "messaging.gateway_url",
	"messaging_api_token":      "messaging.api_token",
	"messaging_webhook_secret": "messaging.webhook_secret",
	"messaging_timeout":        "messaging.timeout",
	"conversations_dir":        "messaging.conversations_dir",

	"notify_topic":  "notify.topic",
	"nats_url":      "notify.nats_url",
	"nats_embedded": "notify.embedded",
	"nats_host":     "notify.embedded_host",
	"nats_port":     "notify.embedded_port",

	"jwt_secret":          "security.jwt_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc returns "" for unmapped variables so unrelated
// environment does not leak into the config tree.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
