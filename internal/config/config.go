// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"EVENTBOOK_DB_PATH" envDefault:"./data/eventbook.db"`
	SessionSecret string `env:"EVENTBOOK_SESSION_SECRET,required"`
	ServerHost    string `env:"EVENTBOOK_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"EVENTBOOK_SERVER_PORT" envDefault:"3000"`
	Env           string `env:"EVENTBOOK_ENV" envDefault:"development"`
	LogLevel      string `env:"EVENTBOOK_LOG_LEVEL" envDefault:"info"`

	// Seeding configuration
	DoSeed bool `env:"EVENTBOOK_DO_SEED" envDefault:"false"` // Force database seeding

	// Audit log retention in days; entries older than this are pruned nightly.
	AuditRetentionDays int `env:"EVENTBOOK_AUDIT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Validate session secret length
	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("EVENTBOOK_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	// Reject known weak/default secrets
	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("EVENTBOOK_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if cfg.AuditRetentionDays < 1 {
		return nil, fmt.Errorf("EVENTBOOK_AUDIT_RETENTION_DAYS must be positive, got %d", cfg.AuditRetentionDays)
	}

	if !isValidEnv(cfg.Env) {
		return nil, fmt.Errorf("EVENTBOOK_ENV must be development or production, got %q", cfg.Env)
	}

	return cfg, nil
}

// isValidEnv reports whether s names a recognized deployment environment.
func isValidEnv(s string) bool {
	switch strings.ToLower(s) {
	case "development", "production":
		return true
	}
	return false
}
