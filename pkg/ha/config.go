package ha

import (
	"os"
	"strings"
)

// Config holds high-availability settings.
type Config struct {
	// MigrationLockEnabled controls whether database migration locking
	// is used to prevent concurrent schema changes.
	MigrationLockEnabled bool
}

// DefaultConfig returns a Config with migration locking enabled.
func DefaultConfig() *Config {
	return &Config{MigrationLockEnabled: true}
}

// ConfigFromEnv reads HA configuration from environment variables.
// FLEET_MIGRATION_LOCK_ENABLED: "true" or "false" (default: "true")
func ConfigFromEnv() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("FLEET_MIGRATION_LOCK_ENABLED"); v != "" {
		cfg.MigrationLockEnabled = strings.EqualFold(v, "true") || v == "1"
	}
	return cfg
}
