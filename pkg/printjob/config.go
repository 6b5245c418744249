package printjob

import (
	"os"
	"strconv"
	"time"

	"github.com/FelipeCamposM/Gerencie3D-sub000/pkg/costing"
)

// SweepConfig controls the completion sweeper.
type SweepConfig struct {
	Interval     time.Duration // How often overdue jobs are swept. Default 60s.
	Enabled      bool          // Whether the sweeper runs. Default true.
	MarkupFactor float64       // Default markup for suggested sale prices. Default 4.
}

// DefaultSweepConfig returns the default sweeper configuration.
func DefaultSweepConfig() *SweepConfig {
	return &SweepConfig{
		Interval:     60 * time.Second,
		Enabled:      true,
		MarkupFactor: costing.DefaultMarkupFactor,
	}
}

// SweepConfigFromEnv loads config from environment variables.
// FLEET_SWEEP_INTERVAL_SECONDS, FLEET_SWEEP_ENABLED, FLEET_MARKUP_FACTOR
func SweepConfigFromEnv() *SweepConfig {
	cfg := DefaultSweepConfig()

	if v := os.Getenv("FLEET_SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Interval = time.Duration(n) * time.Second
		}
	}

	if v := os.Getenv("FLEET_SWEEP_ENABLED"); v != "" {
		cfg.Enabled, _ = strconv.ParseBool(v)
	}

	if v := os.Getenv("FLEET_MARKUP_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.MarkupFactor = f
		}
	}

	return cfg
}
