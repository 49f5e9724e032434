package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/gavel/go/internal/auction/engine"
)

// Config holds the file-based tunables. Connection endpoints come from
// the environment; auction behavior comes from here.
type Config struct {
	Auction struct {
		DefaultTimerDurationSec int   `yaml:"default_timer_duration_sec"`
		DefaultMinBidFloor      int64 `yaml:"default_min_bid_floor"`
		ResetDebounceMs         int   `yaml:"reset_debounce_ms"`
		HeartbeatIntervalSec    int   `yaml:"heartbeat_interval_sec"`
	} `yaml:"auction"`
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// loadConfig reads the yaml config at path. A missing file is not an
// error; the engine defaults apply.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &config, nil
}

// engineConfig maps file tunables onto the engine config, leaving zero
// values for the engine defaults to fill.
func engineConfig(cfg *Config) engine.Config {
	return engine.Config{
		DefaultTimerDurationSec: cfg.Auction.DefaultTimerDurationSec,
		DefaultMinBidFloor:      cfg.Auction.DefaultMinBidFloor,
		ResetDebounce:           time.Duration(cfg.Auction.ResetDebounceMs) * time.Millisecond,
		HeartbeatInterval:       time.Duration(cfg.Auction.HeartbeatIntervalSec) * time.Second,
	}
}
