// Package config loads server configuration from an optional YAML file,
// with defaults suitable for local development. Command-line flags
// override whatever the file provides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port int `yaml:"port"`

	// DBPath is the SQLite database path. ":memory:" for in-memory.
	DBPath string `yaml:"db_path"`

	// Timezone is the canonical regional timezone for calendar day
	// boundaries. The DST window correction is computed independently of
	// this zone's own rules; this only anchors "today" and range parsing.
	Timezone string `yaml:"timezone"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Port:     8080,
		DBPath:   "attendance.db",
		Timezone: "America/Mexico_City",
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
