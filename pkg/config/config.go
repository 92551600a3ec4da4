// Package config loads the engine's YAML configuration file: where to
// persist the database snapshot, where to write the audit log pkg/monitor
// tails, and the slow-query threshold alerts are raised against.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of rowql's YAML configuration file.
type Config struct {
	Storage StorageConfig `yaml:"storage"`
	Audit   AuditConfig   `yaml:"audit"`
}

// StorageConfig controls where and whether the database is persisted.
type StorageConfig struct {
	// Path to the JSON snapshot file. Empty disables persistence
	// (in-memory only).
	Path string `yaml:"path"`
}

// AuditConfig controls query audit logging and slow-query alerting.
type AuditConfig struct {
	// Path to the audit log file. Empty disables audit logging.
	Path string `yaml:"path"`
	// SlowQueryThreshold marks a query as slow once it runs longer than
	// this duration; used by pkg/monitor's alert manager.
	SlowQueryThreshold Duration `yaml:"slow_query_threshold"`
	// RepeatedViolationWindow is how far back pkg/monitor looks when
	// counting repeated query errors with the same error message.
	RepeatedViolationWindow Duration `yaml:"repeated_violation_window"`
	// RepeatedViolationLimit is how many query errors with the same error
	// message within RepeatedViolationWindow trigger an alert.
	RepeatedViolationLimit int `yaml:"repeated_violation_limit"`
}

// Duration wraps time.Duration so it can be written as a YAML string like
// "500ms" or "1m30s" instead of a raw nanosecond integer.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string ("500ms") or a bare
// integer number of nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: duration must be a string or integer nanoseconds")
	}
	*d = Duration(n)
	return nil
}

// Default returns the configuration rowql runs with when no file is
// supplied: a JSON snapshot in the working directory, audit logging disabled.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{Path: "rowql_data.json"},
		Audit: AuditConfig{
			SlowQueryThreshold:      Duration(time.Second),
			RepeatedViolationWindow: Duration(time.Minute),
			RepeatedViolationLimit:  3,
		},
	}
}

// Load reads and parses a YAML configuration file. An empty path is not
// an error — Default() is returned unchanged.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
