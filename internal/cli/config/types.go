// Package config loads CLI configuration from file, environment and
// flags. A config file holds named connection profiles so operators can
// switch databases with --conn instead of retyping DSNs.
package config

import (
	"time"

	"github.com/polydb-io/polydb/pkg/provider"
)

// Config is the fully merged CLI configuration.
type Config struct {
	// Default names the profile used when --conn is not given.
	Default string `koanf:"default"`

	// Connections maps profile names to connection settings.
	Connections map[string]Profile `koanf:"connections"`

	// Engine and DSN are direct overrides, normally set by flags or
	// environment rather than the file.
	Engine string `koanf:"engine"`
	DSN    string `koanf:"dsn"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
}

// Profile is one named connection.
type Profile struct {
	Engine         string        `koanf:"engine"`
	DSN            string        `koanf:"dsn"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
	ScanBatch      int64         `koanf:"scan_batch"`
}

// Provider converts the profile to the adapter connection config.
func (p Profile) Provider() provider.Config {
	return provider.Config{
		DSN:            p.DSN,
		ConnectTimeout: p.ConnectTimeout,
		QueryTimeout:   p.QueryTimeout,
		ScanBatch:      p.ScanBatch,
	}
}
