package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// envPrefix namespaces the environment variables the loader reads.
// POLYDB_DSN=... maps to the dsn key, POLYDB_LOG_LEVEL to log_level.
const envPrefix = "POLYDB_"

// findConfigFile picks the config file to use.
// Priority: explicit path > polydb.yaml > polydb.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"polydb.yaml", "polydb.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load merges configuration sources.
// Precedence (highest to lowest): flags > env vars > config file.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if cfgFile != "" {
		return nil, fmt.Errorf("config file %s not found", cfgFile)
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		// Flag names use dashes, config keys use underscores.
		p := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(p, nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}

// Resolve picks the connection to use: the direct --engine/--dsn pair when
// both are set, otherwise the named (or default) profile, with either flag
// overriding the profile field.
func (c *Config) Resolve(connName string) (string, Profile, error) {
	if c.Engine != "" && c.DSN != "" {
		return c.Engine, Profile{Engine: c.Engine, DSN: c.DSN}, nil
	}

	name := connName
	if name == "" {
		name = c.Default
	}
	if name == "" {
		if c.Engine != "" || c.DSN != "" {
			return "", Profile{}, fmt.Errorf("--engine and --dsn must be given together")
		}
		return "", Profile{}, fmt.Errorf("no connection selected: use --conn, --engine/--dsn, or set a default profile")
	}

	profile, ok := c.Connections[name]
	if !ok {
		return "", Profile{}, fmt.Errorf("connection profile %q not found", name)
	}
	if c.Engine != "" {
		profile.Engine = c.Engine
	}
	if c.DSN != "" {
		profile.DSN = c.DSN
	}
	if profile.Engine == "" || profile.DSN == "" {
		return "", Profile{}, fmt.Errorf("connection profile %q is missing engine or dsn", name)
	}
	return profile.Engine, profile, nil
}
