package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is read when no explicit path is given.
const DefaultConfigFile = "config.yaml"

// Load loads configuration from DefaultConfigFile. See LoadFrom.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority)
// 2. The YAML file at path (DefaultConfigFile when path is empty)
// 3. Default values (lowest priority)
//
// A missing default file is ignored; a missing explicit path is an error.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	// Load default configuration first
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	// Load environment variables (highest priority)
	if err := k.Load(envprovider.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal into config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Store the Koanf instance for flexible access
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey converts UPPER_CASE to lower.case for koanf.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), "_", ".")
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":       "dbworkbench",
		"app.version":    "v1.0.0",
		"app.env":        EnvDevelopment,
		"app.rate.limit": 100,

		"server.host":               "0.0.0.0",
		"server.port":               8080,
		"server.timeout.read":       "15s",
		"server.timeout.write":      "30s",
		"server.timeout.middleware": "30s",
		"server.timeout.shutdown":   "10s",
		"server.path.base":          "/api",
		"server.path.health":        "/health",
		"server.path.ready":         "/ready",

		"query.dialect":       DialectPostgres,
		"query.mode":          ModeParameterized,
		"query.maxlimit":      1000,
		"query.timeout":       "30s",
		"query.slowthreshold": "1s",
		"query.logargs":       false,

		// Database defaults not provided: queries can be compiled without a database,
		// running them requires explicit configuration.

		"log.level":  "info",
		"log.pretty": false,

		"observability.enabled":          false,
		"observability.endpoint":         EndpointStdout,
		"observability.protocol":         ProtocolHTTP,
		"observability.trace.enabled":    true,
		"observability.trace.samplerate": 1.0,
		"observability.metrics.enabled":  true,
		"observability.metrics.interval": "60s",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
