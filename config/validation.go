package config

import (
	"slices"
	"strconv"
	"strings"
)

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Dialect names accepted by query.dialect and database.type.
const (
	DialectPostgres = "postgres"
	DialectMySQL    = "mysql"
)

// Rendering modes accepted by query.mode.
const (
	ModeLiteral       = "literal"
	ModeParameterized = "parameterized"
)

// Observability exporter settings.
const (
	EndpointStdout = "stdout"
	ProtocolHTTP   = "http"
	ProtocolGRPC   = "grpc"
)

// Validate checks cfg and returns the first problem found as a *ConfigError.
func Validate(cfg *Config) error {
	if err := validateApp(&cfg.App); err != nil {
		return err
	}

	if err := validateServer(&cfg.Server); err != nil {
		return err
	}

	if err := validateQuery(&cfg.Query); err != nil {
		return err
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return err
	}

	if err := validateObservability(&cfg.Observability); err != nil {
		return err
	}

	return nil
}

// validateApp requires Name and Version to be non-empty, Env to be one of
// EnvDevelopment, EnvStaging, or EnvProduction, and the rate limit to be non-negative.
func validateApp(cfg *AppConfig) error {
	if cfg.Name == "" {
		return NewMissingFieldError("app.name")
	}

	if cfg.Version == "" {
		return NewMissingFieldError("app.version")
	}

	validEnvs := []string{EnvDevelopment, EnvStaging, EnvProduction}
	if !slices.Contains(validEnvs, cfg.Env) {
		return NewUnsupportedValueError("app.env", cfg.Env, validEnvs)
	}

	if cfg.Rate.Limit < 0 {
		return NewRangeError("app.rate.limit", "must not be negative")
	}

	return nil
}

func validateServer(cfg *ServerConfig) error {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return NewRangeError("server.port", "invalid port: "+strconv.Itoa(cfg.Port)+" (must be 1-65535)")
	}

	if cfg.Timeout.Read <= 0 {
		return NewRangeError("server.timeout.read", "must be positive")
	}

	if cfg.Timeout.Write <= 0 {
		return NewRangeError("server.timeout.write", "must be positive")
	}

	return nil
}

func validateQuery(cfg *QueryConfig) error {
	cfg.Dialect = normalizeDialect(cfg.Dialect)
	if !slices.Contains(supportedDialects(), cfg.Dialect) {
		return NewUnsupportedValueError("query.dialect", cfg.Dialect, supportedDialects())
	}

	cfg.Mode = strings.ToLower(cfg.Mode)
	validModes := []string{ModeLiteral, ModeParameterized}
	if !slices.Contains(validModes, cfg.Mode) {
		return NewUnsupportedValueError("query.mode", cfg.Mode, validModes)
	}

	if cfg.Timeout < 0 {
		return NewRangeError("query.timeout", "must not be negative")
	}

	return nil
}

// IsDatabaseConfigured determines if a database is intentionally configured.
func IsDatabaseConfigured(cfg *DatabaseConfig) bool {
	return cfg.ConnectionString != "" || cfg.Type != ""
}

func validateDatabase(cfg *DatabaseConfig) error {
	if !IsDatabaseConfigured(cfg) {
		return nil
	}

	cfg.Type = normalizeDialect(cfg.Type)
	if !slices.Contains(supportedDialects(), cfg.Type) {
		return NewUnsupportedValueError("database.type", cfg.Type, supportedDialects())
	}

	if cfg.Port < 0 || cfg.Port > 65535 {
		return NewRangeError("database.port", "invalid port: "+strconv.Itoa(cfg.Port))
	}

	// A connection string carries host, credentials and database name
	if cfg.ConnectionString != "" {
		return nil
	}

	if cfg.Host == "" {
		return NewMissingFieldError("database.host")
	}

	if cfg.Database == "" {
		return NewMissingFieldError("database.database")
	}

	if cfg.Username == "" {
		return NewMissingFieldError("database.username")
	}

	return nil
}

// validateObservability only checks exporter settings when export is enabled.
func validateObservability(cfg *ObservabilityConfig) error {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Endpoint == "" {
		return NewMissingFieldError("observability.endpoint")
	}

	cfg.Protocol = strings.ToLower(cfg.Protocol)
	if cfg.Endpoint != EndpointStdout {
		validProtocols := []string{ProtocolHTTP, ProtocolGRPC}
		if !slices.Contains(validProtocols, cfg.Protocol) {
			return NewUnsupportedValueError("observability.protocol", cfg.Protocol, validProtocols)
		}
	}

	if cfg.Trace.SampleRate < 0 || cfg.Trace.SampleRate > 1 {
		return NewRangeError("observability.trace.samplerate", "must be between 0 and 1")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Interval <= 0 {
		return NewRangeError("observability.metrics.interval", "must be positive")
	}

	return nil
}

func supportedDialects() []string {
	return []string{DialectPostgres, DialectMySQL}
}

// normalizeDialect lowercases the name and maps the "postgresql" alias to "postgres".
func normalizeDialect(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "postgresql" {
		return DialectPostgres
	}
	return name
}
