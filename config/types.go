package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config represents the overall application configuration structure.
// It includes sections for application settings, server parameters, query compilation,
// the optional target database and logging preferences.
// The embedded koanf.Koanf instance allows for flexible access to
// additional custom configurations not explicitly defined in the struct.
type Config struct {
	App      AppConfig      `koanf:"app" json:"app" yaml:"app" mapstructure:"app"`
	Server   ServerConfig   `koanf:"server" json:"server" yaml:"server" mapstructure:"server"`
	Query    QueryConfig    `koanf:"query" json:"query" yaml:"query" mapstructure:"query"`
	Database DatabaseConfig `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`

	Observability ObservabilityConfig `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name    string     `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	Version string     `koanf:"version" json:"version" yaml:"version" mapstructure:"version"`
	Env     string     `koanf:"env" json:"env" yaml:"env" mapstructure:"env"`
	Rate    RateConfig `koanf:"rate" json:"rate" yaml:"rate" mapstructure:"rate"`
}

// RateConfig holds rate limiting settings.
type RateConfig struct {
	Limit int `koanf:"limit" json:"limit" yaml:"limit" mapstructure:"limit"` // requests per second per client, 0 disables
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port    int           `koanf:"port" json:"port" yaml:"port" mapstructure:"port"`
	Timeout TimeoutConfig `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	Path    PathConfig    `koanf:"path" json:"path" yaml:"path" mapstructure:"path"`
}

// TimeoutConfig holds various timeout durations for the server.
type TimeoutConfig struct {
	Read       time.Duration `koanf:"read" json:"read" yaml:"read" mapstructure:"read"`
	Write      time.Duration `koanf:"write" json:"write" yaml:"write" mapstructure:"write"`
	Middleware time.Duration `koanf:"middleware" json:"middleware" yaml:"middleware" mapstructure:"middleware"`
	Shutdown   time.Duration `koanf:"shutdown" json:"shutdown" yaml:"shutdown" mapstructure:"shutdown"`
}

// PathConfig holds URL path settings for the server.
type PathConfig struct {
	Base   string `koanf:"base" json:"base" yaml:"base" mapstructure:"base"`
	Health string `koanf:"health" json:"health" yaml:"health" mapstructure:"health"`
	Ready  string `koanf:"ready" json:"ready" yaml:"ready" mapstructure:"ready"`
}

// QueryConfig controls how query specifications are compiled and executed.
type QueryConfig struct {
	// Dialect is used for requests that do not name one.
	Dialect string `koanf:"dialect" json:"dialect" yaml:"dialect" mapstructure:"dialect"`
	// Mode selects literal (legacy, values interpolated) or parameterized rendering.
	Mode string `koanf:"mode" json:"mode" yaml:"mode" mapstructure:"mode"`
	// MaxLimit caps the LIMIT of every compiled query. Zero disables the cap.
	MaxLimit uint64 `koanf:"maxlimit" json:"maxlimit" yaml:"maxlimit" mapstructure:"maxlimit"`
	// Timeout bounds query execution against the database.
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// SlowThreshold is the duration above which executed queries are logged as slow.
	SlowThreshold time.Duration `koanf:"slowthreshold" json:"slowthreshold" yaml:"slowthreshold" mapstructure:"slowthreshold"`
	// LogArgs includes bound arguments in query logs.
	LogArgs bool `koanf:"logargs" json:"logargs" yaml:"logargs" mapstructure:"logargs"`
}

// DatabaseConfig holds the connection settings of the database queries are run against.
// An empty Type and ConnectionString mean no database is configured.
type DatabaseConfig struct {
	Type     string `koanf:"type" json:"type" yaml:"type" mapstructure:"type"`
	Host     string `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `koanf:"port" json:"port" yaml:"port" mapstructure:"port"`
	Database string `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Username string `koanf:"username" json:"username" yaml:"username" mapstructure:"username"`
	Password string `koanf:"password" json:"password" yaml:"password" mapstructure:"password"`
	SSLMode  string `koanf:"sslmode" json:"sslmode" yaml:"sslmode" mapstructure:"sslmode"`

	ConnectionString string `koanf:"connectionstring" json:"connectionstring" yaml:"connectionstring" mapstructure:"connectionstring"`

	Pool PoolConfig `koanf:"pool" json:"pool" yaml:"pool" mapstructure:"pool"`
}

// PoolConfig holds connection pool settings.
type PoolConfig struct {
	MaxOpen  int           `koanf:"maxopen" json:"maxopen" yaml:"maxopen" mapstructure:"maxopen"`
	MaxIdle  int           `koanf:"maxidle" json:"maxidle" yaml:"maxidle" mapstructure:"maxidle"`
	Lifetime time.Duration `koanf:"lifetime" json:"lifetime" yaml:"lifetime" mapstructure:"lifetime"`
	IdleTime time.Duration `koanf:"idletime" json:"idletime" yaml:"idletime" mapstructure:"idletime"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// ObservabilityConfig controls OpenTelemetry export. While disabled, spans and metrics
// go to the global no-op providers.
type ObservabilityConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is "stdout" or an OTLP collector address.
	Endpoint string            `koanf:"endpoint" json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	Protocol string            `koanf:"protocol" json:"protocol" yaml:"protocol" mapstructure:"protocol"`
	Insecure bool              `koanf:"insecure" json:"insecure" yaml:"insecure" mapstructure:"insecure"`
	Headers  map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`

	Trace   TraceConfig   `koanf:"trace" json:"trace" yaml:"trace" mapstructure:"trace"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

// TraceConfig holds tracing settings.
type TraceConfig struct {
	Enabled    bool    `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	SampleRate float64 `koanf:"samplerate" json:"samplerate" yaml:"samplerate" mapstructure:"samplerate"`
}

// MetricsConfig holds metric export settings.
type MetricsConfig struct {
	Enabled  bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Interval time.Duration `koanf:"interval" json:"interval" yaml:"interval" mapstructure:"interval"`
}

// Koanf returns the underlying koanf instance, or nil when the config was built by hand.
func (c *Config) Koanf() *koanf.Koanf {
	return c.k
}
