// Package config provides configuration management for Continuum.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config is the global configuration for Continuum.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP API server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Memory is the memory engine configuration.
	Memory MemoryConfig `mapstructure:"memory" validate:"required"`

	// Embedding is the embedding provider configuration.
	Embedding EmbeddingConfig `mapstructure:"embedding"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment.
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum level to log.
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the log output format.
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is "stdout", "stderr", or a file path.
	Output string `mapstructure:"output"`
}

// MemoryConfig holds the memory engine settings.
type MemoryConfig struct {
	// Dimension is the embedding dimensionality shared by all tiers.
	Dimension int `mapstructure:"dimension" validate:"min=1"`

	// Index selects the similarity index backend.
	Index string `mapstructure:"index" validate:"oneof=linear chromem"`

	// Surprise selects the surprise scoring strategy.
	Surprise string `mapstructure:"surprise" validate:"oneof=mse cosine kl"`

	// Tiers describes the memory tiers, fastest first by convention.
	Tiers []TierConfig `mapstructure:"tiers" validate:"min=1,dive"`

	// Archive configures the optional eviction cold store.
	Archive ArchiveConfig `mapstructure:"archive"`
}

// TierConfig describes one memory tier.
type TierConfig struct {
	// Name identifies the tier.
	Name string `mapstructure:"name" validate:"required"`

	// UpdateFreq is the admission cadence in steps.
	UpdateFreq uint64 `mapstructure:"update_freq" validate:"min=1"`

	// LearningRate is reserved for adaptive encoders.
	LearningRate float64 `mapstructure:"learning_rate" validate:"gte=0,lte=1"`

	// SurpriseThreshold is the admission bar for gated writes.
	SurpriseThreshold float64 `mapstructure:"surprise_threshold" validate:"gte=0,lte=1"`

	// Capacity bounds the tier's entry count.
	Capacity int `mapstructure:"capacity" validate:"min=1"`

	// Frozen rejects all gated writes.
	Frozen bool `mapstructure:"frozen"`
}

// ArchiveConfig configures where evicted entries are spilled.
type ArchiveConfig struct {
	// Type selects the archive backend; "none" disables spilling.
	Type string `mapstructure:"type" validate:"oneof=none badger redis"`

	// Badger holds badger-specific settings.
	Badger BadgerConfig `mapstructure:"badger"`

	// Redis holds redis-specific settings.
	Redis RedisConfig `mapstructure:"redis"`
}

// BadgerConfig holds badger archive settings.
type BadgerConfig struct {
	// Dir is the on-disk directory for the badger store.
	Dir string `mapstructure:"dir"`
}

// RedisConfig holds redis archive settings.
type RedisConfig struct {
	// Addr is the redis host:port.
	Addr string `mapstructure:"addr"`

	// Password authenticates against redis; empty disables auth.
	Password string `mapstructure:"password"`

	// DB selects the redis logical database.
	DB int `mapstructure:"db" validate:"min=0"`

	// Prefix namespaces archive keys.
	Prefix string `mapstructure:"prefix"`
}

// EmbeddingConfig configures the embedding provider used by the service
// binary. The engine itself only sees the resulting encoder.
type EmbeddingConfig struct {
	// Provider selects the embedder implementation.
	Provider string `mapstructure:"provider" validate:"oneof=mock ollama openai"`

	// Model names the embedding model for remote providers.
	Model string `mapstructure:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `mapstructure:"base_url"`

	// APIKey authenticates against openai-compatible providers.
	APIKey string `mapstructure:"api_key"`
}

// MetricsConfig holds metrics exposition settings.
type MetricsConfig struct {
	// Enabled turns the Prometheus registry and endpoint on.
	Enabled bool `mapstructure:"enabled"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=0,max=65535"`

	// Path is the exposition endpoint path.
	Path string `mapstructure:"path"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled turns span export on.
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP/gRPC collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Sampler is "always_on", "always_off", or "ratio".
	Sampler string `mapstructure:"sampler"`

	// SampleRate applies when Sampler is "ratio".
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1"`

	// Timeout bounds each export call.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are attached to every export request.
	Headers map[string]string `mapstructure:"headers"`
}

// Addr returns the server bind address.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
