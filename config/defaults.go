package config

import "time"

// DefaultConfig returns the stock configuration: a two-tier memory with the
// mock embedder, linear index, metrics on, tracing off.
func DefaultConfig() Config {
	return Config{
		App: AppConfig{
			Name:        "continuum",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Memory: MemoryConfig{
			Dimension: 256,
			Index:     "linear",
			Surprise:  "mse",
			Tiers: []TierConfig{
				{
					Name:              "fast",
					UpdateFreq:        1,
					LearningRate:      0.01,
					SurpriseThreshold: 0.3,
					Capacity:          10000,
				},
				{
					Name:              "slow",
					UpdateFreq:        100,
					LearningRate:      0.001,
					SurpriseThreshold: 0.7,
					Capacity:          50000,
				},
			},
			Archive: ArchiveConfig{
				Type:   "none",
				Badger: BadgerConfig{Dir: "data/archive"},
				Redis: RedisConfig{
					Addr:   "localhost:6379",
					DB:     0,
					Prefix: "continuum",
				},
			},
		},
		Embedding: EmbeddingConfig{
			Provider: "mock",
			Model:    "nomic-embed-text",
			BaseURL:  "",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9091,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Sampler:    "ratio",
			SampleRate: 0.1,
			Timeout:    10 * time.Second,
		},
	}
}
