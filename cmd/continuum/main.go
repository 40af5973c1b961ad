package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/continuum/continuum/config"
	"github.com/continuum/continuum/pkg/api"
	"github.com/continuum/continuum/pkg/api/handlers"
	"github.com/continuum/continuum/pkg/embedding"
	"github.com/continuum/continuum/pkg/logger"
	"github.com/continuum/continuum/pkg/memory"
	"github.com/continuum/continuum/pkg/metrics"
	"github.com/continuum/continuum/pkg/telemetry/tracing"
	"github.com/continuum/continuum/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")

	// CLI overrides
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath, buildOverrides())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting continuum",
		"version", version.Version,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Tracing
	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Error("Error shutting down tracing", "error", err)
		}
	}()

	// Metrics
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Embedding provider and encoder
	embedder, err := embedding.New(cfg.Embedding.Provider, cfg.Embedding.Model,
		cfg.Embedding.BaseURL, cfg.Embedding.APIKey, cfg.Memory.Dimension)
	if err != nil {
		log.Error("Failed to create embedder", "error", err)
		os.Exit(1)
	}
	encoder := embedding.NewJSONEncoder(embedder)

	// Index and scorer per configuration
	index, err := memory.NewIndex(memory.Backend(cfg.Memory.Index), encoder.Dimensions())
	if err != nil {
		log.Error("Failed to create index", "backend", cfg.Memory.Index, "error", err)
		os.Exit(1)
	}
	scorer, err := memory.NewScorer(memory.Strategy(cfg.Memory.Surprise))
	if err != nil {
		log.Error("Failed to create surprise scorer", "strategy", cfg.Memory.Surprise, "error", err)
		os.Exit(1)
	}

	// Cold archive for evicted entries
	archive, err := buildArchive(cfg, log)
	if err != nil {
		log.Error("Failed to create archive", "type", cfg.Memory.Archive.Type, "error", err)
		os.Exit(1)
	}
	if archive != nil {
		defer func() {
			if err := archive.Close(); err != nil {
				log.Error("Error closing archive", "error", err)
			}
		}()
	}

	// Memory engine
	tierCfgs := make([]memory.TierConfig, 0, len(cfg.Memory.Tiers))
	for _, tc := range cfg.Memory.Tiers {
		tierCfgs = append(tierCfgs, memory.TierConfig{
			Name:              tc.Name,
			UpdateFreq:        tc.UpdateFreq,
			LearningRate:      tc.LearningRate,
			SurpriseThreshold: tc.SurpriseThreshold,
			Capacity:          tc.Capacity,
			Frozen:            tc.Frozen,
		})
	}
	opts := []memory.Option[json.RawMessage]{
		memory.WithLogger[json.RawMessage](log),
		memory.WithMetrics[json.RawMessage](metricsManager),
		memory.WithIndex[json.RawMessage](index),
		memory.WithScorer[json.RawMessage](scorer),
	}
	if archive != nil {
		opts = append(opts, memory.WithArchive[json.RawMessage](archive))
	}
	sys, err := memory.NewFromTierConfigs[json.RawMessage](encoder, tierCfgs, opts...)
	if err != nil {
		log.Error("Failed to create memory system", "error", err)
		os.Exit(1)
	}

	// HTTP server
	apiHandlers := &api.Handlers{
		Memory:  handlers.NewMemoryHandler(sys, log),
		Health:  handlers.NewHealthHandler(sys, version.Version),
		Metrics: metricsManager,
	}
	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	serverErrChan := make(chan error, 1)
	go func() {
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Hot-reload of log settings when a config file is in play
	if *configPath != "" {
		watcher, err := config.NewWatcher(*configPath)
		if err != nil {
			log.Warn("Config watching unavailable", "path", *configPath, "error", err)
		} else {
			watcher.OnChange(func(newCfg *config.Config) {
				log.SetLevel(logger.ParseLevel(newCfg.Log.Level))
				log.Info("Applied reloaded config", "log_level", newCfg.Log.Level)
			})
			if err := watcher.Watch(ctx); err != nil {
				log.Warn("Config watcher failed to start", "error", err)
			} else {
				defer watcher.Stop()
			}
		}
	}

	log.Info("Continuum is running",
		"http_addr", cfg.Server.Addr(),
		"tiers", sys.TierNames(),
		"dimension", sys.Dimension(),
	)

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	log.Info("Continuum stopped gracefully")
}

func buildArchive(cfg *config.Config, log logger.Logger) (memory.Archive[json.RawMessage], error) {
	switch cfg.Memory.Archive.Type {
	case "", "none":
		return nil, nil
	case "badger":
		arch, err := memory.OpenBadgerArchive[json.RawMessage](cfg.Memory.Archive.Badger.Dir)
		if err != nil {
			return nil, err
		}
		log.Info("Initialized badger archive", "dir", cfg.Memory.Archive.Badger.Dir)
		return arch, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Memory.Archive.Redis.Addr,
			Password: cfg.Memory.Archive.Redis.Password,
			DB:       cfg.Memory.Archive.Redis.DB,
		})
		log.Info("Initialized redis archive", "addr", cfg.Memory.Archive.Redis.Addr)
		return memory.NewRedisArchive[json.RawMessage](client, cfg.Memory.Archive.Redis.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown archive type: %q", cfg.Memory.Archive.Type)
	}
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("Continuum - Tiered Memory Service\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}
