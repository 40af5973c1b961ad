package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "CONTINUUM_"
	// Delimiter is the key delimiter for nested config.
	Delimiter = "."
)

// Loader layers configuration sources: defaults, then an optional file,
// then environment variables, then explicit overrides.
type Loader struct {
	k *koanf.Koanf
}

// NewLoader creates a configuration loader.
func NewLoader() *Loader {
	return &Loader{k: koanf.New(Delimiter)}
}

// Load resolves the configuration. configPath may be empty, in which case
// standard locations are probed. Overrides win over every other source.
func (l *Loader) Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	defaults := DefaultConfig()
	if err := l.k.Load(confmap.Provider(flatten(defaults, ""), Delimiter), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := l.loadFile(configPath); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		l.loadDefaultFiles()
	}

	// Double underscore separates nesting so single underscores survive in
	// key names: CONTINUUM_SERVER__PORT -> server.port,
	// CONTINUUM_MEMORY__DIMENSION -> memory.dimension.
	err := l.k.Load(env.Provider(EnvPrefix, Delimiter, func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", Delimiter)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	if len(overrides) > 0 {
		if err := l.k.Load(confmap.Provider(overrides, Delimiter), nil); err != nil {
			return nil, fmt.Errorf("apply overrides: %w", err)
		}
	}

	var cfg Config
	if err := l.k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := ValidateWithDetails(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (l *Loader) loadFile(path string) error {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", path)
	}
	return l.k.Load(file.Provider(path), parser)
}

// loadDefaultFiles probes standard locations, first hit wins.
func (l *Loader) loadDefaultFiles() {
	candidates := []string{
		"config.yaml",
		"config.yml",
		"config.json",
		"configs/config.yaml",
		"/etc/continuum/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			_ = l.loadFile(path)
			return
		}
	}
}

// Get returns a raw configuration value by key.
func (l *Loader) Get(key string) interface{} {
	return l.k.Get(key)
}

// Set sets a configuration value.
func (l *Loader) Set(key string, value interface{}) error {
	return l.k.Set(key, value)
}

// flatten converts a config struct into a flat dot-keyed map so defaults
// merge per leaf instead of per nested struct. Slices and maps stay whole;
// overriding tiers in a file replaces the list.
func flatten(v interface{}, prefix string) map[string]interface{} {
	result := make(map[string]interface{})
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return result
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		fullKey := key
		if prefix != "" {
			fullKey = prefix + Delimiter + key
		}

		fieldVal := val.Field(i)
		if fieldVal.Kind() == reflect.Struct {
			for k, nested := range flatten(fieldVal.Interface(), fullKey) {
				result[k] = nested
			}
		} else {
			result[fullKey] = fieldVal.Interface()
		}
	}
	return result
}

// Load is a convenience wrapper around a one-shot Loader.
func Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	return NewLoader().Load(configPath, overrides)
}
