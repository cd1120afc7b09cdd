package maelstrom

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultWorkers is the worker count used when none is configured.
const DefaultWorkers = 4

// Config holds the runtime settings of a node process.
type Config struct {
	// Workers is the number of goroutines executing handlers.
	Workers int `yaml:"workers"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"logLevel"`

	// LogFormat is text or json.
	LogFormat string `yaml:"logFormat"`

	// MetricsFile, if set, receives a Prometheus text dump of the node's
	// metrics when it shuts down.
	MetricsFile string `yaml:"metricsFile"`
}

// DefaultConfig returns the settings used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Workers:   DefaultWorkers,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// LoadConfig reads a YAML config file on top of DefaultConfig. Fields missing
// from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
