// Package config loads and validates the YAML configuration that drives a
// discovery run: database connection, algorithm bounds, monitor ceilings,
// output paths, logging, and optional MLflow tracking.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration document.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Algorithm AlgorithmConfig `yaml:"algorithm"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Results   ResultsConfig   `yaml:"results"`
	Logging   LoggingConfig   `yaml:"logging"`
	MLflow    MLflowConfig    `yaml:"mlflow"`
}

// DatabaseConfig names the target database: URL is a full driver DSN;
// otherwise Path (a directory) and Name (a file name) are joined, or Path
// alone names the SQLite file. Only the sqlite3 driver is wired.
type DatabaseConfig struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// AlgorithmConfig bounds the enumerator and validator.
type AlgorithmConfig struct {
	NbOccurrence        int     `yaml:"nb_occurrence"`
	MaxTable            int     `yaml:"max_table"`
	MaxVars             int     `yaml:"max_vars"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// MonitorConfig bounds the watchdog. MemoryThresholdBytes of 0 disables the
// memory check; TimeoutSeconds of 0 disables the wall-clock check.
type MonitorConfig struct {
	MemoryThresholdBytes uint64  `yaml:"memory_threshold"`
	TimeoutSeconds       float64 `yaml:"timeout"`
}

// ResultsConfig names where output artifacts are written.
type ResultsConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	LogDir string `yaml:"log_dir"`
	Level  string `yaml:"level"`
}

// MLflowConfig configures the optional run-tracking sink.
type MLflowConfig struct {
	Use            bool   `yaml:"use"`
	TrackingURI    string `yaml:"tracking_uri"`
	ExperimentName string `yaml:"experiment_name"`
}

// defaults matches the algorithm/monitor/results/logging defaults a fresh
// discovery run should have when a key is left unset in the YAML file.
func defaults() Config {
	return Config{
		Algorithm: AlgorithmConfig{
			NbOccurrence:        3,
			MaxTable:            3,
			MaxVars:             6,
			ConfidenceThreshold: 1.0,
		},
		Monitor: MonitorConfig{
			MemoryThresholdBytes: 15 * 1024 * 1024 * 1024,
			TimeoutSeconds:       3600,
		},
		Results: ResultsConfig{
			OutputDir: "results",
		},
		Logging: LoggingConfig{
			LogDir: "logs",
			Level:  "info",
		},
	}
}

// DefaultConfig returns the configuration a fresh run has when no YAML
// file is supplied, e.g. when invoked with --demo or --database alone.
func DefaultConfig() *Config {
	cfg := defaults()
	return &cfg
}

// Load reads and validates a YAML configuration file at path.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the invariants the discovery orchestrator relies on:
// max_table and max_vars must be positive, nb_occurrence non-negative, the
// database target must be nameable, and the confidence threshold must be a
// probability.
func (c *Config) Validate() error {
	if c.Database.Path == "" && c.Database.URL == "" {
		return fmt.Errorf("database.path or database.url is required")
	}
	if c.Algorithm.MaxTable < 1 {
		return fmt.Errorf("algorithm.max_table must be >= 1, got %d", c.Algorithm.MaxTable)
	}
	if c.Algorithm.MaxVars < 1 {
		return fmt.Errorf("algorithm.max_vars must be >= 1, got %d", c.Algorithm.MaxVars)
	}
	if c.Algorithm.NbOccurrence < 0 {
		return fmt.Errorf("algorithm.nb_occurrence must be >= 0, got %d", c.Algorithm.NbOccurrence)
	}
	if c.Algorithm.ConfidenceThreshold < 0 || c.Algorithm.ConfidenceThreshold > 1 {
		return fmt.Errorf("algorithm.confidence_threshold must be in [0,1], got %f", c.Algorithm.ConfidenceThreshold)
	}
	if c.MLflow.Use && c.MLflow.TrackingURI == "" {
		return fmt.Errorf("mlflow.tracking_uri is required when mlflow.use is true")
	}
	return nil
}
