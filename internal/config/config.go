// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"carbontrace/internal/errors"
	"carbontrace/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Factors contains emission-factor dataset configuration
	Factors FactorsConfig `json:"factors"`

	// Storage contains persistence configuration
	Storage StorageConfig `json:"storage"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// FactorsConfig contains emission-factor dataset settings
type FactorsConfig struct {
	// DatasetDir is a directory of .hcl dataset files layered over the
	// built-in factor tables. Empty means built-in tables only.
	DatasetDir string `json:"dataset_dir,omitempty"`

	// DefaultGridCountry preselects the electricity grid country
	DefaultGridCountry string `json:"default_grid_country"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// Backend selects the storage backend (memory, file)
	Backend string `json:"backend"`

	// Directory is where the file backend keeps its records
	Directory string `json:"directory"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format"`

	// ShowFactors includes resolved factors in the breakdown
	ShowFactors bool `json:"show_factors"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	storageDir := filepath.Join(homeDir, ".carbontrace", "records")

	return &Config{
		Version: "1.0",
		Factors: FactorsConfig{
			DefaultGridCountry: "United Kingdom",
		},
		Storage: StorageConfig{
			Backend:   "file",
			Directory: storageDir,
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowFactors:   true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "memory", "file":
	default:
		return errors.Newf(errors.TypeConfig, "unknown storage backend: %s", c.Storage.Backend)
	}
	if c.Storage.Backend == "file" && c.Storage.Directory == "" {
		return errors.New(errors.TypeConfig, "file storage backend requires a directory")
	}
	return nil
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
