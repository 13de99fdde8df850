package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	Dataset    DatasetConfig    `mapstructure:"dataset"`
	Pool       PoolConfig       `mapstructure:"pool"`
	Models     ModelsConfig     `mapstructure:"models"`
	Imputation ImputationConfig `mapstructure:"imputation"`
	Forecast   ForecastConfig   `mapstructure:"forecast"`
	Artifacts  ArtifactsConfig  `mapstructure:"artifacts"`
	Report     ReportConfig     `mapstructure:"report"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// DatasetConfig locates the input dataset artifact
type DatasetConfig struct {
	Root    string `mapstructure:"root"`    // Artifact store root directory
	Example string `mapstructure:"example"` // Dataset identifier (e.g. "grocery_sales")
	File    string `mapstructure:"file"`    // Dataset artifact file name
}

// PoolConfig represents worker pool configuration
type PoolConfig struct {
	Workers int `mapstructure:"workers"` // Fixed pool size; partitions fit in parallel up to this bound
}

// ModelsConfig names the model menu fit in each pass
type ModelsConfig struct {
	Basic []string `mapstructure:"basic"` // First pass menu
	ETS   []string `mapstructure:"ets"`   // Second pass menu, fit after imputation
}

// ImputationConfig controls how missing observations are filled before the
// ETS pass. Source must be a model from the basic menu and must not appear
// in Excluded; the default exclusion keeps mean/naive/drift out, matching
// the reference analysis.
type ImputationConfig struct {
	Source   string   `mapstructure:"source"`   // Model whose fitted values fill gaps
	Excluded []string `mapstructure:"excluded"` // Models rejected as imputation sources
}

// ForecastConfig represents forecasting configuration
type ForecastConfig struct {
	Horizon int `mapstructure:"horizon"` // Periods ahead; 0 means the full test horizon
}

// ArtifactsConfig names the output artifacts
type ArtifactsConfig struct {
	BasicFile   string `mapstructure:"basic_file"`  // Basic pass artifact file name
	ETSFile     string `mapstructure:"ets_file"`    // ETS pass artifact file name
	Compression string `mapstructure:"compression"` // Payload codec: none, snappy
}

// ReportConfig represents evaluation report configuration
type ReportConfig struct {
	XLSXPath string `mapstructure:"xlsx_path"` // Optional workbook output; empty disables
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset config: %w", err)
	}

	if err := c.Pool.Validate(); err != nil {
		return fmt.Errorf("pool config: %w", err)
	}

	if err := c.Models.Validate(); err != nil {
		return fmt.Errorf("models config: %w", err)
	}

	if err := c.Imputation.Validate(); err != nil {
		return fmt.Errorf("imputation config: %w", err)
	}

	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Artifacts.Validate(); err != nil {
		return fmt.Errorf("artifacts config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates dataset configuration
func (c *DatasetConfig) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("dataset.root is required")
	}

	if c.Example == "" {
		return fmt.Errorf("dataset.example is required")
	}

	if c.File == "" {
		return fmt.Errorf("dataset.file is required")
	}

	return nil
}

// Validate validates pool configuration
func (c *PoolConfig) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("pool.workers must be at least 1")
	}

	if c.Workers > 256 {
		return fmt.Errorf("pool.workers cannot exceed 256")
	}

	return nil
}

// Validate validates model menu configuration
func (c *ModelsConfig) Validate() error {
	if len(c.Basic) == 0 {
		return fmt.Errorf("models.basic must name at least one model")
	}

	if len(c.ETS) == 0 {
		return fmt.Errorf("models.ets must name at least one model")
	}

	if err := noDuplicates("models.basic", c.Basic); err != nil {
		return err
	}

	return noDuplicates("models.ets", c.ETS)
}

func noDuplicates(key string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return fmt.Errorf("%s lists %q more than once", key, name)
		}
		seen[name] = true
	}
	return nil
}

// Validate validates imputation configuration
func (c *ImputationConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("imputation.source is required")
	}

	for _, name := range c.Excluded {
		if name == c.Source {
			return fmt.Errorf("imputation.source %q is excluded by imputation.excluded", c.Source)
		}
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.Horizon < 0 {
		return fmt.Errorf("forecast.horizon cannot be negative")
	}

	return nil
}

// Validate validates artifacts configuration
func (c *ArtifactsConfig) Validate() error {
	if c.BasicFile == "" {
		return fmt.Errorf("artifacts.basic_file is required")
	}

	if c.ETSFile == "" {
		return fmt.Errorf("artifacts.ets_file is required")
	}

	if c.BasicFile == c.ETSFile {
		return fmt.Errorf("artifacts.basic_file and artifacts.ets_file cannot be the same")
	}

	if c.Compression != "none" && c.Compression != "snappy" {
		return fmt.Errorf("artifacts.compression must be 'none' or 'snappy'")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
