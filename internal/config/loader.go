package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("ojcast")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")           // Current directory
		v.AddConfigPath("./configs")   // Project configs directory
		v.AddConfigPath("/etc/ojcast") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides
	v.SetEnvPrefix("OJCAST")
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Dataset defaults
	v.SetDefault("dataset.root", "./data")
	v.SetDefault("dataset.example", "grocery_sales")
	v.SetDefault("dataset.file", "data.Rdata")

	// Pool defaults
	v.SetDefault("pool.workers", 4)

	// Model menu defaults
	v.SetDefault("models.basic", []string{"mean", "naive", "drift", "arima"})
	v.SetDefault("models.ets", []string{"ets"})

	// Imputation defaults match the reference analysis: fill gaps from the
	// ARIMA fit, never from the flat basic models
	v.SetDefault("imputation.source", "arima")
	v.SetDefault("imputation.excluded", []string{"mean", "naive", "drift"})

	// Forecast defaults
	v.SetDefault("forecast.horizon", 0)

	// Artifact defaults
	v.SetDefault("artifacts.basic_file", "model_basic.Rdata")
	v.SetDefault("artifacts.ets_file", "model_ets.Rdata")
	v.SetDefault("artifacts.compression", "snappy")

	// Report defaults
	v.SetDefault("report.xlsx_path", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "stdout")
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root:    "./data",
			Example: "grocery_sales",
			File:    "data.Rdata",
		},
		Pool: PoolConfig{
			Workers: 4,
		},
		Models: ModelsConfig{
			Basic: []string{"mean", "naive", "drift", "arima"},
			ETS:   []string{"ets"},
		},
		Imputation: ImputationConfig{
			Source:   "arima",
			Excluded: []string{"mean", "naive", "drift"},
		},
		Forecast: ForecastConfig{
			Horizon: 0,
		},
		Artifacts: ArtifactsConfig{
			BasicFile:   "model_basic.Rdata",
			ETSFile:     "model_ets.Rdata",
			Compression: "snappy",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
