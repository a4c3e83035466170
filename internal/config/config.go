package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "bpkupdate/internal/errors"
)

// EnvPrefix namespaces every environment variable, e.g. BPK_LOGGING_LEVEL.
const EnvPrefix = "BPK"

// Config represents the complete application configuration
type Config struct {
	Logging     LoggingConfig     `yaml:"logging" envconfig:"LOGGING"`
	Calibration CalibrationConfig `yaml:"calibration" envconfig:"CALIBRATION"`
	Metrics     MetricsConfig     `yaml:"metrics" envconfig:"METRICS"`
	Report      ReportConfig      `yaml:"report" envconfig:"REPORT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// CalibrationConfig locates the calibration store and the input tree
type CalibrationConfig struct {
	DataDir         string `yaml:"data_dir" envconfig:"DATA_DIR"`
	PuppiFallback   string `yaml:"puppi_fallback" envconfig:"PUPPI_FALLBACK"`
	Tree            string `yaml:"tree" envconfig:"TREE"`
	LoadConcurrency int    `yaml:"load_concurrency" envconfig:"LOAD_CONCURRENCY"`
}

// MetricsConfig controls the end-of-run metrics dump
type MetricsConfig struct {
	Enabled      bool   `yaml:"enabled" envconfig:"ENABLED"`
	TextfilePath string `yaml:"textfile_path" envconfig:"TEXTFILE_PATH"`
	Tracing      bool   `yaml:"tracing" envconfig:"TRACING"`
}

// ReportConfig controls the run summary
type ReportConfig struct {
	SummaryPath string `yaml:"summary_path" envconfig:"SUMMARY_PATH"`
}

// Load builds the configuration from defaults, then the config file, then
// environment variables. An explicit path must exist; otherwise the first
// file found in DefaultConfigFiles is used, if any.
func Load(path string) (*Config, error) {
	cfg := Default()

	configFile, err := findConfigFile(path)
	if err != nil {
		return nil, err
	}
	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config file", err).WithContext("file", configFile)
		}
	}

	// Fields without a matching variable keep their file or default value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.UnmarshalStrict(data, cfg)
}

// findConfigFile returns the path to the config file, or "" when none exists
func findConfigFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", apperrors.NewConfigError("config file not found", err).WithContext("file", explicit)
		}
		return explicit, nil
	}
	for _, location := range DefaultConfigFiles {
		if _, err := os.Stat(location); err == nil {
			return location, nil
		}
	}
	return "", nil
}

// validate normalises and checks the configuration
func (c *Config) validate() error {
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	// Always JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "stderr", "console", "file", "both":
	default:
		return fmt.Errorf("invalid log output %q", c.Logging.Output)
	}
	if (c.Logging.Output == "file" || c.Logging.Output == "both") && c.Logging.FilePath == "" {
		return fmt.Errorf("log output %q needs a file path", c.Logging.Output)
	}

	switch strings.ToLower(c.Calibration.PuppiFallback) {
	case PuppiFallbackAlways, PuppiFallbackMissing, PuppiFallbackNever:
		c.Calibration.PuppiFallback = strings.ToLower(c.Calibration.PuppiFallback)
	case "":
		c.Calibration.PuppiFallback = PuppiFallbackAlways
	default:
		return fmt.Errorf("invalid puppi fallback %q", c.Calibration.PuppiFallback)
	}

	if c.Calibration.Tree == "" {
		c.Calibration.Tree = DefaultTree
	}
	if c.Calibration.LoadConcurrency <= 0 {
		c.Calibration.LoadConcurrency = DefaultLoadConcurrency
	}
	if c.Metrics.Enabled && c.Metrics.TextfilePath == "" {
		return fmt.Errorf("metrics enabled without a textfile path")
	}
	return nil
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "stderr",
			FilePath: DefaultLogFile,
		},
		Calibration: CalibrationConfig{
			PuppiFallback:   PuppiFallbackAlways,
			Tree:            DefaultTree,
			LoadConcurrency: DefaultLoadConcurrency,
		},
	}
}
