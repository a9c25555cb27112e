package config

import (
	"os"
	"strconv"
	"strings"

	"killcurve/internal/analysis"
	"killcurve/internal/errors"

	"github.com/sirupsen/logrus"
)

// Config represents the complete application configuration
type Config struct {
	Analysis AnalysisConfig
	Database DatabaseConfig
	Server   ServerConfig
	Batch    BatchConfig
	LogLevel logrus.Level
}

// AnalysisConfig holds the acceptance limits applied to every run
type AnalysisConfig struct {
	MaxCV         float64
	MaxMeanHours  float64
	MinReplicates int
	PCMarker      string
}

// Criteria converts the configuration into analysis limits.
func (c AnalysisConfig) Criteria() analysis.Criteria {
	return analysis.Criteria{
		MaxCV:         c.MaxCV,
		MaxMeanHours:  c.MaxMeanHours,
		MinReplicates: c.MinReplicates,
		PCMarker:      c.PCMarker,
	}
}

// DatabaseConfig holds database connection settings. An empty URL selects the
// in-memory run archive.
type DatabaseConfig struct {
	URL string
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

// BatchConfig controls multi-file analysis
type BatchConfig struct {
	Workers int
}

// Load reads configuration from environment variables and validates it.
// Callers load .env files beforehand.
func Load() (*Config, error) {
	config := &Config{}

	analysisConfig, err := loadAnalysisConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load analysis configuration")
	}
	config.Analysis = *analysisConfig

	config.Database = DatabaseConfig{URL: getEnvOrDefault("DATABASE_URL", "")}
	config.Server = *loadServerConfig()
	config.Batch = BatchConfig{Workers: getEnvIntOrDefault("KILLCURVE_WORKERS", 4)}

	level, err := logrus.ParseLevel(getEnvOrDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load log level")
	}
	config.LogLevel = level

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadAnalysisConfig() (*AnalysisConfig, error) {
	defaults := analysis.DefaultCriteria()

	maxCV, err := getEnvFloat("KILLCURVE_MAX_CV", defaults.MaxCV)
	if err != nil {
		return nil, err
	}
	maxMean, err := getEnvFloat("KILLCURVE_MAX_MEAN_HOURS", defaults.MaxMeanHours)
	if err != nil {
		return nil, err
	}

	return &AnalysisConfig{
		MaxCV:         maxCV,
		MaxMeanHours:  maxMean,
		MinReplicates: getEnvIntOrDefault("KILLCURVE_MIN_REPLICATES", defaults.MinReplicates),
		PCMarker:      getEnvOrDefault("KILLCURVE_PC_MARKER", defaults.PCMarker),
	}, nil
}

func loadServerConfig() *ServerConfig {
	var origins []string
	for _, o := range strings.Split(getEnvOrDefault("KILLCURVE_CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return &ServerConfig{
		Port:        getEnvOrDefault("PORT", "8080"),
		CORSOrigins: origins,
	}
}

func validateConfig(config *Config) error {
	if config.Analysis.MaxCV <= 0 {
		return errors.ConfigInvalid("KILLCURVE_MAX_CV must be positive")
	}
	if config.Analysis.MaxMeanHours <= 0 {
		return errors.ConfigInvalid("KILLCURVE_MAX_MEAN_HOURS must be positive")
	}
	if config.Analysis.MinReplicates < 1 {
		return errors.ConfigInvalid("KILLCURVE_MIN_REPLICATES must be at least 1")
	}
	if config.Batch.Workers < 1 {
		return errors.ConfigInvalid("KILLCURVE_WORKERS must be at least 1")
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat rejects unparseable values instead of falling back to the default.
func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be a number, got " + strconv.Quote(value))
	}
	return floatValue, nil
}
