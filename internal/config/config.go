package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"fmeagraph/internal"
	"fmeagraph/internal/errors"
)

// ColumnCount is the number of FMEA fields mapped from each sheet row
const ColumnCount = 8

// Config represents the complete application configuration
type Config struct {
	Log       LogConfig
	Ingestion IngestionConfig
	Database  DatabaseConfig
	Server    ServerConfig
}

// LogConfig holds logging settings
type LogConfig struct {
	Level internal.LogLevel
}

// IngestionConfig describes the sheet layout and missing-data policy
type IngestionConfig struct {
	// HeaderRows are skipped at the top of every sheet
	HeaderRows int
	// Columns are the 0-based sheet positions of error, effect, severity,
	// cause, occurrence, detection, detection rating and action
	Columns [ColumnCount]int
	// MissingRatingPolicy is "default" or "reject"
	MissingRatingPolicy string
	// MissingRating replaces an absent rating under the "default" policy
	MissingRating float64
}

// DatabaseConfig holds database connection settings. An empty URL disables
// persistence.
type DatabaseConfig struct {
	Driver string
	URL    string
}

// Enabled reports whether a repository should be opened
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	level, ok := internal.ParseLogLevel(getEnvOrDefault("LOG_LEVEL", "INFO"))
	if !ok {
		return nil, errors.ConfigInvalid(fmt.Sprintf("LOG_LEVEL %q is not one of ERROR, WARN, INFO, DEBUG, TRACE", os.Getenv("LOG_LEVEL")))
	}
	config.Log = LogConfig{Level: level}

	ingestionConfig, err := loadIngestionConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ingestion configuration")
	}
	config.Ingestion = *ingestionConfig

	config.Database = DatabaseConfig{
		Driver: getEnvOrDefault("DB_DRIVER", "postgres"),
		URL:    getEnvOrDefault("DATABASE_URL", ""),
	}
	config.Server = ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: internal.LogLevelInfo},
		Ingestion: DefaultIngestionConfig(),
		Database:  DatabaseConfig{Driver: "postgres"},
		Server:    ServerConfig{Port: "8080"},
	}
}

// DefaultIngestionConfig maps the eight FMEA fields to the first eight
// columns below a single header row, with absent ratings treated as 1.
func DefaultIngestionConfig() IngestionConfig {
	return IngestionConfig{
		HeaderRows:          1,
		Columns:             [ColumnCount]int{0, 1, 2, 3, 4, 5, 6, 7},
		MissingRatingPolicy: "default",
		MissingRating:       1,
	}
}

func loadIngestionConfig() (*IngestionConfig, error) {
	cfg := DefaultIngestionConfig()
	cfg.HeaderRows = getEnvIntOrDefault("FMEA_HEADER_ROWS", cfg.HeaderRows)
	cfg.MissingRatingPolicy = strings.ToLower(getEnvOrDefault("FMEA_MISSING_RATING_POLICY", cfg.MissingRatingPolicy))
	cfg.MissingRating = getEnvFloatOrDefault("FMEA_MISSING_RATING", cfg.MissingRating)

	if raw := os.Getenv("FMEA_COLUMNS"); raw != "" {
		columns, err := parseColumns(raw)
		if err != nil {
			return nil, err
		}
		cfg.Columns = columns
	}
	return &cfg, nil
}

func parseColumns(raw string) ([ColumnCount]int, error) {
	var columns [ColumnCount]int
	parts := strings.Split(raw, ",")
	if len(parts) != ColumnCount {
		return columns, errors.ConfigInvalid(fmt.Sprintf("FMEA_COLUMNS needs %d positions, got %d", ColumnCount, len(parts)))
	}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return columns, errors.ConfigInvalid(fmt.Sprintf("FMEA_COLUMNS position %q is not a column index", p))
		}
		columns[i] = n
	}
	return columns, nil
}

func validateConfig(config *Config) error {
	if config.Ingestion.HeaderRows < 0 {
		return errors.ConfigInvalid("FMEA_HEADER_ROWS cannot be negative")
	}
	switch config.Ingestion.MissingRatingPolicy {
	case "default", "reject":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("FMEA_MISSING_RATING_POLICY %q must be default or reject", config.Ingestion.MissingRatingPolicy))
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("DB_DRIVER %q must be postgres or sqlite", config.Database.Driver))
	}
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
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

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
