// Package config loads datasmith settings from the environment.
//
// An optional .env file is read first; real environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	DefaultModel      = "gemini-1.5-flash"
	DefaultAddr       = ":8501"
	DefaultOutputPath = "csv_output.csv"
	DefaultMaxUpload  = 32 << 20
)

// Config holds runtime configuration
type Config struct {
	// APIKey for the Gemini endpoint. Empty disables conversion.
	APIKey string
	Model  string

	// Web server
	Addr           string
	MaxUploadBytes int64

	// OutputPath is where the convert command writes its CSV.
	OutputPath string

	// Seed for synthetic sampling; 0 picks a random seed per run.
	Seed uint64

	LogLevel string
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:         firstEnv("GEMINI_API_KEY", "GOOGLE_API_KEY"),
		Model:          getEnvOrDefault("DATASMITH_MODEL", DefaultModel),
		Addr:           getEnvOrDefault("DATASMITH_ADDR", DefaultAddr),
		MaxUploadBytes: getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", DefaultMaxUpload),
		OutputPath:     getEnvOrDefault("DATASMITH_OUTPUT", DefaultOutputPath),
		LogLevel:       getEnvOrDefault("DATASMITH_LOG_LEVEL", "info"),
	}

	seed, err := getEnvAsUint64("DATASMITH_SEED")
	if err != nil {
		return nil, err
	}
	cfg.Seed = seed

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("DATASMITH_MODEL must not be empty")
	}
	if c.Addr == "" {
		return fmt.Errorf("DATASMITH_ADDR must not be empty")
	}
	if c.MaxUploadBytes < 1024 || c.MaxUploadBytes > 1<<30 { // 1KB to 1GB
		return fmt.Errorf("MAX_UPLOAD_BYTES must be between 1KB and 1GB, got %d", c.MaxUploadBytes)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("DATASMITH_OUTPUT must not be empty")
	}
	return nil
}

// HasAPIKey reports whether AI conversion can run.
func (c *Config) HasAPIKey() bool { return c.APIKey != "" }

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsUint64(key string) (uint64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an unsigned integer: %w", key, err)
	}
	return value, nil
}
