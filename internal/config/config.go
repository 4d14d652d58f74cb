// Package config provides configuration loading and validation for the API server.
// It uses koanf to merge environment variables with optional file overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds all configuration values for the API server.
type Config struct {
	// Server settings
	Port int    `koanf:"port"`
	Env  string `koanf:"env"`

	// Database. Empty means the in-memory store is used.
	DatabaseURL string `koanf:"database_url"`

	// Redis, used as a read-through cache for viewer locations.
	// Empty disables the cache.
	RedisURL string `koanf:"redis_url"`

	// LocationCacheTTLSeconds bounds viewer location staleness in Redis.
	LocationCacheTTLSeconds int `koanf:"location_cache_ttl_seconds"`

	// CalibrationPath points at an optional ranking weight override file.
	CalibrationPath string `koanf:"calibration_path"`

	// Tracing
	TracingEnabled      bool    `koanf:"tracing_enabled"`
	TracingExporter     string  `koanf:"tracing_exporter"`
	TracingEndpoint     string  `koanf:"tracing_endpoint"`
	TracingSamplingRate float64 `koanf:"tracing_sampling_rate"`
	TracingInsecure     bool    `koanf:"tracing_insecure"`
}

// Configuration validation errors.
var (
	ErrInvalidPort         = errors.New("PORT must be a valid integer")
	ErrPortOutOfRange      = errors.New("PORT must be between 1 and 65535")
	ErrInvalidSamplingRate = errors.New("TRACING_SAMPLING_RATE must be between 0 and 1")
	ErrInvalidCacheTTL     = errors.New("LOCATION_CACHE_TTL_SECONDS must be positive")
)

// Default values for non-secret configuration.
const (
	DefaultPort                    = 8080
	DefaultEnv                     = "development"
	DefaultLocationCacheTTLSeconds = 120
	DefaultTracingExporter         = "otlp-http"
	DefaultTracingSamplingRate     = 0.1
)

// Load reads configuration from environment variables and an optional config file.
// Environment variables take precedence over file values.
// Returns the loaded config and a slice of validation errors (empty if valid).
func Load(configFilePath string) (*Config, []error) {
	k := koanf.New(".")
	var loadErrs []error

	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", configFilePath, err)}
		}
	}

	port, portErr := getEnvIntOrDefault("PORT", k.Int("port"), DefaultPort)
	if portErr != nil {
		loadErrs = append(loadErrs, portErr)
	}

	cacheTTL, ttlErr := getEnvIntOrDefault("LOCATION_CACHE_TTL_SECONDS", k.Int("location_cache_ttl_seconds"), DefaultLocationCacheTTLSeconds)
	if ttlErr != nil {
		loadErrs = append(loadErrs, ttlErr)
	}

	samplingRate, rateErr := getEnvFloatOrDefault("TRACING_SAMPLING_RATE", k.Float64("tracing_sampling_rate"), DefaultTracingSamplingRate)
	if rateErr != nil {
		loadErrs = append(loadErrs, rateErr)
	}

	cfg := &Config{
		Port:                    port,
		Env:                     getEnvOrDefault("ENV", k.String("env"), DefaultEnv),
		DatabaseURL:             getEnvOrKoanf("DATABASE_URL", k, "database_url"),
		RedisURL:                getEnvOrKoanf("REDIS_URL", k, "redis_url"),
		LocationCacheTTLSeconds: cacheTTL,
		CalibrationPath:         getEnvOrKoanf("CALIBRATION_PATH", k, "calibration_path"),
		TracingEnabled:          getEnvBool("TRACING_ENABLED", k, "tracing_enabled"),
		TracingExporter:         getEnvOrDefault("TRACING_EXPORTER", k.String("tracing_exporter"), DefaultTracingExporter),
		TracingEndpoint:         getEnvOrKoanf("TRACING_ENDPOINT", k, "tracing_endpoint"),
		TracingSamplingRate:     samplingRate,
		TracingInsecure:         getEnvBool("TRACING_INSECURE", k, "tracing_insecure"),
	}

	errs := cfg.Validate()
	errs = append(loadErrs, errs...)

	return cfg, errs
}

// getEnvOrKoanf returns the environment variable value if set, otherwise the koanf value.
func getEnvOrKoanf(envKey string, k *koanf.Koanf, koanfKey string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	return k.String(koanfKey)
}

// getEnvOrDefault returns the environment variable value if set, otherwise the koanf value, or default.
func getEnvOrDefault(envKey string, koanfVal string, defaultVal string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return defaultVal
}

// getEnvBool resolves a boolean flag, env var over file value.
func getEnvBool(envKey string, k *koanf.Koanf, koanfKey string) bool {
	result := false
	if k.Exists(koanfKey) {
		result = k.Bool(koanfKey)
	}
	if val := os.Getenv(envKey); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			result = true
		case "false", "0", "no", "off":
			result = false
		}
	}
	return result
}

// getEnvIntOrDefault returns the environment variable as int if set, otherwise the koanf value, or default.
// Returns an error if the environment variable is set but cannot be parsed as an integer.
func getEnvIntOrDefault(envKey string, koanfVal int, defaultVal int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid integer: %w", envKey, ErrInvalidPort)
		}
		return i, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// getEnvFloatOrDefault returns the environment variable as float64 if set, otherwise the koanf value, or default.
func getEnvFloatOrDefault(envKey string, koanfVal float64, defaultVal float64) (float64, error) {
	if val := os.Getenv(envKey); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("%s must be a valid float: %w", envKey, err)
		}
		return f, nil
	}
	if koanfVal != 0 {
		return koanfVal, nil
	}
	return defaultVal, nil
}

// Validate checks configuration values for consistency.
// Returns a slice of validation errors (empty if valid).
func (c *Config) Validate() []error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, ErrPortOutOfRange)
	}
	if c.LocationCacheTTLSeconds < 1 {
		errs = append(errs, ErrInvalidCacheTTL)
	}
	if c.TracingSamplingRate < 0 || c.TracingSamplingRate > 1 {
		errs = append(errs, ErrInvalidSamplingRate)
	}

	return errs
}

// LogSummary returns a summary of the configuration suitable for logging.
// Connection credentials are masked to prevent accidental exposure.
func (c *Config) LogSummary() map[string]string {
	return map[string]string{
		"port":                       fmt.Sprintf("%d", c.Port),
		"env":                        c.Env,
		"database_url":               maskURL(c.DatabaseURL),
		"redis_url":                  maskURL(c.RedisURL),
		"location_cache_ttl_seconds": fmt.Sprintf("%d", c.LocationCacheTTLSeconds),
		"calibration_path":           c.CalibrationPath,
		"tracing_enabled":            fmt.Sprintf("%t", c.TracingEnabled),
		"tracing_exporter":           c.TracingExporter,
		"tracing_endpoint":           c.TracingEndpoint,
		"tracing_sampling_rate":      fmt.Sprintf("%g", c.TracingSamplingRate),
	}
}

// maskURL masks the password component of a connection URL.
// Supports postgres://, postgresql://, and redis:// schemes.
func maskURL(s string) string {
	if s == "" {
		return "<not set>"
	}

	schemeEnd := strings.Index(s, "://")
	if schemeEnd == -1 {
		return "****"
	}

	rest := s[schemeEnd+3:]
	atIndex := strings.Index(rest, "@")
	if atIndex == -1 {
		return s // No credentials in URL
	}

	colonIndex := strings.Index(rest[:atIndex], ":")
	if colonIndex == -1 {
		return s // No password (only username)
	}

	scheme := s[:schemeEnd+3]
	user := rest[:colonIndex]
	hostAndPath := rest[atIndex:]

	return scheme + user + ":****" + hostAndPath
}
