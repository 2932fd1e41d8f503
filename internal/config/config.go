package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/SteelMorgan/logtail/internal/observability"
	"gopkg.in/yaml.v3"
)

const (
	// MinChunkSize and MaxChunkSize bound the read buffer
	MinChunkSize = 512
	MaxChunkSize = 16 << 20
)

// Config holds all configuration for the application.
// The tracked file itself is only ever given on the command line.
type Config struct {
	// Observability
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// StateDB is an optional BoltDB journal mirroring committed offsets
	StateDB string `yaml:"state_db"`
	// Lock serializes runs on the same file with an advisory lock
	Lock bool `yaml:"lock"`
	// ChunkSize is the read buffer size in bytes
	ChunkSize int `yaml:"chunk_size"`

	Tracing TracingConfig `yaml:"tracing"`
}

// TracingConfig holds OpenTelemetry settings
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
	Protocol string `yaml:"protocol"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		LogLevel:  "warn",
		ChunkSize: 4096 * 2,
		Tracing: TracingConfig{
			Protocol: "grpc",
		},
	}
}

// Load loads configuration from the optional YAML file named by
// LOGTAIL_CONFIG, then applies environment variable overrides
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("LOGTAIL_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.LogLevel = getEnv("LOGTAIL_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getEnv("LOGTAIL_LOG_FILE", cfg.LogFile)
	cfg.StateDB = getEnv("LOGTAIL_STATE_DB", cfg.StateDB)
	cfg.Lock = getEnvBool("LOGTAIL_LOCK", cfg.Lock)
	cfg.ChunkSize = getEnvInt("LOGTAIL_CHUNK_SIZE", cfg.ChunkSize)
	cfg.Tracing.Enabled = getEnvBool("LOGTAIL_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Endpoint = getEnv("LOGTAIL_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.Protocol = getEnv("LOGTAIL_TRACING_PROTOCOL", cfg.Tracing.Protocol)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the values found in a YAML file
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if !observability.ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("LOGTAIL_LOG_LEVEL %q is not a known level", c.LogLevel)
	}
	if c.ChunkSize < MinChunkSize || c.ChunkSize > MaxChunkSize {
		return fmt.Errorf("LOGTAIL_CHUNK_SIZE must be between %d and %d", MinChunkSize, MaxChunkSize)
	}
	if c.Tracing.Enabled {
		switch c.Tracing.Protocol {
		case "grpc", "http":
		default:
			return fmt.Errorf("LOGTAIL_TRACING_PROTOCOL must be 'grpc' or 'http', got %q", c.Tracing.Protocol)
		}
	}

	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
