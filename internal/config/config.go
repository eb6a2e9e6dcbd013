// Package config handles configuration management with validation
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the complete configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Matcher    MatcherConfig    `yaml:"matcher"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Repository RepositoryConfig `yaml:"repository"`
	System     SystemConfig     `yaml:"system"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
}

// ServerConfig contains the HTTP API server settings
type ServerConfig struct {
	Addr                   string `yaml:"addr"`
	ReadTimeoutSeconds     int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int    `yaml:"write_timeout_seconds"`
	ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
}

// MatcherConfig contains the matcher fleet settings
type MatcherConfig struct {
	Assets         []string `yaml:"assets"`
	TickIntervalMs int      `yaml:"tick_interval_ms"`
}

// OracleConfig contains the oracle websocket client settings
type OracleConfig struct {
	Endpoint              string `yaml:"endpoint"`
	Pair                  string `yaml:"pair"` // optional server-side pair filter
	InitialBackoffSeconds int    `yaml:"initial_backoff_seconds"`
	MaxBackoffSeconds     int    `yaml:"max_backoff_seconds"`
}

// RepositoryConfig selects the order store backing
type RepositoryConfig struct {
	Backing    string `yaml:"backing"` // memory or sqlite
	SQLitePath string `yaml:"sqlite_path"`
}

// SystemConfig contains system settings
type SystemConfig struct {
	LogLevel string `yaml:"log_level" validate:"required,oneof=DEBUG INFO WARN ERROR FATAL"`
}

// TelemetryConfig contains telemetry settings
type TelemetryConfig struct {
	EnableMetrics bool `yaml:"enable_metrics"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (value: %v): %s", e.Field, e.Value, e.Message)
}

// LoadConfig loads configuration from a YAML file with environment variable
// expansion. An empty filename starts from DefaultConfig. Environment
// overrides (SERVER_ADDR, ORACLE_WS, PAIRS, TICK_MS) are applied after the
// file is read, so they win in both paths.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		// Expand environment variables in the YAML content
		expandedData := expandEnvVars(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.applyEnvOverrides()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies the flat environment overrides the daemon
// honors regardless of config file
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ORACLE_WS"); v != "" {
		c.Oracle.Endpoint = v
	}
	if v := os.Getenv("PAIRS"); v != "" {
		var assets []string
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				assets = append(assets, p)
			}
		}
		if len(assets) > 0 {
			c.Matcher.Assets = assets
		}
	}
	if v := os.Getenv("TICK_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			c.Matcher.TickIntervalMs = ms
		}
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	var errors []string

	// Validate server config
	if err := c.validateServerConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate matcher config
	if err := c.validateMatcherConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate oracle config
	if err := c.validateOracleConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate repository config
	if err := c.validateRepositoryConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate system config
	if err := c.validateSystemConfig(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}

func (c *Config) validateServerConfig() error {
	if c.Server.Addr == "" {
		return ValidationError{
			Field:   "server.addr",
			Message: "listen address is required",
		}
	}
	if c.Server.ReadTimeoutSeconds < 0 || c.Server.WriteTimeoutSeconds < 0 || c.Server.ShutdownTimeoutSeconds < 0 {
		return ValidationError{
			Field:   "server",
			Message: "timeouts must not be negative",
		}
	}
	return nil
}

func (c *Config) validateMatcherConfig() error {
	if len(c.Matcher.Assets) == 0 {
		return ValidationError{
			Field:   "matcher.assets",
			Message: "at least one asset must be configured",
		}
	}

	for _, asset := range c.Matcher.Assets {
		base, quote, ok := strings.Cut(asset, "/")
		if !ok || base == "" || quote == "" {
			return ValidationError{
				Field:   "matcher.assets",
				Value:   asset,
				Message: "asset must be of the form BASE/QUOTE",
			}
		}
	}

	if c.Matcher.TickIntervalMs < 1 {
		return ValidationError{
			Field:   "matcher.tick_interval_ms",
			Value:   c.Matcher.TickIntervalMs,
			Message: "tick interval must be at least 1ms",
		}
	}

	return nil
}

func (c *Config) validateOracleConfig() error {
	if c.Oracle.Endpoint == "" {
		return ValidationError{
			Field:   "oracle.endpoint",
			Message: "oracle endpoint is required",
		}
	}
	if !strings.HasPrefix(c.Oracle.Endpoint, "ws://") && !strings.HasPrefix(c.Oracle.Endpoint, "wss://") {
		return ValidationError{
			Field:   "oracle.endpoint",
			Value:   c.Oracle.Endpoint,
			Message: "endpoint must use the ws:// or wss:// scheme",
		}
	}
	if c.Oracle.InitialBackoffSeconds < 1 {
		return ValidationError{
			Field:   "oracle.initial_backoff_seconds",
			Value:   c.Oracle.InitialBackoffSeconds,
			Message: "initial backoff must be at least 1 second",
		}
	}
	if c.Oracle.MaxBackoffSeconds < c.Oracle.InitialBackoffSeconds {
		return ValidationError{
			Field:   "oracle.max_backoff_seconds",
			Value:   c.Oracle.MaxBackoffSeconds,
			Message: "max backoff must not be below the initial backoff",
		}
	}
	return nil
}

func (c *Config) validateRepositoryConfig() error {
	validBackings := []string{"memory", "sqlite"}
	if !contains(validBackings, c.Repository.Backing) {
		return ValidationError{
			Field:   "repository.backing",
			Value:   c.Repository.Backing,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validBackings, ", ")),
		}
	}
	if c.Repository.Backing == "sqlite" && c.Repository.SQLitePath == "" {
		return ValidationError{
			Field:   "repository.sqlite_path",
			Message: "sqlite path is required for the sqlite backing",
		}
	}
	return nil
}

func (c *Config) validateSystemConfig() error {
	validLevels := []string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}
	if !contains(validLevels, strings.ToUpper(c.System.LogLevel)) {
		return ValidationError{
			Field:   "system.log_level",
			Value:   c.System.LogLevel,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")),
		}
	}
	return nil
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	data, _ := yaml.Marshal(c)
	return string(data)
}

// Helper functions

func expandEnvVars(s string) string {
	return os.Expand(s, os.Getenv)
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// DefaultConfig returns the built-in defaults; the daemon runs on these
// when no config file is given
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:                   "127.0.0.1:8080",
			ReadTimeoutSeconds:     5,
			WriteTimeoutSeconds:    10,
			ShutdownTimeoutSeconds: 5,
		},
		Matcher: MatcherConfig{
			Assets:         []string{"BTC/USDT", "ETH/USDT", "SOL/USDT"},
			TickIntervalMs: 1000,
		},
		Oracle: OracleConfig{
			Endpoint:              "ws://127.0.0.1:9001/ws",
			InitialBackoffSeconds: 2,
			MaxBackoffSeconds:     30,
		},
		Repository: RepositoryConfig{
			Backing: "memory",
		},
		System: SystemConfig{
			LogLevel: "INFO",
		},
		Telemetry: TelemetryConfig{
			EnableMetrics: true,
		},
	}
}
