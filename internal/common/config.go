package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Bridge  BridgeConfig  `toml:"bridge"`
	Figma   FigmaConfig   `toml:"figma"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Host           string `toml:"host"`
	Port           int    `toml:"port"`
	MaxPortRetries int    `toml:"max_port_retries"` // Attempts on port+1, port+2, ... before failing startup
}

// BridgeConfig controls the command bridge: the in-memory queue the relay
// serves and the executor-facing timing knobs.
type BridgeConfig struct {
	LeaseDuration string          `toml:"lease_duration"` // e.g. "30s" - claim placed on a command when served to the executor
	PollInterval  string          `toml:"poll_interval"`  // e.g. "1s" - executor poll cadence, also baked into the /plugin bootstrap
	GraceDelay    string          `toml:"grace_delay"`    // e.g. "5s" - executor keeps reported command ids this long to absorb re-polls
	Retention     RetentionConfig `toml:"retention"`
}

// RetentionConfig bounds queue growth. Only terminal commands are ever
// evicted; pending commands stay until completed or cleared.
type RetentionConfig struct {
	MaxCommands   int    `toml:"max_commands"`   // Total stored commands before oldest terminal entries are evicted
	MaxAge        string `toml:"max_age"`        // e.g. "10m" - terminal commands older than this are evicted
	SweepSchedule string `toml:"sweep_schedule"` // Cron spec for the eviction sweep (e.g. "@every 1m")
}

// FigmaConfig contains the design-tool REST API client configuration
type FigmaConfig struct {
	Token          string  `toml:"token"`           // Personal access token sent as X-Figma-Token
	BaseURL        string  `toml:"base_url"`        // API base URL (default: https://api.figma.com/v1)
	RateLimit      float64 `toml:"rate_limit"`      // Requests per second against the REST API
	RequestTimeout string  `toml:"request_timeout"` // HTTP request timeout
	CacheTTL       string  `toml:"cache_ttl"`       // How long cached API responses stay fresh
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "localhost",
			Port:           3847,
			MaxPortRetries: 10,
		},
		Bridge: BridgeConfig{
			LeaseDuration: "30s",
			PollInterval:  "1s",
			GraceDelay:    "5s",
			Retention: RetentionConfig{
				MaxCommands:   500,
				MaxAge:        "10m",
				SweepSchedule: "@every 1m",
			},
		},
		Figma: FigmaConfig{
			BaseURL:        "https://api.figma.com/v1",
			RateLimit:      2,
			RequestTimeout: "30s",
			CacheTTL:       "5m",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/stencil",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
	}
}

// LoadFromFile loads configuration from a TOML file layered over defaults,
// then applies environment overrides. A missing file is not an error; the
// defaults are returned so the bridge runs with zero configuration.
func LoadFromFile(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				applyEnvOverrides(config)
				return config, nil
			}
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	return config, nil
}

// applyEnvOverrides applies environment variables over file values.
func applyEnvOverrides(config *Config) {
	if port := os.Getenv("STENCIL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("STENCIL_HOST"); host != "" {
		config.Server.Host = host
	}
	if token := os.Getenv("FIGMA_TOKEN"); token != "" {
		config.Figma.Token = token
	}
	if level := os.Getenv("STENCIL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag values (highest priority).
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// parseDurationOr parses a duration string, falling back when empty or invalid.
func parseDurationOr(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LeaseDurationValue returns the parsed lease duration.
func (c *BridgeConfig) LeaseDurationValue() time.Duration {
	return parseDurationOr(c.LeaseDuration, 30*time.Second)
}

// PollIntervalValue returns the parsed executor poll interval.
func (c *BridgeConfig) PollIntervalValue() time.Duration {
	return parseDurationOr(c.PollInterval, time.Second)
}

// GraceDelayValue returns the parsed in-flight eviction delay.
func (c *BridgeConfig) GraceDelayValue() time.Duration {
	return parseDurationOr(c.GraceDelay, 5*time.Second)
}

// MaxAgeValue returns the parsed retention age for terminal commands.
func (c *RetentionConfig) MaxAgeValue() time.Duration {
	return parseDurationOr(c.MaxAge, 10*time.Minute)
}

// RequestTimeoutValue returns the parsed API request timeout.
func (c *FigmaConfig) RequestTimeoutValue() time.Duration {
	return parseDurationOr(c.RequestTimeout, 30*time.Second)
}

// CacheTTLValue returns the parsed API cache freshness window.
func (c *FigmaConfig) CacheTTLValue() time.Duration {
	return parseDurationOr(c.CacheTTL, 5*time.Minute)
}
