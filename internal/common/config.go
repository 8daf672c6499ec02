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
	Environment string        `toml:"environment"` // "development" or "production"
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging"`
	Engine      EngineConfig  `toml:"engine"`
	Jobs        JobsConfig    `toml:"jobs"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
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

// EngineConfig contains browser automation engine configuration
type EngineConfig struct {
	AllowInteractive bool          `toml:"allow_interactive"` // Enable the interactive-login engine (needs a display)
	UserAgent        string        `toml:"user_agent"`        // Browser user agent string
	ProfileDir       string        `toml:"profile_dir"`       // Base directory for isolated browser profiles (default: os temp)
	LoginTimeout     time.Duration `toml:"login_timeout"`     // Max wait for manual login completion
	ElementTimeout   time.Duration `toml:"element_timeout"`   // Per-element wait ceiling
	AttemptTimeout   time.Duration `toml:"attempt_timeout"`   // Whole posting attempt ceiling
	TypingDelay      time.Duration `toml:"typing_delay"`      // Delay between simulated keystrokes
	WindowWidth      int           `toml:"window_width"`
	WindowHeight     int           `toml:"window_height"`
}

// JobsConfig contains job registry housekeeping configuration
type JobsConfig struct {
	Retention     time.Duration `toml:"retention"`      // Keep terminal jobs this long before pruning
	PruneSchedule string        `toml:"prune_schedule"` // Cron schedule for the retention sweep
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in scribe.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Engine: EngineConfig{
			AllowInteractive: true,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ProfileDir:       "", // empty = os.TempDir()
			LoginTimeout:     5 * time.Minute,
			ElementTimeout:   15 * time.Second,
			AttemptTimeout:   10 * time.Minute,
			TypingDelay:      50 * time.Millisecond,
			WindowWidth:      1920,
			WindowHeight:     1080,
		},
		Jobs: JobsConfig{
			Retention:     24 * time.Hour,
			PruneSchedule: "0 * * * *", // hourly
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("SCRIBE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SCRIBE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SCRIBE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SCRIBE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("SCRIBE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("SCRIBE_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Engine configuration
	if allowInteractive := os.Getenv("SCRIBE_ENGINE_ALLOW_INTERACTIVE"); allowInteractive != "" {
		if ai, err := strconv.ParseBool(allowInteractive); err == nil {
			config.Engine.AllowInteractive = ai
		}
	}
	if userAgent := os.Getenv("SCRIBE_ENGINE_USER_AGENT"); userAgent != "" {
		config.Engine.UserAgent = userAgent
	}
	if profileDir := os.Getenv("SCRIBE_ENGINE_PROFILE_DIR"); profileDir != "" {
		config.Engine.ProfileDir = profileDir
	}
	if loginTimeout := os.Getenv("SCRIBE_ENGINE_LOGIN_TIMEOUT"); loginTimeout != "" {
		if lt, err := time.ParseDuration(loginTimeout); err == nil {
			config.Engine.LoginTimeout = lt
		}
	}
	if elementTimeout := os.Getenv("SCRIBE_ENGINE_ELEMENT_TIMEOUT"); elementTimeout != "" {
		if et, err := time.ParseDuration(elementTimeout); err == nil {
			config.Engine.ElementTimeout = et
		}
	}
	if attemptTimeout := os.Getenv("SCRIBE_ENGINE_ATTEMPT_TIMEOUT"); attemptTimeout != "" {
		if at, err := time.ParseDuration(attemptTimeout); err == nil {
			config.Engine.AttemptTimeout = at
		}
	}

	// Jobs configuration
	if retention := os.Getenv("SCRIBE_JOBS_RETENTION"); retention != "" {
		if r, err := time.ParseDuration(retention); err == nil {
			config.Jobs.Retention = r
		}
	}
	if schedule := os.Getenv("SCRIBE_JOBS_PRUNE_SCHEDULE"); schedule != "" {
		config.Jobs.PruneSchedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := trimSpace(c.Environment)
	return env == "production" || env == "prod"
}
