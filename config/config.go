// Package config loads maestro configuration from YAML with environment
// variable overrides. Precedence: defaults, then file, then environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/maestro/types"
)

// Config is the full maestro configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Providers ProvidersConfig `yaml:"providers"`
	Redis     RedisConfig     `yaml:"redis"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Speech    SpeechConfig    `yaml:"speech"`
	Session   SessionConfig   `yaml:"session"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	Development bool   `yaml:"development"` // console encoder, caller info
}

// ProvidersConfig holds per-backend credentials.
type ProvidersConfig struct {
	Gemini    ProviderConfig `yaml:"gemini"`
	Anthropic ProviderConfig `yaml:"anthropic"`
}

// ProviderConfig is one backend's connection settings.
type ProviderConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig configures the optional shared key-value cache. When Addr is
// empty the in-memory cache is used instead.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ArchiveConfig configures completed-session persistence.
type ArchiveConfig struct {
	Path        string `yaml:"path"` // SQLite file; empty keeps the archive in memory
	MaxSessions int    `yaml:"max_sessions"`
}

// RetrievalConfig configures document chunking and retrieval.
type RetrievalConfig struct {
	ChunkSize     int    `yaml:"chunk_size"`
	ChunkOverlap  int    `yaml:"chunk_overlap"`
	TokenEncoding string `yaml:"token_encoding"` // tiktoken encoding; empty uses the length estimator
}

// SpeechConfig configures text-to-speech.
type SpeechConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// SessionConfig carries session defaults.
type SessionConfig struct {
	UserName       string             `yaml:"user_name"`
	Temperature    float32            `yaml:"temperature"`
	OutputFormat   types.OutputFormat `yaml:"output_format"`
	SandboxTurnCap int                `yaml:"sandbox_turn_cap"`
}

// MetricsConfig controls the prometheus collector. When Addr is set the
// process exposes /metrics there for the lifetime of the session.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Addr      string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		Providers: ProvidersConfig{
			Gemini:    ProviderConfig{Model: "gemini-2.0-flash", Timeout: 60 * time.Second},
			Anthropic: ProviderConfig{Model: "claude-sonnet-4-20250514", Timeout: 60 * time.Second},
		},
		Archive: ArchiveConfig{MaxSessions: 20},
		Retrieval: RetrievalConfig{
			ChunkSize:    512,
			ChunkOverlap: 102,
		},
		Speech: SpeechConfig{Model: "gemini-2.5-flash-preview-tts"},
		Session: SessionConfig{
			UserName:       "User",
			Temperature:    0.7,
			OutputFormat:   types.FormatMarkdown,
			SandboxTurnCap: 10,
		},
		Metrics: MetricsConfig{Namespace: "maestro"},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file step.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides selected fields from MAESTRO_* environment variables.
// Secrets are the main use case; structural settings belong in the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("MAESTRO_GEMINI_API_KEY"); v != "" {
		c.Providers.Gemini.APIKey = v
	}
	if v := os.Getenv("MAESTRO_ANTHROPIC_API_KEY"); v != "" {
		c.Providers.Anthropic.APIKey = v
	}
	if v := os.Getenv("MAESTRO_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("MAESTRO_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("MAESTRO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MAESTRO_ARCHIVE_PATH"); v != "" {
		c.Archive.Path = v
	}
	if v := os.Getenv("MAESTRO_ARCHIVE_MAX_SESSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Archive.MaxSessions = n
		}
	}
}

// Validate rejects values the rest of the system cannot work with.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return types.NewError(types.ErrConfiguration, "invalid log level: "+c.Log.Level)
	}
	if c.Archive.MaxSessions < 0 {
		return types.NewError(types.ErrConfiguration, "archive.max_sessions must not be negative")
	}
	if c.Session.Temperature < 0 || c.Session.Temperature > 1 {
		return types.NewError(types.ErrConfiguration, "session.temperature must be within [0,1]")
	}
	if c.Session.SandboxTurnCap < 0 {
		return types.NewError(types.ErrConfiguration, "session.sandbox_turn_cap must not be negative")
	}
	return nil
}
