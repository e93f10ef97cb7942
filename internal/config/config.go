// Package config provides configuration management for Persona.
// Settings come from an optional YAML config file overridden by
// environment variables with the PERSONA_ prefix; every option has a
// sensible default.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the Persona application.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	LLM      LLMConfig      `yaml:"llm"`
	Security SecurityConfig `yaml:"security"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"` // default: 7171
	Host string `yaml:"host"` // default: 127.0.0.1
}

// StorageConfig contains persistence configuration.
type StorageConfig struct {
	// Engine selects the record store backend: sqlite, postgres, memory.
	Engine string `yaml:"engine"`

	// DataPath is the directory holding the SQLite database and the
	// cross-process event files (default: ./data).
	DataPath string `yaml:"data_path"`

	// PostgresDSN is the lib/pq connection string for the postgres engine.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// LLMConfig contains the outbound chat-completion API configuration.
type LLMConfig struct {
	BaseURL      string `yaml:"base_url"`      // default: https://api.openai.com
	APIKey       string `yaml:"api_key"`       // no default; required for chat
	Model        string `yaml:"model"`         // default: gpt-4o-mini
	Timeout      string `yaml:"timeout"`       // duration string, default: 60s
	SystemPrompt string `yaml:"system_prompt"` // template with a {context} placeholder
}

// TimeoutDuration parses the configured timeout, falling back to 60s.
func (c LLMConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// SecurityConfig contains security and authentication settings.
type SecurityConfig struct {
	// Mode is development or production; production requires APIToken.
	Mode     string `yaml:"mode"`
	APIToken string `yaml:"api_token"`
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (if non-empty and present), then PERSONA_* environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 7171,
			Host: "127.0.0.1",
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
			Timeout: "60s",
		},
		Security: SecurityConfig{
			Mode: "development",
		},
	}
}

func applyEnv(cfg *Config) {
	cfg.Server.Port = getEnvInt("PERSONA_PORT", cfg.Server.Port)
	cfg.Server.Host = getEnv("PERSONA_HOST", cfg.Server.Host)
	cfg.Storage.Engine = getEnv("PERSONA_STORAGE_ENGINE", cfg.Storage.Engine)
	cfg.Storage.DataPath = getEnv("PERSONA_DATA_PATH", cfg.Storage.DataPath)
	cfg.Storage.PostgresDSN = getEnv("PERSONA_POSTGRES_DSN", cfg.Storage.PostgresDSN)
	cfg.LLM.BaseURL = getEnv("PERSONA_LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = getEnv("PERSONA_LLM_API_KEY", cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("PERSONA_LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.SystemPrompt = getEnv("PERSONA_SYSTEM_PROMPT", cfg.LLM.SystemPrompt)
	cfg.LLM.Timeout = getEnv("PERSONA_LLM_TIMEOUT", cfg.LLM.Timeout)
	cfg.Security.Mode = getEnv("PERSONA_SECURITY_MODE", cfg.Security.Mode)
	cfg.Security.APIToken = getEnv("PERSONA_API_TOKEN", cfg.Security.APIToken)
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
