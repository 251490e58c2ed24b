// Package config provides taskmind's unified configuration: a YAML file with
// defaults and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all taskmind configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// HTTP server
	Server ServerConfig `yaml:"server"`

	// SQLite storage
	Database DatabaseConfig `yaml:"database"`

	// Inference service
	LLM LLMConfig `yaml:"llm"`

	// Chat pipeline behavior
	Chat ChatConfig `yaml:"chat"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig configures the SQLite store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LLMConfig configures the inference service client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // openai, anthropic
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// ChatConfig configures the response composer.
type ChatConfig struct {
	// StrictEditMatch promotes ambiguous edit matches to the same
	// candidate-list behavior used for deletions. Off by default: the
	// historical behavior edits the first match silently.
	StrictEditMatch bool `yaml:"strict_edit_match"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "taskmind",
		Version: "1.0.0",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "taskmind.db",
		},
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  "120s",
		},
		Chat: ChatConfig{
			StrictEditMatch: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads the config file at path, applies defaults for missing fields,
// then applies environment overrides. A missing file is not an error: the
// defaults plus environment are returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides lets the environment win over the file.
// API key priority when the file carries none: OPENAI > ANTHROPIC.
func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("TASKMIND_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("TASKMIND_DB"); path != "" {
		c.Database.Path = path
	}
	if provider := os.Getenv("TASKMIND_LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := os.Getenv("TASKMIND_LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if c.LLM.APIKey == "" {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.LLM.Provider == "openai" {
			c.LLM.APIKey = key
		}
		if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && c.LLM.Provider == "anthropic" {
			c.LLM.APIKey = key
		}
	}
	if level := os.Getenv("TASKMIND_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}
