package llm

import (
	"fmt"
	"time"

	"taskmind/internal/config"
)

// Provider identifies a supported inference backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// NewClient builds a Client from the resolved LLM configuration.
func NewClient(cfg config.LLMConfig) (Client, error) {
	timeout := 120 * time.Second
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid llm timeout %q: %w", cfg.Timeout, err)
		}
		timeout = d
	}

	switch Provider(cfg.Provider) {
	case ProviderOpenAI, "":
		c := DefaultOpenAIConfig(cfg.APIKey)
		c.Timeout = timeout
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		return NewOpenAIClientWithConfig(c), nil
	case ProviderAnthropic:
		c := DefaultAnthropicConfig(cfg.APIKey)
		c.Timeout = timeout
		if cfg.Model != "" {
			c.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			c.BaseURL = cfg.BaseURL
		}
		return NewAnthropicClientWithConfig(c), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
