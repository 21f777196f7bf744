package ai

import (
	"fmt"

	"github.com/supportdesk-io/supportdesk-ce/internal/config"
)

// NewProvider builds the configured completion backend.
func NewProvider(cfg config.AIConfig) (Provider, error) {
	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicProvider(cfg.APIKey, cfg.Model), nil
	case "openai":
		return NewOpenAIProvider(cfg.APIKey, cfg.Model), nil
	}
	return nil, fmt.Errorf("unsupported AI provider: %s", cfg.Provider)
}
