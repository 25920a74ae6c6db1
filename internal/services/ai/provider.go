package ai

import (
	"context"
	"strings"
)

// NewGenerator builds the provider named in cfg.
func NewGenerator(ctx context.Context, cfg *Config) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	default:
		return NewGeminiProvider(ctx, cfg.GeminiAPIKey)
	}
}
