// File: internal/services/ai/config.go
package ai

import (
	"fmt"
	"strings"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultModel = "gemini-2.5-flash"
)

type Config struct {
	Provider string

	GeminiAPIKey string

	OpenAIAPIKey  string
	OpenAIBaseURL string
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider) {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown AI provider %q", c.Provider)
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{Provider: ProviderGemini}
}
