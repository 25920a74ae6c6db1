// File: internal/services/ai/gemini_provider.go
package ai

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, NewConfigError("gemini API key is empty")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, &AIError{Type: ErrTypeConfig, Operation: "init", Message: "gemini client init failed", Cause: err}
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) GenerateContent(ctx context.Context, model, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", &AIError{Type: ErrTypeValidation, Operation: "generate", Model: model, Message: "empty prompt"}
	}

	resp, err := p.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", NewProviderError("generate", model, "gemini generate content failed", err)
	}

	text := resp.Text()
	if text == "" {
		return "", &AIError{Type: ErrTypeModel, Operation: "generate", Model: model, Message: "empty response text", Cause: ErrEmptyResponse}
	}
	return text, nil
}
