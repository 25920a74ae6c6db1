package ai

import "context"

// Generator turns a single prompt into a single text reply. Implementations
// make exactly one attempt and leave timeouts to ctx and the SDK.
type Generator interface {
	GenerateContent(ctx context.Context, model, prompt string) (string, error)
}
