package domain

import "context"

// CompletionOptions bounds a single LLM completion request.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	// SystemRole overrides the provider's default system instruction.
	SystemRole string
	// JSON requests a JSON object response where the provider supports it.
	JSON bool
}

// Completion carries the completion text and token usage through the decorator chain.
type Completion struct {
	Text         string
	PromptTokens int
	TotalTokens  int
}

// Completer is the shared LLM completion contract between layers.
type Completer interface {
	Complete(ctx context.Context, prompt string, opts CompletionOptions) (Completion, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
