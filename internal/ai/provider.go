package ai

import "context"

// Provider is a single-turn chat completion backend. The service builds a
// prompt, expects JSON-shaped text back and never does multi-turn sessions.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Name() string
}

// CompletionRequest is one prompt with its generation bounds.
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	Model        string
	MaxTokens    int
}
