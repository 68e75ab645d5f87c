package llm

import "context"

// Client defines the interface for LLM providers.
type Client interface {
	// Generate sends the prompt parts as a single user turn and returns the
	// model's text response.
	Generate(ctx context.Context, parts []string) (string, error)
}
