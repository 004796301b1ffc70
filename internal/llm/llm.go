package llm

import "context"

// Client is a minimal LLM interface to allow pluggable providers.
type Client interface {
	// Complete sends one system and one user message and returns the text of
	// the first choice.
	Complete(ctx context.Context, system, prompt string) (string, error)
	// Model names the model completions are requested from.
	Model() string
}
