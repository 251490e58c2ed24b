// Package llm provides clients for the external natural-language inference
// service. The pipeline only depends on the Client interface; concrete
// implementations speak the OpenAI and Anthropic chat-completion wire formats.
package llm

import (
	"context"
)

// Client defines the interface the pipeline uses for inference calls.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
