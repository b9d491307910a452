package ai

import "context"

// Client sends a prompt to a text-generation backend using the caller's credential
// and returns the raw reply text.
type Client interface {
	Generate(ctx context.Context, prompt, credential string) (string, error)
}

var (
	_ Client = (*GeminiClient)(nil)
	_ Client = (*MockClient)(nil)
)
