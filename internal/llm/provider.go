package llm

import (
	"context"
)

type ProviderName string

const (
	Ollama    ProviderName = "ollama"
	OpenAI    ProviderName = "openai"
	Anthropic ProviderName = "anthropic"
	Google    ProviderName = "google"
)

// Request is the neutral completion request every adapter translates
// to its provider's wire format. Plan generation only ever needs a
// system prompt, a user prompt, and output bounds.
type Request struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Usage is the token accounting the provider reports back.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response carries the raw reply text. Parsing and validation happen
// downstream; adapters never interpret model output.
type Response struct {
	Text  string
	Model string
	Usage Usage
}

type Provider interface {
	Name() string
	Type() string // e.g., "openai", "anthropic"
	Complete(ctx context.Context, req *Request) (*Response, error)
	Health(ctx context.Context) error
}
