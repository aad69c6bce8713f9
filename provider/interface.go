// Package provider implements the completion backends behind model.Provider.
//
// The demo was built against OpenAI chat completions; Anthropic and a local
// Ollama server are available behind the same interface so the persona flow
// can be exercised with any of them. Every backend is non-streaming: the
// dispatcher needs the complete tool-call list before it can act.
//
// # Architecture
//
//   - model.Provider defines the contract (interface)
//   - OpenAIProvider, AnthropicProvider, OllamaProvider implement it
//   - NewProvider() creates a backend from Config
//   - Initialize() is the single start-up entry point used by the server
//
// # Usage
//
//	p, err := provider.Initialize(ctx, cfg, logger)
//	if err != nil {
//	    // handle error
//	}
//	completion, err := p.Complete(ctx, messages, tools, model.ToolChoiceAuto)
package provider

import "errors"

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
	ProviderTypeOllama    ProviderType = "ollama"
)

// Config holds provider-specific configuration.
type Config struct {
	Type      ProviderType
	BaseURL   string
	Model     string
	APIKey    string // unused for Ollama
	MaxTokens int64
}

var (
	ErrMissingAPIKey   = errors.New("missing API key")
	ErrUnknownProvider = errors.New("unknown provider type")
	ErrNoChoices       = errors.New("completion returned no choices")
)
