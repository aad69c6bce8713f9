package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// ToolChoice controls whether the model may call the tools sent with a
// request.
type ToolChoice int

const (
	// ToolChoiceAuto lets the model decide whether to call a tool.
	ToolChoiceAuto ToolChoice = iota
	// ToolChoiceNone still declares the tools but forbids new calls. Use it
	// for follow-ups whose history already holds tool calls and results:
	// some backends reject tool blocks that reference undeclared tools.
	ToolChoiceNone
)

func (c ToolChoice) String() string {
	if c == ToolChoiceNone {
		return "none"
	}
	return "auto"
}

// Provider abstracts completion backends (OpenAI, Anthropic, Ollama) using
// the provider-agnostic types of this package.
//
// The interface lives in model (not provider) so that the dispatcher and the
// provider implementations can both depend on it without an import cycle.
type Provider interface {
	// Complete sends the conversation with the declared tools and returns the
	// model's reply. With ToolChoiceNone the reply carries no tool calls.
	Complete(ctx context.Context, messages []Message, tools []mcptypes.Tool, choice ToolChoice) (*Completion, error)

	// GetModel returns the model name used for API calls.
	GetModel() string

	// Ping checks if the backend is reachable with the configured credentials.
	Ping(ctx context.Context) error
}
