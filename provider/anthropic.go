package provider

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"sarahdemo/mcp"
	"sarahdemo/model"
)

// defaultAnthropicMaxTokens is used when no limit is configured; the
// Messages API requires one.
const defaultAnthropicMaxTokens = 1024

// AnthropicProvider implements model.Provider using Anthropic's official API.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     anthropic.Model
	baseURL   string
	maxTokens int64
}

// NewAnthropicProvider creates a new Anthropic provider instance.
//
// Parameters:
//   - baseURL: Anthropic API base URL (default: "https://api.anthropic.com")
//   - apiKey: Anthropic API key (required)
//   - model: model to use (default: "claude-sonnet-4-5-20250929")
//
// Returns an error if the API key is missing.
func NewAnthropicProvider(baseURL, apiKey, model string, opts ...option.RequestOption) (*AnthropicProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.anthropic.com"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Anthropic API key is required", ErrMissingAPIKey)
	}

	anthropicModel := anthropic.ModelClaudeSonnet4_5_20250929
	if model != "" {
		anthropicModel = anthropic.Model(model)
	}

	clientOpts := append([]option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	}, opts...)
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicProvider{
		client:    &client,
		model:     anthropicModel,
		baseURL:   baseURL,
		maxTokens: defaultAnthropicMaxTokens,
	}, nil
}

// Complete implements model.Provider.
func (p *AnthropicProvider) Complete(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, choice model.ToolChoice) (*model.Completion, error) {
	anthropicMessages, systemPrompt := ConvertToAnthropicMessages(messages)

	params := anthropic.MessageNewParams{
		Model:     p.model,
		Messages:  anthropicMessages,
		MaxTokens: p.maxTokens,
	}
	if len(systemPrompt) > 0 {
		params.System = systemPrompt
	}
	if len(tools) > 0 {
		// tool_use blocks in the history must match a declared tool
		params.Tools = mcp.ConvertMCPToolsToAnthropicFormat(tools)
		if choice == model.ToolChoiceNone {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("Anthropic completion failed: %w", err)
	}

	return ConvertFromAnthropicContent(msg.Content), nil
}

// GetModel implements model.Provider.
func (p *AnthropicProvider) GetModel() string {
	return string(p.model)
}

// Ping implements model.Provider by attempting a minimal request.
func (p *AnthropicProvider) Ping(ctx context.Context) error {
	// no health endpoint, so spend a single token
	_, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: 1,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("ping")),
		},
	})
	if err != nil {
		return fmt.Errorf("Anthropic ping failed: %w", err)
	}
	return nil
}
