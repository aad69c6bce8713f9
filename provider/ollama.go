package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"sarahdemo/mcp"
	"sarahdemo/model"
	"sarahdemo/ollama"
)

// ErrToolsUnsupported is returned when tools are offered to a local model that
// cannot call them.
var ErrToolsUnsupported = errors.New("model does not support tool calling")

// OllamaProvider wraps ollama.Client to implement model.Provider.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates a new Ollama provider instance.
//
// Parameters:
//   - baseURL: the Ollama server URL (default: "http://localhost:11434")
//   - model: the model name (default: "llama3.1:latest")
func NewOllamaProvider(baseURL, model string, httpClient *http.Client) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, model, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{client: client}, nil
}

// Complete implements model.Provider.
//
// Ollama has no tool_choice switch and accepts tool history without
// declarations, so ToolChoiceNone leaves the tools out and discards any
// calls the model still makes.
func (p *OllamaProvider) Complete(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, choice model.ToolChoice) (*model.Completion, error) {
	var ollamaTools []api.Tool
	if len(tools) > 0 && choice != model.ToolChoiceNone {
		if !p.client.SupportsToolCalling() {
			return nil, fmt.Errorf("%w: %s", ErrToolsUnsupported, p.client.GetModel())
		}
		ollamaTools = mcp.ConvertMCPToolsToOllama(tools)
	}

	reply, err := p.client.Chat(ctx, ConvertToOllamaMessages(messages), ollamaTools)
	if err != nil {
		return nil, fmt.Errorf("Ollama completion failed: %w", err)
	}

	completion := ConvertFromOllamaMessage(reply)
	if choice == model.ToolChoiceNone {
		completion.ToolCalls = nil
	}
	return completion, nil
}

// GetModel implements model.Provider.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// Ping implements model.Provider.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
