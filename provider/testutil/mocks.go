package testutil

import (
	"context"
	"errors"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"sarahdemo/model"
)

// ErrScriptExhausted is returned when a MockProvider receives more
// completion requests than it was scripted for.
var ErrScriptExhausted = errors.New("mock provider: no scripted completion left")

// Call records one Complete invocation.
type Call struct {
	Messages []model.Message
	Tools    []mcptypes.Tool
	Choice   model.ToolChoice
}

// MockProvider implements model.Provider for testing. It replays scripted
// completions in order and records every request.
type MockProvider struct {
	// CompleteFunc overrides the script when set.
	CompleteFunc func(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, choice model.ToolChoice) (*model.Completion, error)
	PingFunc     func(ctx context.Context) error

	mu           sync.Mutex
	script       []Step
	calls        []Call
	currentModel string
}

// Step is one scripted completion result.
type Step struct {
	Completion *model.Completion
	Err        error
}

// NewMockProvider creates a mock provider that replays steps in order.
func NewMockProvider(modelName string, steps ...Step) *MockProvider {
	return &MockProvider{
		currentModel: modelName,
		script:       steps,
	}
}

func (m *MockProvider) Complete(ctx context.Context, messages []model.Message, tools []mcptypes.Tool, choice model.ToolChoice) (*model.Completion, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{
		Messages: append([]model.Message(nil), messages...),
		Tools:    append([]mcptypes.Tool(nil), tools...),
		Choice:   choice,
	})
	if m.CompleteFunc != nil {
		m.mu.Unlock()
		return m.CompleteFunc(ctx, messages, tools, choice)
	}
	if len(m.script) == 0 {
		m.mu.Unlock()
		return nil, ErrScriptExhausted
	}
	step := m.script[0]
	m.script = m.script[1:]
	m.mu.Unlock()

	return step.Completion, step.Err
}

// Calls returns a copy of the recorded requests.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) Ping(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}
