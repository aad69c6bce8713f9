// Package dispatch runs one conversational turn: a completion, the board
// side effects of the tool calls it requested, and the follow-up completion
// that turns their results into the reply.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"sarahdemo/mcp"
	"sarahdemo/model"
)

// MaxDepth bounds how many tool-call batches one turn may execute.
const MaxDepth = 2

var (
	ErrUnknownTool = errors.New("unknown tool")
	ErrNoProvider  = errors.New("no completion provider")
)

// Handler executes one validated tool call. args is the raw JSON object.
type Handler func(ctx context.Context, args json.RawMessage) (Outcome, error)

// Tool pairs a declared schema with its handler.
type Tool struct {
	Definition mcptypes.Tool
	Handle     Handler
}

// Outcome is what a handler reports back.
type Outcome struct {
	// Result is the tool-result message content sent in the follow-up.
	Result string
	Echo   Echo
	// Fallback is the reply used if the follow-up completion is empty.
	Fallback string
	// Nested offers the tools again to the follow-up completion.
	Nested bool
}

// Turn is the input of one Run.
type Turn struct {
	Messages     []model.Message
	Tools        []Tool
	DefaultReply string
}

// CallRecord logs one executed tool call.
type CallRecord struct {
	Name   string
	Depth  int
	Result string
	Failed bool
}

// Result is the outcome of one turn.
type Result struct {
	Reply       string
	Echo        Echo
	Calls       []CallRecord
	Completions int
}

// Dispatcher runs turns against one completion provider. It is safe for
// concurrent use; detached board work started by its handlers is tracked
// until Wait returns.
type Dispatcher struct {
	provider model.Provider
	logger   *zap.Logger
	maxDepth int

	wg sync.WaitGroup
}

type Option func(*Dispatcher)

// WithMaxDepth overrides MaxDepth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(d *Dispatcher) {
		if n >= 1 {
			d.maxDepth = n
		}
	}
}

func New(provider model.Provider, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		provider: provider,
		logger:   logger,
		maxDepth: MaxDepth,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Wait blocks until all detached work has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// detach runs fn in a tracked goroutine.
func (d *Dispatcher) detach(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("detached board work panicked", zap.Any("panic", r))
			}
		}()
		fn()
	}()
}

// Run executes one turn. Only completion failures are returned as errors;
// tool failures are reported to the model and logged.
func (d *Dispatcher) Run(ctx context.Context, turn Turn) (*Result, error) {
	if d.provider == nil {
		return nil, ErrNoProvider
	}

	definitions := make([]mcptypes.Tool, len(turn.Tools))
	index := make(map[string]Tool, len(turn.Tools))
	for i, tool := range turn.Tools {
		definitions[i] = tool.Definition
		index[tool.Definition.Name] = tool
	}

	messages := append([]model.Message(nil), turn.Messages...)
	result := &Result{}

	completion, err := d.complete(ctx, result, messages, definitions, model.ToolChoiceAuto)
	if err != nil {
		return nil, err
	}
	if !completion.HasToolCalls() {
		result.Reply = completion.Content
		return result, nil
	}

	var fallback string
	for depth := 1; completion.HasToolCalls(); depth++ {
		messages = append(messages, completion.AssistantMessage())

		nested := false
		for _, call := range completion.ToolCalls {
			outcome, failed := d.execute(ctx, index, call)
			messages = append(messages, model.ToolResult(call.ID, outcome.Result))
			result.Echo.merge(outcome.Echo)
			result.Calls = append(result.Calls, CallRecord{
				Name:   call.Name,
				Depth:  depth,
				Result: outcome.Result,
				Failed: failed,
			})
			if outcome.Fallback != "" {
				fallback = outcome.Fallback
			}
			nested = nested || outcome.Nested
		}

		choice := model.ToolChoiceNone
		if nested && depth < d.maxDepth {
			choice = model.ToolChoiceAuto
		}

		completion, err = d.complete(ctx, result, messages, definitions, choice)
		if err != nil {
			return nil, err
		}
		if choice == model.ToolChoiceNone {
			break
		}
	}

	result.Reply = completion.Content
	if strings.TrimSpace(result.Reply) == "" {
		result.Reply = fallback
	}
	if strings.TrimSpace(result.Reply) == "" {
		result.Reply = turn.DefaultReply
	}
	return result, nil
}

func (d *Dispatcher) complete(ctx context.Context, result *Result, messages []model.Message, tools []mcptypes.Tool, choice model.ToolChoice) (*model.Completion, error) {
	result.Completions++
	completion, err := d.provider.Complete(ctx, messages, tools, choice)
	if err != nil {
		return nil, fmt.Errorf("completion %d: %w", result.Completions, err)
	}
	if completion == nil {
		completion = &model.Completion{}
	}
	d.logger.Debug("completion",
		zap.Int("n", result.Completions),
		zap.Int("tools_declared", len(tools)),
		zap.Stringer("tool_choice", choice),
		zap.Int("tool_calls", len(completion.ToolCalls)),
	)
	return completion, nil
}

// execute runs one tool call and never fails the turn. The bool reports
// whether the side effect was skipped.
func (d *Dispatcher) execute(ctx context.Context, index map[string]Tool, call model.ToolCall) (Outcome, bool) {
	logger := d.logger.With(zap.String("tool", call.Name), zap.String("call_id", call.ID))

	tool, ok := index[call.Name]
	if !ok {
		logger.Warn("model called an undeclared tool")
		return Outcome{Result: fmt.Sprintf("Tool %q is not available. Continue the conversation without it.", call.Name)}, true
	}

	if _, err := mcp.ValidateArguments(tool.Definition, call.Arguments); err != nil {
		logger.Warn("rejected tool arguments", zap.Error(err), zap.String("arguments", call.Arguments))
		return Outcome{Result: fmt.Sprintf("The %s call was not carried out: %v.", call.Name, err)}, true
	}

	args := call.Arguments
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	outcome, err := tool.Handle(ctx, json.RawMessage(args))
	if err != nil {
		logger.Warn("tool failed", zap.Error(err))
		return Outcome{
			Result:   fmt.Sprintf("The %s call failed: %v.", call.Name, err),
			Echo:     outcome.Echo,
			Fallback: outcome.Fallback,
		}, true
	}

	logger.Info("tool executed", zap.String("result", outcome.Result))
	return outcome, false
}
