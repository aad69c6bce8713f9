package provider

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/openai/openai-go/v3"

	"sarahdemo/model"
)

// ConvertToOpenAIMessages converts conversation messages to OpenAI params.
//
// Assistant messages that requested tools keep their tool calls so the tool
// results that follow them can be matched by id; OpenAI rejects a tool
// message whose call id has no preceding assistant tool call.
func ConvertToOpenAIMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case model.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				result = append(result, openai.AssistantMessage(msg.Content))
				continue
			}
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: call.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      call.Name,
							Arguments: call.Arguments,
						},
					},
				})
			}
			result = append(result, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case model.RoleTool:
			result = append(result, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

// ConvertFromOpenAIMessage extracts content and function tool calls from an
// OpenAI response message.
func ConvertFromOpenAIMessage(msg openai.ChatCompletionMessage) *model.Completion {
	completion := &model.Completion{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		if call.Type != "" && call.Type != "function" {
			continue
		}
		completion.ToolCalls = append(completion.ToolCalls, model.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return completion
}

// ConvertToAnthropicMessages converts conversation messages to Anthropic
// params. System messages become the system prompt; consecutive tool results
// are grouped into one user message as the Messages API requires.
func ConvertToAnthropicMessages(messages []model.Message) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	var systemBlocks []anthropic.TextBlockParam
	result := make([]anthropic.MessageParam, 0, len(messages))
	var pendingResults []anthropic.ContentBlockParamUnion

	flush := func() {
		if len(pendingResults) > 0 {
			result = append(result, anthropic.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range messages {
		if msg.Role == model.RoleTool {
			pendingResults = append(pendingResults, anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false))
			continue
		}
		flush()

		switch msg.Role {
		case model.RoleSystem:
			systemBlocks = append(systemBlocks, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			// empty text blocks are rejected by the API
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(call.ID, ParseToolArguments(call.Arguments), call.Name))
			}
			if len(blocks) == 0 {
				continue
			}
			result = append(result, anthropic.NewAssistantMessage(blocks...))
		default:
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}
	flush()

	return result, systemBlocks
}

// ConvertFromAnthropicContent collects text and tool_use blocks of a reply.
func ConvertFromAnthropicContent(content []anthropic.ContentBlockUnion) *model.Completion {
	completion := &model.Completion{}
	for _, block := range content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			completion.Content += variant.Text
		case anthropic.ToolUseBlock:
			completion.ToolCalls = append(completion.ToolCalls, model.ToolCall{
				ID:        variant.ID,
				Name:      variant.Name,
				Arguments: string(variant.Input),
			})
		}
	}
	return completion
}

// ConvertToOllamaMessages converts conversation messages to Ollama messages.
// Ollama takes arguments as a decoded map, so malformed argument text turns
// into an empty object on the way back.
func ConvertToOllamaMessages(messages []model.Message) []api.Message {
	result := make([]api.Message, len(messages))
	for i, msg := range messages {
		result[i] = api.Message{
			Role:    msg.Role,
			Content: msg.Content,
		}
		for _, call := range msg.ToolCalls {
			result[i].ToolCalls = append(result[i].ToolCalls, api.ToolCall{
				Function: api.ToolCallFunction{
					Name:      call.Name,
					Arguments: ParseToolArguments(call.Arguments),
				},
			})
		}
	}
	return result
}

// ConvertFromOllamaMessage converts an Ollama reply. Ollama tool calls carry
// no id, so one is generated to pair each call with its tool result.
func ConvertFromOllamaMessage(msg api.Message) *model.Completion {
	completion := &model.Completion{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		args, err := json.Marshal(call.Function.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		completion.ToolCalls = append(completion.ToolCalls, model.ToolCall{
			ID:        "call_" + uuid.NewString(),
			Name:      call.Function.Name,
			Arguments: string(args),
		})
	}
	return completion
}

// ParseToolArguments parses JSON arguments into a map.
// Malformed input yields an empty map.
func ParseToolArguments(argsJSON string) map[string]any {
	var args map[string]any
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil || args == nil {
		return make(map[string]any)
	}
	return args
}
