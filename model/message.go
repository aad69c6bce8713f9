package model

// Roles used in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents one entry of the conversation sent to a completion
// backend. Assistant messages carry the tool calls they requested; tool
// messages carry the id of the call they answer.
type Message struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is a tool invocation requested by the model. Arguments is the
// raw JSON text exactly as the backend produced it and may be malformed.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// HistoryEntry is a conversation turn as the browser sends it back. Content
// is a pointer because call transcripts can contain null entries.
type HistoryEntry struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// Completion is the part of a completion response the dispatcher uses.
type Completion struct {
	Content   string
	ToolCalls []ToolCall
}

// HasToolCalls reports whether the model asked for any tool.
func (c *Completion) HasToolCalls() bool {
	return c != nil && len(c.ToolCalls) > 0
}

// AssistantMessage converts the completion into the assistant turn that
// precedes its tool results in a follow-up request.
func (c *Completion) AssistantMessage() Message {
	return Message{
		Role:      RoleAssistant,
		Content:   c.Content,
		ToolCalls: c.ToolCalls,
	}
}

// SystemMessage, UserMessage and ToolResult build messages of each role.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func ToolResult(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID}
}
