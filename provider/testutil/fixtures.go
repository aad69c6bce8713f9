package testutil

import (
	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"sarahdemo/model"
)

// TestMessages returns a sample demo conversation.
func TestMessages() []model.Message {
	return []model.Message{
		model.SystemMessage("You are Sarah, a friendly sales engineer."),
		model.UserMessage("Hi, we run a small marketing agency."),
		{Role: model.RoleAssistant, Content: "Great to meet you! What slows your team down most?"},
		model.UserMessage("Keeping track of client approvals."),
	}
}

// ToolRoundTrip returns a conversation that ends with one tool call and its
// result, as sent in a follow-up completion.
func ToolRoundTrip() []model.Message {
	return []model.Message{
		model.SystemMessage("You are Sarah."),
		model.UserMessage("Set up an approvals board."),
		{
			Role: model.RoleAssistant,
			ToolCalls: []model.ToolCall{{
				ID:        "call_1",
				Name:      "build_board",
				Arguments: `{"workflow_name":"Approvals","cards":[{"name":"Draft"}]}`,
			}},
		},
		model.ToolResult("call_1", "Created 1 card."),
	}
}

// TestMCPTools returns sample tool definitions.
func TestMCPTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		mcptypes.NewTool("build_board",
			mcptypes.WithDescription("Create cards on the demo board"),
			mcptypes.WithString("workflow_name", mcptypes.Required()),
			mcptypes.WithArray("cards", mcptypes.Required(), mcptypes.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"name":        map[string]any{"type": "string"},
					"description": map[string]any{"type": "string"},
				},
				"required": []string{"name"},
			})),
		),
		mcptypes.NewTool("share_screen", mcptypes.WithDescription("Start sharing the board")),
	}
}
