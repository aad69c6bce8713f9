package dispatch

import (
	"sarahdemo/model"
)

// StartCall is the message the call page sends when the visitor joins.
const StartCall = "START_CALL"

// AssembleTurn builds [system, ...history, user]. History entries with null
// content are dropped, as are roles other than user and assistant, so the
// system prompt stays the only system message.
func AssembleTurn(systemPrompt string, history []model.HistoryEntry, userMessage string) []model.Message {
	messages := make([]model.Message, 0, len(history)+2)
	messages = append(messages, model.SystemMessage(systemPrompt))

	for _, entry := range history {
		if entry.Content == nil {
			continue
		}
		switch entry.Role {
		case model.RoleUser, model.RoleAssistant:
			messages = append(messages, model.Message{Role: entry.Role, Content: *entry.Content})
		}
	}

	return append(messages, model.UserMessage(userMessage))
}

// OpeningMessage replaces StartCall with the persona's start message.
func OpeningMessage(message, startMessage string) string {
	if message == StartCall && startMessage != "" {
		return startMessage
	}
	return message
}
