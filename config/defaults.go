package config

import "time"

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:  ":3000",
			BaseURL:     "http://localhost:3000",
			HTTPTimeout: Duration{30 * time.Second},
		},
		Completion: CompletionConfig{
			Provider:  "openai",
			MaxTokens: 1024,
		},
		Monday: MondayConfig{
			APIURL:       "https://api.monday.com/v2",
			BoardID:      "5090692461",
			PageLimit:    50,
			AuthorizeURL: "https://auth.monday.com/oauth2/authorize",
			TokenURL:     "https://auth.monday.com/oauth2/token",
		},
		Trello: TrelloConfig{
			APIURL:  "https://api.trello.com/1",
			BoardID: "6NTDvRPC",
			Lists: map[string]string{
				"To Do":       "69789a559329657b81dd0c0e",
				"In Progress": "69789a559329657b81dd0c0f",
				"Review":      "69789c999e6473c719787221",
				"Done":        "69789a559329657b81dd0c10",
			},
			ChatPace: Duration{500 * time.Millisecond},
			CallPace: Duration{300 * time.Millisecond},
		},
		Speech: SpeechConfig{
			APIURL:          "https://api.elevenlabs.io/v1",
			VoiceID:         "9BWtsMINqrJLrRacOk9x",
			ModelID:         "eleven_turbo_v2_5",
			OutputFormat:    "pcm_16000",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Style:           0.5,
			SpeakerBoost:    true,
		},
	}
}

// defaultModels holds the model used when completion.model is not set.
var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-5-20250929",
	"ollama":    "llama3.1:latest",
}

// DefaultModel returns the model for provider when none is configured, or
// "" for an unknown provider.
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

func GenerateConfigTemplate() string {
	return `# sarahdemo configuration
# Location: ~/.config/sarahdemo/settings.toml
# This file uses TOML format: https://toml.io
#
# Secrets are best supplied through the environment:
#   OPENAI_API_KEY / ANTHROPIC_API_KEY, MONDAY_API_KEY, MONDAY_CLIENT_SECRET,
#   TRELLO_API_KEY, TRELLO_TOKEN, ELEVENLABS_API_KEY

debug = false

[server]
listen_addr = ":3000"
# Public URL of this server, used for OAuth redirects
base_url = "http://localhost:3000"
# Timeout for outbound board, speech and OAuth calls
http_timeout = "30s"

[completion]
# openai, anthropic or ollama
provider = "openai"
# Leave empty for the provider default
# (gpt-4o, claude-sonnet-4-5-20250929 or llama3.1:latest)
model = ""
# Leave empty for the provider default
base_url = ""
max_tokens = 1024

[monday]
api_url = "https://api.monday.com/v2"
board_id = "5090692461"
page_limit = 50
# Status column id to fill from tool calls (empty keeps statuses client-side)
status_column = ""
client_id = ""
authorize_url = "https://auth.monday.com/oauth2/authorize"
token_url = "https://auth.monday.com/oauth2/token"

[trello]
api_url = "https://api.trello.com/1"
board_id = "6NTDvRPC"
# Default list for cards that do not name one
list_id = ""
# Delay between card creations, paces the live reveal
chat_pace = "500ms"
call_pace = "300ms"

[trello.lists]
"To Do" = "69789a559329657b81dd0c0e"
"In Progress" = "69789a559329657b81dd0c0f"
"Review" = "69789c999e6473c719787221"
"Done" = "69789a559329657b81dd0c10"

[speech]
api_url = "https://api.elevenlabs.io/v1"
voice_id = "9BWtsMINqrJLrRacOk9x"
model_id = "eleven_turbo_v2_5"
output_format = "pcm_16000"
stability = 0.5
similarity_boost = 0.75
style = 0.5
speaker_boost = true

[persona]
# Directory of persona TOML files overriding the built-in prompts (optional)
dir = ""
`
}
