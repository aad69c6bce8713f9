package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Duration wraps time.Duration so TOML files can say "500ms" or "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type ServerConfig struct {
	ListenAddr  string   `toml:"listen_addr"`
	BaseURL     string   `toml:"base_url"`
	HTTPTimeout Duration `toml:"http_timeout"`
}

type CompletionConfig struct {
	Provider  string `toml:"provider"`
	Model     string `toml:"model"`
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key,omitempty"`
	MaxTokens int64  `toml:"max_tokens"`
}

type MondayConfig struct {
	APIURL       string `toml:"api_url"`
	APIKey       string `toml:"api_key,omitempty"`
	BoardID      string `toml:"board_id"`
	PageLimit    int    `toml:"page_limit"`
	StatusColumn string `toml:"status_column"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret,omitempty"`
	AuthorizeURL string `toml:"authorize_url"`
	TokenURL     string `toml:"token_url"`
}

type TrelloConfig struct {
	APIURL   string            `toml:"api_url"`
	APIKey   string            `toml:"api_key,omitempty"`
	Token    string            `toml:"token,omitempty"`
	BoardID  string            `toml:"board_id"`
	ListID   string            `toml:"list_id"`
	Lists    map[string]string `toml:"lists"`
	ChatPace Duration          `toml:"chat_pace"`
	CallPace Duration          `toml:"call_pace"`
}

type SpeechConfig struct {
	APIURL          string  `toml:"api_url"`
	APIKey          string  `toml:"api_key,omitempty"`
	VoiceID         string  `toml:"voice_id"`
	ModelID         string  `toml:"model_id"`
	OutputFormat    string  `toml:"output_format"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	Style           float64 `toml:"style"`
	SpeakerBoost    bool    `toml:"speaker_boost"`
}

type PersonaConfig struct {
	Dir string `toml:"dir"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	Completion CompletionConfig `toml:"completion"`
	Monday     MondayConfig     `toml:"monday"`
	Trello     TrelloConfig     `toml:"trello"`
	Speech     SpeechConfig     `toml:"speech"`
	Persona    PersonaConfig    `toml:"persona"`
	Debug      bool             `toml:"debug"`
}

var ErrInvalidConfig = errors.New("invalid configuration")

// PersonaDir returns the persona override directory with ~ expanded.
func (c *Config) PersonaDir() string {
	return ExpandPath(c.Persona.Dir)
}

func (c *Config) applyEnvOverrides() {
	setFromEnv(&c.Completion.Provider, "SARAH_COMPLETION_PROVIDER")
	setFromEnv(&c.Completion.Model, "SARAH_MODEL")
	setFromEnv(&c.Server.ListenAddr, "SARAH_LISTEN_ADDR")
	setFromEnv(&c.Server.BaseURL, "SARAH_BASE_URL")
	setFromEnv(&c.Persona.Dir, "SARAH_PERSONA_DIR")

	// Completion key follows the selected provider.
	switch c.Completion.Provider {
	case "anthropic":
		setFromEnv(&c.Completion.APIKey, "ANTHROPIC_API_KEY")
	case "openai", "":
		setFromEnv(&c.Completion.APIKey, "OPENAI_API_KEY")
	}

	setFromEnv(&c.Monday.APIKey, "MONDAY_API_KEY")
	setFromEnv(&c.Monday.BoardID, "MONDAY_BOARD_ID")
	setFromEnv(&c.Monday.ClientID, "MONDAY_CLIENT_ID")
	setFromEnv(&c.Monday.ClientSecret, "MONDAY_CLIENT_SECRET")

	setFromEnv(&c.Trello.APIKey, "TRELLO_API_KEY")
	setFromEnv(&c.Trello.Token, "TRELLO_TOKEN")
	setFromEnv(&c.Trello.ListID, "TRELLO_LIST_ID")
	setFromEnv(&c.Trello.BoardID, "TRELLO_BOARD_ID")

	setFromEnv(&c.Speech.APIKey, "ELEVENLABS_API_KEY")

	if CheckDebug() {
		c.Debug = true
	}
}

// resolveModel fills an unset model from the selected provider.
func (c *Config) resolveModel() {
	if strings.TrimSpace(c.Completion.Model) == "" {
		c.Completion.Model = DefaultModel(c.Completion.Provider)
	}
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// CheckDebug reports whether SARAH_DEBUG asks for debug logging.
func CheckDebug() bool {
	debug := os.Getenv("SARAH_DEBUG")
	return debug == "true" || debug == "1"
}

// Validate checks the settings the server cannot start without. Board,
// speech and OAuth credentials are optional: their absence turns the
// matching operations into logged no-ops.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		return fmt.Errorf("%w: server.listen_addr is empty", ErrInvalidConfig)
	}
	switch c.Completion.Provider {
	case "openai", "anthropic", "ollama":
	default:
		return fmt.Errorf("%w: unknown completion provider %q", ErrInvalidConfig, c.Completion.Provider)
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("%w: completion.model is empty", ErrInvalidConfig)
	}
	if c.Trello.ChatPace.Duration < 0 || c.Trello.CallPace.Duration < 0 {
		return fmt.Errorf("%w: trello pacing must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Load reads the settings file (if present), applies environment overrides
// and validates the result. An empty path means the default settings path.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = GetSettingsFilePath()
	}

	if FileExists(path) {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()
	cfg.resolveModel()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
