package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":3000", cfg.Server.ListenAddr)
	assert.Equal(t, "openai", cfg.Completion.Provider)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
	assert.Equal(t, 500*time.Millisecond, cfg.Trello.ChatPace.Duration)
	assert.Equal(t, 300*time.Millisecond, cfg.Trello.CallPace.Duration)
	assert.Equal(t, "69789a559329657b81dd0c0e", cfg.Trello.Lists["To Do"])
}

func TestLoad_FileValues(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "settings.toml")
	content := `
[server]
listen_addr = ":8080"
http_timeout = "5s"

[completion]
provider = "anthropic"
model = "claude-sonnet-4-5-20250929"

[trello]
list_id = "list-1"
chat_pace = "0s"

[trello.lists]
"To Do" = "todo-id"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 5*time.Second, cfg.Server.HTTPTimeout.Duration)
	assert.Equal(t, "anthropic", cfg.Completion.Provider)
	assert.Equal(t, "list-1", cfg.Trello.ListID)
	assert.Equal(t, time.Duration(0), cfg.Trello.ChatPace.Duration)
	assert.Equal(t, "todo-id", cfg.Trello.Lists["To Do"])
}

func TestLoad_UnknownKeysRejected(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nlisten = \":1\"\n"), 0600))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("OPENAI_API_KEY fills completion key for openai", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OPENAI_API_KEY", "oa-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "oa-key", cfg.Completion.APIKey)
	})

	t.Run("ANTHROPIC_API_KEY used when provider is anthropic", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SARAH_COMPLETION_PROVIDER", "anthropic")
		t.Setenv("OPENAI_API_KEY", "oa-key")
		t.Setenv("ANTHROPIC_API_KEY", "ant-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "anthropic", cfg.Completion.Provider)
		assert.Equal(t, "ant-key", cfg.Completion.APIKey)
	})

	t.Run("provider switch picks that provider's default model", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SARAH_COMPLETION_PROVIDER", "anthropic")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		require.NoError(t, err)

		assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Completion.Model)
	})

	t.Run("SARAH_MODEL wins over the provider default", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SARAH_COMPLETION_PROVIDER", "ollama")
		t.Setenv("SARAH_MODEL", "qwen2.5:7b")

		cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
		require.NoError(t, err)

		assert.Equal(t, "qwen2.5:7b", cfg.Completion.Model)
	})

	t.Run("board and speech credentials", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MONDAY_API_KEY", "m-key")
		t.Setenv("TRELLO_API_KEY", "t-key")
		t.Setenv("TRELLO_TOKEN", "t-token")
		t.Setenv("TRELLO_LIST_ID", "t-list")
		t.Setenv("ELEVENLABS_API_KEY", "e-key")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "m-key", cfg.Monday.APIKey)
		assert.Equal(t, "t-key", cfg.Trello.APIKey)
		assert.Equal(t, "t-token", cfg.Trello.Token)
		assert.Equal(t, "t-list", cfg.Trello.ListID)
		assert.Equal(t, "e-key", cfg.Speech.APIKey)
	})

	t.Run("SARAH_DEBUG enables debug", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SARAH_DEBUG", "1")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.True(t, cfg.Debug)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = " " }, true},
		{"unknown provider", func(c *Config) { c.Completion.Provider = "bard" }, true},
		{"empty model", func(c *Config) { c.Completion.Model = "" }, true},
		{"negative pace", func(c *Config) { c.Trello.CallPace.Duration = -time.Second }, true},
		{"ollama accepted", func(c *Config) { c.Completion.Provider = "ollama" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.resolveModel()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")

	written, err := CreateDefaultConfig(path)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = CreateDefaultConfig(path)
	require.NoError(t, err)
	assert.False(t, written, "existing file must not be overwritten")

	cfg, err := Load(path)
	require.NoError(t, err, "generated template must load cleanly")
	assert.Equal(t, DefaultConfig().Trello.Lists, cfg.Trello.Lists)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SARAH_COMPLETION_PROVIDER", "SARAH_MODEL", "SARAH_LISTEN_ADDR", "SARAH_BASE_URL",
		"SARAH_PERSONA_DIR", "SARAH_DEBUG", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
		"MONDAY_API_KEY", "MONDAY_BOARD_ID", "MONDAY_CLIENT_ID", "MONDAY_CLIENT_SECRET",
		"TRELLO_API_KEY", "TRELLO_TOKEN", "TRELLO_LIST_ID", "TRELLO_BOARD_ID", "ELEVENLABS_API_KEY",
	} {
		t.Setenv(key, "")
	}
}
