package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

func decodeFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("%w: unknown keys in %s: %v", ErrInvalidConfig, path, undecoded)
	}

	return nil
}

// CreateDefaultConfig writes the commented template to path unless a file
// already exists there. Returns true when a file was written.
func CreateDefaultConfig(path string) (bool, error) {
	if path == "" {
		path = GetSettingsFilePath()
	}

	if FileExists(path) {
		return false, nil
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may end up holding API keys
	if err := os.WriteFile(path, []byte(GenerateConfigTemplate()), 0600); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}

	return true, nil
}
