package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SettingsFileName is the preferences file inside the cache directory
const SettingsFileName = "settings.yaml"

// Settings are user preferences kept across runs
type Settings struct {
	Language  Language  `yaml:"language"`
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// DefaultSettings returns the settings used when none are saved
func DefaultSettings() *Settings {
	return &Settings{Language: DefaultLanguage}
}

// SettingsPath returns the settings file path for a cache directory
func SettingsPath(dir string) string {
	return filepath.Join(dir, SettingsFileName)
}

// LoadSettings reads settings from dir. A missing file yields defaults;
// an unsupported language falls back to the default.
func LoadSettings(dir string) (*Settings, error) {
	path := SettingsPath(dir)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return nil, &StorageError{Path: path, Op: "read", Err: err}
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, &StorageError{Path: path, Op: "parse", Err: fmt.Errorf("failed to unmarshal settings: %w", err)}
	}
	if !s.Language.IsValid() {
		if s.Language != "" {
			LogWarn("Ignoring unsupported language %q in %s", s.Language, path)
		}
		s.Language = DefaultLanguage
	}
	return &s, nil
}

// SaveSettings writes settings to dir
func SaveSettings(dir string, s *Settings) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &StorageError{Path: dir, Op: "write", Err: err}
	}
	s.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	path := SettingsPath(dir)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}
