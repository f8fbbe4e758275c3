package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Settings are the per-user CLI defaults kept next to the offline queue.
type Settings struct {
	APIBaseURL string `json:"api_base_url,omitempty"`
	PackType   string `json:"pack_type,omitempty"`
	PackSize   int    `json:"pack_size,omitempty"`
}

func settingsPath(dir string) string {
	return filepath.Join(dir, "settings.json")
}

func SaveSettings(dir string, s Settings) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	body, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(settingsPath(dir), body, 0o600)
}

// LoadSettings returns zero settings when none were saved.
func LoadSettings(dir string) (Settings, error) {
	body, err := os.ReadFile(settingsPath(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Settings{}, nil
		}
		return Settings{}, err
	}
	var s Settings
	if err := json.Unmarshal(body, &s); err != nil {
		return Settings{}, err
	}
	s.APIBaseURL = strings.TrimRight(strings.TrimSpace(s.APIBaseURL), "/")
	return s, nil
}

func ClearSettings(dir string) error {
	err := os.Remove(settingsPath(dir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
