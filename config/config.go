package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrSettingsPathRequired = errors.New("settings path not provided")

// ServerSettings holds the connection details for the media server.
type ServerSettings struct {
	BaseURL     string `json:"baseUrl"`
	AccessToken string `json:"accessToken"`
	DeviceID    string `json:"deviceId"`
}

// PlaybackSettings holds playback preferences applied when a session starts.
type PlaybackSettings struct {
	PreferredAudioLanguage    string `json:"preferredAudioLanguage"`
	PreferredSubtitleLanguage string `json:"preferredSubtitleLanguage"`
	TunneledDecoding          bool   `json:"tunneledDecoding"`
}

// Settings is the full persisted configuration.
type Settings struct {
	Server       ServerSettings   `json:"server"`
	Playback     PlaybackSettings `json:"playback"`
	DownloadsDir string           `json:"downloadsDir"`
	ListenAddr   string           `json:"listenAddr"`
	LogDir       string           `json:"logDir"`
}

// DefaultSettings returns the settings used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Playback: PlaybackSettings{
			PreferredAudioLanguage:    "en",
			PreferredSubtitleLanguage: "en",
		},
		DownloadsDir: "downloads",
		ListenAddr:   ":8096",
		LogDir:       "logs",
	}
}

// Manager loads and persists settings from a JSON file.
type Manager struct {
	mu   sync.RWMutex
	path string
}

// NewManager creates a settings manager backed by the given file path.
func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Load reads settings from disk, returning defaults if the file does not exist.
func (m *Manager) Load() (Settings, error) {
	if strings.TrimSpace(m.path) == "" {
		return Settings{}, ErrSettingsPathRequired
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	return settings, nil
}

// Save writes settings to disk atomically.
func (m *Manager) Save(settings Settings) error {
	if strings.TrimSpace(m.path) == "" {
		return ErrSettingsPathRequired
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
