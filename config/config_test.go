package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "settings.json"))

	settings, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Playback.PreferredAudioLanguage != "en" {
		t.Errorf("expected default audio language 'en', got %q", settings.Playback.PreferredAudioLanguage)
	}
	if settings.ListenAddr == "" {
		t.Error("expected default listen address")
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	mgr := NewManager(path)

	settings := DefaultSettings()
	settings.Server.BaseURL = "https://media.example.com"
	settings.Playback.PreferredSubtitleLanguage = "sv"
	settings.Playback.TunneledDecoding = true

	if err := mgr.Save(settings); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := mgr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Server.BaseURL != "https://media.example.com" {
		t.Errorf("unexpected base url: %q", loaded.Server.BaseURL)
	}
	if loaded.Playback.PreferredSubtitleLanguage != "sv" {
		t.Errorf("unexpected subtitle language: %q", loaded.Playback.PreferredSubtitleLanguage)
	}
	if !loaded.Playback.TunneledDecoding {
		t.Error("expected tunneled decoding to survive round trip")
	}
}

func TestLoad_PartialFileMergesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"server":{"baseUrl":"http://localhost:8096"}}`), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	settings, err := NewManager(path).Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if settings.Server.BaseURL != "http://localhost:8096" {
		t.Errorf("unexpected base url: %q", settings.Server.BaseURL)
	}
	if settings.Playback.PreferredAudioLanguage != "en" {
		t.Errorf("expected default audio language, got %q", settings.Playback.PreferredAudioLanguage)
	}
}

func TestSave_NoPath(t *testing.T) {
	mgr := NewManager("")
	if err := mgr.Save(DefaultSettings()); err != ErrSettingsPathRequired {
		t.Errorf("expected ErrSettingsPathRequired, got %v", err)
	}
}
