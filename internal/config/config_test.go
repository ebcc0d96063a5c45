// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jeranaias/pillow-tui/internal/model"
)

func TestDefault(t *testing.T) {
	settings := Default()

	if settings.APIKey != "" {
		t.Error("default API key must be empty")
	}
	if settings.PreferredTextModel != "google/gemma-2-9b-it:free" {
		t.Errorf("text model = %q", settings.PreferredTextModel)
	}
	if settings.Temperature != 0.7 || settings.MaxTokens != 2048 {
		t.Errorf("temperature=%v maxTokens=%v", settings.Temperature, settings.MaxTokens)
	}
	if len(settings.MessageTemplates) != 8 {
		t.Errorf("templates = %d, want 8", len(settings.MessageTemplates))
	}
	if !settings.EnableChatHistory || !settings.AutoSaveChats {
		t.Error("history and autosave default on")
	}
}

func TestLoadFromPath_MissingFileYieldsDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	settings, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if settings.PreferredTextModel != Default().PreferredTextModel {
		t.Errorf("missing file should produce defaults, got %+v", settings)
	}
}

func TestLoadFromPath_MergesOverDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	content := "openrouter_api_key = \"sk-or-abc\"\ntemperature = 1.5\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	settings, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if settings.APIKey != "sk-or-abc" {
		t.Errorf("api key = %q", settings.APIKey)
	}
	if settings.Temperature != 1.5 {
		t.Errorf("temperature = %v", settings.Temperature)
	}
	// Unset fields keep defaults.
	if settings.MaxTokens != 2048 || settings.SystemPrompt == "" {
		t.Errorf("defaults not preserved: %+v", settings)
	}
}

func TestLoadFromPath_EnvOverridesStoredKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("openrouter_api_key = \"stored\"\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("OPENROUTER_API_KEY", "from-env")

	settings, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if settings.APIKey != "from-env" {
		t.Errorf("api key = %q, want env override", settings.APIKey)
	}
}

func TestNormalize_Clamps(t *testing.T) {
	tests := []struct {
		name            string
		temperature     float64
		maxTokens       int
		wantTemperature float64
		wantMaxTokens   int
	}{
		{"below range", -1, 10, 0, 100},
		{"above range", 5, 100000, 2, 4096},
		{"in range", 1.2, 1000, 1.2, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.Temperature = tt.temperature
			s.MaxTokens = tt.maxTokens
			got := Normalize(s)
			if got.Temperature != tt.wantTemperature {
				t.Errorf("temperature = %v, want %v", got.Temperature, tt.wantTemperature)
			}
			if got.MaxTokens != tt.wantMaxTokens {
				t.Errorf("maxTokens = %v, want %v", got.MaxTokens, tt.wantMaxTokens)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.toml")
	settings := Default()
	settings.APIKey = "sk-or-roundtrip"
	settings.MaxTokens = 1024
	settings.MessageTemplates = []string{"one", "two"}

	if err := SaveToPath(settings, path); err != nil {
		t.Fatalf("SaveToPath() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config file mode = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if loaded.APIKey != "sk-or-roundtrip" || loaded.MaxTokens != 1024 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
	if len(loaded.MessageTemplates) != 2 || loaded.MessageTemplates[0] != "one" {
		t.Errorf("templates = %v", loaded.MessageTemplates)
	}
}

func TestManager_UpdateNormalizesAndNotifies(t *testing.T) {
	m := NewManager(Default())

	var notified model.Settings
	m.OnChange(func(s model.Settings) { notified = s })

	got := m.Update(func(s *model.Settings) {
		s.APIKey = "sk-or-new"
		s.Temperature = 9 // clamped
	})

	if got.APIKey != "sk-or-new" || got.Temperature != TemperatureMax {
		t.Errorf("updated settings = %+v", got)
	}
	if notified.APIKey != "sk-or-new" {
		t.Error("OnChange must fire with the new settings")
	}
	if m.Current().Temperature != TemperatureMax {
		t.Errorf("Current() = %+v", m.Current())
	}
}

func TestManager_CurrentIsSnapshot(t *testing.T) {
	m := NewManager(Default())

	snap := m.Current()
	snap.MessageTemplates[0] = "tampered"

	if m.Current().MessageTemplates[0] == "tampered" {
		t.Error("Current() must return an isolated copy")
	}
}
