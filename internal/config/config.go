// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pillow-tui/internal/model"
	"github.com/jeranaias/pillow-tui/internal/util"
)

// =============================================================================
// DEFAULTS
// =============================================================================

// Bounds for clamped numeric settings.
const (
	TemperatureMin = 0.0
	TemperatureMax = 2.0
	MaxTokensMin   = 100
	MaxTokensMax   = 4096
)

// Default returns the built-in settings.
func Default() model.Settings {
	return model.Settings{
		APIKey:              "",
		PreferredTextModel:  "google/gemma-2-9b-it:free",
		PreferredImageModel: "black-forest-labs/flux-schnell:free",
		SystemPrompt:        "You are Pillow AI, a helpful and intelligent assistant. Be conversational, accurate, and provide detailed responses when appropriate.",
		Temperature:         0.7,
		MaxTokens:           2048,
		EnableImageAnalysis: true,
		EnableChatHistory:   true,
		AutoSaveChats:       true,
		MessageTemplates: []string{
			"Explain this concept in simple terms:",
			"Analyze this image and describe what you see:",
			"Create a detailed plan for:",
			"Compare and contrast:",
			"Summarize the key points of:",
			"Generate creative ideas for:",
			"Review and improve this text:",
			"What are the pros and cons of:",
		},
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the pillow configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pillow"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions fixes overly permissive modes on config files.
// SECURITY: Config files hold the API key and must be owner-only (0600).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads settings from the default config file, merged over defaults.
// A missing file is not an error; defaults are returned. The
// OPENROUTER_API_KEY environment variable overrides the stored key.
func Load() (model.Settings, error) {
	path, err := Path()
	if err != nil {
		return applyEnv(Normalize(Default())), nil
	}
	return LoadFromPath(path)
}

// LoadFromPath reads settings from a specific TOML file.
func LoadFromPath(path string) (model.Settings, error) {
	settings := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, &settings); err != nil {
			return applyEnv(Normalize(Default())), fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	return applyEnv(Normalize(settings)), nil
}

// applyEnv applies environment variable overrides.
func applyEnv(settings model.Settings) model.Settings {
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
		settings.APIKey = key
	}
	return settings
}

// Normalize clamps numeric settings into their valid ranges and restores
// defaults for empty required fields.
func Normalize(settings model.Settings) model.Settings {
	defaults := Default()

	if settings.PreferredTextModel == "" {
		settings.PreferredTextModel = defaults.PreferredTextModel
	}
	if settings.PreferredImageModel == "" {
		settings.PreferredImageModel = defaults.PreferredImageModel
	}
	if settings.SystemPrompt == "" {
		settings.SystemPrompt = defaults.SystemPrompt
	}
	if len(settings.MessageTemplates) == 0 {
		settings.MessageTemplates = defaults.MessageTemplates
	}

	if settings.Temperature < TemperatureMin {
		settings.Temperature = TemperatureMin
	}
	if settings.Temperature > TemperatureMax {
		settings.Temperature = TemperatureMax
	}
	if settings.MaxTokens < MaxTokensMin {
		settings.MaxTokens = MaxTokensMin
	}
	if settings.MaxTokens > MaxTokensMax {
		settings.MaxTokens = MaxTokensMax
	}

	return settings
}

// Save writes settings to the default config file.
func Save(settings model.Settings) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveToPath(settings, path)
}

// SaveToPath writes settings as TOML to a specific path.
// SECURITY: Config files are created 0600 (owner read/write only).
func SaveToPath(settings model.Settings, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# pillow configuration file")
	fmt.Fprintln(&buf, "# Generated by pillow - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic replace so a crash mid-save never leaves a
	// truncated config behind.
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return ensureSecurePermissions(path)
}
