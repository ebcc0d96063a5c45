// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Settings holds the user configuration. The core treats it as a read-only
// snapshot taken at the start of each generation; validation and clamping
// happen at the configuration boundary, not here.
type Settings struct {
	APIKey              string   `toml:"openrouter_api_key" json:"openrouter_api_key"`
	PreferredTextModel  string   `toml:"preferred_text_model" json:"preferred_text_model"`
	PreferredImageModel string   `toml:"preferred_image_model" json:"preferred_image_model"`
	SystemPrompt        string   `toml:"system_prompt" json:"system_prompt"`
	Temperature         float64  `toml:"temperature" json:"temperature"`
	MaxTokens           int      `toml:"max_tokens" json:"max_tokens"`
	EnableImageAnalysis bool     `toml:"enable_image_analysis" json:"enable_image_analysis"`
	EnableChatHistory   bool     `toml:"enable_chat_history" json:"enable_chat_history"`
	AutoSaveChats       bool     `toml:"auto_save_chats" json:"auto_save_chats"`
	MessageTemplates    []string `toml:"message_templates" json:"message_templates"`
}

// Clone returns a copy that shares no mutable state with the original.
func (s Settings) Clone() Settings {
	clone := s
	clone.MessageTemplates = append([]string(nil), s.MessageTemplates...)
	return clone
}

// IsConfigured reports whether an API credential is present.
func (s Settings) IsConfigured() bool {
	return s.APIKey != ""
}
