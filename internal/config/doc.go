// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pillow.
//
// Settings live in ~/.pillow/config.toml, merged over built-in defaults,
// with the OPENROUTER_API_KEY environment variable taking precedence over
// the stored key. Out-of-range numeric values are clamped rather than
// rejected. The Manager serializes concurrent reads and updates and can
// watch the config file for external edits.
package config
