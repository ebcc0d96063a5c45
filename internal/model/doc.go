// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat sessions and messages.
//
// This package defines the core domain types used throughout the application
// for representing chat sessions, messages, and user settings.
//
// # Key Types
//
//   - ChatSession: One conversation thread with messages and summary metadata
//   - Message: Single message with role, content, timestamp, and streaming flag
//   - Settings: User configuration (API key, models, prompt, generation knobs)
//   - Role: Message role enumeration (user, assistant)
//
// # Usage
//
// Create a session and append messages:
//
//	sess := model.NewChatSession()
//	sess.Append(model.NewUserMessage("Hello!", ""))
//
// The session maintains its own derived summary: the title is taken from the
// first user message while the title is still the "New Chat" placeholder, and
// the last-message preview always mirrors the most recently appended message.
package model
