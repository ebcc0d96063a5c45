// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/pillow-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Pillow"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a chat session.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Content
	Content string `json:"content"`

	// Model that produced the message (assistant messages only)
	Model string `json:"model,omitempty"`

	// AttachmentURL carries an inline data reference for an attached image
	AttachmentURL string `json:"attachment_url,omitempty"`

	// Generating is true only for the most recently appended assistant
	// message while its response is still streaming in.
	Generating bool `json:"generating,omitempty"`
}

// NewUserMessage creates a user message, optionally carrying an attachment.
func NewUserMessage(content, attachmentURL string) *Message {
	return &Message{
		ID:            generateMessageID(),
		Role:          RoleUser,
		Content:       content,
		AttachmentURL: attachmentURL,
		CreatedAt:     time.Now(),
	}
}

// NewAssistantPlaceholder creates an empty assistant message marked as
// generating. Its content is filled in place as stream deltas arrive.
func NewAssistantPlaceholder(modelName string) *Message {
	return &Message{
		ID:         generateMessageID(),
		Role:       RoleAssistant,
		Model:      modelName,
		Generating: true,
		CreatedAt:  time.Now(),
	}
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	return util.TruncateRunes(m.Content, maxLen)
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// generateMessageID creates a unique message ID.
func generateMessageID() string {
	return uuid.New().String()
}
