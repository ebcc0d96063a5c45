// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultTitle is the placeholder title of a freshly created session. The
// real title is derived from the first user message appended while the
// placeholder is still in place.
const DefaultTitle = "New Chat"

// titleMaxRunes is the derivation cutoff: longer first messages are truncated
// to this many runes with an ellipsis marker appended.
const titleMaxRunes = 50

// =============================================================================
// CHAT SESSION TYPE
// =============================================================================

// ChatSession holds one conversation thread: an ordered message list plus
// derived summary metadata (title, last-message preview, updated time).
type ChatSession struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`

	// LastMessage mirrors the content of the most recently appended message.
	// It may be empty while a fresh assistant placeholder is streaming.
	LastMessage string `json:"last_message"`

	// Messages in insertion order (= conversation order). Positions never
	// change after insertion; only the last element mutates during streaming.
	Messages []*Message `json:"messages"`
}

// NewChatSession creates an empty session with the placeholder title.
func NewChatSession() *ChatSession {
	return &ChatSession{
		ID:        uuid.New().String(),
		Title:     DefaultTitle,
		UpdatedAt: time.Now(),
		Messages:  make([]*Message, 0),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// Append adds a message to the session and recomputes the derived summary:
// the last-message preview always tracks the appended content, and the title
// is derived exactly once from the first user message while the session is
// still using the placeholder title.
func (s *ChatSession) Append(msg *Message) {
	s.Messages = append(s.Messages, msg)
	s.LastMessage = msg.Content
	s.UpdatedAt = time.Now()

	if s.Title == DefaultTitle && msg.Role == RoleUser {
		s.Title = deriveTitle(msg.Content)
	}
}

// LastMessageRef returns the most recent message, or nil if empty.
func (s *ChatSession) LastMessageRef() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// MessageByID returns a message by its ID, or nil if not present.
func (s *ChatSession) MessageByID(id string) *Message {
	for _, msg := range s.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// MessageIndex returns the position of a message by ID, or -1.
func (s *ChatSession) MessageIndex(id string) int {
	for i, msg := range s.Messages {
		if msg.ID == id {
			return i
		}
	}
	return -1
}

// MessageCount returns the number of messages. The count is always derived
// from the list itself, never tracked independently.
func (s *ChatSession) MessageCount() int {
	return len(s.Messages)
}

// IsEmpty returns true if there are no messages.
func (s *ChatSession) IsEmpty() bool {
	return len(s.Messages) == 0
}

// Clone creates a deep copy of the session.
func (s *ChatSession) Clone() *ChatSession {
	clone := &ChatSession{
		ID:          s.ID,
		Title:       s.Title,
		UpdatedAt:   s.UpdatedAt,
		LastMessage: s.LastMessage,
		Messages:    make([]*Message, len(s.Messages)),
	}
	for i, msg := range s.Messages {
		msgCopy := *msg
		clone.Messages[i] = &msgCopy
	}
	return clone
}

// =============================================================================
// TITLE DERIVATION
// =============================================================================

// deriveTitle builds a session title from the first user message: content up
// to 50 runes, with "..." appended when truncated.
func deriveTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleMaxRunes {
		return string(runes[:titleMaxRunes]) + "..."
	}
	return content
}
