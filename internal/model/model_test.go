// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// TITLE DERIVATION TESTS
// =============================================================================

func TestTitleDerivation_ShortMessage(t *testing.T) {
	sess := NewChatSession()
	sess.Append(NewUserMessage("Hello", ""))

	if sess.Title != "Hello" {
		t.Errorf("Title = %q, want %q", sess.Title, "Hello")
	}
}

func TestTitleDerivation_LongMessageTruncated(t *testing.T) {
	sess := NewChatSession()
	content := strings.Repeat("a", 60)
	sess.Append(NewUserMessage(content, ""))

	want := strings.Repeat("a", 50) + "..."
	if sess.Title != want {
		t.Errorf("Title = %q, want %q", sess.Title, want)
	}
}

func TestTitleDerivation_ExactBoundary(t *testing.T) {
	sess := NewChatSession()
	content := strings.Repeat("b", 50)
	sess.Append(NewUserMessage(content, ""))

	// Exactly 50 runes fits without an ellipsis.
	if sess.Title != content {
		t.Errorf("Title = %q, want exact content", sess.Title)
	}
}

func TestTitleDerivation_Unicode(t *testing.T) {
	sess := NewChatSession()
	content := strings.Repeat("é", 55)
	sess.Append(NewUserMessage(content, ""))

	want := strings.Repeat("é", 50) + "..."
	if sess.Title != want {
		t.Errorf("Title = %q, want %q", sess.Title, want)
	}
}

func TestTitleDerivation_OnlyOnce(t *testing.T) {
	sess := NewChatSession()
	sess.Append(NewUserMessage("first question", ""))
	sess.Append(NewAssistantPlaceholder("test-model"))
	sess.Append(NewUserMessage("second question", ""))

	if sess.Title != "first question" {
		t.Errorf("Title = %q, want title from first user message", sess.Title)
	}
}

func TestTitleDerivation_SkipsAssistantMessages(t *testing.T) {
	sess := NewChatSession()
	sess.Append(NewAssistantPlaceholder("test-model"))

	if sess.Title != DefaultTitle {
		t.Errorf("Title = %q, want placeholder %q", sess.Title, DefaultTitle)
	}
}

func TestTitleDerivation_AfterExplicitRename(t *testing.T) {
	sess := NewChatSession()
	sess.Title = "My Custom Title"
	sess.Append(NewUserMessage("hello there", ""))

	if sess.Title != "My Custom Title" {
		t.Errorf("Title = %q, explicit title must be stable", sess.Title)
	}
}

// =============================================================================
// APPEND INVARIANT TESTS
// =============================================================================

func TestAppend_LastMessageTracksContent(t *testing.T) {
	sess := NewChatSession()

	contents := []string{"one", "two", "three"}
	for i, c := range contents {
		sess.Append(NewUserMessage(c, ""))
		if sess.LastMessage != c {
			t.Errorf("LastMessage = %q after append %d, want %q", sess.LastMessage, i, c)
		}
		if sess.MessageCount() != i+1 {
			t.Errorf("MessageCount = %d, want %d", sess.MessageCount(), i+1)
		}
	}
}

func TestAppend_PlaceholderLeavesEmptyPreview(t *testing.T) {
	sess := NewChatSession()
	sess.Append(NewUserMessage("hi", ""))
	sess.Append(NewAssistantPlaceholder("test-model"))

	if sess.LastMessage != "" {
		t.Errorf("LastMessage = %q, want empty during fresh streaming start", sess.LastMessage)
	}
}

func TestMessageLookup(t *testing.T) {
	sess := NewChatSession()
	msg := NewUserMessage("findme", "")
	sess.Append(msg)

	if got := sess.MessageByID(msg.ID); got != msg {
		t.Error("MessageByID should return the appended message")
	}
	if got := sess.MessageIndex(msg.ID); got != 0 {
		t.Errorf("MessageIndex = %d, want 0", got)
	}
	if got := sess.MessageByID("missing"); got != nil {
		t.Error("MessageByID for unknown id should return nil")
	}
	if got := sess.MessageIndex("missing"); got != -1 {
		t.Errorf("MessageIndex for unknown id = %d, want -1", got)
	}
}

func TestClone_Deep(t *testing.T) {
	sess := NewChatSession()
	sess.Append(NewUserMessage("original", ""))

	clone := sess.Clone()
	clone.Messages[0].Content = "mutated"

	if sess.Messages[0].Content != "original" {
		t.Error("Clone must not share message storage with the original")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessagePreview(t *testing.T) {
	msg := NewUserMessage(strings.Repeat("x", 100), "")
	preview := msg.Preview(20)
	if len([]rune(preview)) != 20 {
		t.Errorf("Preview length = %d runes, want 20", len([]rune(preview)))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Preview = %q, want ellipsis suffix", preview)
	}
}

func TestNewAssistantPlaceholder(t *testing.T) {
	msg := NewAssistantPlaceholder("some/model")
	if !msg.Generating {
		t.Error("placeholder must start generating")
	}
	if msg.Role != RoleAssistant {
		t.Errorf("Role = %q, want assistant", msg.Role)
	}
	if msg.Model != "some/model" {
		t.Errorf("Model = %q, want some/model", msg.Model)
	}
	if !msg.IsEmpty() {
		t.Error("placeholder must start empty")
	}
}

func TestSettingsClone_Independent(t *testing.T) {
	s := Settings{MessageTemplates: []string{"a", "b"}}
	c := s.Clone()
	c.MessageTemplates[0] = "changed"
	if s.MessageTemplates[0] != "a" {
		t.Error("Clone must copy the templates slice")
	}
}
