// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pillow-tui/internal/model"
)

// =============================================================================
// APPEND INVARIANTS
// =============================================================================

func TestAppendMessage_PreviewAndCount(t *testing.T) {
	s := New()
	sess := s.NewSession()

	contents := []string{"first", "second", "third"}
	for i, c := range contents {
		id := s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: c})
		require.NotEmpty(t, id)

		got := s.Session(sess.ID)
		assert.Equal(t, c, got.LastMessage, "preview must equal just-appended content")
		assert.Equal(t, i+1, got.MessageCount())
	}
}

func TestAppendMessage_AssignsIDAndTimestamp(t *testing.T) {
	s := New()
	sess := s.NewSession()

	before := time.Now()
	id := s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "hi"})

	msg := s.Session(sess.ID).MessageByID(id)
	require.NotNil(t, msg)
	assert.False(t, msg.CreatedAt.Before(before))
}

func TestAppendMessage_MissingSessionIsNoOp(t *testing.T) {
	s := New()
	id := s.AppendMessage("nope", model.Message{Role: model.RoleUser, Content: "hi"})
	assert.Empty(t, id)
	assert.Zero(t, s.Count())
}

func TestAppendMessage_TitleDerivation(t *testing.T) {
	s := New()
	sess := s.NewSession()

	long := strings.Repeat("z", 60)
	s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: long})

	got := s.Session(sess.ID)
	assert.Equal(t, strings.Repeat("z", 50)+"...", got.Title)

	// A second user message never re-derives the title.
	s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "another"})
	assert.Equal(t, strings.Repeat("z", 50)+"...", s.Session(sess.ID).Title)
}

// =============================================================================
// UPDATE SEMANTICS
// =============================================================================

func TestUpdateMessage_PartialMerge(t *testing.T) {
	s := New()
	sess := s.NewSession()
	s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "q"})
	id := s.AppendMessage(sess.ID, model.Message{Role: model.RoleAssistant, Generating: true})

	content := "partial answer"
	s.UpdateMessage(sess.ID, id, MessageUpdate{Content: &content})

	msg := s.Session(sess.ID).MessageByID(id)
	assert.Equal(t, "partial answer", msg.Content)
	assert.True(t, msg.Generating, "untouched fields must survive the merge")

	done := false
	s.UpdateMessage(sess.ID, id, MessageUpdate{Generating: &done})
	msg = s.Session(sess.ID).MessageByID(id)
	assert.Equal(t, "partial answer", msg.Content)
	assert.False(t, msg.Generating)
}

func TestUpdateMessage_RefreshesPreviewForLastMessage(t *testing.T) {
	s := New()
	sess := s.NewSession()
	s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "q"})
	id := s.AppendMessage(sess.ID, model.Message{Role: model.RoleAssistant, Generating: true})

	content := "streamed text"
	s.UpdateMessage(sess.ID, id, MessageUpdate{Content: &content})

	assert.Equal(t, "streamed text", s.Session(sess.ID).LastMessage)
}

func TestUpdateMessage_MissingIDsAreNoOps(t *testing.T) {
	s := New()
	sess := s.NewSession()
	id := s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "stable"})

	content := "mutated"
	s.UpdateMessage("wrong-session", id, MessageUpdate{Content: &content})
	s.UpdateMessage(sess.ID, "wrong-message", MessageUpdate{Content: &content})

	assert.Equal(t, "stable", s.Session(sess.ID).MessageByID(id).Content)
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

func TestDeleteSession_ClearsActiveReference(t *testing.T) {
	s := New()
	sess := s.NewSession()
	require.Equal(t, sess.ID, s.ActiveID())

	s.DeleteSession(sess.ID)

	assert.Empty(t, s.ActiveID())
	assert.Nil(t, s.ActiveSession())
	assert.Zero(t, s.Count())
}

func TestDeleteSession_OtherSessionKeepsActive(t *testing.T) {
	s := New()
	first := s.NewSession()
	second := s.NewSession()

	s.DeleteSession(first.ID)

	assert.Equal(t, second.ID, s.ActiveID())
}

func TestSetActive_UnknownIDIgnored(t *testing.T) {
	s := New()
	sess := s.NewSession()

	s.SetActive("does-not-exist")

	assert.Equal(t, sess.ID, s.ActiveID())
}

func TestActiveOrNewSession_CreatesWhenAbsent(t *testing.T) {
	s := New()
	sess := s.ActiveOrNewSession()
	require.NotNil(t, sess)
	assert.Equal(t, sess.ID, s.ActiveID())
	assert.Equal(t, 1, s.Count())

	// Second call reuses the active session.
	again := s.ActiveOrNewSession()
	assert.Equal(t, sess.ID, again.ID)
	assert.Equal(t, 1, s.Count())
}

func TestSessions_MostRecentlyUpdatedFirst(t *testing.T) {
	s := New()
	older := s.NewSession()
	newer := s.NewSession()

	// Appending to the older session makes it the most recently updated.
	time.Sleep(time.Millisecond)
	s.AppendMessage(older.ID, model.Message{Role: model.RoleUser, Content: "bump"})

	list := s.Sessions()
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)
}

func TestReplace_ClearsDanglingActive(t *testing.T) {
	s := New()
	kept := model.NewChatSession()

	s.Replace([]*model.ChatSession{kept}, "gone")

	assert.Empty(t, s.ActiveID())

	s.Replace([]*model.ChatSession{kept}, kept.ID)
	assert.Equal(t, kept.ID, s.ActiveID())
}

func TestRenameSession(t *testing.T) {
	s := New()
	sess := s.NewSession()

	s.RenameSession(sess.ID, "Renamed")
	assert.Equal(t, "Renamed", s.Session(sess.ID).Title)

	// Auto-derivation must not overwrite an explicit title.
	s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "hello"})
	assert.Equal(t, "Renamed", s.Session(sess.ID).Title)
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

func TestSubscribe_NotifiedOnMutation(t *testing.T) {
	s := New()
	var fired int
	s.Subscribe(func() { fired++ })

	sess := s.NewSession()
	s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "x"})
	s.RenameSession(sess.ID, "t")
	s.DeleteSession(sess.ID)

	assert.Equal(t, 4, fired)
}

func TestClonedReads_DoNotAliasStore(t *testing.T) {
	s := New()
	sess := s.NewSession()
	id := s.AppendMessage(sess.ID, model.Message{Role: model.RoleUser, Content: "original"})

	clone := s.Session(sess.ID)
	clone.MessageByID(id).Content = "tampered"

	assert.Equal(t, "original", s.Session(sess.ID).MessageByID(id).Content)
}
