// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides the in-memory session store, the single owner of
// all session and message mutation.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/pillow-tui/internal/model"
)

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds every chat session plus the active-session reference. All
// mutation goes through Store methods under a single mutex; readers receive
// cloned sessions so the streaming goroutine can never race a render.
//
// Operations are total: a missing session or message id is a silent no-op
// rather than an error.
type Store struct {
	mu       sync.RWMutex
	sessions []*model.ChatSession
	activeID string
	subs     []func()
}

// New creates an empty store.
func New() *Store {
	return &Store{}
}

// Subscribe registers a callback invoked after every mutation. Callbacks run
// outside the store lock and must not mutate the store re-entrantly from
// another goroutine without expecting their own notification.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// notify calls subscribers outside the lock.
func (s *Store) notify() {
	s.mu.RLock()
	subs := append(([]func())(nil), s.subs...)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn()
	}
}

// =============================================================================
// SESSION LIFECYCLE
// =============================================================================

// NewSession creates an empty session, makes it active, and returns a clone.
func (s *Store) NewSession() *model.ChatSession {
	sess := model.NewChatSession()

	s.mu.Lock()
	s.sessions = append(s.sessions, sess)
	s.activeID = sess.ID
	s.mu.Unlock()

	s.notify()
	return sess.Clone()
}

// DeleteSession removes a session. If it was the active session the active
// reference is cleared, restoring referential integrity.
func (s *Store) DeleteSession(id string) {
	s.mu.Lock()
	found := false
	for i, sess := range s.sessions {
		if sess.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			found = true
			break
		}
	}
	if found && s.activeID == id {
		s.activeID = ""
	}
	s.mu.Unlock()

	if found {
		s.notify()
	}
}

// RenameSession sets an explicit title. Once renamed, the title is no longer
// subject to auto-derivation (the placeholder check no longer matches).
func (s *Store) RenameSession(id, title string) {
	s.mu.Lock()
	sess := s.lookup(id)
	if sess != nil {
		sess.Title = title
	}
	s.mu.Unlock()

	if sess != nil {
		s.notify()
	}
}

// SetActive switches the active session. Ignored if the id does not resolve,
// so the active reference always points at an existing session or nothing.
func (s *Store) SetActive(id string) {
	s.mu.Lock()
	changed := false
	if id == "" {
		changed = s.activeID != ""
		s.activeID = ""
	} else if s.lookup(id) != nil {
		changed = s.activeID != id
		s.activeID = id
	}
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// ActiveID returns the active session id, or "" if none.
func (s *Store) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveSession returns a clone of the active session, or nil.
func (s *Store) ActiveSession() *model.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess := s.lookup(s.activeID); sess != nil {
		return sess.Clone()
	}
	return nil
}

// ActiveOrNewSession returns a clone of the active session, creating and
// activating a fresh one if there is no active session.
func (s *Store) ActiveOrNewSession() *model.ChatSession {
	if sess := s.ActiveSession(); sess != nil {
		return sess
	}
	return s.NewSession()
}

// Session returns a clone of the session with the given id, or nil.
func (s *Store) Session(id string) *model.ChatSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sess := s.lookup(id); sess != nil {
		return sess.Clone()
	}
	return nil
}

// Sessions returns cloned sessions ordered most-recently-updated first.
func (s *Store) Sessions() []*model.ChatSession {
	s.mu.RLock()
	out := make([]*model.ChatSession, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.Clone()
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Count returns the number of sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Replace installs a previously persisted session list and active reference,
// clearing the active id if it no longer resolves to a session.
func (s *Store) Replace(sessions []*model.ChatSession, activeID string) {
	s.mu.Lock()
	s.sessions = sessions
	s.activeID = ""
	for _, sess := range sessions {
		if sess.ID == activeID {
			s.activeID = activeID
			break
		}
	}
	s.mu.Unlock()

	s.notify()
}

// =============================================================================
// MESSAGE MUTATION
// =============================================================================

// MessageUpdate is a field-level partial update. Nil fields are left alone.
type MessageUpdate struct {
	Content    *string
	Generating *bool
	Model      *string
}

// AppendMessage assigns an id and timestamp to the draft, appends it to the
// session, and recomputes the derived summary per the session invariants.
// Returns the new message id, or "" if the session does not exist.
func (s *Store) AppendMessage(sessionID string, draft model.Message) string {
	msg := draft
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.CreatedAt = time.Now()

	s.mu.Lock()
	sess := s.lookup(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return ""
	}
	sess.Append(&msg)
	s.mu.Unlock()

	s.notify()
	return msg.ID
}

// UpdateMessage merges non-nil fields into an existing message. When the
// target is the session's last message and its content changes, the session's
// last-message preview is refreshed so the summary never drifts from the
// canonical list. No-op if either id does not resolve.
func (s *Store) UpdateMessage(sessionID, messageID string, upd MessageUpdate) {
	s.mu.Lock()
	sess := s.lookup(sessionID)
	if sess == nil {
		s.mu.Unlock()
		return
	}
	msg := sess.MessageByID(messageID)
	if msg == nil {
		s.mu.Unlock()
		return
	}

	if upd.Content != nil {
		msg.Content = *upd.Content
		if last := sess.LastMessageRef(); last != nil && last.ID == messageID {
			sess.LastMessage = msg.Content
		}
	}
	if upd.Generating != nil {
		msg.Generating = *upd.Generating
	}
	if upd.Model != nil {
		msg.Model = *upd.Model
	}
	s.mu.Unlock()

	s.notify()
}

// =============================================================================
// HELPERS
// =============================================================================

// lookup returns the live session pointer for an id. Caller must hold the lock.
func (s *Store) lookup(id string) *model.ChatSession {
	if id == "" {
		return nil
	}
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess
		}
	}
	return nil
}
