// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/pillow-tui/internal/chat"
	"github.com/jeranaias/pillow-tui/internal/model"
)

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ChatEventMsg:
		return m.handleChatEvent(msg.Event)

	case spinner.TickMsg:
		if !m.controller.Generating() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		m.refreshViewport(false)
		return m, cmd

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// RESIZE
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Header, input line, and status bar each take one row.
	vpHeight := msg.Height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 4

	if msg.Width != m.rendererWidth {
		wrap := msg.Width - 2
		if wrap < 20 {
			wrap = 20
		}
		// Renderer construction can fail on exotic terminals; fall back to
		// plain text rendering in that case.
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err == nil {
			m.renderer = r
		}
		m.rendererWidth = msg.Width
	}

	m.refreshViewport(true)
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.controller.Generating() {
			m.controller.Cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		m.controller.Cancel()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.Regenerate):
		return m.handleRegenerate()

	case key.Matches(msg, m.keys.NewSession):
		if m.controller.Generating() {
			return m, m.setNotice("finish or stop the current response first")
		}
		m.store.NewSession()
		m.refreshViewport(true)
		return m, nil

	case key.Matches(msg, m.keys.PrevSess):
		return m.cycleSession(1), nil

	case key.Matches(msg, m.keys.NextSess):
		return m.cycleSession(-1), nil

	case key.Matches(msg, m.keys.Up),
		key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp),
		key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	err := m.controller.Send(text, "")
	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		return m, m.setNotice("no API key configured: set OPENROUTER_API_KEY or edit ~/.pillow/config.toml")
	case errors.Is(err, chat.ErrBusy):
		return m, m.setNotice("a response is already streaming")
	case err != nil:
		return m, m.setNotice(err.Error())
	}

	m.input.Reset()
	m.refreshViewport(true)
	return m, m.spin.Tick
}

// handleRegenerate re-runs the most recent assistant reply in the active
// session. The controller validates the target; an invalid one is a no-op.
func (m Model) handleRegenerate() (tea.Model, tea.Cmd) {
	if m.controller.Generating() {
		return m, m.setNotice("a response is already streaming")
	}
	sess := m.store.ActiveSession()
	if sess == nil {
		return m, nil
	}

	var target string
	for i := len(sess.Messages) - 1; i >= 0; i-- {
		if sess.Messages[i].Role == model.RoleAssistant {
			target = sess.Messages[i].ID
			break
		}
	}
	if target == "" {
		return m, nil
	}

	err := m.controller.Regenerate(target)
	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		return m, m.setNotice("no API key configured: set OPENROUTER_API_KEY or edit ~/.pillow/config.toml")
	case errors.Is(err, chat.ErrBusy):
		return m, m.setNotice("a response is already streaming")
	case err != nil:
		return m, m.setNotice(err.Error())
	}

	m.refreshViewport(true)
	return m, m.spin.Tick
}

// cycleSession moves the active session forward or backward through the
// most-recently-updated ordering. Switching is blocked mid-generation so the
// stream keeps writing into the session the user watched it start in.
func (m Model) cycleSession(step int) Model {
	if m.controller.Generating() {
		return m
	}
	sessions := m.store.Sessions()
	if len(sessions) < 2 {
		return m
	}

	active := m.store.ActiveID()
	idx := 0
	for i, s := range sessions {
		if s.ID == active {
			idx = i
			break
		}
	}
	next := (idx + step + len(sessions)) % len(sessions)
	m.store.SetActive(sessions[next].ID)
	m.refreshViewport(true)
	return m
}

// =============================================================================
// CONTROLLER EVENTS
// =============================================================================

func (m Model) handleChatEvent(ev chat.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case chat.EventStarted:
		m.refreshViewport(true)
		return m, m.spin.Tick

	case chat.EventDelta:
		m.refreshViewport(true)
		return m, nil

	case chat.EventErrored:
		m.refreshViewport(true)
		if ev.Err != nil {
			return m, m.setNotice(ev.Err.Error())
		}
		return m, nil

	case chat.EventCompleted, chat.EventCancelled:
		m.refreshViewport(true)
		return m, nil
	}
	return m, nil
}

// refreshViewport re-renders the active conversation into the viewport.
// When follow is true the view snaps to the bottom, tracking the stream.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderConversation(m.store.ActiveSession()))
	if follow {
		m.viewport.GotoBottom()
	}
}
