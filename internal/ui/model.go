// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/pillow-tui/internal/chat"
	"github.com/jeranaias/pillow-tui/internal/config"
	"github.com/jeranaias/pillow-tui/internal/store"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ChatEventMsg carries a generation life-cycle event into the update loop.
// The controller's notify callback must wrap events in this type and deliver
// them via Program.Send; it must never touch the model directly.
type ChatEventMsg struct {
	Event chat.Event
}

// clearNoticeMsg expires the transient notice in the status bar.
type clearNoticeMsg struct {
	seq int
}

// noticeTTL is how long a transient notice stays visible.
const noticeTTL = 5 * time.Second

// inputCharLimit bounds a single outgoing message.
const inputCharLimit = 4000

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model for the chat interface.
type Model struct {
	store      *store.Store
	controller *chat.Controller
	cfg        *config.Manager

	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	keys     KeyMap
	theme    *Theme

	// Markdown renderer, rebuilt when the terminal width changes.
	renderer      *glamour.TermRenderer
	rendererWidth int

	width  int
	height int
	ready  bool

	notice    string
	noticeSeq int
}

// New creates the root model. The caller is responsible for routing
// controller events into the program via ChatEventMsg.
func New(st *store.Store, ctrl *chat.Controller, cfg *config.Manager) Model {
	theme := NewTheme()

	ti := textinput.New()
	ti.Placeholder = "Message Pillow..."
	ti.Prompt = theme.InputPrompt.Render("> ")
	ti.CharLimit = inputCharLimit
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return Model{
		store:      st,
		controller: ctrl,
		cfg:        cfg,
		input:      ti,
		spin:       sp,
		keys:       DefaultKeyMap(),
		theme:      theme,
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// setNotice installs a transient status-bar notice and returns the command
// that expires it. The sequence number keeps a stale expiry from clearing a
// newer notice.
func (m *Model) setNotice(text string) tea.Cmd {
	m.notice = text
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}
