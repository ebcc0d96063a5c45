// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/pillow-tui/internal/chat"
	"github.com/jeranaias/pillow-tui/internal/model"
	"github.com/jeranaias/pillow-tui/internal/util"
)

// maxTitleWidth bounds the session title shown in the header.
const maxTitleWidth = 40

// View renders the full interface.
func (m Model) View() string {
	if !m.ready {
		return "starting pillow..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.input.View(),
		m.renderStatusBar(),
	)
}

// =============================================================================
// HEADER
// =============================================================================

func (m Model) renderHeader() string {
	brand := m.theme.HeaderBrand.Render("Pillow AI")

	title := "New Chat"
	if sess := m.store.ActiveSession(); sess != nil && sess.Title != "" {
		title = util.CollapseSpace(sess.Title)
	}
	title = util.TruncateWidth(title, maxTitleWidth)

	modelName := m.theme.ModelName.Render(m.cfg.Current().PreferredTextModel)

	line := brand + "  " + m.theme.SessionTitle.Render(title) + "  " + modelName
	return m.theme.Header.Width(m.width).Render(line)
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders every message of the session for the viewport.
func (m Model) renderConversation(sess *model.ChatSession) string {
	if sess == nil || len(sess.Messages) == 0 {
		return m.renderWelcome()
	}

	var b strings.Builder
	for i, msg := range sess.Messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMessage(msg *model.Message) string {
	var label lipgloss.Style
	if msg.Role == model.RoleUser {
		label = m.theme.RoleUser
	} else {
		label = m.theme.RoleAssistant
	}

	header := label.Render(msg.Role.DisplayName()) + "  " +
		m.theme.Timestamp.Render(msg.CreatedAt.Format("15:04"))

	var body string
	switch {
	case msg.Generating && msg.Content == "":
		body = m.spin.View() + m.theme.Timestamp.Render(" thinking...")
	case msg.Role == model.RoleAssistant && strings.HasPrefix(msg.Content, "Error: "):
		body = m.theme.ErrorText.Render(msg.Content)
	case msg.Role == model.RoleAssistant && !msg.Generating:
		body = m.renderMarkdown(msg.Content)
	default:
		body = m.wrapPlain(msg.Content)
	}

	if msg.AttachmentURL != "" {
		body += "\n" + m.theme.Attachment.Render("[attached image]")
	}

	return header + "\n" + body
}

// renderMarkdown renders completed assistant replies through glamour.
// Streaming and user content stays plain so partial markdown never flickers
// through half-parsed states.
func (m Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return m.wrapPlain(content)
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return m.wrapPlain(content)
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) wrapPlain(content string) string {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	return lipgloss.NewStyle().Width(width).Render(content)
}

func (m Model) renderWelcome() string {
	lines := []string{
		"",
		m.theme.HeaderBrand.Render("  Welcome to Pillow AI"),
		"",
		m.theme.ShortcutDesc.Render("  Type a message and press Enter to start chatting."),
	}
	if !m.cfg.Current().IsConfigured() {
		lines = append(lines, "",
			m.theme.ErrorText.Render("  No API key configured."),
			m.theme.ShortcutDesc.Render("  Set OPENROUTER_API_KEY or add openrouter_api_key to ~/.pillow/config.toml."))
	}
	return strings.Join(lines, "\n")
}

// =============================================================================
// STATUS BAR
// =============================================================================

func (m Model) renderStatusBar() string {
	left := m.renderState()

	var right string
	if m.notice != "" {
		right = m.theme.Notice.Render(m.notice)
	} else {
		right = m.renderShortcuts()
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.StatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderState() string {
	switch m.controller.State() {
	case chat.StateSending:
		return m.theme.StatusState.Render(m.spin.View() + "sending")
	case chat.StateStreaming:
		return m.theme.StatusState.Render(m.spin.View() + "streaming")
	default:
		return fmt.Sprintf("%d chats", m.store.Count())
	}
}

func (m Model) renderShortcuts() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, m.theme.ShortcutKey.Render(h.Key)+" "+m.theme.ShortcutDesc.Render(h.Desc))
	}
	return strings.Join(parts, "  ")
}
