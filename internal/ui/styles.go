// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// COLOR PALETTE
// =============================================================================

// All colors use Lip Gloss AdaptiveColor for automatic light/dark detection.

// Lavender - Primary accent, assistant messages, brand
var Lavender = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#B4A7F5"}

// Sky - User messages, input prompt
var Sky = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#7DD3FC"}

// Rose - Errors, transient notices
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - In-flight generation indicator
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// SurfaceDim - Header and status bar background
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, session list entries
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Timestamps, hints
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for the application. It detects the
// terminal's color capability once at startup.
type Theme struct {
	IsDark  bool
	Profile termenv.Profile

	Header       lipgloss.Style
	HeaderBrand  lipgloss.Style
	SessionTitle lipgloss.Style
	ModelName    lipgloss.Style

	RoleUser      lipgloss.Style
	RoleAssistant lipgloss.Style
	Timestamp     lipgloss.Style
	Attachment    lipgloss.Style
	ErrorText     lipgloss.Style

	InputPrompt lipgloss.Style

	StatusBar    lipgloss.Style
	StatusState  lipgloss.Style
	Notice       lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style
}

// NewTheme creates a theme with all styles configured.
func NewTheme() *Theme {
	t := &Theme{
		IsDark:  termenv.HasDarkBackground(),
		Profile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.HeaderBrand = lipgloss.NewStyle().
		Bold(true).
		Foreground(Lavender)

	t.SessionTitle = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ModelName = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.RoleUser = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)

	t.RoleAssistant = lipgloss.NewStyle().
		Bold(true).
		Foreground(Lavender)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Attachment = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ErrorText = lipgloss.NewStyle().
		Foreground(Rose)

	t.InputPrompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusState = lipgloss.NewStyle().
		Bold(true).
		Foreground(Amber)

	t.Notice = lipgloss.NewStyle().
		Bold(true).
		Foreground(Rose)

	t.ShortcutKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(Sky)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Lavender)
}
