// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the terminal interface for pillow.
//
// The interface is a single Bubble Tea model: a scrollback viewport over
// the active conversation, a one-line input field, and a status bar. The
// chat controller runs generations on its own goroutines and reports
// life-cycle events through the Bubble Tea program's Send method, so the
// model only ever reads store state on its own update loop.
package ui
