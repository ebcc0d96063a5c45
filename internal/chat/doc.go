// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat coordinates generations: the request/response cycles that
// produce assistant messages.
//
// The Controller is a small state machine (Idle, Sending, Streaming) that
// owns at most one active generation at a time. It builds prompt context
// from the session store, drives the transport's streaming callbacks, and
// applies deltas back to the store in receive order. Cancellation is
// cooperative: the cancelled generation's callbacks are suppressed even if
// the underlying network call keeps delivering.
package chat
