// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory session state.
//
// Store is the single writer for all chat sessions: the UI and the chat
// controller mutate sessions only through it, and all reads return clones
// so callers never alias internal state. Subscribers are notified after
// every mutation; callbacks run synchronously on the mutating goroutine
// and must not call back into the mutation path.
package store
