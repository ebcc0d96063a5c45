// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists chat sessions and the active-session marker.
//
// Sessions live in a single SQLite database (~/.pillow/pillow.db), one row
// per session with the message list stored as a JSON blob. Persistence is
// best-effort: a failed save never crashes the core, it only logs. The
// Snapshotter watches the in-memory store and flushes dirty state on a
// debounce interval so rapid streaming deltas do not hammer the disk.
package storage
