// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the pillow-tui packages.
//
// String helpers are rune- and width-aware so truncation never splits a
// multi-byte UTF-8 sequence. File helpers write atomically with fsync so a
// crash mid-write leaves either the old file or the complete new one.
package util
