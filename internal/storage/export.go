// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jeranaias/pillow-tui/internal/model"
)

// =============================================================================
// SESSION EXPORT
// =============================================================================

// ExportMarkdown renders a session as a Markdown document with role
// labels and timestamps.
func ExportMarkdown(sess *model.ChatSession) string {
	var sb strings.Builder
	sb.WriteString("# " + sess.Title + "\n\n")
	sb.WriteString("Updated: " + sess.UpdatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range sess.Messages {
		sb.WriteString("**" + msg.Role.DisplayName() + "** (" + msg.CreatedAt.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		if msg.AttachmentURL != "" {
			sb.WriteString("\n\n[attached image]")
		}
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON renders a session as pretty-printed JSON.
func ExportJSON(sess *model.ChatSession) ([]byte, error) {
	return json.MarshalIndent(sess, "", "  ")
}
