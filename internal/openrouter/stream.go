// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// STREAMING: Robust SSE parsing with partial-line buffering

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

// MaxFrameSize is the maximum allowed size for a single SSE frame (64KB).
const MaxFrameSize = 64 * 1024

// doneSentinel terminates an OpenRouter stream.
var doneSentinel = []byte("[DONE]")

// dataPrefix marks an SSE data frame.
var dataPrefix = []byte("data: ")

// =============================================================================
// STREAMING TYPES
// =============================================================================

// StreamChunk represents a single decoded chunk from a streaming response.
type StreamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Content returns the text from the first choice's delta.
func (c *StreamChunk) Content() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].Delta.Content
	}
	return ""
}

// FinishReason returns the finish reason from the first choice.
func (c *StreamChunk) FinishReason() string {
	if len(c.Choices) > 0 {
		return c.Choices[0].FinishReason
	}
	return ""
}

// StreamError represents an error that occurred mid-stream, preserving
// any partial content received before the failure.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error { return e.Err }

// =============================================================================
// SSE DECODER
// =============================================================================

// StreamDecoder incrementally decodes an OpenRouter SSE stream.
//
// Feed accepts raw bytes as they arrive from the network in arbitrary
// splits; a frame cut across two reads is buffered until its newline
// arrives. Malformed JSON frames are skipped without failing the stream.
// The decoder is done once it has seen "[DONE]", and Finish marks it done
// at EOF for servers that close without sending the sentinel.
type StreamDecoder struct {
	buf  bytes.Buffer
	done bool
}

// NewStreamDecoder creates a decoder ready to accept bytes.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Done reports whether the stream has terminated.
func (d *StreamDecoder) Done() bool { return d.done }

// Feed consumes raw bytes from the stream and returns the chunks decoded
// from every complete frame they finish. Bytes after a trailing partial
// line are retained for the next call. Once the decoder is done, further
// input is ignored.
func (d *StreamDecoder) Feed(data []byte) ([]StreamChunk, error) {
	if d.done {
		return nil, nil
	}

	d.buf.Write(data)
	if d.buf.Len() > MaxFrameSize {
		d.done = true
		return nil, fmt.Errorf("frame too large: %d bytes", d.buf.Len())
	}

	var chunks []StreamChunk
	for {
		raw := d.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			return chunks, nil
		}

		line := make([]byte, idx)
		copy(line, raw[:idx])
		d.buf.Next(idx + 1)

		chunk, ok := d.decodeLine(line)
		if d.done {
			return chunks, nil
		}
		if ok {
			chunks = append(chunks, chunk)
		}
	}
}

// Finish marks the decoder done. Streams that end at EOF without a
// "[DONE]" sentinel complete implicitly; calling Finish after the
// sentinel has already been seen is a no-op.
func (d *StreamDecoder) Finish() {
	d.done = true
}

// decodeLine parses one SSE line. Returns the decoded chunk and whether
// the line produced one; sets done when the sentinel is seen.
func (d *StreamDecoder) decodeLine(line []byte) (StreamChunk, bool) {
	line = bytes.TrimRight(line, "\r")

	// Blank lines separate events; comments and other fields are ignored.
	if !bytes.HasPrefix(line, dataPrefix) {
		return StreamChunk{}, false
	}

	payload := bytes.TrimSpace(line[len(dataPrefix):])
	if bytes.Equal(payload, doneSentinel) {
		d.done = true
		return StreamChunk{}, false
	}

	var chunk StreamChunk
	if err := json.Unmarshal(payload, &chunk); err != nil {
		// Skip malformed frames rather than abort the stream.
		return StreamChunk{}, false
	}
	return chunk, true
}
