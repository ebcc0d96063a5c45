// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter implements the OpenRouter API client used for chat
// completions, streaming responses, and image analysis.
//
// OpenRouter fronts many LLM providers behind one OpenAI-compatible API.
// Streaming responses arrive as Server-Sent Events: newline-delimited
// "data: " frames carrying JSON chunks, terminated by a "[DONE]" sentinel.
// StreamDecoder handles the framing; Client handles transport, auth, and
// error mapping.
package openrouter
