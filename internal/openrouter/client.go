// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Configuration constants for the OpenRouter API.
const (
	// DefaultBaseURL is the base URL for the OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultTimeout is the default timeout for non-streaming requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// requestsPerSecond caps outbound request rate. OpenRouter free-tier
	// models throttle aggressively; staying under 1 rps avoids 429 churn.
	requestsPerSecond = 1
	requestBurst      = 3
)

var (
	// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
	// Shared HTTP client for all non-streaming OpenRouter requests.
	sharedHTTPClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		Timeout: DefaultTimeout,
	}

	// sharedStreamingClient is used for streaming requests.
	// No timeout here; streaming lifetime is controlled via context.
	sharedStreamingClient = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
)

// ErrNotConfigured indicates the API key is not set.
var ErrNotConfigured = errors.New("OpenRouter API key not configured")

// APIError represents an error response from the OpenRouter API.
type APIError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("OpenRouter error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("OpenRouter error (HTTP %d): %s", e.Status, e.Message)
}

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// ChatMessage represents a single message in a chat completion request.
// Content is either a plain string or, for multimodal requests, a slice
// of ContentPart.
type ChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// NewUserMessage creates a user message with plain text content.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message with plain text content.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// NewSystemMessage creates a system message with plain text content.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// NewImageMessage creates a user message pairing a text prompt with an
// image reference (URL or data URL) for vision-capable models.
func NewImageMessage(prompt, imageURL string) ChatMessage {
	return ChatMessage{
		Role: "user",
		Content: []ContentPart{
			{Type: "text", Text: prompt},
			{Type: "image_url", ImageURL: &ImageRef{URL: imageURL}},
		},
	}
}

// ContentPart is one element of a multimodal message content array.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef holds an image URL or data URL.
type ImageRef struct {
	URL string `json:"url"`
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a non-streaming chat completions response.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Content returns the content of the first choice, or empty string.
func (r *ChatResponse) Content() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// apiErrorResponse represents an error body from the API.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the OpenRouter chat completions API.
type Client struct {
	apiKey   string
	baseURL  string
	siteURL  string
	siteName string
	limiter  *rate.Limiter
}

// NewClient creates a client with the given API key.
//
// The key is in the format "sk-or-..." as issued by OpenRouter. An empty
// key still yields a usable client, but requests fail with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:   strings.TrimSpace(apiKey),
		baseURL:  DefaultBaseURL,
		siteURL:  "https://pillow.local",
		siteName: "Pillow AI",
		limiter:  rate.NewLimiter(requestsPerSecond, requestBurst),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(url, "/")
	return c
}

// WithSite sets the HTTP-Referer and X-Title values OpenRouter uses for
// app attribution and rate limit categorization.
func (c *Client) WithSite(url, name string) *Client {
	c.siteURL = url
	c.siteName = name
	return c
}

// SetAPIKey replaces the API key, typically after a settings change.
func (c *Client) SetAPIKey(apiKey string) {
	c.apiKey = strings.TrimSpace(apiKey)
}

// IsConfigured returns true if the client has an API key.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// setHeaders sets the required headers for OpenRouter API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pillow/0.1.0")

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

// =============================================================================
// NON-STREAMING COMPLETIONS
// =============================================================================

// SendMessage performs a non-streaming chat completion and returns the
// assistant's full reply.
func (c *Client) SendMessage(ctx context.Context, req ChatRequest) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req.Stream = false

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := sharedHTTPClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.handleErrorResponse(resp, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	return chatResp.Content(), nil
}

// AnalyzeImage sends an image (by URL or data URL) with a text prompt to
// a vision-capable model and returns the model's description.
func (c *Client) AnalyzeImage(ctx context.Context, model, prompt, imageURL string) (string, error) {
	return c.SendMessage(ctx, ChatRequest{
		Model:    model,
		Messages: []ChatMessage{NewImageMessage(prompt, imageURL)},
	})
}

// =============================================================================
// STREAMING COMPLETIONS
// =============================================================================

// StreamHandlers receives streaming callbacks. After the final OnDelta,
// exactly one of OnComplete or OnError fires, then nothing else.
type StreamHandlers struct {
	OnDelta    func(content string)
	OnComplete func()
	OnError    func(err error)
}

// SendMessageStream performs a streaming chat completion, invoking
// handlers as content arrives. It blocks until the stream terminates;
// callers run it on a goroutine. Context cancellation aborts the stream
// and surfaces through OnError.
func (c *Client) SendMessageStream(ctx context.Context, req ChatRequest, h StreamHandlers) {
	if err := c.streamCompletion(ctx, req, h.OnDelta); err != nil {
		if h.OnError != nil {
			h.OnError(err)
		}
		return
	}
	if h.OnComplete != nil {
		h.OnComplete()
	}
}

// streamCompletion runs the HTTP exchange and decode loop for a stream.
func (c *Client) streamCompletion(ctx context.Context, req ChatRequest, onDelta func(string)) error {
	if !c.IsConfigured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req.Stream = true

	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := sharedStreamingClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		return c.handleErrorResponse(resp, body)
	}

	decoder := NewStreamDecoder()
	var received strings.Builder
	buf := make([]byte, 4096)

	for !decoder.Done() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			chunks, decErr := decoder.Feed(buf[:n])
			for _, chunk := range chunks {
				if content := chunk.Content(); content != "" {
					received.WriteString(content)
					if onDelta != nil {
						onDelta(content)
					}
				}
			}
			if decErr != nil {
				return &StreamError{Partial: received.String(), Err: decErr}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				// Streams that close without "[DONE]" complete implicitly.
				decoder.Finish()
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &StreamError{Partial: received.String(), Err: readErr}
		}
	}

	return nil
}

// =============================================================================
// ERROR HANDLING
// =============================================================================

// readResponse reads the response body with a size limit.
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts a non-2xx response into an APIError.
// The message is taken from the error body when present, otherwise from
// the HTTP status line.
func (c *Client) handleErrorResponse(resp *http.Response, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return &APIError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  resp.StatusCode,
		}
	}

	return &APIError{
		Message: resp.Status,
		Status:  resp.StatusCode,
	}
}
