// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(serverURL string) *Client {
	return NewClient("sk-or-test-key").WithBaseURL(serverURL)
}

func sseHandler(t *testing.T, deltas []string, sendDone bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-or-test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "Pillow AI" {
			t.Errorf("X-Title = %q", got)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, d := range deltas {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", d)
			flusher.Flush()
		}
		if sendDone {
			fmt.Fprint(w, "data: [DONE]\n\n")
			flusher.Flush()
		}
	}
}

func TestSendMessageStream_DeltasThenComplete(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{"Hello", ", ", "world"}, true))
	defer server.Close()

	c := newTestClient(server.URL)

	var got []string
	var completed, errored bool
	c.SendMessageStream(context.Background(), ChatRequest{
		Model:    "test/model",
		Messages: []ChatMessage{NewUserMessage("hi")},
	}, StreamHandlers{
		OnDelta:    func(s string) { got = append(got, s) },
		OnComplete: func() { completed = true },
		OnError:    func(err error) { errored = true },
	})

	if strings.Join(got, "") != "Hello, world" {
		t.Errorf("deltas = %v", got)
	}
	if !completed || errored {
		t.Errorf("completed=%v errored=%v, want completed only", completed, errored)
	}
}

func TestSendMessageStream_ImplicitCompletionAtEOF(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{"partial"}, false))
	defer server.Close()

	c := newTestClient(server.URL)

	var completed bool
	c.SendMessageStream(context.Background(), ChatRequest{Model: "m"}, StreamHandlers{
		OnComplete: func() { completed = true },
		OnError:    func(err error) { t.Errorf("unexpected error: %v", err) },
	})

	if !completed {
		t.Error("stream ending at EOF without [DONE] must complete")
	}
}

func TestSendMessageStream_ErrorBodyExtracted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit exceeded","code":"429"}}`)
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	var gotErr error
	c.SendMessageStream(context.Background(), ChatRequest{Model: "m"}, StreamHandlers{
		OnComplete: func() { t.Error("unexpected completion") },
		OnError:    func(err error) { gotErr = err },
	})

	var apiErr *APIError
	if !errors.As(gotErr, &apiErr) {
		t.Fatalf("error = %v, want *APIError", gotErr)
	}
	if apiErr.Message != "rate limit exceeded" || apiErr.Status != 429 {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestSendMessageStream_ErrorFallbackToStatusLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	var gotErr error
	c.SendMessageStream(context.Background(), ChatRequest{Model: "m"}, StreamHandlers{
		OnError: func(err error) { gotErr = err },
	})

	var apiErr *APIError
	if !errors.As(gotErr, &apiErr) {
		t.Fatalf("error = %v, want *APIError", gotErr)
	}
	if !strings.Contains(apiErr.Message, "502") {
		t.Errorf("fallback message %q should carry the status line", apiErr.Message)
	}
}

func TestSendMessageStream_NotConfigured(t *testing.T) {
	c := NewClient("")

	var gotErr error
	c.SendMessageStream(context.Background(), ChatRequest{Model: "m"}, StreamHandlers{
		OnComplete: func() { t.Error("unexpected completion") },
		OnError:    func(err error) { gotErr = err },
	})

	if !errors.Is(gotErr, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", gotErr)
	}
}

func TestSendMessageStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(sseHandler(t, []string{"x"}, true))
	defer server.Close()

	var gotErr error
	newTestClient(server.URL).SendMessageStream(ctx, ChatRequest{Model: "m"}, StreamHandlers{
		OnComplete: func() { t.Error("unexpected completion") },
		OnError:    func(err error) { gotErr = err },
	})

	if !errors.Is(gotErr, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", gotErr)
	}
}

func TestSendMessage_ReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("non-streaming request must have stream=false")
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"the answer"}}]}`)
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).SendMessage(context.Background(), ChatRequest{
		Model:    "m",
		Messages: []ChatMessage{NewUserMessage("q")},
	})
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if got != "the answer" {
		t.Errorf("content = %q", got)
	}
}

func TestAnalyzeImage_MultipartPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"a cat"}}]}`)
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).AnalyzeImage(context.Background(), "vision/model", "describe", "data:image/png;base64,AAAA")
	if err != nil {
		t.Fatalf("AnalyzeImage() error = %v", err)
	}
	if got != "a cat" {
		t.Errorf("content = %q", got)
	}

	msgs := captured["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	if len(content) != 2 {
		t.Fatalf("content parts = %d, want 2", len(content))
	}
	text := content[0].(map[string]any)
	if text["type"] != "text" || text["text"] != "describe" {
		t.Errorf("text part = %v", text)
	}
	image := content[1].(map[string]any)
	if image["type"] != "image_url" {
		t.Errorf("image part type = %v", image["type"])
	}
	ref := image["image_url"].(map[string]any)
	if ref["url"] != "data:image/png;base64,AAAA" {
		t.Errorf("image url = %v", ref["url"])
	}
}

func TestSendMessage_NotConfigured(t *testing.T) {
	_, err := NewClient("  ").SendMessage(context.Background(), ChatRequest{Model: "m"})
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}
