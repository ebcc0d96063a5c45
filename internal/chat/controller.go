// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/pillow-tui/internal/model"
	"github.com/jeranaias/pillow-tui/internal/openrouter"
	"github.com/jeranaias/pillow-tui/internal/store"
)

// historyWindow bounds how many prior messages accompany a new send.
const historyWindow = 10

// Error variables for controller preconditions.
var (
	// ErrNotConfigured indicates no API key is set; nothing is mutated.
	ErrNotConfigured = errors.New("no API key configured")

	// ErrBusy indicates a generation is already in progress.
	ErrBusy = errors.New("a generation is already in progress")
)

// =============================================================================
// STATES AND EVENTS
// =============================================================================

// State is the controller's life-cycle state.
type State int

const (
	// StateIdle means no generation is active.
	StateIdle State = iota
	// StateSending means a request has been issued but no delta received.
	StateSending
	// StateStreaming means deltas are arriving.
	StateStreaming
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	default:
		return "idle"
	}
}

// EventType identifies a generation life-cycle event.
type EventType int

const (
	// EventStarted fires when a generation begins.
	EventStarted EventType = iota
	// EventDelta fires for each content delta applied to the store.
	EventDelta
	// EventCompleted fires when a generation finishes normally.
	EventCompleted
	// EventErrored fires when a generation fails.
	EventErrored
	// EventCancelled fires when a generation is cancelled.
	EventCancelled
)

// Event describes a generation life-cycle transition.
type Event struct {
	Type      EventType
	SessionID string
	MessageID string
	Delta     string
	Err       error
}

// Transport issues streaming chat completion requests.
type Transport interface {
	SendMessageStream(ctx context.Context, req openrouter.ChatRequest, h openrouter.StreamHandlers)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// generation tracks one in-flight request/response cycle, keyed by the
// (session, message) pair it streams into.
type generation struct {
	sessionID string
	messageID string
	cancel    context.CancelFunc
	cancelled atomic.Bool
	buf       strings.Builder
}

// Controller coordinates one active generation at a time.
type Controller struct {
	store     *store.Store
	transport Transport
	settings  func() model.Settings
	notify    func(Event)

	mu    sync.Mutex
	state State
	gen   *generation
}

// NewController creates a controller over the given store and transport.
// The settings func is called at the start of each generation; mid-stream
// settings edits do not affect an in-flight generation.
func NewController(st *store.Store, tr Transport, settings func() model.Settings) *Controller {
	return &Controller{
		store:     st,
		transport: tr,
		settings:  settings,
	}
}

// SetNotify registers the event sink. Events are delivered on the
// goroutine that produced them.
func (c *Controller) SetNotify(fn func(Event)) {
	c.mu.Lock()
	c.notify = fn
	c.mu.Unlock()
}

// State returns the current life-cycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generating reports whether a generation is active.
func (c *Controller) Generating() bool {
	return c.State() != StateIdle
}

// ActiveMessageID returns the message id the active generation streams
// into, or empty string when idle.
func (c *Controller) ActiveMessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == nil {
		return ""
	}
	return c.gen.messageID
}

func (c *Controller) emit(ev Event) {
	c.mu.Lock()
	fn := c.notify
	c.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// =============================================================================
// SEND
// =============================================================================

// Send starts a generation for the given user input, creating the active
// session if none exists. The attachment, when present, is an inline data
// reference sent as a multimodal content part.
func (c *Controller) Send(content, attachmentURL string) error {
	settings := c.settings()
	if !settings.IsConfigured() {
		return ErrNotConfigured
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	sess := c.store.ActiveOrNewSession()

	// Context window is captured before the new pair is appended.
	history := historyMessages(sess)

	userDraft := model.Message{
		Role:          model.RoleUser,
		Content:       content,
		AttachmentURL: attachmentURL,
	}
	c.store.AppendMessage(sess.ID, userDraft)

	placeholderID := c.store.AppendMessage(sess.ID, model.Message{
		Role:       model.RoleAssistant,
		Model:      settings.PreferredTextModel,
		Generating: true,
	})

	messages := make([]openrouter.ChatMessage, 0, len(history)+2)
	messages = append(messages, openrouter.NewSystemMessage(settings.SystemPrompt))
	messages = append(messages, history...)
	if attachmentURL != "" && settings.EnableImageAnalysis {
		messages = append(messages, openrouter.NewImageMessage(content, attachmentURL))
	} else {
		messages = append(messages, openrouter.NewUserMessage(content))
	}

	c.start(sess.ID, placeholderID, openrouter.ChatRequest{
		Model:       settings.PreferredTextModel,
		Messages:    messages,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
	return nil
}

// historyMessages returns the prompt context window for a session: the
// last historyWindow messages, minus any still generating, oldest-first.
func historyMessages(sess *model.ChatSession) []openrouter.ChatMessage {
	msgs := sess.Messages
	if len(msgs) > historyWindow {
		msgs = msgs[len(msgs)-historyWindow:]
	}

	out := make([]openrouter.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Generating {
			continue
		}
		out = append(out, openrouter.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

// =============================================================================
// REGENERATE
// =============================================================================

// Regenerate re-runs the generation that produced the given assistant
// message, streaming fresh content into the same message id. The target
// must exist in the active session, have the assistant role, and directly
// follow a user message; otherwise Regenerate is a silent no-op.
func (c *Controller) Regenerate(messageID string) error {
	settings := c.settings()
	if !settings.IsConfigured() {
		return ErrNotConfigured
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.mu.Unlock()

	sess := c.store.ActiveSession()
	if sess == nil {
		return nil
	}
	idx := sess.MessageIndex(messageID)
	if idx < 0 {
		return nil
	}
	target := sess.Messages[idx]
	if target.Role != model.RoleAssistant {
		return nil
	}
	if idx == 0 || sess.Messages[idx-1].Role != model.RoleUser {
		return nil
	}

	// Everything strictly before the target, oldest-first, unfiltered.
	messages := make([]openrouter.ChatMessage, 0, idx+1)
	messages = append(messages, openrouter.NewSystemMessage(settings.SystemPrompt))
	for _, m := range sess.Messages[:idx] {
		messages = append(messages, openrouter.ChatMessage{Role: string(m.Role), Content: m.Content})
	}

	empty := ""
	generating := true
	c.store.UpdateMessage(sess.ID, messageID, store.MessageUpdate{
		Content:    &empty,
		Generating: &generating,
	})

	c.start(sess.ID, messageID, openrouter.ChatRequest{
		Model:       settings.PreferredTextModel,
		Messages:    messages,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	})
	return nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel aborts the active generation. The generating flag flips off
// immediately and any partial content is kept; late callbacks from the
// cancelled generation are suppressed. No-op when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	g := c.gen
	if g == nil {
		c.mu.Unlock()
		return
	}
	g.cancelled.Store(true)
	c.gen = nil
	c.state = StateIdle

	generating := false
	c.store.UpdateMessage(g.sessionID, g.messageID, store.MessageUpdate{Generating: &generating})
	c.mu.Unlock()

	g.cancel()
	c.emit(Event{Type: EventCancelled, SessionID: g.sessionID, MessageID: g.messageID})
}

// =============================================================================
// STREAM CALLBACKS
// =============================================================================

// start launches the streaming request for a generation.
func (c *Controller) start(sessionID, messageID string, req openrouter.ChatRequest) {
	ctx, cancel := context.WithCancel(context.Background())
	g := &generation{
		sessionID: sessionID,
		messageID: messageID,
		cancel:    cancel,
	}

	c.mu.Lock()
	c.gen = g
	c.state = StateSending
	c.mu.Unlock()

	c.emit(Event{Type: EventStarted, SessionID: sessionID, MessageID: messageID})

	go c.transport.SendMessageStream(ctx, req, openrouter.StreamHandlers{
		OnDelta:    func(delta string) { c.onDelta(g, delta) },
		OnComplete: func() { c.onComplete(g) },
		OnError:    func(err error) { c.onError(g, err) },
	})
}

func (c *Controller) onDelta(g *generation, delta string) {
	c.mu.Lock()
	if g.cancelled.Load() {
		c.mu.Unlock()
		return
	}
	if c.gen == g && c.state == StateSending {
		c.state = StateStreaming
	}
	g.buf.WriteString(delta)
	content := g.buf.String()
	c.store.UpdateMessage(g.sessionID, g.messageID, store.MessageUpdate{Content: &content})
	c.mu.Unlock()

	c.emit(Event{Type: EventDelta, SessionID: g.sessionID, MessageID: g.messageID, Delta: delta})
}

func (c *Controller) onComplete(g *generation) {
	c.mu.Lock()
	if g.cancelled.Load() {
		c.mu.Unlock()
		return
	}
	if c.gen == g {
		c.gen = nil
		c.state = StateIdle
	}
	generating := false
	c.store.UpdateMessage(g.sessionID, g.messageID, store.MessageUpdate{Generating: &generating})
	c.mu.Unlock()

	c.emit(Event{Type: EventCompleted, SessionID: g.sessionID, MessageID: g.messageID})
}

func (c *Controller) onError(g *generation, err error) {
	c.mu.Lock()
	if g.cancelled.Load() {
		c.mu.Unlock()
		return
	}
	if c.gen == g {
		c.gen = nil
		c.state = StateIdle
	}
	content := "Error: " + err.Error()
	generating := false
	c.store.UpdateMessage(g.sessionID, g.messageID, store.MessageUpdate{
		Content:    &content,
		Generating: &generating,
	})
	c.mu.Unlock()

	c.emit(Event{Type: EventErrored, SessionID: g.sessionID, MessageID: g.messageID, Err: err})
}
