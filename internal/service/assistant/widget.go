package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
	chatservice "github.com/gabrieljoian/portfolio/backend/internal/service/chat"
)

// ErrClosed is reported for a request that resolved after teardown.
var ErrClosed = errors.New("assistant widget closed")

// Completer produces one assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, system string, history []chat.Message) (string, error)
}

// Options configures a Widget.
type Options struct {
	ID           string
	PersonaID    string
	Greeting     string
	SystemPrompt string
	Completer    Completer
}

// Widget owns one conversation and its Session UI State. All commands are
// safe for concurrent use; busy guarantees at most one request in flight.
type Widget struct {
	id        string
	personaID string
	system    string
	completer Completer

	conversation *chatservice.Conversation
	events       *hub

	mu        sync.Mutex
	panelOpen bool
	draft     string
	busy      bool
	closed    bool
}

// State is a render snapshot of a widget.
type State struct {
	ID        string         `json:"id"`
	PersonaID string         `json:"personaId"`
	PanelOpen bool           `json:"panelOpen"`
	Draft     string         `json:"draft"`
	Busy      bool           `json:"busy"`
	CanSubmit bool           `json:"canSubmit"`
	Messages  []chat.Message `json:"messages"`
}

// New creates a widget seeded with the greeting.
func New(opts Options) *Widget {
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}

	w := &Widget{
		id:           id,
		personaID:    opts.PersonaID,
		system:       opts.SystemPrompt,
		completer:    opts.Completer,
		conversation: chatservice.NewConversation(opts.Greeting),
		events:       newHub(),
	}
	w.conversation.OnAppend(w.announceAppend)
	return w
}

func (w *Widget) announceAppend(msg chat.Message, index int) {
	w.events.publish(Event{Type: EventAppend, Message: &msg, Index: index})
	w.events.publish(Event{Type: EventScroll, Index: index})
}

// ID returns the widget identifier.
func (w *Widget) ID() string { return w.id }

// PersonaID returns the persona the widget was mounted with.
func (w *Widget) PersonaID() string { return w.personaID }

// Toggle flips panel visibility and returns the new value.
func (w *Widget) Toggle() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.panelOpen = !w.panelOpen
	w.events.publish(Event{Type: EventPanel, PanelOpen: w.panelOpen})
	return w.panelOpen
}

// SetOpen shows or hides the panel.
func (w *Widget) SetOpen(open bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.panelOpen == open {
		return
	}
	w.panelOpen = open
	w.events.publish(Event{Type: EventPanel, PanelOpen: open})
}

// UpdateDraft replaces the input buffer. Editing is allowed while busy.
func (w *Widget) UpdateDraft(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.draft == text {
		return
	}
	w.draft = text
	w.events.publish(Event{Type: EventDraft, Draft: text})
}

// Draft returns the current input buffer.
func (w *Widget) Draft() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Subscribers reports how many surfaces are attached to the widget.
func (w *Widget) Subscribers() int {
	return w.events.count()
}

// Busy reports whether a request is in flight.
func (w *Widget) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

// Messages returns the conversation in order.
func (w *Widget) Messages() []chat.Message {
	return w.conversation.All()
}

// State returns a consistent snapshot for rendering.
func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	return State{
		ID:        w.id,
		PersonaID: w.personaID,
		PanelOpen: w.panelOpen,
		Draft:     w.draft,
		Busy:      w.busy,
		CanSubmit: !w.busy && strings.TrimSpace(w.draft) != "",
		Messages:  w.conversation.All(),
	}
}

// Subscribe returns a channel of widget events and a function releasing it.
// The channel is closed on release or teardown.
func (w *Widget) Subscribe() (<-chan Event, func()) {
	return w.events.subscribe()
}

// Close tears the widget down. Later submissions are rejected and a reply
// that arrives afterwards is discarded.
func (w *Widget) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.events.close()
}
