package assistant

import (
	"log"
	"sync"

	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
)

// EventType names a change the Presentation Surface should react to.
type EventType string

const (
	EventAppend       EventType = "append"
	EventScroll       EventType = "scroll"
	EventBusy         EventType = "busy"
	EventPanel        EventType = "panel"
	EventDraft        EventType = "draft"
	EventNotification EventType = "notification"
)

// Event is published to every subscriber of a widget.
type Event struct {
	Type         EventType     `json:"type"`
	Message      *chat.Message `json:"message,omitempty"`
	Index        int           `json:"index,omitempty"`
	Busy         bool          `json:"busy,omitempty"`
	PanelOpen    bool          `json:"panelOpen,omitempty"`
	Draft        string        `json:"draft,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// Notification is a transient, dismissible message for the visitor.
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

const subscriberBuffer = 64

type hub struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Event
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Event)}
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.next
	h.next++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// publish never blocks; a subscriber that stopped draining loses events.
func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[assistant] subscriber %d is full, dropping %s event", id, ev.Type)
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
