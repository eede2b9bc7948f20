package chat

import (
	"sync"

	"github.com/gabrieljoian/portfolio/backend/internal/model/chat"
)

// AppendFunc observes every append. index is the position of msg in the log.
type AppendFunc func(msg chat.Message, index int)

// Conversation is the append-only message log owned by one widget.
// Messages are never removed or edited once appended.
type Conversation struct {
	mu       sync.RWMutex
	messages []chat.Message
	onAppend AppendFunc
}

// NewConversation seeds a conversation with the assistant greeting.
func NewConversation(greeting string) *Conversation {
	messages := make([]chat.Message, 0, 16)
	messages = append(messages, chat.AssistantMessage(greeting))
	return &Conversation{messages: messages}
}

// OnAppend registers the observer notified after each append. The observer
// runs synchronously on the appending goroutine.
func (c *Conversation) OnAppend(fn AppendFunc) {
	c.mu.Lock()
	c.onAppend = fn
	c.mu.Unlock()
}

// Append adds msg to the end of the log. It never fails.
func (c *Conversation) Append(msg chat.Message) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	index := len(c.messages) - 1
	observer := c.onAppend
	c.mu.Unlock()

	if observer != nil {
		observer(msg, index)
	}
}

// All returns the full ordered log. The returned slice is a copy.
func (c *Conversation) All() []chat.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()

	copied := make([]chat.Message, len(c.messages))
	copy(copied, c.messages)
	return copied
}
