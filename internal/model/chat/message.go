package chat

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleSystem only ever appears in outbound completion payloads.
	RoleSystem Role = "system"
)

// Message is a single immutable turn of a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewMessage stamps a message with an identifier and creation time.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// UserMessage builds a user-authored message.
func UserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// AssistantMessage builds an assistant-authored message.
func AssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}
