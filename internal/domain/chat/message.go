package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SenderType distinguishes who authored a message.
type SenderType string

const (
	SenderCustomer SenderType = "customer"
	SenderAgent    SenderType = "agent"
)

// ParseSenderType validates a wire-level sender type string.
func ParseSenderType(s string) (SenderType, bool) {
	switch SenderType(strings.ToLower(strings.TrimSpace(s))) {
	case SenderCustomer:
		return SenderCustomer, true
	case SenderAgent:
		return SenderAgent, true
	}
	return "", false
}

// MessageType is a free-form kind tag ("text", "file", ...); "text" when unset.
const DefaultMessageType = "text"

// Message is a single conversation entry. Identity fields are fixed at
// construction; only Content may change afterwards, via the repository's
// update path.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	SenderType     SenderType
	Content        string
	MessageType    string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// NewMessage constructs a validated message. Content is trimmed; empty or
// whitespace-only content fails with ErrEmptyMessage.
func NewMessage(conversationID, senderID uuid.UUID, senderType SenderType, content, messageType string, now time.Time) (Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return Message{}, ErrEmptyMessage
	}
	if messageType == "" {
		messageType = DefaultMessageType
	}
	return Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		SenderType:     senderType,
		Content:        content,
		MessageType:    messageType,
		CreatedAt:      now,
	}, nil
}
