package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
)

// EnvelopeVersion tags the wire format; there is no schema versioning
// beyond it.
const EnvelopeVersion = "v1"

const (
	TypeMessageAppended      = "domain.event.message_appended"
	TypeMessageUpdated       = "domain.event.message_updated"
	TypeMessageDeleted       = "domain.event.message_deleted"
	TypeConversationOpened   = "domain.event.conversation_opened"
	TypeConversationClosed   = "domain.event.conversation_closed"
	TypeConversationReopened = "domain.event.conversation_reopened"
)

// Envelope is the durable, wire-serialized wrapper around a domain event.
// It is what the event log stores and what WebSocket subscribers receive.
type Envelope struct {
	Version   string         `json:"version"`
	EventID   string         `json:"event_id"`
	Type      string         `json:"type"`
	EmittedAt string         `json:"emitted_at"`
	Data      map[string]any `json:"data"`
}

// TypeFor maps a domain event kind to its fixed wire type tag.
func TypeFor(event chat.DomainEvent) (string, bool) {
	switch event.(type) {
	case chat.MessageAppended:
		return TypeMessageAppended, true
	case chat.MessageUpdated:
		return TypeMessageUpdated, true
	case chat.MessageDeleted:
		return TypeMessageDeleted, true
	case chat.ConversationOpened:
		return TypeConversationOpened, true
	case chat.ConversationClosed:
		return TypeConversationClosed, true
	case chat.ConversationReopened:
		return TypeConversationReopened, true
	}
	return "", false
}

// Serialize builds the envelope for one logical occurrence of event. The
// event id and timestamp are assigned here, not when the domain event was
// created, so callers must serialize exactly once per occurrence.
//
// msg is the enrichment context: appended/updated envelopes embed the full
// current message under data.message. Deleted envelopes never embed the
// message (its content may already be gone and must not be re-broadcast).
func Serialize(event chat.DomainEvent, msg *chat.Message, now time.Time) Envelope {
	typ, _ := TypeFor(event)
	env := Envelope{
		Version:   EnvelopeVersion,
		EventID:   uuid.NewString(),
		Type:      typ,
		EmittedAt: now.UTC().Format(time.RFC3339),
		Data:      map[string]any{"conversation_id": event.ConversationID().String()},
	}

	switch e := event.(type) {
	case chat.MessageAppended:
		env.Data["message_id"] = e.MessageID.String()
		if msg != nil {
			env.Data["message"] = messagePayload(*msg)
		}
	case chat.MessageUpdated:
		env.Data["message_id"] = e.MessageID.String()
		if msg != nil {
			env.Data["message"] = messagePayload(*msg)
		}
	case chat.MessageDeleted:
		env.Data["message_id"] = e.MessageID.String()
		env.Data["soft"] = e.Soft
	}
	return env
}

func messagePayload(m chat.Message) map[string]any {
	payload := map[string]any{
		"id":              m.ID.String(),
		"conversation_id": m.ConversationID.String(),
		"sender_id":       m.SenderID.String(),
		"sender_type":     string(m.SenderType),
		"content":         m.Content,
		"message_type":    m.MessageType,
		"created_at":      m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(m.Metadata) > 0 {
		payload["metadata"] = m.Metadata
	}
	return payload
}
