package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	domain "github.com/relaydesk/relaydesk-backend/internal/domain/chat"
)

// ConversationRow is the persisted form of the aggregate root. Saves are
// full-row overwrites; there is no version column (last write wins).
type ConversationRow struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ShopID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"shop_id"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index" json:"customer_id"`
	AgentID    *uuid.UUID `gorm:"type:uuid" json:"agent_id,omitempty"`

	Status string `gorm:"not null;default:'active';index" json:"status"`

	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time  `gorm:"not null" json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

func (ConversationRow) TableName() string { return "conversation" }

// MessageRow stores messages in their own table so the read path can page
// them without loading whole conversations. DeletedAt is the soft-delete
// marker; hard deletes remove the row with Unscoped.
type MessageRow struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index" json:"conversation_id"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_id"`
	SenderType     string    `gorm:"not null;index" json:"sender_type"`

	Content     string         `gorm:"type:text;not null" json:"content"`
	MessageType string         `gorm:"not null;default:'text'" json:"message_type"`
	Metadata    datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (MessageRow) TableName() string { return "chat_message" }

func conversationRow(c *domain.Conversation) *ConversationRow {
	return &ConversationRow{
		ID:         c.ID,
		ShopID:     c.ShopID,
		CustomerID: c.CustomerID,
		AgentID:    c.AgentID,
		Status:     string(c.Status),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		ClosedAt:   c.ClosedAt,
	}
}

func messageRow(m domain.Message) (*MessageRow, error) {
	meta := m.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, err
	}
	return &MessageRow{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderType:     string(m.SenderType),
		Content:        m.Content,
		MessageType:    m.MessageType,
		Metadata:       datatypes.JSON(raw),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.CreatedAt,
	}, nil
}

func (r *MessageRow) toDomain() domain.Message {
	var meta map[string]any
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &meta)
	}
	return domain.Message{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		SenderType:     domain.SenderType(r.SenderType),
		Content:        r.Content,
		MessageType:    r.MessageType,
		Metadata:       meta,
		CreatedAt:      r.CreatedAt,
	}
}

func (r *ConversationRow) toDomain(messages []domain.Message) *domain.Conversation {
	return domain.Rehydrate(
		r.ID, r.ShopID, r.CustomerID, r.AgentID,
		domain.Status(r.Status),
		r.CreatedAt, r.UpdatedAt, r.ClosedAt,
		messages,
	)
}
