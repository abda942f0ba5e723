package chat

import (
	"time"

	"github.com/google/uuid"
)

// Status is the conversation lifecycle state. Only Active and Closed take
// part in the transitions below; Pending and Archived are managed outside
// this core but must survive persistence round-trips unchanged.
type Status string

const (
	StatusActive   Status = "active"
	StatusClosed   Status = "closed"
	StatusPending  Status = "pending"
	StatusArchived Status = "archived"
)

// Conversation is the aggregate root: all invariant-enforcing mutations go
// through it. It buffers the domain events those mutations produce until
// TakeEvents drains them.
type Conversation struct {
	ID         uuid.UUID
	ShopID     uuid.UUID
	CustomerID uuid.UUID
	AgentID    *uuid.UUID
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ClosedAt   *time.Time
	Messages   []Message

	pending []DomainEvent
}

// Open constructs a fresh active conversation with no messages and no
// pending events.
func Open(id, shopID, customerID uuid.UUID, now time.Time) *Conversation {
	return &Conversation{
		ID:         id,
		ShopID:     shopID,
		CustomerID: customerID,
		Status:     StatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Rehydrate rebuilds an aggregate from persisted state without emitting
// events. Used by the repository when loading rows.
func Rehydrate(id, shopID, customerID uuid.UUID, agentID *uuid.UUID, status Status, createdAt, updatedAt time.Time, closedAt *time.Time, messages []Message) *Conversation {
	return &Conversation{
		ID:         id,
		ShopID:     shopID,
		CustomerID: customerID,
		AgentID:    agentID,
		Status:     status,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
		ClosedAt:   closedAt,
		Messages:   messages,
	}
}

// AppendMessage adds a message while the conversation is active and buffers
// a MessageAppended event. Any other status is an invalid transition and
// leaves the aggregate untouched.
func (c *Conversation) AppendMessage(msg Message) error {
	if c.Status != StatusActive {
		return &InvalidStateError{Status: c.Status, Operation: "append message to"}
	}
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = msg.CreatedAt
	c.record(MessageAppended{Conversation: c.ID, MessageID: msg.ID})
	return nil
}

// Close transitions Active or Pending to Closed. Closing an already closed
// conversation fails rather than silently succeeding.
func (c *Conversation) Close(now time.Time) error {
	if c.Status != StatusActive && c.Status != StatusPending {
		return &InvalidStateError{Status: c.Status, Operation: "close"}
	}
	c.Status = StatusClosed
	c.ClosedAt = &now
	c.UpdatedAt = now
	c.record(ConversationClosed{Conversation: c.ID})
	return nil
}

// Reopen transitions Closed back to Active and clears ClosedAt. Reopening
// an already active conversation is an invalid transition, not a no-op.
func (c *Conversation) Reopen(now time.Time) error {
	if c.Status != StatusClosed {
		return &InvalidStateError{Status: c.Status, Operation: "reopen"}
	}
	c.Status = StatusActive
	c.ClosedAt = nil
	c.UpdatedAt = now
	c.record(ConversationReopened{Conversation: c.ID})
	return nil
}

// TakeEvents drains and returns the pending-event buffer. Repeated calls
// without intervening mutation return nil.
func (c *Conversation) TakeEvents() []DomainEvent {
	evts := c.pending
	c.pending = nil
	return evts
}

func (c *Conversation) record(e DomainEvent) {
	c.pending = append(c.pending, e)
}
