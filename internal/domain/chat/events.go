package chat

import "github.com/google/uuid"

// DomainEvent is a transient fact produced by an aggregate mutation (or, for
// message edits/deletes, synthesized by the use case). It lives only until
// handed to the event publisher.
type DomainEvent interface {
	ConversationID() uuid.UUID
}

type MessageAppended struct {
	Conversation uuid.UUID
	MessageID    uuid.UUID
}

func (e MessageAppended) ConversationID() uuid.UUID { return e.Conversation }

type MessageUpdated struct {
	Conversation uuid.UUID
	MessageID    uuid.UUID
}

func (e MessageUpdated) ConversationID() uuid.UUID { return e.Conversation }

type MessageDeleted struct {
	Conversation uuid.UUID
	MessageID    uuid.UUID
	Soft         bool
}

func (e MessageDeleted) ConversationID() uuid.UUID { return e.Conversation }

type ConversationOpened struct {
	Conversation uuid.UUID
}

func (e ConversationOpened) ConversationID() uuid.UUID { return e.Conversation }

type ConversationClosed struct {
	Conversation uuid.UUID
}

func (e ConversationClosed) ConversationID() uuid.UUID { return e.Conversation }

type ConversationReopened struct {
	Conversation uuid.UUID
}

func (e ConversationReopened) ConversationID() uuid.UUID { return e.Conversation }
