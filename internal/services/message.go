package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	chatrepo "github.com/relaydesk/relaydesk-backend/internal/data/repos/chat"
	"github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/events"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

type SendMessageInput struct {
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	SenderType     string
	Content        string
	MessageType    string
	Metadata       map[string]any
}

type MessageService interface {
	Send(ctx context.Context, in SendMessageInput) (*chat.Message, error)
	Update(ctx context.Context, id uuid.UUID, content string) (*chat.Message, error)
	Delete(ctx context.Context, id uuid.UUID, soft bool) error
	List(ctx context.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error)
}

type messageService struct {
	db            *gorm.DB
	conversations chatrepo.ConversationRepo
	messages      chatrepo.MessageRepo
	publisher     events.Publisher
	clock         func() time.Time
	log           *logger.Logger
}

func NewMessageService(db *gorm.DB, conversations chatrepo.ConversationRepo, messages chatrepo.MessageRepo, publisher events.Publisher, clock func() time.Time, log *logger.Logger) MessageService {
	if clock == nil {
		clock = time.Now
	}
	return &messageService{
		db:            db,
		conversations: conversations,
		messages:      messages,
		publisher:     publisher,
		clock:         clock,
		log:           log.With("service", "MessageService"),
	}
}

// Send appends a message through the aggregate. Load, mutate, and save run
// in one transaction so the conversation row and its message rows commit or
// roll back together; publish happens only after commit, so subscribers
// never observe an event for unpersisted state.
func (s *messageService) Send(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	var (
		msg  chat.Message
		evts []chat.DomainEvent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		conv, err := s.conversations.Find(dbc, in.ConversationID)
		if err != nil {
			return err
		}

		senderType, ok := chat.ParseSenderType(in.SenderType)
		if !ok {
			return fmt.Errorf("%w: %q", ErrInvalidSenderType, in.SenderType)
		}

		msg, err = chat.NewMessage(conv.ID, in.SenderID, senderType, in.Content, in.MessageType, s.clock().UTC())
		if err != nil {
			return err
		}
		msg.Metadata = in.Metadata

		if err := conv.AppendMessage(msg); err != nil {
			return err
		}
		evts = conv.TakeEvents()

		return s.conversations.Save(dbc, conv)
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, evts)

	return &msg, nil
}

// Update patches message content directly at the repository, bypassing the
// aggregate (edits do not change conversation-level invariants), and
// synthesizes the MessageUpdated event itself.
func (s *messageService) Update(ctx context.Context, id uuid.UUID, content string) (*chat.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}

	var (
		updated *chat.Message
		event   chat.MessageUpdated
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		msg, err := s.messages.Find(dbc, id)
		if err != nil {
			return err
		}
		if err := s.messages.UpdateContent(dbc, id, content); err != nil {
			return err
		}
		updated, err = s.messages.Find(dbc, id)
		if err != nil {
			return err
		}
		event = chat.MessageUpdated{Conversation: msg.ConversationID, MessageID: msg.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, []chat.DomainEvent{event})
	return updated, nil
}

// Delete removes a message, soft (marker) or hard (row gone), and
// synthesizes the MessageDeleted event. The lookup runs first to capture
// the conversation id for the event.
func (s *messageService) Delete(ctx context.Context, id uuid.UUID, soft bool) error {
	var event chat.MessageDeleted
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		msg, err := s.messages.Find(dbc, id)
		if err != nil {
			return err
		}

		if soft {
			err = s.messages.SoftDelete(dbc, id)
		} else {
			err = s.messages.HardDelete(dbc, id)
		}
		if err != nil {
			return err
		}
		event = chat.MessageDeleted{Conversation: msg.ConversationID, MessageID: msg.ID, Soft: soft}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, []chat.DomainEvent{event})
	return nil
}

func (s *messageService) List(ctx context.Context, conversationID uuid.UUID, limit int) ([]chat.Message, error) {
	return s.messages.ListByConversation(dbctx.Background(ctx), conversationID, limit)
}
