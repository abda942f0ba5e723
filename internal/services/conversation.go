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

type ConversationService interface {
	Create(ctx context.Context, shopID, customerID uuid.UUID) (*chat.Conversation, error)
	Get(ctx context.Context, id uuid.UUID) (*chat.Conversation, error)
	// UpdateStatus dispatches "closed" to Close and "active" to Reopen;
	// anything else is ErrUnsupportedStatus. Returns the new status.
	UpdateStatus(ctx context.Context, id uuid.UUID, target string) (chat.Status, error)
}

type conversationService struct {
	db            *gorm.DB
	conversations chatrepo.ConversationRepo
	publisher     events.Publisher
	clock         func() time.Time
	log           *logger.Logger
}

func NewConversationService(db *gorm.DB, conversations chatrepo.ConversationRepo, publisher events.Publisher, clock func() time.Time, log *logger.Logger) ConversationService {
	if clock == nil {
		clock = time.Now
	}
	return &conversationService{
		db:            db,
		conversations: conversations,
		publisher:     publisher,
		clock:         clock,
		log:           log.With("service", "ConversationService"),
	}
}

func (s *conversationService) Create(ctx context.Context, shopID, customerID uuid.UUID) (*chat.Conversation, error) {
	conv := chat.Open(uuid.New(), shopID, customerID, s.clock().UTC())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.conversations.Create(dbctx.Context{Ctx: ctx, Tx: tx}, conv)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, []chat.DomainEvent{
		chat.ConversationOpened{Conversation: conv.ID},
	})
	return conv, nil
}

func (s *conversationService) Get(ctx context.Context, id uuid.UUID) (*chat.Conversation, error) {
	return s.conversations.Find(dbctx.Background(ctx), id)
}

// UpdateStatus transitions the conversation inside one transaction: the
// status row write and any message-row writes from Save commit together,
// and the transition event publishes only after commit.
func (s *conversationService) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (chat.Status, error) {
	var (
		status chat.Status
		evts   []chat.DomainEvent
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		conv, err := s.conversations.Find(dbc, id)
		if err != nil {
			return err
		}

		now := s.clock().UTC()
		switch strings.ToLower(strings.TrimSpace(target)) {
		case "closed":
			err = conv.Close(now)
		case "active":
			err = conv.Reopen(now)
		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedStatus, target)
		}
		if err != nil {
			return err
		}
		evts = conv.TakeEvents()

		if err := s.conversations.Save(dbc, conv); err != nil {
			return err
		}
		status = conv.Status
		return nil
	})
	if err != nil {
		return "", err
	}
	s.publisher.Publish(ctx, evts)

	return status, nil
}
