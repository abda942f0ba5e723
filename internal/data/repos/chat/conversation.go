package chat

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	errs "github.com/relaydesk/relaydesk-backend/internal/pkg/errors"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

type ConversationRepo interface {
	Find(dbc dbctx.Context, id uuid.UUID) (*domain.Conversation, error)
	Create(dbc dbctx.Context, c *domain.Conversation) error
	Save(dbc dbctx.Context, c *domain.Conversation) error
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, log *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: log.With("repo", "ConversationRepo")}
}

func (r *conversationRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

// Find loads the aggregate with its live (not soft-deleted) messages in
// creation order.
func (r *conversationRepo) Find(dbc dbctx.Context, id uuid.UUID) (*domain.Conversation, error) {
	txx := r.handle(dbc)

	var row ConversationRow
	if err := txx.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}

	var msgRows []MessageRow
	if err := txx.
		Where("conversation_id = ?", id).
		Order("created_at ASC").
		Find(&msgRows).Error; err != nil {
		return nil, fmt.Errorf("load messages for conversation %s: %w", id, err)
	}

	messages := make([]domain.Message, 0, len(msgRows))
	for i := range msgRows {
		messages = append(messages, msgRows[i].toDomain())
	}
	return row.toDomain(messages), nil
}

// Create is a pure insert: the id was freshly minted, so no prior row can
// exist for it.
func (r *conversationRepo) Create(dbc dbctx.Context, c *domain.Conversation) error {
	if err := r.handle(dbc).Create(conversationRow(c)).Error; err != nil {
		return fmt.Errorf("insert conversation %s: %w", c.ID, err)
	}
	return nil
}

// Save upserts the full aggregate: the conversation row is overwritten in
// place and any messages not yet persisted are inserted. Existing message
// rows keep their stored content (edits go through MessageRepo).
func (r *conversationRepo) Save(dbc dbctx.Context, c *domain.Conversation) error {
	txx := r.handle(dbc)

	row := conversationRow(c)
	if err := txx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error; err != nil {
		return fmt.Errorf("save conversation %s: %w", c.ID, err)
	}

	for i := range c.Messages {
		msgRow, err := messageRow(c.Messages[i])
		if err != nil {
			return fmt.Errorf("encode message %s: %w", c.Messages[i].ID, err)
		}
		if err := txx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoNothing: true,
		}).Create(msgRow).Error; err != nil {
			return fmt.Errorf("save message %s: %w", msgRow.ID, err)
		}
	}
	return nil
}
