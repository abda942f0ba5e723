package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/relaydesk/relaydesk-backend/internal/domain/chat"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	errs "github.com/relaydesk/relaydesk-backend/internal/pkg/errors"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

type MessageRepo interface {
	Find(dbc dbctx.Context, id uuid.UUID) (*domain.Message, error)
	ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error)
	// UpdateContent patches a message's text in place. Edits bypass the
	// aggregate: they do not change conversation-level invariants.
	UpdateContent(dbc dbctx.Context, id uuid.UUID, content string) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
	HardDelete(dbc dbctx.Context, id uuid.UUID) error
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *messageRepo) Find(dbc dbctx.Context, id uuid.UUID) (*domain.Message, error) {
	var row MessageRow
	if err := r.handle(dbc).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("load message %s: %w", id, err)
	}
	msg := row.toDomain()
	return &msg, nil
}

func (r *messageRepo) ListByConversation(dbc dbctx.Context, conversationID uuid.UUID, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var rows []MessageRow
	if err := r.handle(dbc).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list messages for conversation %s: %w", conversationID, err)
	}
	out := make([]domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func (r *messageRepo) UpdateContent(dbc dbctx.Context, id uuid.UUID, content string) error {
	content = strings.TrimSpace(content)
	res := r.handle(dbc).
		Model(&MessageRow{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"content":    content,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update message %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// SoftDelete sets the deletion marker; the row stays for audit but drops
// out of normal reads. Deleting an already soft-deleted or absent message
// reports ErrNotFound.
func (r *messageRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := r.handle(dbc).Delete(&MessageRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("soft delete message %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *messageRepo) HardDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := r.handle(dbc).Unscoped().Delete(&MessageRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("hard delete message %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
