package eventlog

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/relaydesk/relaydesk-backend/internal/pkg/dbctx"
	errs "github.com/relaydesk/relaydesk-backend/internal/pkg/errors"
	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

// Row is one appended envelope. Seq is the monotonic append order; replay
// orders by it, never by EmittedAt (clock skew must not reorder replay).
// Rows are never mutated or deleted by this core.
type Row struct {
	Seq         int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	EventID     string `gorm:"uniqueIndex;not null" json:"event_id"`
	EventType   string `gorm:"not null;index" json:"event_type"`
	EmittedAt   string `gorm:"not null" json:"emitted_at"`
	PayloadJSON string `gorm:"type:text;not null" json:"payload_json"`
}

func (Row) TableName() string { return "event_log" }

const (
	DefaultReplayLimit = 100
	MaxReplayLimit     = 500
)

type EventLogRepo interface {
	// Append inserts the envelope, ignoring duplicates of the same event id
	// so at-least-once redelivery from upstream retries stays idempotent.
	Append(dbc dbctx.Context, row Row) error
	// ReplaySince returns rows strictly after the cursor event in append
	// order; a nil cursor starts from the beginning. The limit is clamped
	// to MaxReplayLimit. An unknown cursor reports ErrNotFound.
	ReplaySince(dbc dbctx.Context, sinceEventID *string, limit int) ([]Row, error)
	Count(dbc dbctx.Context) (int64, error)
}

type eventLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventLogRepo(db *gorm.DB, log *logger.Logger) EventLogRepo {
	return &eventLogRepo{db: db, log: log.With("repo", "EventLogRepo")}
}

func (r *eventLogRepo) handle(dbc dbctx.Context) *gorm.DB {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx)
}

func (r *eventLogRepo) Append(dbc dbctx.Context, row Row) error {
	if row.EventID == "" {
		return fmt.Errorf("append event log: %w: missing event_id", errs.ErrInvalidArgument)
	}
	if err := r.handle(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return fmt.Errorf("append event %s: %w", row.EventID, err)
	}
	return nil
}

func (r *eventLogRepo) ReplaySince(dbc dbctx.Context, sinceEventID *string, limit int) ([]Row, error) {
	if limit <= 0 {
		limit = DefaultReplayLimit
	}
	if limit > MaxReplayLimit {
		limit = MaxReplayLimit
	}
	txx := r.handle(dbc)

	var afterSeq int64
	if sinceEventID != nil && *sinceEventID != "" {
		var cursor Row
		if err := txx.First(&cursor, "event_id = ?", *sinceEventID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errs.ErrNotFound
			}
			return nil, fmt.Errorf("resolve replay cursor %s: %w", *sinceEventID, err)
		}
		afterSeq = cursor.Seq
	}

	var rows []Row
	if err := txx.
		Where("seq > ?", afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("replay events after seq %d: %w", afterSeq, err)
	}
	return rows, nil
}

func (r *eventLogRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	if err := r.handle(dbc).Model(&Row{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count event log: %w", err)
	}
	return n, nil
}
