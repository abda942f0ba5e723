package db

import (
	"gorm.io/gorm"

	chatrepo "github.com/relaydesk/relaydesk-backend/internal/data/repos/chat"
	"github.com/relaydesk/relaydesk-backend/internal/data/repos/eventlog"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&chatrepo.ConversationRow{},
		&chatrepo.MessageRow{},
		&eventlog.Row{},
	)
}
