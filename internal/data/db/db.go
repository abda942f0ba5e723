package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/relaydesk/relaydesk-backend/internal/pkg/logger"
)

// Config selects and locates the backing store. It is populated from the
// environment by app.LoadConfig, never read from env here.
type Config struct {
	Driver      string // "postgres" or "sqlite"
	SQLitePath  string
	PostgresDSN string
}

// Service owns the shared GORM handle. The connection pool behind it is
// shared by every repo.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

// New opens the backing store. Sqlite keeps local development and CI
// self-contained; postgres is the production driver.
func New(cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gormCfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		handle *gorm.DB
		err    error
	)
	switch cfg.Driver {
	case "sqlite":
		handle, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite at %s: %w", cfg.SQLitePath, err)
		}
	case "postgres":
		handle, err = gorm.Open(postgres.Open(cfg.PostgresDSN), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.Driver)
	}

	return &Service{db: handle, log: serviceLog}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }
