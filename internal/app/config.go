package app

import (
	"fmt"

	"github.com/relaydesk/relaydesk-backend/internal/data/db"
	"github.com/relaydesk/relaydesk-backend/internal/platform/envutil"
)

// Config is the single place the environment is read; every component gets
// its settings from here.
type Config struct {
	HTTPAddr     string
	LogMode      string
	WSSendBuffer int
	DB           db.Config
}

func LoadConfig() Config {
	return Config{
		HTTPAddr:     envutil.Str("HTTP_ADDR", ":8080"),
		LogMode:      envutil.Str("LOG_MODE", "development"),
		WSSendBuffer: envutil.Int("WS_SEND_BUFFER", 32),
		DB: db.Config{
			Driver:      envutil.Str("DB_DRIVER", "postgres"),
			SQLitePath:  envutil.Str("SQLITE_PATH", "relaydesk.db"),
			PostgresDSN: postgresDSN(),
		},
	}
}

func postgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		envutil.Str("POSTGRES_USER", "postgres"),
		envutil.Str("POSTGRES_PASSWORD", ""),
		envutil.Str("POSTGRES_HOST", "localhost"),
		envutil.Str("POSTGRES_PORT", "5432"),
		envutil.Str("POSTGRES_NAME", "relaydesk"),
	)
}
