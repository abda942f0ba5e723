package app

import (
	"strings"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_ADDR", "LOG_MODE", "WS_SEND_BUFFER", "DB_DRIVER", "SQLITE_PATH",
		"POSTGRES_USER", "POSTGRES_PASSWORD", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_NAME",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr default: got %q", cfg.HTTPAddr)
	}
	if cfg.WSSendBuffer != 32 {
		t.Fatalf("WSSendBuffer default: got %d", cfg.WSSendBuffer)
	}
	if cfg.DB.Driver != "postgres" {
		t.Fatalf("DB driver default: got %q", cfg.DB.Driver)
	}
	if !strings.Contains(cfg.DB.PostgresDSN, "localhost:5432/relaydesk") {
		t.Fatalf("postgres dsn defaults: got %q", cfg.DB.PostgresDSN)
	}
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("WS_SEND_BUFFER", "8")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/relaydesk-test.db")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_NAME", "relaydesk_prod")

	cfg := LoadConfig()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("HTTPAddr: got %q", cfg.HTTPAddr)
	}
	if cfg.WSSendBuffer != 8 {
		t.Fatalf("WSSendBuffer: got %d", cfg.WSSendBuffer)
	}
	if cfg.DB.Driver != "sqlite" || cfg.DB.SQLitePath != "/tmp/relaydesk-test.db" {
		t.Fatalf("sqlite config: %+v", cfg.DB)
	}
	if !strings.Contains(cfg.DB.PostgresDSN, "db.internal") || !strings.Contains(cfg.DB.PostgresDSN, "relaydesk_prod") {
		t.Fatalf("postgres dsn: got %q", cfg.DB.PostgresDSN)
	}
}
