package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFile_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ledger.DefaultCurrency != "INR" {
		t.Errorf("ledger.default_currency = %q, want INR", cfg.Ledger.DefaultCurrency)
	}
	if cfg.Scheduler.Interval != 15*time.Minute || cfg.Scheduler.Workers != 4 {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Storage.Enabled() {
		t.Error("storage enabled without a bucket")
	}
}

func TestLoadFile_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
ledger:
  house_wallet_id: house-1
  default_currency: usd
scheduler:
  interval: 1m
  workers: 2
`)
	t.Setenv("LEDGER_HOUSE_WALLET_ID", "house-from-env")
	t.Setenv("DB_HOST", "db.internal")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Ledger.HouseWalletID != "house-from-env" {
		t.Errorf("house_wallet_id = %q, want env override", cfg.Ledger.HouseWalletID)
	}
	if cfg.Ledger.DefaultCurrency != "USD" {
		t.Errorf("default_currency = %q, want USD", cfg.Ledger.DefaultCurrency)
	}
	if cfg.Scheduler.Interval != time.Minute || cfg.Scheduler.Workers != 2 {
		t.Errorf("scheduler = %+v", cfg.Scheduler)
	}
	if cfg.Database.Host != "db.internal" {
		t.Errorf("database.host = %q, want db.internal", cfg.Database.Host)
	}
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad currency", "ledger:\n  default_currency: rupee\n"},
		{"no workers", "scheduler:\n  workers: 0\n"},
		{"bad port", "server:\n  port: 70000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFile(writeConfig(t, tt.body)); err == nil {
				t.Error("LoadFile() error = nil, want validation error")
			}
		})
	}
}
