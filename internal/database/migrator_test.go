package database

import (
	"testing"
	"testing/fstest"

	"pos-backend/migrations"
)

func TestPendingMigrations(t *testing.T) {
	files := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2;")},
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"README.md": {Data: []byte("notes")},
		"003_c.sql": {Data: []byte("SELECT 3;")},
		"old/x.sql": {Data: []byte("SELECT 0;")},
	}

	got, err := PendingMigrations(files, map[string]bool{"002_b.sql": true})
	if err != nil {
		t.Fatalf("PendingMigrations() error: %v", err)
	}
	want := []string{"001_a.sql", "003_c.sql"}
	if len(got) != len(want) {
		t.Fatalf("PendingMigrations() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("PendingMigrations()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	got, err := PendingMigrations(migrations.FS, nil)
	if err != nil {
		t.Fatalf("PendingMigrations(embedded) error: %v", err)
	}
	if len(got) < 2 || got[0] != "001_ledger.sql" {
		t.Errorf("embedded migrations = %v", got)
	}
}
