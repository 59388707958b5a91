package postgres

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}

	if ups == 0 || ups != downs {
		t.Fatalf("expected paired up/down migrations, got %d up and %d down", ups, downs)
	}
}

func TestEmbeddedSchemaOrphansOnDelete(t *testing.T) {
	data, err := fs.ReadFile(embeddedMigrations, "migrations/000001_init.up.sql")
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}

	schema := string(data)
	if got := strings.Count(schema, "ON DELETE SET NULL"); got != 8 {
		t.Fatalf("expected every receipt and holder reference to be SET NULL, found %d", got)
	}
	if strings.Contains(schema, "ON DELETE CASCADE") {
		t.Fatalf("deleting a user or account must never cascade")
	}
}

func TestMigratorRejectsBadURL(t *testing.T) {
	m := NewMigrator("not-a-url", "", zerolog.Nop())
	if err := m.Up(); err == nil {
		t.Fatalf("expected error for invalid database URL")
	}
}
