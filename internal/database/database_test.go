package database

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestOpenMemoryRunsMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	for _, table := range []string{"accounts", "sessions", "todos", "shopping_lists", "shopping_list_items"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestForeignKeysEnabled(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	var on int
	if err := db.QueryRow(`PRAGMA foreign_keys`).Scan(&on); err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if on != 1 {
		t.Errorf("foreign_keys = %d, want 1", on)
	}
}

func TestMigrateUnknownCommand(t *testing.T) {
	db, err := OpenNoMigrate(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db, "sideways"); err == nil {
		t.Error("expected error for unknown command")
	}
}

func TestDSN(t *testing.T) {
	if got := dsn(":memory:"); got != ":memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite" {
		t.Errorf("dsn(:memory:) = %q", got)
	}
	if got := dsn("chorify.db"); got != "chorify.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite&_pragma=journal_mode(WAL)" {
		t.Errorf("dsn(file) = %q", got)
	}
}

func TestMigrationsLogThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	out := buf.String()
	if !strings.Contains(out, "component=migrations") {
		t.Errorf("migration output did not go through slog: %q", out)
	}
	if !strings.Contains(out, "00001_accounts.sql") {
		t.Errorf("expected applied migration in log, got %q", out)
	}
}
