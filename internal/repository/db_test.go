package repository

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/tasknest/tasknest-go/internal/repository/migrations"
)

func TestMigrateRunsEmbeddedMigrations(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	var gotDir string
	gooseUp = func(ctx context.Context, db *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	if err := Migrate(context.Background(), nil); err != nil {
		t.Fatalf("Migrate error: %v", err)
	}
	if gotDir != "." {
		t.Errorf("migration dir = %q, want %q", gotDir, ".")
	}
}

func TestMigrateWrapsError(t *testing.T) {
	orig := gooseUp
	defer func() { gooseUp = orig }()

	boom := errors.New("boom")
	gooseUp = func(context.Context, *sql.DB, string) error { return boom }

	if err := Migrate(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("Migrate error = %v, want wrapped boom", err)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(entries))
	}

	for _, e := range entries {
		body, err := fs.ReadFile(migrations.FS, e.Name())
		if err != nil {
			t.Fatalf("ReadFile(%s) error: %v", e.Name(), err)
		}
		if !strings.Contains(string(body), "-- +goose Up") || !strings.Contains(string(body), "-- +goose Down") {
			t.Errorf("%s is missing goose annotations", e.Name())
		}
	}
}

func TestNewDBInvalidDSN(t *testing.T) {
	if _, err := NewDB("not a dsn"); err == nil {
		t.Fatal("NewDB expected error for malformed dsn")
	}
}
