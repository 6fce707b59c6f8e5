package database

import (
	"context"
	"path/filepath"
	"testing"
)

// openTestDB opens a database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	return db
}

func TestOpen(t *testing.T) {
	db := openTestDB(t)

	if err := db.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")
	db, err := Open(Config{Path: path, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}
}

func TestCloseNil(t *testing.T) {
	db := &DB{}
	if err := db.Close(); err != nil {
		t.Errorf("Close() on zero DB error = %v, want nil", err)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		wantVersion string
		wantDesc    string
		wantErr     bool
	}{
		{
			name:        "valid",
			filename:    "20260215_100000_initial_schema.up.sql",
			wantVersion: "20260215_100000",
			wantDesc:    "initial_schema",
		},
		{
			name:        "multi word description",
			filename:    "20260301_090000_add_pairing_keys.up.sql",
			wantVersion: "20260301_090000",
			wantDesc:    "add_pairing_keys",
		},
		{
			name:     "missing description",
			filename: "20260215_100000.up.sql",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, desc, err := parseMigrationFilename(tt.filename)
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseMigrationFilename() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseMigrationFilename() error = %v", err)
			}
			if version != tt.wantVersion {
				t.Errorf("version = %q, want %q", version, tt.wantVersion)
			}
			if desc != tt.wantDesc {
				t.Errorf("desc = %q, want %q", desc, tt.wantDesc)
			}
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	// A second run must be a no-op, not a "table already exists" failure.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() second run error = %v", err)
	}
}
