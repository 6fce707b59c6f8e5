package attribute

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pwallis/outletd/internal/infrastructure/database"
	_ "github.com/pwallis/outletd/migrations"
)

// testStore opens a fresh temp database with the real schema.
func testStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	return NewStore(db)
}

func TestStoreLoadDefault(t *testing.T) {
	store := testStore(t)

	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if store.On() {
		t.Error("On() = true on first run, want false")
	}
}

func TestStoreSetPersists(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := store.Set(ctx, true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if !store.On() {
		t.Error("On() = false after Set(true)")
	}

	// A second store over the same database restores the value.
	restored := NewStore(store.db)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load() on restored store error = %v", err)
	}
	if !restored.On() {
		t.Error("On() = false after restart, want persisted true")
	}
}

func TestStoreSetNotifiesSubscribers(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var got []bool
	store.Subscribe(func(on bool) { got = append(got, on) })

	if err := store.Set(ctx, true); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, false); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Errorf("notifications = %v, want [true false]", got)
	}
}

func TestStoreSetSilentSkipsSubscribers(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	notified := false
	store.Subscribe(func(bool) { notified = true })

	if err := store.SetSilent(ctx, true); err != nil {
		t.Fatalf("SetSilent() error = %v", err)
	}

	if notified {
		t.Error("SetSilent() notified subscribers")
	}
	if !store.On() {
		t.Error("On() = false after SetSilent(true)")
	}

	// The silent write still persists.
	restored := NewStore(store.db)
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load() on restored store error = %v", err)
	}
	if !restored.On() {
		t.Error("silent write was not persisted")
	}
}
