package provisioning

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testStorePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "network.json")
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(testStorePath(t))

	if store.HasStoredConfig() {
		t.Error("HasStoredConfig() = true before Save")
	}

	want := Credentials{SSID: "home-net", Password: "hunter2"}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !store.HasStoredConfig() {
		t.Error("HasStoredConfig() = false after Save")
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.SSID != want.SSID || got.Password != want.Password {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}
}

func TestStoreLoadNotProvisioned(t *testing.T) {
	store := NewStore(testStorePath(t))

	if _, err := store.Load(); !errors.Is(err, ErrNotProvisioned) {
		t.Errorf("Load() error = %v, want ErrNotProvisioned", err)
	}
}

func TestStoreSaveRequiresSSID(t *testing.T) {
	store := NewStore(testStorePath(t))

	if err := store.Save(Credentials{}); err == nil {
		t.Error("Save() with empty ssid succeeded")
	}
}

func TestStoreEraseIdempotent(t *testing.T) {
	store := NewStore(testStorePath(t))

	if err := store.Save(Credentials{SSID: "home-net"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Erase(); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}
	if store.HasStoredConfig() {
		t.Error("HasStoredConfig() = true after Erase")
	}

	// Erasing again must not fail.
	if err := store.Erase(); err != nil {
		t.Errorf("second Erase() error = %v", err)
	}
}

func TestStoreFilePermissions(t *testing.T) {
	path := testStorePath(t)
	store := NewStore(path)

	if err := store.Save(Credentials{SSID: "home-net", Password: "secret"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("credentials file mode = %o, want 0600", perm)
	}
}
