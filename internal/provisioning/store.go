package provisioning

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotProvisioned is returned when no network credentials are stored.
var ErrNotProvisioned = errors.New("no network credentials stored")

// credentialsPermissions keeps the credentials file owner-only.
const credentialsPermissions = 0600

// Credentials are the stored network join parameters.
type Credentials struct {
	SSID     string `json:"ssid"`
	Password string `json:"password,omitempty"`
}

// Store persists network credentials as a JSON file.
//
// The file doubles as the provisioned/unprovisioned flag: its presence means
// the device has network configuration, its absence means the device is
// waiting to be provisioned.
type Store struct {
	path string
}

// NewStore creates a credentials store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// HasStoredConfig reports whether network credentials exist.
func (s *Store) HasStoredConfig() bool {
	info, err := os.Stat(s.path)
	return err == nil && !info.IsDir()
}

// Load reads the stored credentials.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotProvisioned
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	if creds.SSID == "" {
		return nil, fmt.Errorf("credentials file %s has empty ssid", s.path)
	}
	return &creds, nil
}

// Save writes credentials atomically (write to temp, then rename).
func (s *Store) Save(creds Credentials) error {
	if creds.SSID == "" {
		return errors.New("credentials require an ssid")
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, credentialsPermissions); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp) //nolint:errcheck // best effort cleanup
		return fmt.Errorf("committing credentials: %w", err)
	}
	return nil
}

// Erase removes the stored credentials. Erasing when nothing is stored
// succeeds, so the factory reset path stays idempotent.
func (s *Store) Erase() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("erasing credentials: %w", err)
	}
	return nil
}

// Path returns the credentials file location.
func (s *Store) Path() string {
	return s.path
}
