package attribute

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/pwallis/outletd/internal/infrastructure/database"
)

// attrOn is the persisted attribute name for the outlet's on/off state.
const attrOn = "on"

// Logger defines the logging interface used by the Store.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Store is the persisted on/off attribute of the outlet.
//
// The in-memory value is the source of truth for readers; every change is
// written through to SQLite so the outlet restores its last state after a
// power cut. Set notifies subscribers, SetSilent does not, which is how
// remote writes avoid echoing a change notification back to their origin.
type Store struct {
	db     *database.DB
	logger Logger

	mu   sync.RWMutex
	on   bool
	subs []func(on bool)
}

// NewStore creates an attribute store backed by the given database.
func NewStore(db *database.DB) *Store {
	return &Store{
		db:     db,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Load reads the persisted attribute, seeding the default (off) on first run.
// Call it once at startup before any reads or writes.
func (s *Store) Load(ctx context.Context) error {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM attributes WHERE name = ?", attrOn).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// First run: seed the default. A concurrent seed loses harmlessly
		// to the conflict clause.
		if _, insErr := s.db.ExecContext(ctx,
			"INSERT INTO attributes (name, value) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
			attrOn, "false"); insErr != nil {
			return fmt.Errorf("seeding attribute %q: %w", attrOn, insErr)
		}
		value = "false"
	case err != nil:
		return fmt.Errorf("reading attribute %q: %w", attrOn, err)
	}

	on, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("parsing attribute %q value %q: %w", attrOn, value, err)
	}

	s.mu.Lock()
	s.on = on
	s.mu.Unlock()

	s.logger.Debug("attribute loaded", "name", attrOn, "value", on)
	return nil
}

// On returns the current on/off state.
func (s *Store) On() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.on
}

// Subscribe registers a callback invoked on every Set. Callbacks run on the
// writer's goroutine; register them during startup, before writes begin.
func (s *Store) Subscribe(fn func(on bool)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Set persists the new state and notifies subscribers.
func (s *Store) Set(ctx context.Context, on bool) error {
	if err := s.write(ctx, on); err != nil {
		return err
	}

	s.mu.RLock()
	subs := make([]func(bool), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn(on)
	}
	return nil
}

// SetSilent persists the new state without notifying subscribers.
// Used for writes that originate remotely, where the origin already knows
// the new value.
func (s *Store) SetSilent(ctx context.Context, on bool) error {
	return s.write(ctx, on)
}

// write updates both the database row and the in-memory value.
func (s *Store) write(ctx context.Context, on bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attributes (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		attrOn, strconv.FormatBool(on))
	if err != nil {
		return fmt.Errorf("persisting attribute %q: %w", attrOn, err)
	}

	s.mu.Lock()
	s.on = on
	s.mu.Unlock()

	s.logger.Debug("attribute updated", "name", attrOn, "value", on)
	return nil
}
