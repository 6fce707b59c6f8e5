package pairing

import (
	"context"
	"fmt"

	"github.com/pwallis/outletd/internal/infrastructure/database"
)

// Registry is the persisted set of paired controllers.
//
// Pairings survive restarts in SQLite; the device is "paired" while at least
// one row exists. Adding an existing controller refreshes its key rather
// than failing, so a controller can re-pair after losing local state.
type Registry struct {
	db *database.DB
}

// NewRegistry creates a pairing registry backed by the given database.
func NewRegistry(db *database.DB) *Registry {
	return &Registry{db: db}
}

// Add stores (or refreshes) a controller pairing.
func (r *Registry) Add(ctx context.Context, controllerID, publicKey string) error {
	if controllerID == "" {
		return fmt.Errorf("%w: empty controller id", ErrInvalidPairing)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO pairings (controller_id, public_key)
		VALUES (?, ?)
		ON CONFLICT(controller_id) DO UPDATE SET public_key = excluded.public_key`,
		controllerID, publicKey)
	if err != nil {
		return fmt.Errorf("storing pairing: %w", err)
	}
	return nil
}

// Remove deletes a controller pairing. It reports whether a pairing was
// actually removed; removing an unknown controller is not an error.
func (r *Registry) Remove(ctx context.Context, controllerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM pairings WHERE controller_id = ?", controllerID)
	if err != nil {
		return false, fmt.Errorf("removing pairing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("removing pairing: %w", err)
	}
	return n > 0, nil
}

// Count returns the number of paired controllers.
func (r *Registry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pairings").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pairings: %w", err)
	}
	return n, nil
}

// HasAny reports whether at least one controller is paired.
func (r *Registry) HasAny(ctx context.Context) (bool, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EraseAll removes every pairing. Part of the factory reset path; erasing
// an already-empty registry succeeds.
func (r *Registry) EraseAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM pairings"); err != nil {
		return fmt.Errorf("erasing pairings: %w", err)
	}
	return nil
}
