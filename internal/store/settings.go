package store

import (
	"context"
	"fmt"

	"github.com/erazemk/wardrobe/internal/db"
)

// valueSetsKey stores the value sets the items table was created with.
const valueSetsKey = "value_sets"

// EnsureSetting stores candidate under key unless the key already has a value,
// and returns the stored value.
// Uses ON CONFLICT DO NOTHING + re-SELECT to avoid TOCTOU race on concurrent startup.
func EnsureSetting(ctx context.Context, db *db.DB, key, candidate string) (string, error) {
	_, err := db.ExecContext(ctx, db.Rebind(
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT (key) DO NOTHING`),
		key, candidate,
	)
	if err != nil {
		return "", fmt.Errorf("storing %s: %w", key, err)
	}

	// Always read back (either our insert or the existing value).
	var value string
	err = db.QueryRowContext(ctx, db.Rebind(
		`SELECT value FROM settings WHERE key = ?`), key,
	).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("querying %s: %w", key, err)
	}
	return value, nil
}

// CheckValueSets records enums on first run and afterwards fails if the
// configured sets differ from the ones baked into the CHECK constraints.
func CheckValueSets(ctx context.Context, db *db.DB, enums db.Enums) error {
	want := enums.String()
	stored, err := EnsureSetting(ctx, db, valueSetsKey, want)
	if err != nil {
		return err
	}
	if stored != want {
		return fmt.Errorf("configured value sets %q differ from the database's %q", want, stored)
	}
	return nil
}
