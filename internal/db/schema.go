package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/erazemk/wardrobe/internal/model"
)

// Enums are the closed value sets enforced by CHECK constraints.
type Enums struct {
	Categories model.Enum
	Colors     model.Enum
	Wardrobes  model.Enum
}

// DefaultEnums returns the built-in value sets.
func DefaultEnums() Enums {
	return Enums{
		Categories: model.DefaultCategories,
		Colors:     model.DefaultColors,
		Wardrobes:  model.DefaultWardrobes,
	}
}

// sqliteSchema is the SQLite schema. AUTOINCREMENT keeps ids from being reused
// after the highest row is deleted.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS items (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    name        TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 100),
    category    TEXT NOT NULL CHECK (category IN (%[1]s)),
    color       TEXT NOT NULL CHECK (color IN (%[2]s)),
    wardrobe    TEXT NOT NULL CHECK (wardrobe IN (%[3]s)),
    description TEXT,
    photo_path  TEXT,
    qrcode_path TEXT,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS items (
    id          BIGSERIAL PRIMARY KEY,
    name        VARCHAR(100) NOT NULL CHECK (length(name) >= 1),
    category    TEXT NOT NULL CHECK (category IN (%[1]s)),
    color       TEXT NOT NULL CHECK (color IN (%[2]s)),
    wardrobe    TEXT NOT NULL CHECK (wardrobe IN (%[3]s)),
    description TEXT,
    photo_path  TEXT,
    qrcode_path TEXT,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent and valid in both dialects. Append new
// migrations at the end.
var migrations = []string{
	// Migration 1: list filters hit wardrobe and category.
	`CREATE INDEX IF NOT EXISTS idx_items_wardrobe ON items(wardrobe)`,
	`CREATE INDEX IF NOT EXISTS idx_items_category ON items(category)`,
}

// Schema renders the schema for a dialect with the given value sets.
func Schema(d Dialect, enums Enums) string {
	tmpl := sqliteSchema
	if d == Postgres {
		tmpl = postgresSchema
	}
	return fmt.Sprintf(tmpl, sqlList(enums.Categories), sqlList(enums.Colors), sqlList(enums.Wardrobes))
}

// EnsureSchema creates the items table and indexes if they don't already exist.
// Value sets only take effect when the table is first created.
func EnsureSchema(ctx context.Context, db *DB, enums Enums) error {
	if len(enums.Categories) == 0 || len(enums.Colors) == 0 || len(enums.Wardrobes) == 0 {
		return fmt.Errorf("creating schema: value sets must not be empty")
	}

	if _, err := db.ExecContext(ctx, Schema(db.Dialect, enums)); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}
	return nil
}

// String renders the sets in a stable form, e.g.
// "category=upper,lower;color=warm;wardrobe=A,B".
func (e Enums) String() string {
	return "category=" + strings.Join(e.Categories, ",") +
		";color=" + strings.Join(e.Colors, ",") +
		";wardrobe=" + strings.Join(e.Wardrobes, ",")
}

// sqlList renders values as a comma separated list of SQL string literals.
func sqlList(values model.Enum) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}
