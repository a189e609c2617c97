package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/wardrobe/internal/db"
	"github.com/erazemk/wardrobe/internal/model"
)

const itemColumns = `id, name, category, color, wardrobe, description, photo_path, qrcode_path, created_at, updated_at`

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(s rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var description, photoPath, qrPath sql.NullString
	err := s.Scan(&item.ID, &item.Name, &item.Category, &item.Color, &item.Wardrobe,
		&description, &photoPath, &qrPath, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Description = description.String
	item.PhotoPath = nullToPtr(photoPath)
	item.QRCodePath = nullToPtr(qrPath)
	return item, nil
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func ptrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// CreateItem inserts a new item without photo or QR code and returns it.
func CreateItem(ctx context.Context, db *db.DB, f model.ItemFields) (*model.Item, error) {
	var id int64
	err := db.QueryRowContext(ctx, db.Rebind(
		`INSERT INTO items (name, category, color, wardrobe, description)
		 VALUES (?, ?, ?, ?, ?) RETURNING id`),
		f.Name, f.Category, f.Color, f.Wardrobe,
		sql.NullString{String: f.Description, Valid: f.Description != ""},
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, fmt.Errorf("creating item: row %d vanished after insert", id)
	}
	return item, nil
}

// GetItem returns an item by ID, or nil if it doesn't exist.
func GetItem(ctx context.Context, db *db.DB, id int64) (*model.Item, error) {
	row := db.QueryRowContext(ctx, db.Rebind(
		`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items in id order, optionally filtered by wardrobe and category.
// A wardrobe of model.WardrobeAll or "" matches every wardrobe.
func ListItems(ctx context.Context, db *db.DB, filter model.ItemFilter) ([]model.Item, error) {
	var (
		where []string
		args  []any
	)
	if filter.Wardrobe != "" && filter.Wardrobe != model.WardrobeAll {
		where = append(where, "wardrobe = ?")
		args = append(args, filter.Wardrobe)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := db.QueryContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpdateItem applies a partial update. It reports false if no item has the ID.
func UpdateItem(ctx context.Context, db *db.DB, id int64, p model.ItemPatch) (bool, error) {
	var (
		set  []string
		args []any
	)
	add := func(col string, v *string) {
		if v != nil {
			set = append(set, col+" = ?")
			args = append(args, *v)
		}
	}
	add("name", p.Name)
	add("category", p.Category)
	add("color", p.Color)
	add("wardrobe", p.Wardrobe)
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, sql.NullString{String: *p.Description, Valid: *p.Description != ""})
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	result, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE items SET `+strings.Join(set, ", ")+` WHERE id = ?`), args...)
	if err != nil {
		return false, fmt.Errorf("updating item: %w", err)
	}
	return affected(result, "updating item")
}

// SetItemPhoto records the stored photo name. A nil path clears it.
func SetItemPhoto(ctx context.Context, db *db.DB, id int64, path *string) error {
	_, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE items SET photo_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`),
		ptrToNull(path), id,
	)
	if err != nil {
		return fmt.Errorf("setting item photo: %w", err)
	}
	return nil
}

// SetItemQRCode records the stored QR code name.
func SetItemQRCode(ctx context.Context, db *db.DB, id int64, path string) error {
	_, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE items SET qrcode_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`),
		path, id,
	)
	if err != nil {
		return fmt.Errorf("setting item qr code: %w", err)
	}
	return nil
}

// DeleteItem removes an item row. It reports false if no item has the ID.
func DeleteItem(ctx context.Context, db *db.DB, id int64) (bool, error) {
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return false, fmt.Errorf("deleting item: %w", err)
	}
	return affected(result, "deleting item")
}

// CountItems returns the number of stored items.
func CountItems(ctx context.Context, db *db.DB) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting items: %w", err)
	}
	return n, nil
}

func affected(result sql.Result, op string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}
