package model

import (
	"slices"
	"time"
)

// Item is a single clothing record stored in one wardrobe.
type Item struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
	Wardrobe    string    `json:"wardrobe"`
	Description string    `json:"description"`
	PhotoPath   *string   `json:"photo_path"`
	QRCodePath  *string   `json:"qrcode_path"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	QRCodeURL   string    `json:"qrcode_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ItemSummary is the list view of an item.
type ItemSummary struct {
	ID          int64   `json:"id"`
	PhotoPath   *string `json:"photo_path"`
	PhotoURL    string  `json:"photo_url,omitempty"`
	Wardrobe    string  `json:"wardrobe"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
}

// Summary returns the list view of the item.
func (i *Item) Summary() ItemSummary {
	return ItemSummary{
		ID:          i.ID,
		PhotoPath:   i.PhotoPath,
		PhotoURL:    i.PhotoURL,
		Wardrobe:    i.Wardrobe,
		Name:        i.Name,
		Category:    i.Category,
		Color:       i.Color,
		Description: i.Description,
	}
}

// ItemFields holds the user-editable columns of a new item.
type ItemFields struct {
	Name        string `form:"name" validate:"required,max=100"`
	Category    string `form:"category" validate:"required,category"`
	Color       string `form:"color" validate:"required,color"`
	Wardrobe    string `form:"wardrobe" validate:"required,wardrobe"`
	Description string `form:"description"`
}

// ItemPatch is a partial update. Nil fields keep their stored value.
type ItemPatch struct {
	Name        *string `form:"name" validate:"omitnil,min=1,max=100"`
	Category    *string `form:"category" validate:"omitnil,category"`
	Color       *string `form:"color" validate:"omitnil,color"`
	Wardrobe    *string `form:"wardrobe" validate:"omitnil,wardrobe"`
	Description *string `form:"description"`
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Category == nil && p.Color == nil && p.Wardrobe == nil && p.Description == nil
}

// WardrobeAll is the list filter value that matches every wardrobe.
const WardrobeAll = "All"

// ItemFilter narrows an item listing. Empty fields do not filter.
type ItemFilter struct {
	Wardrobe string
	Category string
}

// Enum is a closed set of allowed column values.
type Enum []string

// Contains reports whether v is a member of the set.
func (e Enum) Contains(v string) bool {
	return slices.Contains(e, v)
}

// Default value sets.
var (
	DefaultCategories = Enum{"upper", "lower", "one-piece", "other"}
	DefaultColors     = Enum{"warm", "cool", "black-white", "other"}
	DefaultWardrobes  = Enum{"A", "B", "C"}
)
