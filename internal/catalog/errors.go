package catalog

import "errors"

var (
	// ErrNotFound is returned when no item has the requested id.
	ErrNotFound = errors.New("item not found")
	// ErrInvalidInput is returned for bad form values or photos.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStore is returned when the database fails.
	ErrStore = errors.New("store failure")
	// ErrMedia is returned when a photo or QR code file cannot be written or rendered.
	ErrMedia = errors.New("media failure")
)
