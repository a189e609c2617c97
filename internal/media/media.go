// Package media stores item photos and QR code images.
package media

import (
	"context"
	"fmt"
	"strings"
)

// Store keeps named files of one kind, such as photos or QR codes.
type Store interface {
	// Save writes data under name, replacing any existing file.
	Save(ctx context.Context, name string, data []byte, contentType string) error
	// Remove deletes the file. Removing a missing file is not an error.
	Remove(ctx context.Context, name string) error
	// URL returns where clients can fetch the file.
	URL(name string) string
}

// validName rejects names that could escape the store's namespace.
func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid media file name %q", name)
	}
	return nil
}
