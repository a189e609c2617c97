// Package catalog implements the item operations on top of the store and the
// media files.
package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/wardrobe/internal/db"
	"github.com/erazemk/wardrobe/internal/imaging"
	"github.com/erazemk/wardrobe/internal/media"
	"github.com/erazemk/wardrobe/internal/model"
	"github.com/erazemk/wardrobe/internal/qrcode"
	"github.com/erazemk/wardrobe/internal/store"
)

// Options are the validation rules of the catalog.
type Options struct {
	PhotoExtensions []string
	Categories      model.Enum
	Colors          model.Enum
	Wardrobes       model.Enum
	QRModuleSize    int
	MaxUploadBytes  int64
}

// Photo is an uploaded photo file.
type Photo struct {
	Filename string
	Body     io.Reader
}

// Service carries the dependencies shared by all requests. It holds no
// mutable state and is safe for concurrent use.
type Service struct {
	DB      *db.DB
	Photos  media.Store
	QRCodes media.Store

	opts     Options
	validate *validator.Validate
}

// New creates a catalog service.
func New(database *db.DB, photos, qrcodes media.Store, opts Options) *Service {
	return &Service{
		DB:       database,
		Photos:   photos,
		QRCodes:  qrcodes,
		opts:     opts,
		validate: newValidator(opts),
	}
}

// Options returns the rules the service validates against.
func (s *Service) Options() Options {
	return s.opts
}

// List returns the items matching filter in id order.
func (s *Service) List(ctx context.Context, filter model.ItemFilter) ([]model.Item, error) {
	items, err := store.ListItems(ctx, s.DB, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	for i := range items {
		s.decorate(&items[i])
	}
	return items, nil
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.decorate(item)
	return item, nil
}

// Create validates the fields and photo, inserts the row, then stores the
// photo as {id}.{ext} and the QR code as {id}.png, recording each path right
// after its file is written. Nothing is rolled back: if a file step fails the
// row stays without that path and an ErrMedia or ErrStore error is returned.
func (s *Service) Create(ctx context.Context, f model.ItemFields, photo *Photo) (*model.Item, error) {
	if err := s.validateForm(f); err != nil {
		return nil, err
	}

	var (
		ext       string
		processed *imaging.ProcessResult
	)
	if photo != nil {
		var err error
		ext, processed, err = s.preparePhoto(photo)
		if err != nil {
			return nil, err
		}
	}

	item, err := store.CreateItem(ctx, s.DB, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	if processed != nil {
		if err := s.storePhoto(ctx, item.ID, ext, processed); err != nil {
			return nil, err
		}
	}

	data, err := qrcode.PNG(item.ID, s.opts.QRModuleSize)
	if err != nil {
		slog.Error("failed to render qr code", "item_id", item.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMedia, err)
	}
	qrName := qrcode.FileName(item.ID)
	if err := s.QRCodes.Save(ctx, qrName, data, "image/png"); err != nil {
		slog.Error("failed to store qr code", "item_id", item.ID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMedia, err)
	}
	if err := store.SetItemQRCode(ctx, s.DB, item.ID, qrName); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}

	return s.Get(ctx, item.ID)
}

// Update applies the provided fields, then replaces the photo if one is given.
// A replacement photo is stored before the previous file is removed.
// Invalid field values reject the whole update. An invalid photo does not undo
// the field update: the updated item is returned together with an
// ErrInvalidInput error.
func (s *Service) Update(ctx context.Context, id int64, p model.ItemPatch, photo *Photo) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	if item == nil {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if err := s.validateForm(p); err != nil {
		return nil, err
	}

	if !p.Empty() {
		ok, err := store.UpdateItem(ctx, s.DB, id, p)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
	}

	if photo != nil {
		ext, processed, err := s.preparePhoto(photo)
		if err != nil {
			updated, getErr := s.Get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return updated, fmt.Errorf("photo not changed: %w", err)
		}

		// The new file and path go first so a failed save keeps the old photo.
		if err := s.storePhoto(ctx, id, ext, processed); err != nil {
			return nil, err
		}
		if item.PhotoPath != nil && *item.PhotoPath != photoName(id, ext) {
			if err := s.Photos.Remove(ctx, *item.PhotoPath); err != nil {
				slog.Warn("failed to remove old photo", "item_id", id, "photo", *item.PhotoPath, "error", err)
			}
		}
	}

	return s.Get(ctx, id)
}

// Delete removes the row, then the photo and QR code files. File removal is
// best effort; failures are logged.
func (s *Service) Delete(ctx context.Context, id int64) error {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if item == nil {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	ok, err := store.DeleteItem(ctx, s.DB, id)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if item.PhotoPath != nil {
		if err := s.Photos.Remove(ctx, *item.PhotoPath); err != nil {
			slog.Warn("failed to remove photo of deleted item", "item_id", id, "error", err)
		}
	}
	if item.QRCodePath != nil {
		if err := s.QRCodes.Remove(ctx, *item.QRCodePath); err != nil {
			slog.Warn("failed to remove qr code of deleted item", "item_id", id, "error", err)
		}
	}
	return nil
}

// Ping checks that the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

func (s *Service) preparePhoto(photo *Photo) (string, *imaging.ProcessResult, error) {
	ext, err := imaging.Extension(photo.Filename, s.opts.PhotoExtensions)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	processed, err := imaging.Process(photo.Body, ext)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return ext, processed, nil
}

func (s *Service) storePhoto(ctx context.Context, id int64, ext string, processed *imaging.ProcessResult) error {
	name := photoName(id, ext)
	if err := s.Photos.Save(ctx, name, processed.Data, processed.MIME); err != nil {
		slog.Error("failed to store photo", "item_id", id, "error", err)
		return fmt.Errorf("%w: %w", ErrMedia, err)
	}
	if err := store.SetItemPhoto(ctx, s.DB, id, &name); err != nil {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	return nil
}

func photoName(id int64, ext string) string {
	return fmt.Sprintf("%d.%s", id, ext)
}

func (s *Service) decorate(item *model.Item) {
	if item.PhotoPath != nil {
		item.PhotoURL = s.Photos.URL(*item.PhotoPath)
	}
	if item.QRCodePath != nil {
		item.QRCodeURL = s.QRCodes.URL(*item.QRCodePath)
	}
}
