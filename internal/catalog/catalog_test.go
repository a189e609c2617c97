package catalog

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/erazemk/wardrobe/internal/db"
	"github.com/erazemk/wardrobe/internal/imaging"
	"github.com/erazemk/wardrobe/internal/media"
	"github.com/erazemk/wardrobe/internal/model"
	"github.com/erazemk/wardrobe/internal/store"
)

func testOptions() Options {
	return Options{
		PhotoExtensions: imaging.DefaultExtensions,
		Categories:      model.DefaultCategories,
		Colors:          model.DefaultColors,
		Wardrobes:       model.DefaultWardrobes,
	}
}

func newTestService(t *testing.T) (*Service, *media.Dir, *media.Dir) {
	t.Helper()
	root := t.TempDir()
	photos, err := media.NewDir(filepath.Join(root, "photos"), "/media/photos")
	if err != nil {
		t.Fatal(err)
	}
	qrcodes, err := media.NewDir(filepath.Join(root, "qrcodes"), "/media/qrcodes")
	if err != nil {
		t.Fatal(err)
	}
	return New(db.NewTestDB(t), photos, qrcodes, testOptions()), photos, qrcodes
}

func testPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, color.RGBA{0, 128, 0, 255})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func shirt() model.ItemFields {
	return model.ItemFields{Name: "shirt", Category: "upper", Color: "warm", Wardrobe: "A"}
}

func strPtr(s string) *string { return &s }

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func countItems(t *testing.T, s *Service) int {
	t.Helper()
	n, err := store.CountItems(context.Background(), s.DB)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateWithoutPhoto(t *testing.T) {
	svc, _, qrcodes := newTestService(t)

	item, err := svc.Create(context.Background(), shirt(), nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.PhotoPath != nil {
		t.Errorf("expected no photo, got %q", *item.PhotoPath)
	}

	wantQR := itoa(item.ID) + ".png"
	if item.QRCodePath == nil || *item.QRCodePath != wantQR {
		t.Fatalf("expected qrcode_path %q, got %v", wantQR, item.QRCodePath)
	}
	if !exists(qrcodes.Path(wantQR)) {
		t.Error("expected QR code file on disk")
	}
	if item.QRCodeURL != "/media/qrcodes/"+wantQR {
		t.Errorf("unexpected qr url %q", item.QRCodeURL)
	}
}

func TestCreateWithPhoto(t *testing.T) {
	svc, photos, _ := newTestService(t)

	item, err := svc.Create(context.Background(), shirt(), &Photo{
		Filename: "Shirt.PNG",
		Body:     bytes.NewReader(testPNG()),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	wantPhoto := itoa(item.ID) + ".png"
	if item.PhotoPath == nil || *item.PhotoPath != wantPhoto {
		t.Fatalf("expected photo_path %q, got %v", wantPhoto, item.PhotoPath)
	}
	if !exists(photos.Path(wantPhoto)) {
		t.Error("expected photo file on disk")
	}
	if item.PhotoURL != "/media/photos/"+wantPhoto {
		t.Errorf("unexpected photo url %q", item.PhotoURL)
	}
}

func TestCreateRejectsGIF(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), shirt(), &Photo{
		Filename: "shirt.gif",
		Body:     strings.NewReader("GIF89a"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if n := countItems(t, svc); n != 0 {
		t.Errorf("expected no row to be persisted, got %d", n)
	}
}

func TestCreateRejectsUndecodablePhoto(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), shirt(), &Photo{
		Filename: "shirt.jpg",
		Body:     strings.NewReader("definitely not a jpeg"),
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if n := countItems(t, svc); n != 0 {
		t.Errorf("expected no row to be persisted, got %d", n)
	}
}

func TestCreateValidatesFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(*model.ItemFields)
		message string
	}{
		{"missing name", func(f *model.ItemFields) { f.Name = "" }, "name is required"},
		{"long name", func(f *model.ItemFields) { f.Name = strings.Repeat("a", 101) }, "name must be at most 100"},
		{"unknown category", func(f *model.ItemFields) { f.Category = "hat" }, "category must be one of"},
		{"unknown color", func(f *model.ItemFields) { f.Color = "purple" }, "color must be one of"},
		{"missing wardrobe", func(f *model.ItemFields) { f.Wardrobe = "" }, "wardrobe is required"},
	}

	for _, tt := range tests {
		f := shirt()
		tt.mutate(&f)
		_, err := svc.Create(ctx, f, nil)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tt.name, err)
			continue
		}
		if !strings.Contains(err.Error(), tt.message) {
			t.Errorf("%s: expected %q in %q", tt.name, tt.message, err.Error())
		}
	}

	if n := countItems(t, svc); n != 0 {
		t.Errorf("expected no rows, got %d", n)
	}
}

func TestCreateNameLimitCountsCharacters(t *testing.T) {
	svc, _, _ := newTestService(t)

	f := shirt()
	f.Name = strings.Repeat("衣", 100)
	if _, err := svc.Create(context.Background(), f, nil); err != nil {
		t.Errorf("100 character name should be accepted: %v", err)
	}
}

// failingStore fails every write.
type failingStore struct{}

func (failingStore) Save(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}
func (failingStore) Remove(context.Context, string) error { return errors.New("disk gone") }
func (failingStore) URL(name string) string { return "/broken/" + name }

func TestCreateKeepsRowWhenQRCodeStoreFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.QRCodes = failingStore{}
	ctx := context.Background()

	_, err := svc.Create(ctx, shirt(), nil)
	if !errors.Is(err, ErrMedia) {
		t.Fatalf("expected ErrMedia, got %v", err)
	}

	items, _ := svc.List(ctx, model.ItemFilter{})
	if len(items) != 1 {
		t.Fatalf("expected the created row to persist, got %d rows", len(items))
	}
	if items[0].QRCodePath != nil {
		t.Errorf("expected no qr code path after failure, got %q", *items[0].QRCodePath)
	}
}

func TestCreateKeepsRowWhenPhotoStoreFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	svc.Photos = failingStore{}
	ctx := context.Background()

	_, err := svc.Create(ctx, shirt(), &Photo{Filename: "a.png", Body: bytes.NewReader(testPNG())})
	if !errors.Is(err, ErrMedia) {
		t.Fatalf("expected ErrMedia, got %v", err)
	}

	items, _ := svc.List(ctx, model.ItemFilter{})
	if len(items) != 1 || items[0].PhotoPath != nil {
		t.Errorf("expected one row without photo path, got %+v", items)
	}
}

func TestGetNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Get(context.Background(), 5); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListByWardrobe(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.Create(ctx, shirt(), nil)
	svc.Create(ctx, model.ItemFields{Name: "coat", Category: "upper", Color: "black-white", Wardrobe: "B"}, nil)

	all, err := svc.List(ctx, model.ItemFilter{Wardrobe: model.WardrobeAll})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 items for All, got %d", len(all))
	}

	inB, _ := svc.List(ctx, model.ItemFilter{Wardrobe: "B"})
	if len(inB) != 1 || inB[0].Name != "coat" {
		t.Errorf("expected only coat in B, got %+v", inB)
	}
}

func TestUpdateWithoutCategoryKeepsCategory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, shirt(), nil)

	updated, err := svc.Update(ctx, item.ID, model.ItemPatch{Color: strPtr("cool"), Description: strPtr("ironed")}, nil)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Category != "upper" || updated.Name != "shirt" {
		t.Errorf("omitted fields changed: %+v", updated)
	}
	if updated.Color != "cool" || updated.Description != "ironed" {
		t.Errorf("provided fields not applied: %+v", updated)
	}
	if updated.QRCodePath == nil || *updated.QRCodePath != *item.QRCodePath {
		t.Error("update must not touch the qr code")
	}
}

func TestUpdateRejectsInvalidField(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, shirt(), nil)

	_, err := svc.Update(ctx, item.ID, model.ItemPatch{Name: strPtr("coat"), Wardrobe: strPtr("Z")}, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	got, _ := svc.Get(ctx, item.ID)
	if got.Name != "shirt" {
		t.Errorf("rejected update must not change name, got %q", got.Name)
	}

	_, err = svc.Update(ctx, item.ID, model.ItemPatch{Name: strPtr("")}, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected empty name to be rejected, got %v", err)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 77, model.ItemPatch{Name: strPtr("x")}, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateReplacesPhoto(t *testing.T) {
	svc, photos, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, shirt(), &Photo{Filename: "a.png", Body: bytes.NewReader(testPNG())})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldPath := photos.Path(*item.PhotoPath)

	updated, err := svc.Update(ctx, item.ID, model.ItemPatch{}, &Photo{Filename: "b.JPG", Body: bytes.NewReader(testPNG())})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	wantPhoto := itoa(item.ID) + ".jpg"
	if updated.PhotoPath == nil || *updated.PhotoPath != wantPhoto {
		t.Fatalf("expected photo_path %q, got %v", wantPhoto, updated.PhotoPath)
	}
	if exists(oldPath) {
		t.Error("expected old photo to be removed")
	}
	if !exists(photos.Path(wantPhoto)) {
		t.Error("expected new photo on disk")
	}
}

// saveFailingDir refuses new files but still removes existing ones.
type saveFailingDir struct {
	*media.Dir
}

func (saveFailingDir) Save(context.Context, string, []byte, string) error {
	return errors.New("disk full")
}

func TestUpdateKeepsOldPhotoWhenSaveFails(t *testing.T) {
	svc, photos, _ := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, shirt(), &Photo{Filename: "a.png", Body: bytes.NewReader(testPNG())})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldName := *item.PhotoPath

	svc.Photos = saveFailingDir{photos}
	_, err = svc.Update(ctx, item.ID, model.ItemPatch{}, &Photo{Filename: "b.jpg", Body: bytes.NewReader(testPNG())})
	if !errors.Is(err, ErrMedia) {
		t.Fatalf("expected ErrMedia, got %v", err)
	}

	got, _ := svc.Get(ctx, item.ID)
	if got.PhotoPath == nil || *got.PhotoPath != oldName {
		t.Fatalf("expected photo_path to stay %q, got %v", oldName, got.PhotoPath)
	}
	if !exists(photos.Path(oldName)) {
		t.Errorf("photo_path %q references a missing file", oldName)
	}
}

func TestUpdateSameExtensionOverwritesPhoto(t *testing.T) {
	svc, photos, _ := newTestService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, shirt(), &Photo{Filename: "a.png", Body: bytes.NewReader(testPNG())})

	updated, err := svc.Update(ctx, item.ID, model.ItemPatch{}, &Photo{Filename: "b.PNG", Body: bytes.NewReader(testPNG())})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if *updated.PhotoPath != *item.PhotoPath {
		t.Errorf("expected photo_path %q, got %q", *item.PhotoPath, *updated.PhotoPath)
	}
	if !exists(photos.Path(*updated.PhotoPath)) {
		t.Error("expected photo to remain on disk")
	}
}

func TestUpdateInvalidPhotoStillUpdatesFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, shirt(), nil)

	updated, err := svc.Update(ctx, item.ID, model.ItemPatch{Name: strPtr("blouse")},
		&Photo{Filename: "b.bmp", Body: strings.NewReader("BM")})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for the photo, got %v", err)
	}
	if updated == nil || updated.Name != "blouse" {
		t.Errorf("expected field update to be applied, got %+v", updated)
	}
	if updated != nil && updated.PhotoPath != nil {
		t.Errorf("photo must not change, got %q", *updated.PhotoPath)
	}
}

func TestDeleteRemovesFiles(t *testing.T) {
	svc, photos, qrcodes := newTestService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, shirt(), &Photo{Filename: "a.jpeg", Body: bytes.NewReader(testPNG())})
	photoPath := photos.Path(*item.PhotoPath)
	qrPath := qrcodes.Path(*item.QRCodePath)

	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if exists(photoPath) {
		t.Error("expected photo file to be removed")
	}
	if exists(qrPath) {
		t.Error("expected qr code file to be removed")
	}
}

func TestDeleteSucceedsWhenFileRemovalFails(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	item, _ := svc.Create(ctx, shirt(), nil)
	svc.QRCodes = failingStore{}

	if err := svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("row delete is authoritative, got %v", err)
	}
	if n := countItems(t, svc); n != 0 {
		t.Errorf("expected row to be gone, got %d", n)
	}
}

func TestDeleteNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	svc.Create(ctx, shirt(), nil)

	if err := svc.Delete(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n := countItems(t, svc); n != 1 {
		t.Errorf("expected row count unchanged at 1, got %d", n)
	}
}

func TestValidatorRegistersEnumTags(t *testing.T) {
	v := newValidator(testOptions())

	for tag, good := range map[string]string{"category": "upper", "color": "warm", "wardrobe": "A"} {
		if err := v.Var(good, tag); err != nil {
			t.Errorf("%s: expected %q to pass, got %v", tag, good, err)
		}
		if err := v.Var("nope", tag); err == nil {
			t.Errorf("%s: expected %q to fail", tag, "nope")
		}
	}
}
