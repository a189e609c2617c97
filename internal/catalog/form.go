package catalog

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/erazemk/wardrobe/internal/model"
)

// multipartMemory is how much of a multipart body is kept in memory before
// file parts spill to disk.
const multipartMemory = 8 << 20

// Form is a parsed item form. Close releases the uploaded file.
type Form struct {
	r    *http.Request
	file multipart.File
}

// ReadForm parses a multipart or urlencoded item form, limiting the body to
// the configured upload size.
func (s *Service) ReadForm(w http.ResponseWriter, r *http.Request) (*Form, error) {
	if s.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	}

	var err error
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("%w: request body exceeds %d bytes", ErrInvalidInput, tooLarge.Limit)
		}
		return nil, fmt.Errorf("%w: reading form: %w", ErrInvalidInput, err)
	}
	return &Form{r: r}, nil
}

func (f *Form) value(key string) string {
	return strings.TrimSpace(f.r.PostForm.Get(key))
}

// Fields returns the item columns of a create form.
func (f *Form) Fields() model.ItemFields {
	return model.ItemFields{
		Name:        f.value("name"),
		Category:    f.value("category"),
		Color:       f.value("color"),
		Wardrobe:    f.value("wardrobe"),
		Description: f.value("description"),
	}
}

// Patch returns the fields present in an update form. Absent keys stay nil.
func (f *Form) Patch() model.ItemPatch {
	field := func(key string) *string {
		if _, ok := f.r.PostForm[key]; !ok {
			return nil
		}
		v := f.value(key)
		return &v
	}
	return model.ItemPatch{
		Name:        field("name"),
		Category:    field("category"),
		Color:       field("color"),
		Wardrobe:    field("wardrobe"),
		Description: field("description"),
	}
}

// Photo returns the uploaded "photo" file, or nil if none was sent.
func (f *Form) Photo() (*Photo, error) {
	if f.r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := f.r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading photo: %w", ErrInvalidInput, err)
	}
	if header.Filename == "" {
		file.Close()
		return nil, nil
	}
	f.file = file
	return &Photo{Filename: header.Filename, Body: file}, nil
}

// Close releases the uploaded file and any temporary files of the form.
func (f *Form) Close() {
	if f.file != nil {
		f.file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}
