package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Dir stores files in a local directory.
type Dir struct {
	Root    string
	BaseURL string
}

// NewDir creates the directory if needed. baseURL is the path prefix under
// which Handler is mounted.
func NewDir(root, baseURL string) (*Dir, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("creating media directory: %w", err)
	}
	return &Dir{Root: root, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Path returns the file system path of name.
func (d *Dir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

// Save writes data to a temporary file and renames it into place.
func (d *Dir) Save(_ context.Context, name string, data []byte, _ string) error {
	if err := validName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.Root, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("setting mode of %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), d.Path(name)); err != nil {
		return fmt.Errorf("moving %s into place: %w", name, err)
	}
	return nil
}

// Remove deletes name from the directory.
func (d *Dir) Remove(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := os.Remove(d.Path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", name, err)
	}
	return nil
}

// URL returns BaseURL/name.
func (d *Dir) URL(name string) string {
	return d.BaseURL + "/" + url.PathEscape(name)
}

// Handler serves the directory. Mount it with http.StripPrefix(BaseURL+"/").
func (d *Dir) Handler() http.Handler {
	return http.FileServer(noListing{http.Dir(d.Root)})
}

// noListing hides directory indexes and temp files.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	if strings.HasPrefix(filepath.Base(name), ".") {
		return nil, fs.ErrNotExist
	}
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
