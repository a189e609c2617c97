package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDirSaveAndRemove(t *testing.T) {
	ctx := context.Background()
	d, err := NewDir(filepath.Join(t.TempDir(), "photos"), "/media/photos/")
	if err != nil {
		t.Fatalf("NewDir: %v", err)
	}

	if err := d.Save(ctx, "1.jpg", []byte("first"), "image/jpeg"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := d.Save(ctx, "1.jpg", []byte("second"), "image/jpeg"); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}

	data, err := os.ReadFile(d.Path("1.jpg"))
	if err != nil {
		t.Fatalf("reading saved file: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("expected overwritten content, got %q", data)
	}

	entries, _ := os.ReadDir(d.Root)
	if len(entries) != 1 {
		t.Errorf("expected only the saved file, found %d entries", len(entries))
	}

	if err := d.Remove(ctx, "1.jpg"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(d.Path("1.jpg")); !os.IsNotExist(err) {
		t.Errorf("expected file to be gone, stat err = %v", err)
	}

	if err := d.Remove(ctx, "1.jpg"); err != nil {
		t.Errorf("removing a missing file should succeed, got %v", err)
	}
}

func TestDirRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	d, _ := NewDir(t.TempDir(), "/media/photos")

	for _, name := range []string{"", "..", "../1.png", "a/b.png", `a\b.png`} {
		if err := d.Save(ctx, name, []byte("x"), "image/png"); err == nil {
			t.Errorf("Save(%q) should fail", name)
		}
		if err := d.Remove(ctx, name); err == nil {
			t.Errorf("Remove(%q) should fail", name)
		}
	}
}

func TestDirURL(t *testing.T) {
	d, _ := NewDir(t.TempDir(), "/media/qrcodes/")
	if got := d.URL("12.png"); got != "/media/qrcodes/12.png" {
		t.Errorf("URL = %q", got)
	}
}

func TestDirHandler(t *testing.T) {
	ctx := context.Background()
	d, _ := NewDir(t.TempDir(), "/media/photos")
	d.Save(ctx, "3.png", []byte("png bytes"), "image/png")

	mux := http.NewServeMux()
	mux.Handle("GET /media/photos/", http.StripPrefix("/media/photos/", d.Handler()))
	server := httptest.NewServer(mux)
	defer server.Close()

	resp, err := http.Get(server.URL + "/media/photos/3.png")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "png bytes" {
		t.Errorf("expected file content, got %d %q", resp.StatusCode, body)
	}

	resp, _ = http.Get(server.URL + "/media/photos/")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for directory listing, got %d", resp.StatusCode)
	}
}
