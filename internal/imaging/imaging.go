package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
)

// MaxDimension is the maximum width or height for stored photos.
const MaxDimension = 1024

// JPEGQuality is the compression quality for JPEG output.
const JPEGQuality = 85

// DefaultExtensions are the photo extensions accepted when none are configured.
var DefaultExtensions = []string{"png", "jpg", "jpeg"}

// AllowedMIME lists the accepted input MIME types.
var AllowedMIME = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

var (
	// ErrExtension is returned for file names outside the extension allow-list.
	ErrExtension = errors.New("unsupported file extension")
	// ErrFormat is returned for data that is not a decodable PNG or JPEG.
	ErrFormat = errors.New("unsupported image format")
)

// Extension returns the lower-cased extension of filename, without the dot,
// if it is one of allowed.
func Extension(filename string, allowed []string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" || !slices.Contains(allowed, ext) {
		return "", fmt.Errorf("%w: %q (allowed: %s)", ErrExtension, filename, strings.Join(allowed, ", "))
	}
	return ext, nil
}

// ContentType returns the MIME type written for an extension.
func ContentType(ext string) string {
	if ext == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

// ProcessResult contains the processed image data.
type ProcessResult struct {
	Data []byte
	MIME string
}

// Process reads image data, validates the format by sniffing bytes, applies
// the EXIF orientation, downscales if larger than MaxDimension and re-encodes
// in the format named by ext so the stored file matches its name.
func Process(r io.Reader, ext string) (*ProcessResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	// Sniff actual MIME type from bytes (not trusting client headers).
	detected := http.DetectContentType(data)
	if !AllowedMIME[detected] {
		return nil, fmt.Errorf("%w: %s (only JPEG and PNG accepted)", ErrFormat, detected)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrFormat, err)
	}

	// Fit only shrinks, keeping the aspect ratio.
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.CatmullRom)

	var buf bytes.Buffer
	mime := ContentType(ext)
	switch mime {
	case "image/png":
		err = png.Encode(&buf, img)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", mime, err)
	}

	return &ProcessResult{
		Data: buf.Bytes(),
		MIME: mime,
	}, nil
}
