// Package config collects the service settings from defaults, the
// environment (optionally seeded from a .env file) and command line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/erazemk/wardrobe/internal/imaging"
	"github.com/erazemk/wardrobe/internal/media"
	"github.com/erazemk/wardrobe/internal/model"
	"github.com/erazemk/wardrobe/internal/qrcode"
)

// Media backends.
const (
	BackendLocal = "local"
	BackendS3    = "s3"
)

// Config holds every setting of the service.
type Config struct {
	Addr    string
	DSN     string
	LogPath string

	MediaBackend string
	PhotoDir     string
	QRCodeDir    string

	S3          media.S3Config
	S3Bucket    string
	S3PublicURL string

	PhotoExtensions []string
	Categories      model.Enum
	Colors          model.Enum
	Wardrobes       model.Enum

	MaxUploadBytes int64
	QRModuleSize   int
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		DSN:             "wardrobe.sqlite3",
		MediaBackend:    BackendLocal,
		PhotoDir:        "static/uploads/photos",
		QRCodeDir:       "static/uploads/qrcodes",
		S3:              media.S3Config{Region: "us-east-1"},
		PhotoExtensions: slices.Clone(imaging.DefaultExtensions),
		Categories:      slices.Clone(model.DefaultCategories),
		Colors:          slices.Clone(model.DefaultColors),
		Wardrobes:       slices.Clone(model.DefaultWardrobes),
		MaxUploadBytes:  10 << 20,
		QRModuleSize:    qrcode.DefaultModuleSize,
	}
}

// LoadEnvFile loads variables from a .env file without overriding variables
// that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// FromEnv returns the default configuration overridden by WARDROBE_*
// environment variables. DATABASE_URL is honoured when WARDROBE_DB is unset.
func FromEnv() (Config, error) {
	return fromLookup(os.LookupEnv)
}

func fromLookup(lookup func(string) (string, bool)) (Config, error) {
	c := Default()

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	enum := func(key string, dst *model.Enum) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = model.Enum(splitList(v))
		}
	}

	str("DATABASE_URL", &c.DSN)
	str("WARDROBE_DB", &c.DSN)
	str("WARDROBE_ADDR", &c.Addr)
	str("WARDROBE_LOG", &c.LogPath)
	str("WARDROBE_MEDIA_BACKEND", &c.MediaBackend)
	str("WARDROBE_PHOTO_DIR", &c.PhotoDir)
	str("WARDROBE_QRCODE_DIR", &c.QRCodeDir)
	str("WARDROBE_S3_BUCKET", &c.S3Bucket)
	str("WARDROBE_S3_PUBLIC_URL", &c.S3PublicURL)
	str("WARDROBE_S3_REGION", &c.S3.Region)
	str("WARDROBE_S3_ENDPOINT", &c.S3.Endpoint)
	str("WARDROBE_S3_ACCESS_KEY", &c.S3.AccessKey)
	str("WARDROBE_S3_SECRET_KEY", &c.S3.SecretKey)
	list("WARDROBE_PHOTO_EXTENSIONS", &c.PhotoExtensions)
	enum("WARDROBE_CATEGORIES", &c.Categories)
	enum("WARDROBE_COLORS", &c.Colors)
	enum("WARDROBE_WARDROBES", &c.Wardrobes)

	if v, ok := lookup("WARDROBE_S3_PATH_STYLE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("WARDROBE_S3_PATH_STYLE: %w", err)
		}
		c.S3.PathStyle = b
	}
	if v, ok := lookup("WARDROBE_MAX_UPLOAD_MB"); ok && v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("WARDROBE_MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadBytes = mb << 20
	}
	if v, ok := lookup("WARDROBE_QR_MODULE_SIZE"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return c, fmt.Errorf("WARDROBE_QR_MODULE_SIZE: %w", err)
		}
		c.QRModuleSize = n
	}

	for i, ext := range c.PhotoExtensions {
		c.PhotoExtensions[i] = strings.ToLower(strings.TrimPrefix(ext, "."))
	}
	return c, nil
}

// Validate checks the configuration for values the service cannot run with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.New("listen address is empty")
	}
	if c.DSN == "" {
		return errors.New("database is empty")
	}
	switch c.MediaBackend {
	case BackendLocal:
		if c.PhotoDir == "" || c.QRCodeDir == "" {
			return errors.New("photo and qr code directories are required for the local media backend")
		}
		if c.PhotoDir == c.QRCodeDir {
			return errors.New("photo and qr code directories must differ")
		}
	case BackendS3:
		if c.S3Bucket == "" {
			return errors.New("s3 bucket is required for the s3 media backend")
		}
	default:
		return fmt.Errorf("unknown media backend %q (want %s or %s)", c.MediaBackend, BackendLocal, BackendS3)
	}
	if len(c.PhotoExtensions) == 0 {
		return errors.New("no photo extensions allowed")
	}
	if len(c.Categories) == 0 || len(c.Colors) == 0 || len(c.Wardrobes) == 0 {
		return errors.New("category, color and wardrobe sets must not be empty")
	}
	if c.Wardrobes.Contains(model.WardrobeAll) {
		return fmt.Errorf("%q is reserved and cannot name a wardrobe", model.WardrobeAll)
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("upload limit must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}
