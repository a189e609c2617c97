package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erazemk/wardrobe/internal/api"
	"github.com/erazemk/wardrobe/internal/catalog"
	"github.com/erazemk/wardrobe/internal/config"
	"github.com/erazemk/wardrobe/internal/db"
	"github.com/erazemk/wardrobe/internal/media"
	"github.com/erazemk/wardrobe/internal/store"
	"github.com/erazemk/wardrobe/internal/web"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= slog.LevelInfo
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("wardrobe", flag.ContinueOnError)

	fs.StringVar(&cfg.DSN, "db", cfg.DSN, "")
	fs.StringVar(&cfg.DSN, "d", cfg.DSN, "")

	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")

	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	fs.StringVar(&cfg.MediaBackend, "media", cfg.MediaBackend, "")
	fs.StringVar(&cfg.MediaBackend, "m", cfg.MediaBackend, "")

	fs.StringVar(&cfg.PhotoDir, "photos", cfg.PhotoDir, "")
	fs.StringVar(&cfg.QRCodeDir, "qrcodes", cfg.QRCodeDir, "")
	fs.StringVar(&cfg.S3Bucket, "bucket", cfg.S3Bucket, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: wardrobe [flags]

Flags:
  -d, -db <dsn>           SQLite path or postgres:// URL (default: wardrobe.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -m, -media <backend>    media backend, local or s3 (default: local)
      -photos <dir>       photo directory for the local backend
      -qrcodes <dir>      QR code directory for the local backend
      -bucket <name>      bucket for the s3 backend
  -h, -help               show this help and exit

Every flag can also be set in the environment or a .env file
(WARDROBE_DB, WARDROBE_ADDR, WARDROBE_LOG, WARDROBE_MEDIA_BACKEND,
WARDROBE_PHOTO_DIR, WARDROBE_QRCODE_DIR, WARDROBE_S3_BUCKET). The
environment also sets WARDROBE_CATEGORIES, WARDROBE_COLORS,
WARDROBE_WARDROBES, WARDROBE_PHOTO_EXTENSIONS, WARDROBE_MAX_UPLOAD_MB,
WARDROBE_QR_MODULE_SIZE and the WARDROBE_S3_* connection settings.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging: INFO/WARN → stdout, ERROR → stderr.
	// Optionally also write to a log file.
	closeLog, err := setupLogger(cfg.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	enums := db.Enums{Categories: cfg.Categories, Colors: cfg.Colors, Wardrobes: cfg.Wardrobes}
	if err := db.EnsureSchema(context.Background(), database, enums); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	// CHECK constraints keep the sets the table was created with.
	if err := store.CheckValueSets(context.Background(), database, enums); err != nil {
		slog.Error("value sets do not match the database", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "dialect", database.Dialect.String())

	mux := http.NewServeMux()

	photos, qrcodes, err := mediaStores(context.Background(), cfg, mux)
	if err != nil {
		slog.Error("failed to set up media storage", "backend", cfg.MediaBackend, "error", err)
		os.Exit(1)
	}

	svc := catalog.New(database, photos, qrcodes, catalog.Options{
		PhotoExtensions: cfg.PhotoExtensions,
		Categories:      cfg.Categories,
		Colors:          cfg.Colors,
		Wardrobes:       cfg.Wardrobes,
		QRModuleSize:    cfg.QRModuleSize,
		MaxUploadBytes:  cfg.MaxUploadBytes,
	})

	// Set up routers.
	apiRouter := api.NewRouter(svc)
	webRouter, err := web.NewRouter(svc)
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	// Combine: API routes take priority, web routes handle the rest.
	for _, p := range api.Paths {
		mux.Handle(p, apiRouter)
	}
	mux.Handle("/", webRouter)

	handler := api.RequestID(api.LoggingMiddleware(mux))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "media", cfg.MediaBackend)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// mediaStores builds the photo and QR code stores. Local directories are
// also served from mux under /media/.
func mediaStores(ctx context.Context, cfg config.Config, mux *http.ServeMux) (photos, qrcodes media.Store, err error) {
	if cfg.MediaBackend == config.BackendS3 {
		client, err := media.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		photos = media.NewS3(client, cfg.S3Bucket, "photos", cfg.S3PublicURL)
		qrcodes = media.NewS3(client, cfg.S3Bucket, "qrcodes", cfg.S3PublicURL)
		return photos, qrcodes, nil
	}

	photoDir, err := media.NewDir(cfg.PhotoDir, "/media/photos")
	if err != nil {
		return nil, nil, err
	}
	qrDir, err := media.NewDir(cfg.QRCodeDir, "/media/qrcodes")
	if err != nil {
		return nil, nil, err
	}
	for _, d := range []*media.Dir{photoDir, qrDir} {
		mux.Handle("GET "+d.BaseURL+"/", http.StripPrefix(d.BaseURL+"/", d.Handler()))
	}
	return photoDir, qrDir, nil
}
