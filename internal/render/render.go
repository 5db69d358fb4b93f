// Package render turns source documents into ordered page images for the
// classifier, shelling out to pdftoppm.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PageRenderer converts a document into an ordered sequence of page-image
// paths. An empty sequence signals failure.
type PageRenderer interface {
	RenderPages(ctx context.Context, sourcePath string) ([]string, error)
}

// Config for the pdftoppm-backed renderer.
type Config struct {
	Pdftoppm string // binary name or absolute path; if empty -> "pdftoppm"
	DPI      int    // rasterization DPI, default 150
	TempDir  string // where page PNGs are written, default "temp_images"
}

// Pdftoppm renders PDF pages to PNGs in the configured temp directory.
type Pdftoppm struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewPdftoppm(cfg Config, logger *slog.Logger) *Pdftoppm {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 150
	}
	if cfg.TempDir == "" {
		cfg.TempDir = "temp_images"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pdftoppm{cfg: cfg, runner: execRunner{}, logger: logger}
}

// RenderPages rasterizes every page of the PDF at sourcePath into
// <temp_dir>/<stem>_page-<n>.png and returns the paths in page order.
// pdftoppm zero-pads page numbers, so a lexical sort preserves order.
func (r *Pdftoppm) RenderPages(ctx context.Context, sourcePath string) ([]string, error) {
	if err := os.MkdirAll(r.cfg.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	prefix := filepath.Join(r.cfg.TempDir, stem+"_page")

	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", r.cfg.DPI), "-png", sourcePath, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (%s)", err, strings.TrimSpace(string(errb)))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images for %s", sourcePath)
	}

	r.logger.Debug("render.pages_ok", "source", sourcePath, "pages", len(matches))
	return matches, nil
}

// CleanupPages removes rendered page images. Failures are logged and
// swallowed: cleanup is best-effort, never correctness-critical.
func CleanupPages(paths []string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			logger.Warn("render.cleanup_failed", "path", p, "error", err)
		}
	}
}
