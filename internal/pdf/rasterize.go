// Package pdf wraps the external PDF rasterizer. Page rendering itself is an
// external collaborator (pdftoppm); this package only shells out to it and
// collects the results.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	ledongthuc "github.com/ledongthuc/pdf"
)

// Config for the rasterizer.
type Config struct {
	Pdftoppm string // binary name or path, default "pdftoppm"
	DPI      int    // render resolution, default 200
	MaxPages int    // 0 = unlimited
}

// Rasterizer renders PDF pages to JPEG images.
type Rasterizer struct {
	runner Runner
	cfg    Config
}

// NewRasterizer creates a rasterizer with the default exec-backed runner.
func NewRasterizer(cfg Config) *Rasterizer {
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 200
	}
	return &Rasterizer{runner: execRunner{}, cfg: cfg}
}

// PageCount parses the PDF header to count pages without rendering anything.
func (r *Rasterizer) PageCount(path string) (int, error) {
	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()
	return reader.NumPage(), nil
}

// RenderPages rasterizes every page at the configured DPI and returns the
// JPEG bytes in page order.
func (r *Rasterizer) RenderPages(ctx context.Context, path string) ([][]byte, error) {
	tmpDir, err := os.MkdirTemp("", "paperbank-pp-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -jpeg <in.pdf> <tmp/page>
	_, errb, err := r.runner.Run(ctx, r.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", r.cfg.DPI), "-jpeg", path, prefix)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (stderr: %s)", err, truncate(string(errb), 1<<10))
	}

	// pdftoppm zero-pads page numbers, so a string sort keeps page order.
	matches, _ := filepath.Glob(prefix + "-*.jpg")
	sort.Strings(matches)
	if r.cfg.MaxPages > 0 && len(matches) > r.cfg.MaxPages {
		matches = matches[:r.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no images")
	}

	pages := make([][]byte, 0, len(matches))
	for _, img := range matches {
		b, err := os.ReadFile(img)
		if err != nil {
			return nil, fmt.Errorf("read rendered page %s: %w", filepath.Base(img), err)
		}
		pages = append(pages, b)
	}
	return pages, nil
}
