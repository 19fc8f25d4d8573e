// Package pdfdoc opens PDF byte streams and exposes per-page text and
// raster access for the extraction pipeline.
package pdfdoc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/citecheck/constants"
	"github.com/joseph-ayodele/citecheck/internal/ocr"
)

var (
	// ErrDocumentOpen marks a byte stream that is not a well-formed,
	// unencrypted PDF. Fatal; no pages are processed.
	ErrDocumentOpen = errors.New("document open failed")

	// ErrDocumentTooLarge is raised by the size gate before any page work.
	ErrDocumentTooLarge = errors.New("document too large")

	// ErrRaster marks a page rasterization failure, distinct from OCR
	// failures downstream.
	ErrRaster = errors.New("page rasterization failed")
)

// Config for document access.
type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	DPI      int   // rasterization DPI, default 300
	MaxBytes int64 // input size gate, default constants.MaxDocumentBytes
}

// Document is an opened, validated PDF. It owns a temp copy of the input
// bytes for the duration of one extraction run; Close releases it.
type Document struct {
	cfg    Config
	runner ocr.Runner
	logger *slog.Logger

	path    string
	pages   int
	workDir string
}

// Open validates the declared media type, enforces the size gate, parses the
// byte stream, and reports the page count. The returned Document exposes
// pages 1..PageCount() until Close.
func Open(ctx context.Context, data []byte, mediaType string, cfg Config, runner ocr.Runner, logger *slog.Logger) (*Document, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ocr.ExecRunner()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = constants.MaxDocumentBytes
	}

	if mediaType != constants.MediaTypePDF {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrDocumentOpen, mediaType)
	}
	if int64(len(data)) > cfg.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrDocumentTooLarge, len(data), cfg.MaxBytes)
	}

	workDir, err := os.MkdirTemp("", "citecheck-doc-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	path := filepath.Join(workDir, "source.pdf")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("write temp pdf: %w", err)
	}

	// PageCountFile reads the xref and fails on malformed or encrypted input.
	pages, err := api.PageCountFile(path)
	if err != nil {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("%w: %v", ErrDocumentOpen, err)
	}
	if pages <= 0 {
		_ = os.RemoveAll(workDir)
		return nil, fmt.Errorf("%w: document has no pages", ErrDocumentOpen)
	}

	logger.Debug("pdfdoc.open.ok", "bytes", len(data), "pages", pages)
	return &Document{
		cfg:     cfg,
		runner:  runner,
		logger:  logger,
		path:    path,
		pages:   pages,
		workDir: workDir,
	}, nil
}

// PageCount returns the total number of pages.
func (d *Document) PageCount() int { return d.pages }

// Close removes the temp copy. The Document is unusable afterwards.
func (d *Document) Close() error {
	return os.RemoveAll(d.workDir)
}

func (d *Document) checkPage(page int) error {
	if page < 1 || page > d.pages {
		return fmt.Errorf("page %d out of range 1..%d", page, d.pages)
	}
	return nil
}
