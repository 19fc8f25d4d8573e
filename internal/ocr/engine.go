package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"
)

// ErrOCR marks a recognition failure. Callers treat it as per-page and
// recoverable; it never aborts a whole document on its own.
var ErrOCR = errors.New("ocr failed")

// RecognizeOptions carries the per-call knobs of a recognition request.
// Progress, when set, receives coarse percentages in 0..100. Engines that
// cannot report finer granularity emit 0 at start and 100 on completion.
type RecognizeOptions struct {
	Language string
	Progress func(percent int)
}

// Engine is the external OCR boundary: rasterized page image in, recognized
// text out. Any engine satisfying this contract is substitutable.
type Engine interface {
	Recognize(ctx context.Context, imagePath string, opts RecognizeOptions) (string, error)
}

// Config for the tesseract-backed engine.
type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Language    string // default "eng"
	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Tesseract shells out to the tesseract CLI through a Runner.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if runner == nil {
		runner = ExecRunner()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	return &Tesseract{cfg: cfg, runner: runner, logger: logger}
}

// reBoxNoise strips stray box-drawing characters tesseract sometimes emits
// around table rules.
var reBoxNoise = regexp.MustCompile(`[|_¦]{3,}`)

func (t *Tesseract) Recognize(ctx context.Context, imagePath string, opts RecognizeOptions) (string, error) {
	start := time.Now()
	if opts.Progress != nil {
		opts.Progress(0)
	}

	lang := opts.Language
	if lang == "" {
		lang = t.cfg.Language
	}
	args := []string{imagePath, "stdout", "-l", lang}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", t.cfg.PSM))
	}
	if t.cfg.OEM > 0 {
		args = append(args, "--oem", fmt.Sprintf("%d", t.cfg.OEM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: tesseract: %v: %s", ErrOCR, err, truncate(string(errb), 512))
	}

	txt := reBoxNoise.ReplaceAllString(string(out), "")
	t.logger.Debug("ocr.recognize.ok",
		"image", imagePath,
		"lang", lang,
		"bytes", len(txt),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if opts.Progress != nil {
		opts.Progress(100)
	}
	return txt, nil
}
