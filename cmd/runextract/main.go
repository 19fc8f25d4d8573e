package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/citecheck/constants"
	"github.com/joseph-ayodele/citecheck/internal/ocr"
	"github.com/joseph-ayodele/citecheck/internal/pdfdoc"
	"github.com/joseph-ayodele/citecheck/internal/pipeline"
)

// runextract runs stage 1 only: hybrid text extraction on one PDF, printing
// the assembled text to stdout.
func main() {
	var (
		dpi      = flag.Int("dpi", 300, "rasterization DPI")
		workers  = flag.Int("workers", 4, "concurrent page workers")
		lang     = flag.String("lang", "eng", "OCR language")
		progress = flag.Bool("progress", false, "log per-page progress events")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "runextract [flags] <file.pdf>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	runner := ocr.ExecRunner()
	engine := ocr.NewTesseract(ocr.Config{Language: *lang}, runner, logger)

	var reporter pipeline.Reporter
	if *progress {
		ch := pipeline.NewChanReporter(64)
		reporter = ch
		go func() {
			for ev := range ch.C {
				logger.Info("progress",
					"stage", string(ev.Stage), "page", ev.Page,
					"total", ev.TotalPages, "percent", ev.Percent)
			}
		}()
	}

	extractor := pipeline.NewExtractor(pipeline.Config{
		Workers:  *workers,
		Language: *lang,
	}, engine, reporter, logger)

	doc, err := pdfdoc.Open(ctx, data, constants.MediaTypePDF, pdfdoc.Config{DPI: *dpi}, runner, logger)
	if err != nil {
		logger.Error("open document", "path", path, "error", err)
		os.Exit(1)
	}
	defer doc.Close()

	start := time.Now()
	assembled, err := extractor.Extract(ctx, doc)
	if err != nil {
		logger.Error("extraction failed",
			"path", path, "error", err, "duration_ms", time.Since(start).Milliseconds())
		os.Exit(1)
	}

	logger.Info("extraction OK",
		"pages", len(assembled.Pages),
		"chars", len(assembled.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	fmt.Println(assembled.Text)
}
