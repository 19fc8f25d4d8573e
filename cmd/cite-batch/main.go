package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/citecheck/constants"
	"github.com/joseph-ayodele/citecheck/internal/common"
	"github.com/joseph-ayodele/citecheck/internal/export"
	"github.com/joseph-ayodele/citecheck/internal/ocr"
	"github.com/joseph-ayodele/citecheck/internal/oracle/openai"
	"github.com/joseph-ayodele/citecheck/internal/pdfdoc"
	"github.com/joseph-ayodele/citecheck/internal/pipeline"
	"github.com/joseph-ayodele/citecheck/internal/processor"
)

type batchStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// cite-batch walks a directory of PDFs, runs the full pipeline on each, and
// writes one XLSX citation report next to every processed file.
func main() {
	var (
		dir     = flag.String("dir", "", "directory to process (required)")
		workers = flag.Int("workers", 4, "concurrent page workers per document")
		lang    = flag.String("lang", "eng", "OCR language")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}
	if *dir == "" {
		logger.Error("usage", "cmd", "cite-batch --dir <path>")
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	runner := ocr.ExecRunner()
	engine := ocr.NewTesseract(ocr.Config{Language: *lang}, runner, logger)
	extractor := pipeline.NewExtractor(pipeline.Config{
		Workers:  *workers,
		Language: *lang,
	}, engine, nil, logger)
	oracleClient := openai.NewClient(openai.Config{
		APIKey:        cfg.Oracle.APIKey,
		BaseURL:       cfg.Oracle.BaseURL,
		Model:         cfg.Oracle.Model,
		Timeout:       cfg.Oracle.Timeout,
		MaxInputChars: cfg.Oracle.MaxInputChars,
	}, logger)
	proc := processor.NewProcessor(logger, pdfdoc.Config{}, extractor, oracleClient, runner, nil)
	exporter := export.NewService(logger)

	ctx := context.Background()
	var stats batchStats
	start := time.Now()

	err := filepath.WalkDir(*dir, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("walk error", "path", path, "error", walkErr)
			stats.Failed++
			return nil // continue walking
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != *dir {
				return filepath.SkipDir
			}
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := constants.AllowedExtensions[ext]; !ok {
			return nil
		}
		stats.Matched++

		if err := processOne(ctx, logger, proc, exporter, path); err != nil {
			logger.Error("document failed", "path", path, "error", err)
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		return nil
	})
	if err != nil {
		logger.Error("walk failed", "dir", *dir, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}

func processOne(ctx context.Context, logger *slog.Logger, proc *processor.Processor, exporter *export.Service, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read: %w", err)
	}

	res, err := proc.ProcessDocument(ctx, data, constants.MediaTypePDF, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("extract: %w", err)
	}
	if res.VerifyErr != nil {
		// keep the extracted text on disk so the run isn't wasted
		txtOut := strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
		if werr := os.WriteFile(txtOut, []byte(res.Document.Text), 0o644); werr != nil {
			logger.Warn("write text fallback failed", "path", txtOut, "error", werr)
		}
		return fmt.Errorf("verify: %w", res.VerifyErr)
	}

	report, err := exporter.CitationsXLSX(filepath.Base(path), res.Records, res.Summary)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".citations.xlsx"
	if err := os.WriteFile(out, report, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	logger.Info("document ok",
		"path", path,
		"pages", len(res.Document.Pages),
		"citations", res.Summary.Total,
		"report", out,
	)
	return nil
}
