package pipeline

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/citecheck/internal/ocr"
)

// PageSource is one opened document the extractor pulls pages from.
// *pdfdoc.Document satisfies it; tests stub it.
type PageSource interface {
	PageCount() int
	NativeText(ctx context.Context, page int) (string, error)
	Rasterize(ctx context.Context, page int) (string, error)
}

// Config holds extraction behavior knobs.
type Config struct {
	Workers        int           // bounded page-level concurrency, default 4
	MaxPages       int           // 0 = no limit
	PageTimeout    time.Duration // upper bound per page OCR call, default 90s
	MinViableChars int           // whole-document viability gate
	Language       string        // OCR language hint
}

// Extractor fans page work out over a bounded pool and fans results back in
// at assembly, preserving page order regardless of completion order.
type Extractor struct {
	cfg      Config
	engine   ocr.Engine
	reporter Reporter
	logger   *slog.Logger
}

func NewExtractor(cfg Config, engine ocr.Engine, reporter Reporter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 90 * time.Second
	}
	if cfg.MinViableChars <= 0 {
		cfg.MinViableChars = DefaultMinViableChars
	}
	return &Extractor{cfg: cfg, engine: engine, reporter: reporter, logger: logger}
}

// Extract runs both extraction paths for every page of src, selects the
// better text per page, and assembles the ordered document. Per-page raster
// and OCR failures degrade that page to its native text; only the viability
// gate or cancellation fail the run.
func (e *Extractor) Extract(ctx context.Context, src PageSource) (Document, error) {
	total := src.PageCount()
	if e.cfg.MaxPages > 0 && total > e.cfg.MaxPages {
		total = e.cfg.MaxPages
	}
	publish(e.reporter, Event{Stage: StageOpen, TotalPages: total, Percent: 0, Message: "document opened"})

	start := time.Now()
	results := make([]PageResult, total)
	var done atomic.Int32

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Workers)

	for i := 1; i <= total; i++ {
		page := i
		eg.Go(func() error {
			res, err := e.extractPage(gctx, src, page, total)
			if err != nil {
				// only cancellation propagates; page failures degrade inside extractPage
				return err
			}
			results[page-1] = res

			n := done.Add(1)
			publish(e.reporter, Event{
				Stage:      StagePage,
				Page:       page,
				TotalPages: total,
				Percent:    int(n) * 100 / total,
				Message:    "page complete",
			})
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		// cancelled mid-run: abandon in-flight pages, return no partial document
		e.logger.Warn("pipeline.extract.cancelled", "pages", total, "error", err)
		return Document{}, err
	}

	doc, err := Assemble(results, e.cfg.MinViableChars)
	if err != nil {
		e.logger.Error("pipeline.extract.unviable", "pages", total, "error", err)
		return Document{}, err
	}

	publish(e.reporter, Event{Stage: StageAssemble, TotalPages: total, Percent: 100, Message: "assembly complete"})
	e.logger.Info("pipeline.extract.ok",
		"pages", total,
		"chars", len(doc.Text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// extractPage runs the native and raster+OCR paths for one page. Raster and
// OCR failures are each retried once, then the page degrades to whatever the
// native path produced. A non-nil error is returned only for cancellation.
func (e *Extractor) extractPage(ctx context.Context, src PageSource, page, total int) (PageResult, error) {
	nativeText, err := src.NativeText(ctx, page)
	if err != nil {
		if ctx.Err() != nil {
			return PageResult{}, ctx.Err()
		}
		// no text layer or extraction failure: same as an empty layer
		e.logger.Warn("pipeline.page.native_failed", "page", page, "error", err)
		nativeText = ""
	}

	ocrText, err := e.ocrPage(ctx, src, page, total)
	if err != nil {
		if ctx.Err() != nil {
			return PageResult{}, ctx.Err()
		}
		// page degrades to its native text; never aborts the document
		e.logger.Warn("pipeline.page.ocr_failed", "page", page, "error", err)
		ocrText = ""
	}

	chosen, source := ChooseText(nativeText, ocrText)
	return PageResult{
		Page:       page,
		NativeText: nativeText,
		OCRText:    ocrText,
		ChosenText: chosen,
		Source:     source,
	}, nil
}

func (e *Extractor) ocrPage(ctx context.Context, src PageSource, page, total int) (string, error) {
	publish(e.reporter, Event{Stage: StageRasterize, Page: page, TotalPages: total, Percent: -1, Message: "rasterizing"})

	imgPath, err := src.Rasterize(ctx, page)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		imgPath, err = src.Rasterize(ctx, page) // retry once
		if err != nil {
			return "", err
		}
	}

	opts := ocr.RecognizeOptions{
		Language: e.cfg.Language,
		Progress: func(percent int) {
			publish(e.reporter, Event{Stage: StageOCR, Page: page, TotalPages: total, Percent: percent, Message: "recognizing"})
		},
	}

	pctx, cancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
	defer cancel()

	text, err := e.engine.Recognize(pctx, imgPath, opts)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		rctx, rcancel := context.WithTimeout(ctx, e.cfg.PageTimeout)
		defer rcancel()
		text, err = e.engine.Recognize(rctx, imgPath, opts) // retry once
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", err
		}
	}
	return text, nil
}
