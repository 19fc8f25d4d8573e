// Package processor coordinates extraction (stage 1) then citation
// verification (stage 2) for one document per invocation.
package processor

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/citecheck/internal/ocr"
	"github.com/joseph-ayodele/citecheck/internal/oracle"
	"github.com/joseph-ayodele/citecheck/internal/pdfdoc"
	"github.com/joseph-ayodele/citecheck/internal/pipeline"
	"github.com/joseph-ayodele/citecheck/internal/repository"
	"github.com/joseph-ayodele/citecheck/internal/verify"
)

// Processor wires the document layer, the page extractor, and the oracle
// client together. Runs is optional; without it results are not persisted.
type Processor struct {
	Logger    *slog.Logger
	DocCfg    pdfdoc.Config
	Extractor *pipeline.Extractor
	Oracle    oracle.CitationVerifier
	Runner    ocr.Runner
	Runs      repository.RunRepository
}

func NewProcessor(logger *slog.Logger, docCfg pdfdoc.Config, ex *pipeline.Extractor, client oracle.CitationVerifier, runner ocr.Runner, runs repository.RunRepository) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		Logger:    logger,
		DocCfg:    docCfg,
		Extractor: ex,
		Oracle:    client,
		Runner:    runner,
		Runs:      runs,
	}
}

// RunResult carries extraction and verification outcomes separately:
// VerifyErr set with a populated Document means "extraction succeeded,
// verification failed", and the assembled text stays usable.
type RunResult struct {
	RunID     uuid.UUID
	Document  pipeline.Document
	Records   []oracle.CitationRecord
	Summary   verify.Summary
	VerifyErr error
}

// ProcessDocument runs the full pipeline on one PDF byte stream. A non-nil
// error means extraction failed and no result exists; verification failures
// are reported through RunResult.VerifyErr instead.
func (p *Processor) ProcessDocument(ctx context.Context, data []byte, mediaType, filename string) (*RunResult, error) {
	var runID uuid.UUID
	if p.Runs != nil {
		row, err := p.Runs.Create(ctx, filename)
		if err != nil {
			p.Logger.Error("processor.run.create_failed", "filename", filename, "error", err)
			return nil, err
		}
		runID = row.ID
	}

	doc, err := pdfdoc.Open(ctx, data, mediaType, p.DocCfg, p.Runner, p.Logger)
	if err != nil {
		p.markFailed(ctx, runID, err)
		return nil, err
	}
	defer func() {
		if cerr := doc.Close(); cerr != nil {
			p.Logger.Warn("processor.doc.close_failed", "error", cerr)
		}
	}()

	assembled, err := p.Extractor.Extract(ctx, doc)
	if err != nil {
		p.Logger.Error("processor.extract.failed", "run_id", runID, "filename", filename, "error", err)
		p.markFailed(ctx, runID, err)
		return nil, err
	}
	p.Logger.Info("processor.extract.ok",
		"run_id", runID,
		"filename", filename,
		"pages", len(assembled.Pages),
		"chars", len(assembled.Text),
	)
	if p.Runs != nil {
		if err := p.Runs.FinishExtract(ctx, runID, len(assembled.Pages), assembled.Text); err != nil {
			p.Logger.Error("processor.run.finish_extract_failed", "run_id", runID, "error", err)
		}
	}

	result := &RunResult{RunID: runID, Document: assembled}

	v := verify.NewVerifier(p.Oracle, p.Logger)
	res := v.Submit(ctx, oracle.VerifyRequest{Text: assembled.Text, DocumentHint: filename})
	if res.Err != nil {
		// extraction stands; the run stays EXTRACT_OK and the text remains usable
		p.Logger.Error("processor.verify.failed", "run_id", runID, "error", res.Err)
		result.VerifyErr = res.Err
		return result, nil
	}

	result.Records = res.Records
	result.Summary = res.Summary
	if p.Runs != nil {
		if err := p.Runs.FinishVerify(ctx, runID, res.Records); err != nil {
			p.Logger.Error("processor.run.finish_verify_failed", "run_id", runID, "error", err)
		}
	}

	p.Logger.Info("processor.verify.ok",
		"run_id", runID,
		"total", res.Summary.Total,
		"verified", res.Summary.Verified,
	)
	return result, nil
}

func (p *Processor) markFailed(ctx context.Context, runID uuid.UUID, cause error) {
	if p.Runs == nil || runID == uuid.Nil {
		return
	}
	if err := p.Runs.MarkFailed(ctx, runID, cause.Error()); err != nil {
		p.Logger.Error("processor.run.mark_failed_error", "run_id", runID, "error", err)
	}
}
