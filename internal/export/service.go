// Package export renders citation records and their summary into report
// files. It consumes the pipeline's output artifacts only; nothing here
// feeds back into extraction or verification.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/citecheck/internal/oracle"
	"github.com/joseph-ayodele/citecheck/internal/verify"
)

// Service produces XLSX/CSV bytes for verification reports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var citationHeaders = []string{
	"Citation (as found)",
	"Corrected Citation",
	"Status",
	"Court",
	"Decision Date",
	"Page",
	"Note",
	"Sources",
}

// CitationsXLSX returns an XLSX workbook with one row per citation record
// plus a summary block.
func (s *Service) CitationsXLSX(title string, records []oracle.CitationRecord, summary verify.Summary) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Citations"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range citationHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range records {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
		write(1, r.OriginalText)
		write(2, r.CorrectedText)
		write(3, string(r.Status))
		write(4, r.CourtName)
		write(5, r.DecisionDate)
		write(6, r.Pinpoint)
		write(7, r.Note)
		write(8, strings.Join(r.Sources, "; "))
		row++
	}

	// summary block below the table
	row++
	for _, line := range summaryLines(summary) {
		cellA, _ := excelize.CoordinatesToCellName(1, row)
		cellB, _ := excelize.CoordinatesToCellName(2, row)
		_ = f.SetCellValue(sheet, cellA, line.label)
		_ = f.SetCellValue(sheet, cellB, line.value)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"title", title,
		"records", len(records),
		"bytes", buf.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// CitationsCSV returns the same table as CSV.
func (s *Service) CitationsCSV(records []oracle.CitationRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(citationHeaders); err != nil {
		return nil, err
	}
	for _, r := range records {
		rec := []string{
			r.OriginalText,
			r.CorrectedText,
			string(r.Status),
			r.CourtName,
			r.DecisionDate,
			r.Pinpoint,
			r.Note,
			strings.Join(r.Sources, "; "),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	s.logger.Info("export.csv.ok", "records", len(records), "bytes", buf.Len())
	return buf.Bytes(), nil
}

type summaryLine struct {
	label string
	value int
}

func summaryLines(s verify.Summary) []summaryLine {
	return []summaryLine{
		{"Total citations", s.Total},
		{"Verified", s.Verified},
		{"Overruled", s.Overruled},
		{"Incorrect", s.Incorrect},
		{"Modified", s.Modified},
	}
}
