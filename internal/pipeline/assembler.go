package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInsufficientText is the whole-document failure for inputs whose total
// extracted text falls below the viability threshold: corrupted,
// encrypted-looking, or unreadable image-only PDFs.
var ErrInsufficientText = errors.New("insufficient text extracted")

// DefaultMinViableChars is the default viability threshold, counted over
// page content only (boundary markers excluded).
const DefaultMinViableChars = 50

// Document is the assembled output of one extraction run: per-page results
// in ascending page order plus the concatenated text with page-boundary
// markers.
type Document struct {
	Pages []PageResult
	Text  string
}

// PageMarker returns the boundary marker prefixed to a page's text so
// downstream citation matching can report pinpoint page references.
func PageMarker(page int) string {
	return fmt.Sprintf("\n\n--- Page %d ---\n\n", page)
}

// Assemble orders results by page index, concatenates the chosen text of
// every contributing page behind its boundary marker, and enforces the
// minimum viable length. Pages with no text from either path are skipped;
// only the whole-document gate can fail the run.
func Assemble(results []PageResult, minViableChars int) (Document, error) {
	if minViableChars <= 0 {
		minViableChars = DefaultMinViableChars
	}

	pages := make([]PageResult, len(results))
	copy(pages, results)
	sort.Slice(pages, func(i, j int) bool { return pages[i].Page < pages[j].Page })

	var b strings.Builder
	contentChars := 0
	for _, p := range pages {
		if p.Empty() {
			continue
		}
		b.WriteString(PageMarker(p.Page))
		b.WriteString(p.ChosenText)
		contentChars += len(p.ChosenText)
	}

	if contentChars < minViableChars {
		return Document{}, fmt.Errorf("%w: %d chars extracted, need at least %d",
			ErrInsufficientText, contentChars, minViableChars)
	}

	return Document{Pages: pages, Text: b.String()}, nil
}
