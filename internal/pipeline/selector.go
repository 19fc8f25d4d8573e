package pipeline

import "strings"

// TextSource records which extraction path a page's chosen text came from.
type TextSource string

// Stable values (stored in DB and surfaced in exports).
const (
	SourceNative TextSource = "NATIVE"
	SourceOCR    TextSource = "OCR"
)

// PageResult holds both extraction paths for one page plus the selection.
// ChosenText is always exactly one of NativeText or OCRText.
type PageResult struct {
	Page       int
	NativeText string
	OCRText    string
	ChosenText string
	Source     TextSource
}

// ChooseText picks the OCR text when its trimmed length strictly exceeds the
// trimmed native length, otherwise the native text. Length is a cheap,
// deterministic proxy for "more complete extraction" on scanned legal
// filings; OCR runs for every page regardless, because text-bearing PDFs
// occasionally carry incomplete or out-of-order runs that OCR catches.
func ChooseText(nativeText, ocrText string) (string, TextSource) {
	if len(strings.TrimSpace(ocrText)) > len(strings.TrimSpace(nativeText)) {
		return ocrText, SourceOCR
	}
	return nativeText, SourceNative
}

// Empty reports whether the page contributes no text from either path.
func (p PageResult) Empty() bool {
	return strings.TrimSpace(p.ChosenText) == ""
}
