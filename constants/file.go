package constants

import "strings"

// MediaTypePDF is the only input media type the pipeline accepts.
const MediaTypePDF = "application/pdf"

// MaxDocumentBytes is the default upload size gate, enforced before the
// document is ever opened.
const MaxDocumentBytes = 50 * 1024 * 1024

// AllowedExtensions holds the default allowed file extensions for batch ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
