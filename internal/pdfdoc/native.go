package pdfdoc

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var reRunSpace = regexp.MustCompile(`[ \t]+`)

// NativeText extracts the embedded text layer of one page, with inter-run
// whitespace collapsed to single spaces. An empty string means the page has
// no text layer; for scanned documents that is the expected outcome, not an
// error.
func (d *Document) NativeText(ctx context.Context, page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}

	// pdftotext -f N -l N -layout -enc UTF-8 -eol unix <path> -
	pn := fmt.Sprintf("%d", page)
	out, errb, err := d.runner.Run(ctx, d.cfg.Pdftotext,
		"-f", pn, "-l", pn, "-layout", "-enc", "UTF-8", "-eol", "unix", d.path, "-")
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("pdftotext page %d: %v: %s", page, err, strings.TrimSpace(string(errb)))
	}
	return normalizeText(string(out)), nil
}

// normalizeText collapses runs of spaces and tabs while keeping line
// structure, and trims trailing whitespace per line.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\f", "\n")
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		lines[i] = strings.TrimSpace(reRunSpace.ReplaceAllString(ln, " "))
	}
	out := strings.Join(lines, "\n")
	return strings.TrimSpace(out)
}
