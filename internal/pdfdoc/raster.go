package pdfdoc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Rasterize renders one page to a PNG at the configured DPI and returns the
// image path. The file lives in the document's work dir and is removed by
// Close.
func (d *Document) Rasterize(ctx context.Context, page int) (string, error) {
	if err := d.checkPage(page); err != nil {
		return "", err
	}

	prefix := filepath.Join(d.workDir, fmt.Sprintf("page-%05d", page))
	pn := fmt.Sprintf("%d", page)

	// pdftoppm -f N -l N -r <dpi> -png -singlefile <in.pdf> <prefix>
	_, errb, err := d.runner.Run(ctx, d.cfg.Pdftoppm,
		"-f", pn, "-l", pn, "-r", fmt.Sprintf("%d", d.cfg.DPI), "-png", "-singlefile", d.path, prefix)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: page %d: %v: %s", ErrRaster, page, err, strings.TrimSpace(string(errb)))
	}

	out := prefix + ".png"
	if _, statErr := os.Stat(out); statErr != nil {
		return "", fmt.Errorf("%w: page %d produced no image: %v", ErrRaster, page, statErr)
	}
	return out, nil
}
