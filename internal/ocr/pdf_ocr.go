package ocr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// RecognizePDF rasterizes every page of the PDF at path and runs tesseract on
// each image. A page that fails to render or recognize is recorded as a
// warning and skipped; the text of the remaining pages is joined by newline
// in page order.
func (e *Engine) RecognizePDF(ctx context.Context, path string) (Result, error) {
	log := e.log(ctx)

	pages, err := e.pageCount(path)
	if err != nil {
		return Result{}, fmt.Errorf("page count: %w", err)
	}
	if e.cfg.MaxPages > 0 && pages > e.cfg.MaxPages {
		log.Info("ocr page limit applied", "pages", pages, "max_pages", e.cfg.MaxPages)
		pages = e.cfg.MaxPages
	}
	if pages == 0 {
		return Result{}, errors.New("document has no pages")
	}

	tmpDir, err := os.MkdirTemp("", "cardscan-pp-*")
	if err != nil {
		return Result{}, err
	}
	defer func(dir string) {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("failed to remove temp dir", "dir", dir, "error", err)
		}
	}(tmpDir)

	res := Result{Pages: pages}
	texts := make([]string, 0, pages)
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		img, err := e.rasterizePage(ctx, path, page, tmpDir)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: rasterize: %v", page, err))
			continue
		}
		txt, err := e.recognizeImage(ctx, img)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", page, err))
			continue
		}
		texts = append(texts, txt)
		res.Recognized++
	}
	res.Text = strings.Join(texts, "\n")

	if res.Recognized == 0 {
		return res, fmt.Errorf("no page recognized out of %d", pages)
	}
	log.Debug("ocr done", "pages", pages, "recognized", res.Recognized, "bytes", len(res.Text))
	return res, nil
}

// rasterizePage renders a single page to <dir>/page-<n>.png.
func (e *Engine) rasterizePage(ctx context.Context, path string, page int, dir string) (string, error) {
	prefix := filepath.Join(dir, "page-"+strconv.Itoa(page))
	n := strconv.Itoa(page)

	// pdftoppm [-r dpi] -f n -l n -png -singlefile <in.pdf> <dir/page-n>
	args := make([]string, 0, 10)
	if e.cfg.DPI > 0 {
		args = append(args, "-r", strconv.Itoa(e.cfg.DPI))
	}
	args = append(args, "-f", n, "-l", n, "-png", "-singlefile", path, prefix)

	_, errb, err := e.runner.Run(ctx, e.log(ctx), e.cfg.Pdftoppm, args...)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	out := prefix + ".png"
	if _, statErr := os.Stat(out); statErr != nil {
		return "", fmt.Errorf("pdftoppm produced no image: %w", statErr)
	}
	return out, nil
}
