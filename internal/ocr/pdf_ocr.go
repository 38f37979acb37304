package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
)

// OCR rasterizes pages 1..MaxPages and recognizes each page image in order.
// Page texts are joined with "\n" and the result is trimmed. Any failure aborts the whole call;
// a document that renders no pages yields empty text.
func (e *Extractor) OCR(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	res := Result{Method: constants.MethodPDFOCR}

	dir, pdfPath, cleanup, err := e.scratchDir("pfc-pp-*", data)
	if err != nil {
		return res, fmt.Errorf("ocr: stage input: %w", err)
	}
	defer cleanup()

	images, err := e.rasterize(ctx, dir, pdfPath)
	if err != nil {
		return res, err
	}
	if len(images) == 0 {
		e.logger.Warn("ocr.pdf.no_pages", "engine", e.engine.Name())
		return res, nil
	}

	texts := make([]string, 0, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		txt, err := e.engine.Recognize(ctx, img)
		if err != nil {
			return res, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		texts = append(texts, Normalize(txt))
	}

	res.Text = strings.TrimSpace(strings.Join(texts, "\n"))
	res.Pages = len(images)
	e.logger.Info("ocr.pdf.ok",
		"engine", e.engine.Name(),
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (e *Extractor) rasterize(ctx context.Context, dir, pdfPath string) ([]string, error) {
	prefix := filepath.Join(dir, "page")
	// pdftoppm -r 300 -png -f 1 [-l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png", "-f", "1"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, pdfPath, prefix)

	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...)
	if err != nil {
		return nil, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// prefix-1.png ... or zero-padded prefix-01.png depending on page count
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	return matches, nil
}

func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndexByte(base, '-')
	n, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
