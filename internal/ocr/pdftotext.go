package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
)

// LayoutText runs `pdftotext -layout` over the first MaxPages pages of the document.
// The output is trimmed; an empty string with a nil error means the PDF has no text layer.
func (e *Extractor) LayoutText(ctx context.Context, data []byte) (Result, error) {
	start := time.Now()
	_, pdfPath, cleanup, err := e.scratchDir("pfc-txt-*", data)
	if err != nil {
		return Result{Method: constants.MethodPDFLayout}, fmt.Errorf("pdftotext: stage input: %w", err)
	}
	defer cleanup()

	// pdftotext -layout -enc UTF-8 -eol unix [-l N] <in.pdf> -
	args := []string{"-layout", "-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, pdfPath, "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, args...)
	if err != nil {
		return Result{Method: constants.MethodPDFLayout}, fmt.Errorf("pdftotext: %w: %s", err, truncate(string(errb), 512))
	}
	text := string(out)
	// pdftotext separates pages with a form feed
	pages := strings.Count(text, "\f")
	text = strings.TrimSpace(text)

	e.logger.Debug("ocr.pdftotext.ok",
		"chars", len(text),
		"pages", pages,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return Result{Text: text, Pages: pages, Method: constants.MethodPDFLayout}, nil
}
