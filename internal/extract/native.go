package extract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/ocr"
)

// Stage names used in traces and logs.
const (
	StagePlainText = "plain-text"
	StageLayout    = "layout"
	StageNative    = "native"
	StageOCR       = "ocr"
)

// PlainTextExtractor reads the embedded text layer with a pure-Go PDF parser.
type PlainTextExtractor struct {
	maxPages int
	logger   *slog.Logger
}

func NewPlainTextExtractor(maxPages int, logger *slog.Logger) *PlainTextExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlainTextExtractor{maxPages: maxPages, logger: logger}
}

// Extract returns the text of pages 1..maxPages joined with "\n". When a page fails, or the
// parser panics, the text of the pages read so far is returned together with the error.
func (p *PlainTextExtractor) Extract(_ context.Context, data []byte) (res entity.ExtractionResult, err error) {
	res.Method = constants.MethodPDFText
	var parts []string
	defer func() {
		if r := recover(); r != nil {
			res = partial(parts)
			err = fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return res, fmt.Errorf("open pdf: %w", err)
	}

	n := reader.NumPage()
	if p.maxPages > 0 && n > p.maxPages {
		n = p.maxPages
	}
	parts = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			parts = append(parts, "")
			continue
		}
		txt, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Debug("extract.plain_text.page_failed", "page", i, "pages_read", len(parts), "err", err)
			return partial(parts), fmt.Errorf("page %d: %w", i, err)
		}
		parts = append(parts, txt)
	}

	return partial(parts), nil
}

func partial(parts []string) entity.ExtractionResult {
	return entity.ExtractionResult{
		Text:   strings.TrimSpace(strings.Join(parts, "\n")),
		Pages:  len(parts),
		Method: constants.MethodPDFText,
	}
}

// LayoutExtractor runs pdftotext -layout through the OCR toolkit.
type LayoutExtractor struct {
	e *ocr.Extractor
}

func NewLayoutExtractor(e *ocr.Extractor) *LayoutExtractor {
	return &LayoutExtractor{e: e}
}

func (l *LayoutExtractor) Extract(ctx context.Context, data []byte) (entity.ExtractionResult, error) {
	r, err := l.e.LayoutText(ctx, data)
	return entity.ExtractionResult{Text: r.Text, Pages: r.Pages, Method: r.Method}, err
}

// NewNativeExtractor builds the two-strategy native chain: the parser result wins when it has
// more than minChars characters, otherwise the layout result is used (possibly empty).
// Neither strategy's failure is an error; parser text read before a failure still counts.
func NewNativeExtractor(plain, layout TextExtractor, minChars int, logger *slog.Logger) *Chain {
	return NewChain(logger,
		Stage{Name: StagePlainText, Extractor: plain, Accept: MinChars(minChars), Recover: true, KeepPartial: true},
		Stage{Name: StageLayout, Extractor: layout, Recover: true},
	)
}
