package extract

import (
	"context"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/ocr"
)

type OCRAdapter struct {
	e *ocr.Extractor
}

func NewOCRAdapter(e *ocr.Extractor) *OCRAdapter {
	return &OCRAdapter{e: e}
}

func (a *OCRAdapter) Extract(ctx context.Context, data []byte) (entity.ExtractionResult, error) {
	r, err := a.e.OCR(ctx, data)
	return entity.ExtractionResult{
		Text:   r.Text,
		Pages:  r.Pages,
		Method: r.Method,
	}, err
}
