package extract

import (
	"context"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

// TextExtractor turns the bytes of one PDF into text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (entity.ExtractionResult, error)
}

// ExtractorFunc adapts a plain function to TextExtractor.
type ExtractorFunc func(ctx context.Context, data []byte) (entity.ExtractionResult, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) (entity.ExtractionResult, error) {
	return f(ctx, data)
}
