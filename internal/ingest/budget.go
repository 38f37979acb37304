package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
)

// ByteBudget tracks the cumulative size of the PDFs in one submission.
type ByteBudget struct {
	limit int64
	used  int64
}

func NewByteBudget(limit int64) *ByteBudget {
	return &ByteBudget{limit: limit}
}

// Add charges n bytes. It fails once the running total exceeds the limit;
// a total equal to the limit is still allowed.
func (b *ByteBudget) Add(n int64) error {
	b.used += n
	if b.limit > 0 && b.used > b.limit {
		return common.PayloadTooLarge(b.limit)
	}
	return nil
}

// Used returns the bytes charged so far.
func (b *ByteBudget) Used() int64 { return b.used }

// PageCounter reports how many pages a PDF has.
type PageCounter interface {
	PageCount(ctx context.Context, data []byte) (int, error)
}

// PDFCPUCounter counts pages with pdfcpu in relaxed validation mode.
type PDFCPUCounter struct{}

func (PDFCPUCounter) PageCount(_ context.Context, data []byte) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdfcpu panic: %v", r)
		}
	}()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}

// PageLimitWarning returns the warning for a document longer than maxPages, or "" when it fits.
func PageLimitWarning(filename string, pages, maxPages int) string {
	if maxPages <= 0 || pages <= maxPages {
		return ""
	}
	return fmt.Sprintf("%s: only first %d of %d pages processed", filename, maxPages, pages)
}
