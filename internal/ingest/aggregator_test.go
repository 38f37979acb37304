package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/extract"
	"github.com/joseph-ayodele/proforma-consolidator/internal/testutil"
)

// scripted maps document bytes to the text (or error) an extractor produces for them.
type scripted struct {
	texts map[string]string
	errs  map[string]error
	calls map[string]int
}

func newScripted() *scripted {
	return &scripted{texts: map[string]string{}, errs: map[string]error{}, calls: map[string]int{}}
}

func (s *scripted) Extract(_ context.Context, data []byte) (entity.ExtractionResult, error) {
	key := string(data)
	s.calls[key]++
	if err := s.errs[key]; err != nil {
		return entity.ExtractionResult{Method: constants.MethodPDFOCR}, err
	}
	return entity.ExtractionResult{Text: s.texts[key], Method: constants.MethodPDFText}, nil
}

func (s *scripted) total() int {
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

type fixedPages int

func (f fixedPages) PageCount(context.Context, []byte) (int, error) { return int(f), nil }

func pdfDoc(name, body string) entity.UploadedDocument {
	return entity.UploadedDocument{Filename: name, MediaType: constants.MediaTypePDF, Data: []byte(body)}
}

func defaultConfig() Config {
	return Config{MaxPages: 60, MaxTotalBytes: 1024, OCRTriggerChars: 300}
}

func TestAggregate_TextAndScanned(t *testing.T) {
	native, ocr := newScripted(), newScripted()
	native.texts["A"] = strings.Repeat("a", 400)
	native.texts["B"] = "tiny"
	ocr.texts["B"] = "  recognized text  "

	agg := NewAggregator(defaultConfig(), native, ocr, nil, nil)
	sub, err := agg.Aggregate(context.Background(), []entity.UploadedDocument{pdfDoc("a.pdf", "A"), pdfDoc("b.pdf", "B")})
	require.NoError(t, err)

	require.Len(t, sub.Outcomes, 2)
	assert.Equal(t, constants.DocumentAccepted, sub.Outcomes[0].Status)
	assert.Equal(t, constants.DocumentAcceptedWithWarning, sub.Outcomes[1].Status)
	assert.Equal(t, []string{"Scanned or image-heavy PDF detected for b.pdf; OCR used"}, sub.Warnings)

	assert.Contains(t, sub.Text, "--- FILE: a.pdf ---")
	assert.Contains(t, sub.Text, "--- FILE: b.pdf ---\nrecognized text")
	assert.True(t, strings.HasPrefix(sub.Text, "\n--- FILE: a.pdf ---\n"))
	assert.Equal(t, "\n--- FILE: a.pdf ---\n"+strings.Repeat("a", 400)+"\n\n--- FILE: b.pdf ---\nrecognized text", sub.Text)
	assert.Equal(t, int64(2), sub.TotalBytes)

	assert.Zero(t, ocr.calls["A"], "OCR must not run for rich native text")
	assert.Equal(t, 1, ocr.calls["B"], "OCR runs exactly once")
}

func TestAggregate_OCRThreshold(t *testing.T) {
	tests := []struct {
		name     string
		chars    int
		ocrCalls int
	}{
		{"299 chars triggers OCR", 299, 1},
		{"300 chars is enough", 300, 0},
		{"150 chars triggers OCR", 150, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			native, ocr := newScripted(), newScripted()
			native.texts["X"] = strings.Repeat("n", tt.chars)
			ocr.texts["X"] = "ocr"

			_, err := NewAggregator(defaultConfig(), native, ocr, nil, nil).
				Aggregate(context.Background(), []entity.UploadedDocument{pdfDoc("x.pdf", "X")})
			require.NoError(t, err)
			assert.Equal(t, tt.ocrCalls, ocr.total())
		})
	}
}

func TestAggregate_PartialFailures(t *testing.T) {
	native, ocr := newScripted(), newScripted()
	native.texts["good"] = strings.Repeat("g", 500)
	ocr.errs["broken"] = errors.New("pdftoppm: exit status 1")
	// "blank" yields empty text from both native and OCR

	docs := []entity.UploadedDocument{
		pdfDoc("good.pdf", "good"),
		{Filename: "notes.txt", MediaType: "text/plain", Data: []byte("hello")},
		pdfDoc("broken.pdf", "broken"),
		pdfDoc("blank.pdf", "blank"),
	}
	sub, err := NewAggregator(defaultConfig(), native, ocr, nil, nil).Aggregate(context.Background(), docs)
	require.NoError(t, err)

	statuses := make([]constants.DocumentStatus, len(sub.Outcomes))
	for i, o := range sub.Outcomes {
		statuses[i] = o.Status
	}
	assert.Equal(t, []constants.DocumentStatus{
		constants.DocumentAccepted,
		constants.DocumentSkipped,
		constants.DocumentSkippedWithWarning,
		constants.DocumentSkippedWithWarning,
	}, statuses)

	assert.Equal(t, []string{
		"Skipped non-PDF file: notes.txt",
		"Scanned or image-heavy PDF detected for broken.pdf; OCR used",
		"OCR failed for broken.pdf",
		"Scanned or image-heavy PDF detected for blank.pdf; OCR used",
		"No text extracted from blank.pdf",
	}, sub.Warnings)

	accepted := sub.AcceptedCount()
	assert.Equal(t, 1, accepted)
	assert.GreaterOrEqual(t, len(sub.Warnings), len(docs)-accepted)
	assert.NotContains(t, sub.Text, "broken.pdf")
	assert.Equal(t, int64(len("good")+len("broken")+len("blank")), sub.TotalBytes, "non-PDFs do not count")
	assert.Zero(t, native.calls["hello"])
}

func TestAggregate_OverBudgetIsFatal(t *testing.T) {
	native, ocr := newScripted(), newScripted()
	native.texts[strings.Repeat("1", 600)] = strings.Repeat("t", 400)

	cfg := defaultConfig()
	docs := []entity.UploadedDocument{
		pdfDoc("one.pdf", strings.Repeat("1", 600)),
		pdfDoc("two.pdf", strings.Repeat("2", 600)),
		pdfDoc("three.pdf", strings.Repeat("3", 10)),
	}
	sub, err := NewAggregator(cfg, native, ocr, nil, nil).Aggregate(context.Background(), docs)

	require.Error(t, err)
	assert.Nil(t, sub)
	assert.ErrorIs(t, err, common.ErrPayloadTooLarge)
	assert.Zero(t, native.calls[strings.Repeat("2", 600)], "the offending document is never extracted")
	assert.Zero(t, native.calls[strings.Repeat("3", 10)])
}

func TestAggregate_ExactlyAtBudget(t *testing.T) {
	native, ocr := newScripted(), newScripted()
	body := strings.Repeat("z", 1024)
	native.texts[body] = strings.Repeat("t", 400)

	_, err := NewAggregator(defaultConfig(), native, ocr, nil, nil).
		Aggregate(context.Background(), []entity.UploadedDocument{pdfDoc("z.pdf", body)})
	assert.NoError(t, err)
}

func TestAggregate_NoUsableDocuments(t *testing.T) {
	tests := []struct {
		name string
		docs []entity.UploadedDocument
		want error
	}{
		{"no uploads", nil, common.ErrNoDocuments},
		{"only non-PDFs", []entity.UploadedDocument{{Filename: "a.png", MediaType: "image/png", Data: []byte("x")}}, common.ErrNoExtractableText},
		{"only empty PDFs", []entity.UploadedDocument{pdfDoc("e.pdf", "empty")}, common.ErrNoExtractableText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAggregator(defaultConfig(), newScripted(), newScripted(), nil, nil).Aggregate(context.Background(), tt.docs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestAggregate_MediaTypeParametersIgnored(t *testing.T) {
	native := newScripted()
	native.texts["P"] = strings.Repeat("p", 300)

	doc := entity.UploadedDocument{Filename: "p.pdf", MediaType: "application/pdf; name=p.pdf", Data: []byte("P")}
	sub, err := NewAggregator(defaultConfig(), native, newScripted(), nil, nil).Aggregate(context.Background(), []entity.UploadedDocument{doc})
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentAccepted, sub.Outcomes[0].Status)
}

func TestAggregate_PageLimitWarning(t *testing.T) {
	native := newScripted()
	native.texts["L"] = strings.Repeat("l", 300)

	cfg := defaultConfig()
	cfg.MaxPages = 2
	sub, err := NewAggregator(cfg, native, newScripted(), fixedPages(5), nil).
		Aggregate(context.Background(), []entity.UploadedDocument{pdfDoc("long.pdf", "L")})
	require.NoError(t, err)
	assert.Equal(t, []string{"long.pdf: only first 2 of 5 pages processed"}, sub.Warnings)
}

func TestAggregate_RealPDFs(t *testing.T) {
	native := extract.NewNativeExtractor(
		extract.NewPlainTextExtractor(60, nil),
		extract.ExtractorFunc(func(context.Context, []byte) (entity.ExtractionResult, error) {
			return entity.ExtractionResult{Method: constants.MethodPDFLayout}, nil
		}),
		100, nil)
	ocr := extract.ExtractorFunc(func(context.Context, []byte) (entity.ExtractionResult, error) {
		return entity.ExtractionResult{Text: "Cash 100", Method: constants.MethodPDFOCR}, nil
	})

	cfg := Config{MaxPages: 60, MaxTotalBytes: 1 << 20, OCRTriggerChars: 300}
	docs := []entity.UploadedDocument{
		{Filename: "digital.pdf", MediaType: constants.MediaTypePDF, Data: testutil.MinimalPDF(testutil.Lines("Revenue", 12))},
		{Filename: "scan.pdf", MediaType: constants.MediaTypePDF, Data: testutil.MinimalPDF("")},
	}
	sub, err := NewAggregator(cfg, native, ocr, nil, nil).Aggregate(context.Background(), docs)
	require.NoError(t, err)

	assert.Equal(t, constants.DocumentAccepted, sub.Outcomes[0].Status)
	assert.Equal(t, constants.MethodPDFText, sub.Outcomes[0].Method)
	assert.Equal(t, constants.DocumentAcceptedWithWarning, sub.Outcomes[1].Status)
	assert.Contains(t, sub.Warnings[0], "OCR used")
	assert.Contains(t, sub.Text, "--- FILE: digital.pdf ---")
	assert.Contains(t, sub.Text, "--- FILE: scan.pdf ---\nCash 100")
}

func TestByteBudget(t *testing.T) {
	b := NewByteBudget(10)
	require.NoError(t, b.Add(4))
	require.NoError(t, b.Add(6))
	err := b.Add(1)
	require.ErrorIs(t, err, common.ErrPayloadTooLarge)
	assert.Equal(t, int64(11), b.Used())
}

func TestPageLimitWarning(t *testing.T) {
	assert.Equal(t, "", PageLimitWarning("a.pdf", 60, 60))
	assert.Equal(t, "", PageLimitWarning("a.pdf", 100, 0))
	assert.Equal(t, "a.pdf: only first 60 of 61 pages processed", PageLimitWarning("a.pdf", 61, 60))
}

func TestPDFCPUCounter_RejectsGarbage(t *testing.T) {
	_, err := PDFCPUCounter{}.PageCount(context.Background(), []byte("not a pdf at all"))
	assert.Error(t, err)
}

func TestCollectPDFs(t *testing.T) {
	root := t.TempDir()
	write := func(rel string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o600))
	}
	write("b.pdf")
	write("a.PDF")
	write("notes.txt")
	write(".hidden/c.pdf")
	write("sub/d.pdf")

	paths, stats, err := CollectPDFs(root, true)
	require.NoError(t, err)

	var names []string
	for _, p := range paths {
		rel, _ := filepath.Rel(root, p)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.PDF", "b.pdf", "sub/d.pdf"}, names)
	assert.Equal(t, uint32(3), stats.Matched)

	docs, err := LoadDocuments(paths)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "a.PDF", docs[0].Filename)
	assert.Equal(t, constants.MediaTypePDF, docs[0].MediaType)
}

func TestCollectPDFs_EmptyRoot(t *testing.T) {
	_, _, err := CollectPDFs("  ", false)
	assert.Error(t, err)
}
