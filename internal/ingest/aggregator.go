package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/extract"
	"github.com/joseph-ayodele/proforma-consolidator/internal/metrics"
)

// Config holds the budgets and thresholds applied to every submission.
type Config struct {
	MaxPages        int
	MaxTotalBytes   int64
	OCRTriggerChars int // native text shorter than this triggers OCR
}

// Aggregator runs every document of a submission through native extraction and, when the
// native text is too short, OCR. Documents are processed sequentially in upload order.
type Aggregator struct {
	cfg    Config
	chain  *extract.Chain
	pages  PageCounter
	logger *slog.Logger
}

// NewAggregator wires native and OCR extractors into a two-stage chain.
// pages may be nil to skip page counting.
func NewAggregator(cfg Config, native, ocr extract.TextExtractor, pages PageCounter, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.OCRTriggerChars <= 0 {
		cfg.OCRTriggerChars = 300
	}
	chain := extract.NewChain(logger,
		extract.Stage{
			Name:      extract.StageNative,
			Extractor: native,
			Accept:    extract.AtLeastChars(cfg.OCRTriggerChars),
			Recover:   true,
		},
		extract.Stage{Name: extract.StageOCR, Extractor: ocr},
	)
	return &Aggregator{cfg: cfg, chain: chain, pages: pages, logger: logger}
}

// Aggregate processes docs and returns the combined text. It fails fast when the cumulative
// PDF size passes the budget, when docs is empty, or when no document produced text.
func (a *Aggregator) Aggregate(ctx context.Context, docs []entity.UploadedDocument) (*entity.AggregatedSubmission, error) {
	if len(docs) == 0 {
		return nil, common.NoDocuments()
	}
	logger := common.LoggerFromContext(ctx, a.logger)

	budget := NewByteBudget(a.cfg.MaxTotalBytes)
	sub := &entity.AggregatedSubmission{Warnings: []string{}}
	var parts []string

	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := a.processDocument(ctx, logger, budget, doc)
		if err != nil {
			return nil, err
		}
		sub.Outcomes = append(sub.Outcomes, out)
		sub.Warnings = append(sub.Warnings, out.Warnings...)
		metrics.DocumentsTotal.WithLabelValues(string(out.Status), methodLabel(out.Method)).Inc()

		if out.Status.Accepted() {
			parts = append(parts, fmt.Sprintf("\n--- FILE: %s ---\n%s", doc.Filename, out.Text))
		}
	}
	sub.TotalBytes = budget.Used()
	metrics.SubmissionBytes.Observe(float64(sub.TotalBytes))

	if len(parts) == 0 {
		logger.Warn("ingest.submission.empty", "files", len(docs), "warnings", len(sub.Warnings))
		return nil, common.NoExtractableText()
	}
	sub.Text = strings.Join(parts, "\n")

	logger.Info("ingest.submission.ok",
		"files", len(docs),
		"accepted", sub.AcceptedCount(),
		"total_bytes", sub.TotalBytes,
		"chars", len(sub.Text),
	)
	return sub, nil
}

func (a *Aggregator) processDocument(ctx context.Context, logger *slog.Logger, budget *ByteBudget, doc entity.UploadedDocument) (entity.DocumentOutcome, error) {
	out := entity.DocumentOutcome{Filename: doc.Filename}

	if !constants.IsPDFMediaType(doc.MediaType) {
		out.Status = constants.DocumentSkipped
		out.Warnings = append(out.Warnings, fmt.Sprintf("Skipped non-PDF file: %s", doc.Filename))
		logger.Info("ingest.document.skipped", "file", doc.Filename, "media_type", doc.MediaType)
		return out, nil
	}

	if err := budget.Add(doc.Size()); err != nil {
		logger.Warn("ingest.budget.exceeded", "file", doc.Filename, "total_bytes", budget.Used(), "limit", a.cfg.MaxTotalBytes)
		return out, err
	}

	if a.pages != nil {
		if n, err := a.pages.PageCount(ctx, doc.Data); err != nil {
			logger.Debug("ingest.pagecount.failed", "file", doc.Filename, "err", err)
		} else if w := PageLimitWarning(doc.Filename, n, a.cfg.MaxPages); w != "" {
			out.Warnings = append(out.Warnings, w)
		}
	}

	start := time.Now()
	res, trace, err := a.chain.Run(ctx, doc.Data)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, ctxErr
	}
	for _, att := range trace {
		metrics.ExtractionSeconds.WithLabelValues(att.Stage).Observe(att.Elapsed.Seconds())
	}
	out.Method = res.Method

	ocrUsed := trace.Ran(extract.StageOCR)
	if ocrUsed {
		out.Warnings = append(out.Warnings, fmt.Sprintf("Scanned or image-heavy PDF detected for %s; OCR used", doc.Filename))
	}
	if err != nil {
		out.Status = constants.DocumentSkippedWithWarning
		out.Warnings = append(out.Warnings, fmt.Sprintf("OCR failed for %s", doc.Filename))
		logger.Warn("ingest.document.ocr_failed", "file", doc.Filename, "err", err)
		return out, nil
	}

	if strings.TrimSpace(res.Text) == "" {
		out.Status = constants.DocumentSkippedWithWarning
		out.Warnings = append(out.Warnings, fmt.Sprintf("No text extracted from %s", doc.Filename))
		logger.Warn("ingest.document.empty", "file", doc.Filename, "ocr_used", ocrUsed)
		return out, nil
	}

	out.Text = res.Text
	out.Status = constants.DocumentAccepted
	if ocrUsed {
		out.Status = constants.DocumentAcceptedWithWarning
	}
	logger.Info("ingest.document.accepted",
		"file", doc.Filename,
		"status", out.Status,
		"method", out.Method,
		"chars", len(out.Text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func methodLabel(m string) string {
	if m == "" {
		return "none"
	}
	return m
}
