package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/proforma-consolidator/internal/coa"
	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/llm"
)

// Aggregator turns an upload into one combined text.
type Aggregator interface {
	Aggregate(ctx context.Context, docs []entity.UploadedDocument) (*entity.AggregatedSubmission, error)
}

// Submission is one consolidation request.
type Submission struct {
	Documents []entity.UploadedDocument
	COACSV    string
}

// Result is what a successful consolidation produced.
type Result struct {
	RequestID  string
	Record     entity.ConsolidatedRecord
	Submission *entity.AggregatedSubmission
	Elapsed    time.Duration
}

// Processor coordinates text aggregation, the LLM call, and COA reconciliation.
type Processor struct {
	logger     *slog.Logger
	aggregator Aggregator
	llm        llm.Consolidator
}

func NewProcessor(logger *slog.Logger, aggregator Aggregator, consolidator llm.Consolidator) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, aggregator: aggregator, llm: consolidator}
}

// Process runs a submission end to end. Aggregation errors abort before the LLM is called.
// Pipeline and reconciliation warnings are merged into the record's meta.warnings.
func (p *Processor) Process(ctx context.Context, sub Submission) (*Result, error) {
	start := time.Now()

	requestID := common.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
		ctx = common.WithRequestID(ctx, requestID)
	}
	logger := common.LoggerFromContext(ctx, p.logger).With("request_id", requestID)
	ctx = common.WithLogger(ctx, logger)

	// 1) extract + aggregate
	agg, err := p.aggregator.Aggregate(ctx, sub.Documents)
	if err != nil {
		logger.Error("processor.aggregate.failed", "files", len(sub.Documents), "err", err)
		return nil, err
	}
	logger.Debug("processor aggregate stage success",
		"accepted", agg.AcceptedCount(),
		"warnings", len(agg.Warnings),
		"total_bytes", agg.TotalBytes,
	)

	// 2) structured extraction
	rec, err := p.llm.Consolidate(ctx, llm.ConsolidationRequest{
		Text:     agg.Text,
		COACSV:   sub.COACSV,
		Warnings: agg.Warnings,
	})
	if err != nil {
		logger.Error("processor.llm.failed", "err", err)
		return nil, err
	}
	rec.MergeWarnings(agg.Warnings...)

	// 3) reconcile against the chart of accounts
	if chart, err := coa.Parse(sub.COACSV); err != nil {
		logger.Warn("processor.coa.unparseable", "err", err)
	} else {
		rec.MergeWarnings(coa.Reconcile(&rec, chart, logger)...)
	}

	elapsed := time.Since(start)
	logger.Info("consolidate finished",
		"files", len(sub.Documents),
		"total_bytes", agg.TotalBytes,
		"rows", len(rec.Rows),
		"elapsed_s", elapsed.Seconds(),
	)
	return &Result{RequestID: requestID, Record: rec, Submission: agg, Elapsed: elapsed}, nil
}
