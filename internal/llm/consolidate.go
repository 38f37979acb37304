package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
	"github.com/joseph-ayodele/proforma-consolidator/internal/metrics"
)

var tracer = otel.Tracer("github.com/joseph-ayodele/proforma-consolidator/internal/llm")

// ConsolidateWith prompts c for a consolidated record. A reply that cannot be parsed gets
// exactly one repair round trip; a second bad reply fails with common.ErrMalformedResponse.
// Transport failures are returned wrapped in common.ErrUpstream.
func ConsolidateWith(ctx context.Context, c Completer, req ConsolidationRequest, maxChars int, logger *slog.Logger) (entity.ConsolidatedRecord, error) {
	logger = common.LoggerFromContext(ctx, logger)
	rid := uuid.New().String()
	start := time.Now()

	ctx, span := tracer.Start(ctx, "llm.consolidate")
	defer span.End()
	defer func() { metrics.LLMSeconds.Observe(time.Since(start).Seconds()) }()

	logger.Info("llm.extract.start",
		"req_id", rid,
		"text_len", len(req.Text),
		"coa_len", len(req.COACSV),
		"warnings", len(req.Warnings),
	)

	raw, err := c.Complete(ctx, BuildConsolidationPrompt(req, maxChars))
	if err != nil {
		return entity.ConsolidatedRecord{}, upstreamError(span, logger, rid, start, err)
	}

	rec, parseErr := ParseRecord(raw, logger)
	if parseErr == nil {
		metrics.LLMRequestsTotal.WithLabelValues("ok").Inc()
		logger.Info("llm.extract.ok", "req_id", rid, "rows", len(rec.Rows), "elapsed_ms", time.Since(start).Milliseconds())
		return rec, nil
	}

	logger.Warn("llm.extract.repair",
		"req_id", rid,
		"error", parseErr,
		"raw_bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	span.AddEvent("repair")

	repaired, err := c.Complete(ctx, BuildRepairPrompt(raw))
	if err != nil {
		return entity.ConsolidatedRecord{}, upstreamError(span, logger, rid, start, err)
	}
	rec, parseErr = ParseRecord(repaired, logger)
	if parseErr != nil {
		metrics.LLMRequestsTotal.WithLabelValues("malformed").Inc()
		span.SetStatus(codes.Error, parseErr.Error())
		logger.Error("llm.extract.schema_validation_failed",
			"req_id", rid,
			"error", parseErr,
			"content", truncate(repaired, 2000),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.ConsolidatedRecord{}, common.NewAppError("LLM_MALFORMED", "LLM returned invalid JSON after repair", errors.Join(common.ErrMalformedResponse, parseErr))
	}

	metrics.LLMRequestsTotal.WithLabelValues("repaired").Inc()
	span.SetAttributes(attribute.Bool("repaired", true))
	logger.Info("llm.extract.ok", "req_id", rid, "rows", len(rec.Rows), "repaired", true, "elapsed_ms", time.Since(start).Milliseconds())
	return rec, nil
}

func upstreamError(span trace.Span, logger *slog.Logger, rid string, start time.Time, err error) error {
	if errors.Is(err, common.ErrMissingCredential) {
		return err
	}
	metrics.LLMRequestsTotal.WithLabelValues("error").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	logger.Error("llm.extract.http_error", "req_id", rid, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
	return common.NewAppError("LLM_UPSTREAM", "LLM request failed", errors.Join(common.ErrUpstream, err))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
