package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

var tracer = otel.Tracer("github.com/joseph-ayodele/proforma-consolidator/internal/extract")

// Stage is one step of a Chain.
type Stage struct {
	Name      string
	Extractor TextExtractor
	// Accept decides whether the result ends the chain. Nil accepts everything.
	// The last stage's result is always returned.
	Accept func(entity.ExtractionResult) bool
	// Recover turns an extractor error into an empty result so later stages still run.
	Recover bool
	// KeepPartial makes Recover keep the text the failing extractor returned instead of
	// discarding it. The result is judged by Accept like any other.
	KeepPartial bool
}

// Attempt records what one stage did during a Run.
type Attempt struct {
	Stage    string
	Result   entity.ExtractionResult
	Err      error
	Accepted bool
	Elapsed  time.Duration
}

// Trace lists the stages that ran, in order.
type Trace []Attempt

// Ran reports whether the named stage was invoked.
func (t Trace) Ran(stage string) bool {
	_, ok := t.Find(stage)
	return ok
}

// Find returns the attempt of the named stage.
func (t Trace) Find(stage string) (Attempt, bool) {
	for _, a := range t {
		if a.Stage == stage {
			return a, true
		}
	}
	return Attempt{}, false
}

// Chain runs extraction stages in order until one is accepted.
type Chain struct {
	stages []Stage
	logger *slog.Logger
}

func NewChain(logger *slog.Logger, stages ...Stage) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{stages: stages, logger: logger}
}

// Extract implements TextExtractor so chains nest.
func (c *Chain) Extract(ctx context.Context, data []byte) (entity.ExtractionResult, error) {
	res, _, err := c.Run(ctx, data)
	return res, err
}

// Run executes the stages and returns the deciding result together with the trace.
// An error from a stage without Recover stops the chain and is returned as is.
func (c *Chain) Run(ctx context.Context, data []byte) (entity.ExtractionResult, Trace, error) {
	var trace Trace
	var res entity.ExtractionResult

	for i, st := range c.stages {
		if err := ctx.Err(); err != nil {
			return res, trace, err
		}
		last := i == len(c.stages)-1

		stageCtx, span := tracer.Start(ctx, "extract."+st.Name)
		start := time.Now()
		out, err := st.Extractor.Extract(stageCtx, data)
		att := Attempt{Stage: st.Name, Elapsed: time.Since(start)}

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()

			att.Err = err
			if !st.Recover || ctx.Err() != nil {
				att.Result = out
				trace = append(trace, att)
				return out, trace, err
			}
			c.logger.Info("extract.stage.recovered",
				"stage", st.Name,
				"err", err,
				"keep_partial", st.KeepPartial,
				"elapsed_ms", att.Elapsed.Milliseconds(),
			)
			if !st.KeepPartial {
				out = entity.ExtractionResult{Method: out.Method}
			}
		} else {
			span.SetAttributes(
				attribute.Int("chars", len(out.Text)),
				attribute.String("method", out.Method),
			)
			span.End()
		}

		out.Text = strings.TrimSpace(out.Text)
		att.Result = out
		att.Accepted = last || st.Accept == nil || st.Accept(out)
		trace = append(trace, att)
		res = out

		c.logger.Debug("extract.stage.done",
			"stage", st.Name,
			"chars", len(out.Text),
			"accepted", att.Accepted,
			"elapsed_ms", att.Elapsed.Milliseconds(),
		)
		if att.Accepted {
			return res, trace, nil
		}
	}
	return res, trace, nil
}

// MinChars returns an Accept predicate requiring more than n characters (runes) of trimmed text.
func MinChars(n int) func(entity.ExtractionResult) bool {
	return func(r entity.ExtractionResult) bool { return utf8.RuneCountInString(r.Text) > n }
}

// AtLeastChars returns an Accept predicate requiring n or more characters of trimmed text.
func AtLeastChars(n int) func(entity.ExtractionResult) bool {
	return func(r entity.ExtractionResult) bool { return utf8.RuneCountInString(r.Text) >= n }
}
