package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/llm"
	"github.com/joseph-ayodele/proforma-consolidator/internal/pipeline"
)

// llm sends an already extracted text file through structured extraction, optionally several
// times, to compare model replies.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: llm <text-file> [times] [coa.csv]")
		os.Exit(2)
	}
	text, err := os.ReadFile(os.Args[1])
	if err != nil {
		logger.Error("read text file", "path", os.Args[1], "error", err)
		os.Exit(2)
	}
	times := 1
	if len(os.Args) >= 3 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			times = n
		}
	}
	var coaCSV string
	if len(os.Args) >= 4 {
		raw, err := os.ReadFile(os.Args[3])
		if err != nil {
			logger.Error("read COA CSV", "path", os.Args[3], "error", err)
			os.Exit(2)
		}
		coaCSV = string(raw)
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("OPENAI_API_KEY env var is required")
		os.Exit(2)
	}
	client := pipeline.NewOpenAIClient(cfg, logger)

	req := llm.ConsolidationRequest{Text: string(text), COACSV: coaCSV, Warnings: []string{}}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	for i := 1; i <= times; i++ {
		runCtx, cancelRun := context.WithTimeout(context.Background(), cfg.LLM.Timeout*2)
		start := time.Now()
		logger.Info("llm.run.start", "iter", i, "chars", len(req.Text))

		rec, err := client.Consolidate(runCtx, req)
		cancelRun()

		if err != nil {
			logger.Error("llm.run.error", "iter", i, "err", err)
			continue
		}
		logger.Info("llm.run.ok", "iter", i, "rows", len(rec.Rows), "elapsed_ms", time.Since(start).Milliseconds())
		if err := enc.Encode(rec); err != nil {
			logger.Error("encode record", "error", err)
		}
	}
}
