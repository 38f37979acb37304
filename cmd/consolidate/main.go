package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/export"
	"github.com/joseph-ayodele/proforma-consolidator/internal/ingest"
	"github.com/joseph-ayodele/proforma-consolidator/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to collect *.pdf files from")
		coaPath = flag.String("coa", "", "chart of accounts CSV (optional)")
		out     = flag.String("out", "consolidated.xlsx", "output XLSX file path")
		jsonOut = flag.String("json", "", "output JSON file path (default stdout)")
		verify  = flag.Bool("verify", false, "re-read the written XLSX and check the row count")
	)
	flag.Usage = func() {
		printError("usage: consolidate [-dir DIR | file.pdf ...] [-coa chart.csv] [-out out.xlsx] [-json out.json] [-verify]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *dir == "" && flag.NArg() == 0 {
		printError("Error: either --dir or at least one PDF path is required\n")
		flag.Usage()
		os.Exit(2)
	}

	cfg := common.LoadConfig()
	// logs go to stderr so JSON on stdout stays clean
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths := flag.Args()
	if *dir != "" {
		found, stats, err := ingest.CollectPDFs(*dir, true)
		if err != nil {
			logger.Error("failed to scan directory", "dir", *dir, "error", err)
			os.Exit(1)
		}
		logger.Info("directory scanned",
			"dir", *dir,
			"scanned", stats.Scanned,
			"matched", stats.Matched,
			"failed", stats.Failed,
		)
		paths = append(paths, found...)
	}

	docs, err := ingest.LoadDocuments(paths)
	if err != nil {
		logger.Error("failed to read input files", "error", err)
		os.Exit(1)
	}

	var coaCSV string
	if *coaPath != "" {
		raw, err := os.ReadFile(*coaPath)
		if err != nil {
			logger.Error("failed to read COA CSV", "path", *coaPath, "error", err)
			os.Exit(1)
		}
		coaCSV = string(raw)
	}

	processor, err := pipeline.NewFromConfig(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	res, err := processor.Process(ctx, pipeline.Submission{Documents: docs, COACSV: coaCSV})
	if err != nil {
		printError("Error: %s\n", common.PublicMessage(err))
		logger.Error("consolidation failed", "error", err)
		os.Exit(1)
	}

	encoded, err := json.MarshalIndent(res.Record, "", "  ")
	if err != nil {
		logger.Error("failed to encode record", "error", err)
		os.Exit(1)
	}
	encoded = append(encoded, '\n')
	if *jsonOut == "" {
		_, _ = os.Stdout.Write(encoded)
	} else if err := os.WriteFile(*jsonOut, encoded, 0o644); err != nil {
		logger.Error("failed to write JSON output", "path", *jsonOut, "error", err)
		os.Exit(1)
	}

	xlsxBytes, err := export.NewService(logger).RenderXLSX(ctx, res.Record)
	if err != nil {
		logger.Error("failed to render XLSX", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "path", *out, "error", err)
		os.Exit(1)
	}

	if *verify {
		back, err := export.ReadXLSX(bytes.NewReader(xlsxBytes))
		if err != nil {
			logger.Error("verify: failed to re-read XLSX", "error", err)
			os.Exit(1)
		}
		if len(back.Rows) != len(res.Record.Rows) {
			logger.Error("verify: row count mismatch", "written", len(res.Record.Rows), "read", len(back.Rows))
			os.Exit(1)
		}
		logger.Info("verify ok", "rows", len(back.Rows))
	}

	logger.Info("batch consolidation complete",
		"files", len(docs),
		"accepted", res.Submission.AcceptedCount(),
		"rows", len(res.Record.Rows),
		"warnings", len(res.Record.Meta.Warnings),
		"xlsx", *out,
		"elapsed_ms", res.Elapsed.Milliseconds(),
	)
}
