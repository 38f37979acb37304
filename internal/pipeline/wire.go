package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/extract"
	"github.com/joseph-ayodele/proforma-consolidator/internal/ingest"
	"github.com/joseph-ayodele/proforma-consolidator/internal/llm/openai"
	"github.com/joseph-ayodele/proforma-consolidator/internal/ocr"
)

// NewOCRExtractor builds the command-line extractor shared by the layout and OCR strategies.
func NewOCRExtractor(cfg *common.Config, logger *slog.Logger) (*ocr.Extractor, error) {
	e, err := ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.PdftotextBin,
		Pdftoppm:      cfg.OCR.PdftoppmBin,
		Tesseract:     cfg.OCR.TesseractBin,
		Engine:        cfg.OCR.Engine,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.Ingest.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("ocr extractor: %w", err)
	}
	return e, nil
}

// NewAggregator wires native extraction, OCR fallback and pdfcpu page counting.
func NewAggregator(cfg *common.Config, logger *slog.Logger) (*ingest.Aggregator, error) {
	ocrx, err := NewOCRExtractor(cfg, logger)
	if err != nil {
		return nil, err
	}
	native := extract.NewNativeExtractor(
		extract.NewPlainTextExtractor(cfg.Ingest.MaxPages, logger),
		extract.NewLayoutExtractor(ocrx),
		cfg.Ingest.NativeMinChars,
		logger,
	)
	return ingest.NewAggregator(ingest.Config{
		MaxPages:        cfg.Ingest.MaxPages,
		MaxTotalBytes:   cfg.Ingest.MaxTotalBytes,
		OCRTriggerChars: cfg.Ingest.OCRTriggerChars,
	}, native, extract.NewOCRAdapter(ocrx), ingest.PDFCPUCounter{}, logger), nil
}

// NewOpenAIClient builds the structured extraction client from config.
func NewOpenAIClient(cfg *common.Config, logger *slog.Logger) *openai.Client {
	return openai.NewClient(openai.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Temperature:    cfg.LLM.Temperature,
		Timeout:        cfg.LLM.Timeout,
		MaxPromptChars: cfg.LLM.MaxPromptChars,
	}, logger)
}

// NewFromConfig assembles the full consolidation processor.
func NewFromConfig(cfg *common.Config, logger *slog.Logger) (*Processor, error) {
	agg, err := NewAggregator(cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewProcessor(logger, agg, NewOpenAIClient(cfg, logger)), nil
}
