package ocr

import (
	"fmt"
	"log/slog"
	"strings"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Engine        string // "tesseract" (CLI, default) | "gosseract" (needs -tags gosseract)
	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit

	TessdataDir string

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

// Result is the text produced by one of the command-line strategies.
type Result struct {
	Text   string
	Pages  int
	Method string
}

type Extractor struct {
	cfg    Config
	runner Runner
	engine Engine
	logger *slog.Logger
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithRunner replaces the os/exec runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(e *Extractor) { e.runner = r }
}

// WithEngine replaces the recognition engine chosen from Config.Engine.
func WithEngine(engine Engine) Option {
	return func(e *Extractor) { e.engine = engine }
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineTesseractCLI
	}

	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	if e.engine == nil {
		engine, err := newEngine(cfg, e.runner)
		if err != nil {
			return nil, err
		}
		e.engine = engine
	}
	return e, nil
}

// MaxPages returns the page limit applied by every strategy (0 = unlimited).
func (e *Extractor) MaxPages() int { return e.cfg.MaxPages }

func newEngine(cfg Config, r Runner) (Engine, error) {
	switch strings.ToLower(cfg.Engine) {
	case EngineTesseractCLI:
		return &tesseractCLI{
			runner:      r,
			bin:         cfg.Tesseract,
			lang:        cfg.TesseractLang,
			tessdataDir: cfg.TessdataDir,
			psm:         cfg.PSM,
			oem:         cfg.OEM,
		}, nil
	case EngineGosseract:
		return newGosseractEngine(cfg)
	default:
		return nil, fmt.Errorf("unsupported OCR engine %q", cfg.Engine)
	}
}
