package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Ingest    IngestConfig
	OCR       OCRConfig
	LLM       LLMConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Workers         int           // concurrent consolidations
	QueueSize       int           // submissions waiting for a worker
	ProcessTimeout  time.Duration // upper bound for one consolidation
}

// IngestConfig holds the page/byte budgets and the extraction thresholds.
type IngestConfig struct {
	MaxPages        int
	MaxTotalBytes   int64
	NativeMinChars  int
	OCRTriggerChars int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Engine        string
	DPI           int
	TesseractLang string
	TessdataDir   string
	PdftotextBin  string
	PdftoppmBin   string
	TesseractBin  string
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model          string
	APIKey         string
	BaseURL        string
	Temperature    float32
	Timeout        time.Duration
	MaxPromptChars int
}

// RateLimitConfig bounds consolidate requests per process.
type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

// LoadConfig loads configuration from environment variables, reading a .env file first when one exists.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.failed", "err", err)
	}

	return &Config{
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8000"),
			ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
			Workers:         getEnvAsInt("WORKERS", 4),
			QueueSize:       getEnvAsInt("QUEUE_SIZE", 64),
			ProcessTimeout:  getEnvAsDuration("PROCESS_TIMEOUT", 10*time.Minute),
		},
		Ingest: IngestConfig{
			MaxPages:        getEnvAsInt("MAX_PAGES", 60),
			MaxTotalBytes:   int64(getEnvAsInt("MAX_FILE_MB", 25)) * 1024 * 1024,
			NativeMinChars:  getEnvAsInt("NATIVE_MIN_CHARS", 100),
			OCRTriggerChars: getEnvAsInt("OCR_TRIGGER_CHARS", 300),
		},
		OCR: OCRConfig{
			Engine:        getEnv("OCR_ENGINE", "tesseract"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			PdftotextBin:  getEnv("PDFTOTEXT_BIN", "pdftotext"),
			PdftoppmBin:   getEnv("PDFTOPPM_BIN", "pdftoppm"),
			TesseractBin:  getEnv("TESSERACT_BIN", "tesseract"),
		},
		LLM: LLMConfig{
			Model:          getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			BaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:    getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:        getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
			MaxPromptChars: getEnvAsInt("LLM_MAX_PROMPT_CHARS", 200000),
		},
		RateLimit: RateLimitConfig{
			PerSecond: getEnvAsFloat64("RATE_LIMIT_PER_SECOND", 5),
			Burst:     getEnvAsInt("RATE_LIMIT_BURST", 10),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// SlogLevel maps LogLevel onto a slog level; unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Validate validates the loaded configuration.
// OPENAI_API_KEY is not checked here; a missing key fails the consolidate call instead.
func (c *Config) Validate() error {
	v := NewValidator().
		Field("HTTP_ADDR", c.Server.HTTPAddr, Required).
		Field("WORKERS", c.Server.Workers, Positive).
		Field("QUEUE_SIZE", c.Server.QueueSize, Positive).
		Field("MAX_PAGES", c.Ingest.MaxPages, Positive).
		Field("MAX_FILE_MB", c.Ingest.MaxTotalBytes, Positive).
		Field("NATIVE_MIN_CHARS", c.Ingest.NativeMinChars, Positive).
		Field("OCR_TRIGGER_CHARS", c.Ingest.OCRTriggerChars, Positive).
		Field("OCR_DPI", c.OCR.DPI, Between(72, 1200)).
		Field("OCR_ENGINE", c.OCR.Engine, OneOf("tesseract", "gosseract")).
		Field("OPENAI_MODEL", c.LLM.Model, Required).
		Field("LLM_MAX_PROMPT_CHARS", c.LLM.MaxPromptChars, Positive).
		Field("RATE_LIMIT_PER_SECOND", c.RateLimit.PerSecond, Positive).
		Field("RATE_LIMIT_BURST", c.RateLimit.Burst, Positive)
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
