package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PDF extraction modes.
const (
	PDFModeOCR  = "ocr"
	PDFModeText = "text"
)

type Config struct {
	// Documents
	InputPath  string
	OutputPath string

	// Chunking
	ChunkSize int

	// Generation service
	APIKey         string
	APIURL         string
	Model          string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
	ChunkDelay     time.Duration

	// OCR
	DPI         int
	OCRLanguage string
	PDFMode     string

	// Status server (disabled when empty)
	StatusAddr   string
	StatusAPIKey string

	Logging LoggingConfig
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

func Load() Config {
	cfg := Config{
		InputPath:  envOr("PDFQA_INPUT", "document.pdf"),
		OutputPath: envOr("PDFQA_OUTPUT", "qa_pairs.json"),

		ChunkSize: envInt("CHUNK_SIZE", 2000),

		APIKey:         os.Getenv("DEEPSEEK_API_KEY"),
		APIURL:         envOr("DEEPSEEK_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		Model:          envOr("DEEPSEEK_MODEL", "deepseek-chat"),
		Temperature:    envFloat("GEN_TEMPERATURE", 0.3),
		MaxTokens:      envInt("GEN_MAX_TOKENS", 4000),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 60*time.Second),
		ChunkDelay:     envDuration("CHUNK_DELAY", 1*time.Second),

		DPI:         envInt("OCR_DPI", 300),
		OCRLanguage: envOr("OCR_LANGUAGE", "eng"),
		PDFMode:     strings.ToLower(envOr("PDF_MODE", PDFModeOCR)),

		StatusAddr:   os.Getenv("STATUS_ADDR"),
		StatusAPIKey: os.Getenv("STATUS_API_KEY"),

		Logging: LoggingConfig{
			Level:      envOr("LOG_LEVEL", "info"),
			Pretty:     envBool("LOG_PRETTY", true),
			File:       os.Getenv("LOG_FILE"),
			MaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: envInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 30),
		},
	}

	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 2000
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = 0
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}

	return cfg
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.APIKey == "" {
		return fmt.Errorf("DEEPSEEK_API_KEY is required")
	}
	if c.APIURL == "" {
		return fmt.Errorf("DEEPSEEK_API_URL is required")
	}
	if c.PDFMode != PDFModeOCR && c.PDFMode != PDFModeText {
		return fmt.Errorf("pdf mode must be %q or %q, got %q", PDFModeOCR, PDFModeText, c.PDFMode)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
