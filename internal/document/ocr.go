package document

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/config"
	"github.com/dgallion1/pdfqa/internal/logger"
	"github.com/dgallion1/pdfqa/internal/metrics"
	"github.com/dgallion1/pdfqa/internal/ocr"
)

const pagePreviewLen = 150

// OCRExtractor renders every page and runs OCR on it, in page order. Each
// page's text is followed by a newline. Any page failure aborts extraction.
type OCRExtractor struct {
	Renderer ocr.Renderer
	Engine   ocr.Engine
	Log      zerolog.Logger
	OnPage   func(page, total int)
}

func (e *OCRExtractor) Extract(ctx context.Context, path string) (string, error) {
	log := e.Log.With().Str("path", path).Str("mode", config.PDFModeOCR).Logger()

	pages, err := e.Renderer.Open(path)
	if err != nil {
		log.Error().Err(err).Msg("open document failed")
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer pages.Close()

	total := pages.NumPage()
	log.Info().Int("pages", total).Msg("starting ocr")

	var sb strings.Builder
	for i := range total {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		text, err := e.page(ctx, pages, i)
		if err != nil {
			log.Error().Err(err).Int("page", i+1).Msg("ocr failed")
			return "", &ExtractionError{Path: path, Page: i + 1, Err: err}
		}
		metrics.ObservePage(config.PDFModeOCR, time.Since(start))

		log.Info().
			Int("page", i+1).
			Str("preview", logger.Preview(text, pagePreviewLen)).
			Msg("page recognised")

		sb.WriteString(text)
		sb.WriteString("\n")
		if e.OnPage != nil {
			e.OnPage(i+1, total)
		}
	}
	return sb.String(), nil
}

func (e *OCRExtractor) page(ctx context.Context, pages ocr.Pages, i int) (string, error) {
	img, err := pages.Render(i)
	if err != nil {
		return "", err
	}
	data, err := ocr.EncodePNG(img)
	if err != nil {
		return "", err
	}
	return e.Engine.Recognize(ctx, data)
}

// ImageExtractor runs OCR on a single image file.
type ImageExtractor struct {
	Engine ocr.Engine
	Log    zerolog.Logger
}

func (e *ImageExtractor) Extract(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("read image: %w", err)}
	}
	start := time.Now()
	text, err := e.Engine.Recognize(ctx, data)
	if err != nil {
		e.Log.Error().Err(err).Str("path", path).Msg("ocr failed")
		return "", &ExtractionError{Path: path, Page: 1, Err: err}
	}
	metrics.ObservePage(config.PDFModeOCR, time.Since(start))
	e.Log.Info().
		Str("path", path).
		Str("preview", logger.Preview(text, pagePreviewLen)).
		Msg("image recognised")
	return text + "\n", nil
}
