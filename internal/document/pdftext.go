package document

import (
	"context"
	"fmt"
	"strings"
	"time"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/config"
	"github.com/dgallion1/pdfqa/internal/logger"
	"github.com/dgallion1/pdfqa/internal/metrics"
)

// PDFTextExtractor reads the embedded text layer instead of running OCR.
// It suits born-digital PDFs; scanned pages come back empty.
type PDFTextExtractor struct {
	Log    zerolog.Logger
	OnPage func(page, total int)
}

func (e *PDFTextExtractor) Extract(ctx context.Context, path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("open pdf: %w", err)}
	}
	defer f.Close()

	total := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		page := reader.Page(i)
		var text string
		if !page.V.IsNull() {
			text, err = page.GetPlainText(nil)
			if err != nil {
				e.Log.Error().Err(err).Int("page", i).Msg("read text layer failed")
				return "", &ExtractionError{Path: path, Page: i, Err: err}
			}
		}
		metrics.ObservePage(config.PDFModeText, time.Since(start))
		e.Log.Info().
			Int("page", i).
			Str("preview", logger.Preview(text, pagePreviewLen)).
			Msg("page text read")

		sb.WriteString(text)
		sb.WriteString("\n")
		if e.OnPage != nil {
			e.OnPage(i, total)
		}
	}
	return sb.String(), nil
}
