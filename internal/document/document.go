// Package document turns an input file into plain text.
package document

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/config"
	"github.com/dgallion1/pdfqa/internal/ocr"
)

// Extractor returns the full text of one document.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// ExtractionError is fatal for a run: no partial text is returned.
type ExtractionError struct {
	Path string
	Page int // 1-based, 0 when not page specific
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("extract %s page %d: %v", e.Path, e.Page, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Kind is a supported input format.
type Kind string

const (
	KindPDF      Kind = "pdf"
	KindImage    Kind = "image"
	KindText     Kind = "text"
	KindMarkdown Kind = "markdown"
	KindCSV      Kind = "csv"
	KindHTML     Kind = "html"
	KindDOCX     Kind = "docx"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Detect identifies the format from the file content, using the extension
// to disambiguate plain-text and zip based formats.
func Detect(path string) (Kind, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("detect file type: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))

	switch {
	case mtype.Is("application/pdf"):
		return KindPDF, nil
	case mtype.Is(docxMIME):
		return KindDOCX, nil
	case mtype.Is("application/zip") && ext == ".docx":
		return KindDOCX, nil
	case mtype.Is("text/html"):
		return KindHTML, nil
	case strings.HasPrefix(mtype.String(), "image/"):
		return KindImage, nil
	}

	textual := false
	for m := mtype; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "text/") {
			textual = true
			break
		}
	}
	if !textual {
		return "", fmt.Errorf("unsupported file type %s", mtype.String())
	}

	switch ext {
	case ".md", ".markdown":
		return KindMarkdown, nil
	case ".csv":
		return KindCSV, nil
	case ".html", ".htm":
		return KindHTML, nil
	}
	if mtype.Is("text/csv") {
		return KindCSV, nil
	}
	return KindText, nil
}

// Options configures extractor selection.
type Options struct {
	PDFMode  string // config.PDFModeOCR or config.PDFModeText
	Renderer ocr.Renderer
	Engine   ocr.Engine
	Log      zerolog.Logger

	// OnPage is called after each page of a paged document.
	OnPage func(page, total int)
}

// ForFile picks the extractor for path. Detection errors and unsupported
// types are returned as *ExtractionError.
func ForFile(path string, opts Options) (Extractor, Kind, error) {
	kind, err := Detect(path)
	if err != nil {
		return nil, "", &ExtractionError{Path: path, Err: err}
	}

	switch kind {
	case KindPDF:
		if opts.PDFMode == config.PDFModeText {
			return &PDFTextExtractor{Log: opts.Log, OnPage: opts.OnPage}, kind, nil
		}
		if opts.Renderer == nil || opts.Engine == nil {
			return nil, kind, &ExtractionError{Path: path, Err: fmt.Errorf("ocr renderer and engine are required")}
		}
		return &OCRExtractor{Renderer: opts.Renderer, Engine: opts.Engine, Log: opts.Log, OnPage: opts.OnPage}, kind, nil
	case KindImage:
		if opts.Engine == nil {
			return nil, kind, &ExtractionError{Path: path, Err: fmt.Errorf("ocr engine is required")}
		}
		return &ImageExtractor{Engine: opts.Engine, Log: opts.Log}, kind, nil
	case KindMarkdown:
		return &MarkdownExtractor{}, kind, nil
	case KindCSV:
		return &CSVExtractor{}, kind, nil
	case KindHTML:
		return &HTMLExtractor{}, kind, nil
	case KindDOCX:
		return &DOCXExtractor{}, kind, nil
	default:
		return &TextExtractor{}, kind, nil
	}
}

// joinBlocks joins non-empty text blocks with blank lines.
func joinBlocks(blocks []string) string {
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
