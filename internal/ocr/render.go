// Package ocr renders document pages to images and recognises their text.
package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the render resolution used for OCR.
const DefaultDPI = 300

// Renderer opens a paged document for rendering.
type Renderer interface {
	Open(path string) (Pages, error)
}

// Pages renders the pages of one open document. Page indexes start at 0.
type Pages interface {
	NumPage() int
	Render(page int) (image.Image, error)
	Close() error
}

// FitzRenderer renders PDF pages with MuPDF through go-fitz.
type FitzRenderer struct {
	DPI int
}

func NewFitzRenderer(dpi int) *FitzRenderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRenderer{DPI: dpi}
}

func (r *FitzRenderer) Open(path string) (Pages, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &fitzPages{doc: doc, dpi: float64(r.DPI)}, nil
}

type fitzPages struct {
	doc *fitz.Document
	dpi float64
}

func (p *fitzPages) NumPage() int { return p.doc.NumPage() }

func (p *fitzPages) Render(page int) (image.Image, error) {
	img, err := p.doc.ImageDPI(page, p.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page+1, err)
	}
	return img, nil
}

func (p *fitzPages) Close() error { return p.doc.Close() }

// EncodePNG encodes img losslessly for the OCR engine.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
