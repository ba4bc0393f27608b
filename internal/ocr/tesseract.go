package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// DefaultLanguage is the Tesseract language code used when none is set.
const DefaultLanguage = "eng"

// Engine recognises the text in one encoded image.
type Engine interface {
	Recognize(ctx context.Context, img []byte) (string, error)
}

// TesseractEngine runs Tesseract through gosseract, one client per call.
type TesseractEngine struct {
	Language string
	DPI      int

	clientFactory func() *gosseract.Client
}

func NewTesseractEngine(language string, dpi int) *TesseractEngine {
	if language == "" {
		language = DefaultLanguage
	}
	return &TesseractEngine{Language: language, DPI: dpi, clientFactory: gosseract.NewClient}
}

// Recognize returns the raw recognised text. Tesseract itself cannot be
// interrupted, so ctx is only checked before starting.
func (e *TesseractEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.Language); err != nil {
		return "", fmt.Errorf("set language %s: %w", e.Language, err)
	}
	if e.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.DPI)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// Version reports the linked Tesseract version.
func (e *TesseractEngine) Version() string {
	c := e.clientFactory()
	defer c.Close()
	return c.Version()
}
