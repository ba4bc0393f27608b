package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfqa/internal/ocr"
)

func newOCRCheckCmd(a *app) *cobra.Command {
	var phrase string
	var scale int
	cmd := &cobra.Command{
		Use:   "ocr-check",
		Short: "Check that Tesseract can read a generated test image",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := ocr.NewTesseractEngine(a.cfg.OCRLanguage, a.cfg.DPI)
			return a.runOCRCheck(cmd.Context(), engine, phrase, scale)
		},
	}
	cmd.Flags().StringVar(&phrase, "text", ocr.SelfTestPhrase, "text to draw and recognise")
	cmd.Flags().IntVar(&scale, "scale", 4, "upscale factor for the test image")
	return cmd
}

func (a *app) runOCRCheck(ctx context.Context, engine ocr.Engine, phrase string, scale int) error {
	data, err := ocr.EncodePNG(ocr.RenderTestImage(phrase, scale))
	if err != nil {
		return err
	}

	sp := newSpinner(a.stderr, "Running OCR on test image...")
	sp.Start()
	text, err := engine.Recognize(ctx, data)
	sp.Stop()
	if err != nil {
		return fmt.Errorf("ocr check: %w", err)
	}

	got := strings.TrimSpace(text)
	fmt.Fprintf(a.stdout, "Recognised: %q\n", got)
	if !strings.Contains(normalize(got), normalize(phrase)) {
		return fmt.Errorf("ocr check: expected %q, got %q", phrase, got)
	}
	success(a.stdout, "OCR engine is working")
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
