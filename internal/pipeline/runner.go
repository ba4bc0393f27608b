package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/document"
)

// Runner drives one run end to end: extract the document text, then run the
// generation loop over it.
type Runner struct {
	Run       *Run
	Documents document.Options
	Generator *Generator
	Log       zerolog.Logger
}

// Execute runs the pipeline. Extraction failures are returned as
// *document.ExtractionError and mark the run failed; chunk failures do not.
func (r *Runner) Execute(ctx context.Context) (Result, error) {
	run := r.Run
	log := r.Log.With().Str("run_id", run.ID).Logger()
	start := time.Now()

	run.SetStatus(StatusExtracting, "extracting")
	opts := r.Documents
	opts.Log = log
	userOnPage := opts.OnPage
	opts.OnPage = func(page, total int) {
		run.SetPages(page, total)
		if userOnPage != nil {
			userOnPage(page, total)
		}
	}

	ex, kind, err := document.ForFile(run.Input, opts)
	if err != nil {
		return Result{}, r.fail(log, err)
	}
	log.Info().Str("input", run.Input).Str("kind", string(kind)).Msg("extracting text")

	text, err := ex.Extract(ctx, run.Input)
	if err != nil {
		return Result{}, r.fail(log, err)
	}
	run.SetContentHash(text)
	log.Info().
		Int("chars", utf8.RuneCountInString(text)).
		Dur("elapsed", time.Since(start)).
		Msg("text extracted")

	run.SetStatus(StatusGenerating, "generating")
	gen := *r.Generator
	gen.Run = run
	gen.Log = log

	res, err := gen.Generate(ctx, text)
	if err != nil {
		return res, r.fail(log, err)
	}

	run.SetStatus(StatusDone, "done")
	log.Info().
		Int("pairs", len(res.Pairs)).
		Int("chunks", res.Chunks).
		Int("failed", res.Failed).
		Dur("elapsed", time.Since(start)).
		Msg("run complete")
	return res, nil
}

func (r *Runner) fail(log zerolog.Logger, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.Run.SetStatus(StatusCanceled, "canceled")
		log.Warn().Err(err).Msg("run canceled")
		return err
	}
	r.Run.AddError(err.Error())
	r.Run.SetStatus(StatusFailed, "failed")
	log.Error().Err(err).Msg("run failed")

	var ee *document.ExtractionError
	if errors.As(err, &ee) {
		return err
	}
	return fmt.Errorf("run %s: %w", r.Run.ID, err)
}
