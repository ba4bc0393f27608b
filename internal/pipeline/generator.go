package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/chunker"
	"github.com/dgallion1/pdfqa/internal/generate"
	"github.com/dgallion1/pdfqa/internal/logger"
	"github.com/dgallion1/pdfqa/internal/metrics"
)

// Log preview lengths.
const (
	chunkPreviewLen    = 200
	responsePreviewLen = 300
	rawContentLen      = 500
)

// Completer sends one prompt to the generation service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (*generate.Completion, error)
}

// Saver persists the full result set.
type Saver interface {
	Save(elems []json.RawMessage) error
}

// Generator runs the per-chunk generation loop. Chunks are processed one at
// a time, in order. A chunk that fails is logged and skipped; the result set
// is saved after every chunk that adds pairs.
type Generator struct {
	Client    Completer
	Store     Saver
	Log       zerolog.Logger
	ChunkSize int
	Delay     time.Duration // pause after each successful chunk

	Run      *Run         // optional
	Progress *ProgressBar // optional
	// NewProgress, when set, is called with the chunk count before the loop.
	NewProgress func(total int) *ProgressBar
}

// Result summarises a generation loop.
type Result struct {
	Pairs     []json.RawMessage
	Chunks    int
	Succeeded int
	Failed    int
}

// Generate splits text into chunks and generates pairs for each. It returns
// an error only when ctx is canceled or the final save fails; per-chunk
// failures are reflected in Result.Failed.
func (g *Generator) Generate(ctx context.Context, text string) (Result, error) {
	seq := chunker.New(text, g.ChunkSize)
	res := Result{Pairs: []json.RawMessage{}, Chunks: seq.Len()}

	if g.Run != nil {
		g.Run.SetTotalChunks(seq.Len())
	}
	if g.NewProgress != nil && g.Progress == nil {
		g.Progress = g.NewProgress(seq.Len())
	}
	defer g.Progress.Finish()

	g.Log.Info().Int("chunks", seq.Len()).Int("chunk_size", seq.Size()).Msg("generating pairs")

	// dirty is set while the file does not hold the current set.
	dirty := true
	for c := range seq.All() {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		elems, err := g.chunk(ctx, c)
		g.Progress.Add(1)
		if err != nil {
			res.Failed++
			if g.Run != nil {
				g.Run.ChunkFailed(c.Index, err)
			}
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			continue
		}

		res.Pairs = append(res.Pairs, elems...)
		res.Succeeded++
		metrics.AddPairs(len(elems))
		if g.Run != nil {
			g.Run.ChunkSucceeded(len(elems))
		}
		g.Log.Info().
			Int("chunk", c.Index+1).
			Int("generated", len(elems)).
			Int("well_formed", generate.WellFormed(elems)).
			Int("total", len(res.Pairs)).
			Msg("chunk done")

		g.setPhase(PhasePersisting)
		if err := g.Store.Save(res.Pairs); err != nil {
			dirty = true
			metrics.IncChunk("persist_error")
			g.Log.Error().Err(err).Int("chunk", c.Index+1).Msg("save failed, keeping previous file")
			if g.Run != nil {
				g.Run.AddError(fmt.Sprintf("chunk %d: save: %s", c.Index+1, err))
			}
		} else {
			dirty = false
			metrics.IncChunk("success")
			g.Log.Info().Int("pairs", len(res.Pairs)).Msg("result set saved")
		}

		if err := sleep(ctx, g.Delay); err != nil {
			return res, err
		}
	}

	if dirty {
		if err := g.Store.Save(res.Pairs); err != nil {
			return res, fmt.Errorf("save result set: %w", err)
		}
		g.Log.Info().Int("pairs", len(res.Pairs)).Msg("result set saved")
	}
	return res, nil
}

// chunk generates and parses the pairs for one chunk.
func (g *Generator) chunk(ctx context.Context, c chunker.Chunk) ([]json.RawMessage, error) {
	log := g.Log.With().Int("chunk", c.Index+1).Logger()

	g.setPhase(PhasePrompting)
	log.Info().
		Int("tokens_est", chunker.EstimateTokens(c.Text)).
		Str("preview", logger.Preview(c.Text, chunkPreviewLen)).
		Msg("processing chunk")
	prompt := generate.BuildPrompt(c.Text)

	g.setPhase(PhaseRequesting)
	comp, err := g.Client.Complete(ctx, prompt)
	if err != nil {
		metrics.IncChunk("transport_error")
		ev := log.Warn().Err(err)
		var te *generate.TransportError
		if errors.As(err, &te) && te.Body != "" {
			ev = ev.Int("status", te.StatusCode).Str("body", te.Body)
		}
		ev.Msg("chunk failed")
		return nil, err
	}
	log.Info().Str("preview", logger.Preview(comp.Content, responsePreviewLen)).Msg("model response")

	g.setPhase(PhaseParsing)
	elems, err := generate.ParsePairs(comp.Content)
	if err != nil {
		metrics.IncChunk("parse_error")
		log.Warn().
			Err(err).
			Str("raw_content", truncateRunes(comp.Content, rawContentLen)).
			Str("raw_response", string(comp.Body)).
			Msg("failed to parse pairs")
		return nil, err
	}
	return elems, nil
}

func (g *Generator) setPhase(phase string) {
	if g.Run != nil {
		g.Run.SetPhase(phase)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
