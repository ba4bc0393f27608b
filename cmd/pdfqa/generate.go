package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfqa/internal/api"
	"github.com/dgallion1/pdfqa/internal/document"
	"github.com/dgallion1/pdfqa/internal/generate"
	"github.com/dgallion1/pdfqa/internal/metrics"
	"github.com/dgallion1/pdfqa/internal/ocr"
	"github.com/dgallion1/pdfqa/internal/pipeline"
	"github.com/dgallion1/pdfqa/internal/store"
)

type generateFlags struct {
	input      string
	output     string
	chunkSize  int
	pdfMode    string
	statusAddr string
	model      string
	delay      time.Duration
	noProgress bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate question-answer pairs from a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a)
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runGenerate(ctx, !f.noProgress)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input document (env PDFQA_INPUT)")
	fl.StringVarP(&f.output, "output", "o", "", "output JSON file (env PDFQA_OUTPUT)")
	fl.IntVar(&f.chunkSize, "chunk-size", 0, "chunk length in characters (env CHUNK_SIZE)")
	fl.StringVar(&f.pdfMode, "pdf-mode", "", "PDF extraction mode: ocr or text (env PDF_MODE)")
	fl.StringVar(&f.statusAddr, "status-addr", "", "serve run status on this address, e.g. :8090 (env STATUS_ADDR)")
	fl.StringVar(&f.model, "model", "", "generation model (env DEEPSEEK_MODEL)")
	fl.DurationVar(&f.delay, "delay", 0, "pause after each successful chunk (env CHUNK_DELAY)")
	fl.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}

// apply overrides the environment configuration with explicitly set flags.
func (f *generateFlags) apply(cmd *cobra.Command, a *app) {
	fl := cmd.Flags()
	if fl.Changed("input") {
		a.cfg.InputPath = f.input
	}
	if fl.Changed("output") {
		a.cfg.OutputPath = f.output
	}
	if fl.Changed("chunk-size") {
		a.cfg.ChunkSize = f.chunkSize
	}
	if fl.Changed("pdf-mode") {
		a.cfg.PDFMode = strings.ToLower(f.pdfMode)
	}
	if fl.Changed("status-addr") {
		a.cfg.StatusAddr = f.statusAddr
	}
	if fl.Changed("model") {
		a.cfg.Model = f.model
	}
	if fl.Changed("delay") {
		a.cfg.ChunkDelay = f.delay
	}
}

func (a *app) runGenerate(ctx context.Context, showProgress bool) error {
	cfg := a.cfg
	metrics.Init()

	client := generate.NewClient(generate.Options{
		APIKey:      cfg.APIKey,
		URL:         cfg.APIURL,
		Model:       cfg.Model,
		Temperature: &cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.RequestTimeout,
	})
	defer client.Close()

	results := store.NewJSONFile(cfg.OutputPath)
	run := pipeline.NewRun(cfg.InputPath, cfg.OutputPath)

	if cfg.StatusAddr != "" {
		shutdown := a.serveStatus(cfg.StatusAddr, api.NewServer(run, client, results, a.log, cfg.StatusAPIKey))
		defer shutdown()
	}

	gen := &pipeline.Generator{
		Client:    client,
		Store:     results,
		ChunkSize: cfg.ChunkSize,
		Delay:     cfg.ChunkDelay,
	}
	if showProgress {
		gen.NewProgress = func(total int) *pipeline.ProgressBar {
			return pipeline.NewProgressBar(a.stderr, total, "Processing chunks")
		}
	}

	runner := &pipeline.Runner{
		Run: run,
		Documents: document.Options{
			PDFMode:  cfg.PDFMode,
			Renderer: ocr.NewFitzRenderer(cfg.DPI),
			Engine:   ocr.NewTesseractEngine(cfg.OCRLanguage, cfg.DPI),
		},
		Generator: gen,
		Log:       a.log,
	}

	a.log.Info().
		Str("run_id", run.ID).
		Str("input", cfg.InputPath).
		Str("output", cfg.OutputPath).
		Str("model", client.Model()).
		Str("pdf_mode", cfg.PDFMode).
		Msg("starting run")

	res, err := runner.Execute(ctx)
	if errors.Is(err, context.Canceled) {
		warning(a.stderr, "Interrupted: %d pairs saved to %s", len(res.Pairs), cfg.OutputPath)
		return err
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(a.stdout)
	success(a.stdout, "Completed!")
	fmt.Fprintf(a.stdout, "- Total QAs generated: %d\n", len(res.Pairs))
	fmt.Fprintf(a.stdout, "- Output file: %s\n", cfg.OutputPath)
	if res.Failed > 0 {
		warning(a.stdout, "%d of %d chunks failed and were skipped", res.Failed, res.Chunks)
	}
	return nil
}

// serveStatus starts the status server in the background and returns a
// function that shuts it down.
func (a *app) serveStatus(addr string, handler http.Handler) func() {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		a.log.Info().Str("addr", addr).Msg("status server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error().Err(err).Msg("status server error")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(ctx)
	}
}
