package pipeline

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dgallion1/pdfqa/internal/document"
)

func TestRunner_TextDocument(t *testing.T) {
	srv := newChatServer(t, func(n int, _ string) (int, string) {
		return http.StatusOK, pairsJSON("doc", 5)
	})
	g, out := newTestGenerator(t, srv.URL)

	input := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(input, []byte(strings.Repeat("Insulin regulates glucose. ", 100)), 0o644); err != nil {
		t.Fatal(err)
	}

	run := NewRun(input, out)
	r := &Runner{Run: run, Generator: g, Log: zerolog.Nop()}
	res, err := r.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Pairs) != 10 {
		t.Errorf("expected 10 pairs from 2 chunks, got %d", len(res.Pairs))
	}

	snap := run.Snapshot()
	if snap.Status != StatusDone {
		t.Errorf("expected done, got %q", snap.Status)
	}
	if snap.ContentHash == "" {
		t.Error("expected content hash to be recorded")
	}
	if snap.Progress.TotalChunks != 2 || snap.Progress.Pairs != 10 {
		t.Errorf("unexpected progress: %+v", snap.Progress)
	}
	if len(readPairs(t, out)) != 10 {
		t.Error("expected 10 pairs persisted")
	}
}

func TestRunner_ExtractionFailure(t *testing.T) {
	srv := newChatServer(t, func(int, string) (int, string) {
		t.Error("expected no generation requests")
		return http.StatusOK, "[]"
	})
	g, out := newTestGenerator(t, srv.URL)

	run := NewRun(filepath.Join(t.TempDir(), "missing.pdf"), out)
	r := &Runner{Run: run, Generator: g, Log: zerolog.Nop()}
	_, err := r.Execute(context.Background())

	var ee *document.ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExtractionError, got %v", err)
	}
	snap := run.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected failed status, got %q", snap.Status)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected error recorded, got %v", snap.Progress.Errors)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("expected no output file after extraction failure")
	}
}

func TestRunner_Canceled(t *testing.T) {
	g, out := newTestGenerator(t, "http://127.0.0.1:1")
	input := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(input, []byte("some text"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := NewRun(input, out)
	_, err := (&Runner{Run: run, Generator: g, Log: zerolog.Nop()}).Execute(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := run.Status(); got != StatusCanceled {
		t.Errorf("expected canceled status, got %q", got)
	}
}
