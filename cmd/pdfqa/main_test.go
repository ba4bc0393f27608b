package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := &app{stdout: &stdout, stderr: &stderr}
	root := newRootCmd(a)
	root.SetArgs(append([]string{"--env-file", "", "--no-color"}, args...))
	err := root.Execute()
	return stdout.String() + stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := runCmd(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "pdfqa "+version) {
		t.Errorf("expected version in output, got %q", out)
	}
}

func TestGenerateCmd_MissingAPIKey(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	_, err := runCmd(t, "generate", "--input", "doc.txt", "--output", filepath.Join(t.TempDir(), "out.json"))
	if err == nil || !strings.Contains(err.Error(), "DEEPSEEK_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestGenerateCmd_InvalidPDFMode(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	_, err := runCmd(t, "generate", "--pdf-mode", "magic", "--input", "doc.pdf")
	if err == nil || !strings.Contains(err.Error(), "pdf mode") {
		t.Fatalf("expected pdf mode error, got %v", err)
	}
}

func TestGenerateCmd_TextDocument(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		requests.Add(1)
		content := "```json\n[{\"question\":\"What is it?\",\"answer\":\"A test.\"}]\n```"
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	defer srv.Close()

	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("DEEPSEEK_API_URL", srv.URL)
	t.Setenv("CHUNK_DELAY", "0s")
	t.Setenv("LOG_PRETTY", "false")

	dir := t.TempDir()
	input := filepath.Join(dir, "notes.txt")
	output := filepath.Join(dir, "qa.json")
	if err := os.WriteFile(input, []byte(strings.Repeat("Plain text about testing. ", 60)), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "generate", "--input", input, "--output", output, "--chunk-size", "1000", "--no-progress")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Completed!") {
		t.Errorf("expected completion message, got %q", out)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("expected output file: %v", err)
	}
	var pairs []map[string]string
	if err := json.Unmarshal(data, &pairs); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0]["question"] != "What is it?" {
		t.Errorf("unexpected first pair %v", pairs[0])
	}
}

type stubEngine struct {
	text string
	err  error
}

func (s stubEngine) Recognize(ctx context.Context, img []byte) (string, error) {
	if len(img) == 0 {
		return "", errors.New("empty image")
	}
	return s.text, s.err
}

func TestRunOCRCheck(t *testing.T) {
	tests := []struct {
		name    string
		engine  stubEngine
		wantErr bool
	}{
		{"match", stubEngine{text: "Hello  Tesseract!\n"}, false},
		{"case insensitive", stubEngine{text: "HELLO TESSERACT!"}, false},
		{"mismatch", stubEngine{text: "He11o Tesseract"}, true},
		{"engine error", stubEngine{err: errors.New("no tessdata")}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			a := &app{stdout: &stdout, stderr: &stderr}
			err := a.runOCRCheck(context.Background(), tc.engine, "Hello Tesseract!", 2)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}
