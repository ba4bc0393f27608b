package store

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func raw(ss ...string) []json.RawMessage {
	out := make([]json.RawMessage, len(ss))
	for i, s := range ss {
		out[i] = json.RawMessage(s)
	}
	return out
}

func TestSave_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa.json")
	f := NewJSONFile(path)

	err := f.Save(raw(`{"question":"What is HbA1c?","answer":"A 3-month glucose marker."}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := os.ReadFile(path)
	want := "[\n  {\n    \"question\": \"What is HbA1c?\",\n    \"answer\": \"A 3-month glucose marker.\"\n  }\n]"
	if string(got) != want {
		t.Errorf("unexpected file content:\n%s\nwant:\n%s", got, want)
	}
}

func TestSave_NilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa.json")
	if err := NewJSONFile(path).Save(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "[]" {
		t.Errorf("expected [], got %q", got)
	}
}

func TestSave_NonASCIIAndHTMLLiteral(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa.json")
	err := NewJSONFile(path).Save(raw(`{"question":"糖尿病是什么？","answer":"glucose < 7 & > 4"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := os.ReadFile(path)
	if !strings.Contains(string(got), "糖尿病是什么？") {
		t.Errorf("expected non-ASCII text written literally, got %s", got)
	}
	if !strings.Contains(string(got), "glucose < 7 & > 4") {
		t.Errorf("expected HTML characters unescaped, got %s", got)
	}
}

func TestSave_ByteIdentical(t *testing.T) {
	dir := t.TempDir()
	elems := raw(`{"question":"Q1","answer":"A1"}`, `{"question":"Q2","answer":"A2"}`)

	a := NewJSONFile(filepath.Join(dir, "a.json"))
	b := NewJSONFile(filepath.Join(dir, "b.json"))
	if err := a.Save(elems); err != nil {
		t.Fatal(err)
	}
	if err := b.Save(elems); err != nil {
		t.Fatal(err)
	}
	if err := a.Save(elems); err != nil {
		t.Fatal(err)
	}
	da, _ := os.ReadFile(a.Path())
	db, _ := os.ReadFile(b.Path())
	if !bytes.Equal(da, db) {
		t.Error("expected identical bytes for identical input")
	}
}

func TestSave_PreservesOrderAndOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qa.json")
	f := NewJSONFile(path)

	if err := f.Save(raw(`{"question":"old","answer":"old"}`)); err != nil {
		t.Fatal(err)
	}
	if err := f.Save(raw(`1`, `2`, `3`)); err != nil {
		t.Fatal(err)
	}

	got, err := f.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	for i, want := range []string{"1", "2", "3"} {
		if string(got[i]) != want {
			t.Errorf("element %d: expected %s, got %s", i, want, got[i])
		}
	}
}

func TestSave_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewJSONFile(filepath.Join(dir, "qa.json"))
	for range 3 {
		if err := f.Save(raw(`{"question":"Q","answer":"A"}`)); err != nil {
			t.Fatal(err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the target file, got %v", names)
	}
}

func TestSave_MissingDirectoryFails(t *testing.T) {
	f := NewJSONFile(filepath.Join(t.TempDir(), "missing", "qa.json"))
	if err := f.Save(nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	got, err := NewJSONFile(filepath.Join(t.TempDir(), "none.json")).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty set, got %d", len(got))
	}
}
