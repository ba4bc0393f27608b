package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew_ReassemblesText(t *testing.T) {
	texts := []string{
		"a",
		"hello world",
		strings.Repeat("abcdefghij", 37),
		strings.Repeat("糖尿病 diabetes ", 120),
		"line one\nline two\n\nline three\n",
	}
	sizes := []int{1, 3, 7, 10, 2000}

	for _, text := range texts {
		for _, size := range sizes {
			seq := New(text, size)
			var sb strings.Builder
			for c := range seq.All() {
				sb.WriteString(c.Text)
			}
			if sb.String() != text {
				t.Fatalf("size %d: reassembled text differs from input", size)
			}
		}
	}
}

func TestNew_ChunkLengths(t *testing.T) {
	tests := []struct {
		name     string
		runes    int
		size     int
		wantLen  int
		wantLast int
	}{
		{"exact multiple", 4000, 2000, 2, 2000},
		{"remainder", 2500, 2000, 2, 500},
		{"shorter than size", 10, 2000, 1, 10},
		{"size one", 5, 1, 5, 1},
		{"just over", 2001, 2000, 2, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seq := New(strings.Repeat("x", tc.runes), tc.size)
			if seq.Len() != tc.wantLen {
				t.Fatalf("expected %d chunks, got %d", tc.wantLen, seq.Len())
			}
			for i := 0; i < seq.Len()-1; i++ {
				if n := utf8.RuneCountInString(seq.At(i).Text); n != tc.size {
					t.Errorf("chunk %d: expected %d chars, got %d", i, tc.size, n)
				}
			}
			last := seq.At(seq.Len() - 1)
			if n := utf8.RuneCountInString(last.Text); n != tc.wantLast {
				t.Errorf("last chunk: expected %d chars, got %d", tc.wantLast, n)
			}
		})
	}
}

func TestNew_CountsCharactersNotBytes(t *testing.T) {
	// Each rune is three bytes in UTF-8.
	text := strings.Repeat("病", 5)
	seq := New(text, 2)
	if seq.Len() != 3 {
		t.Fatalf("expected 3 chunks, got %d", seq.Len())
	}
	want := []string{"病病", "病病", "病"}
	for i, w := range want {
		if got := seq.At(i).Text; got != w {
			t.Errorf("chunk %d: expected %q, got %q", i, w, got)
		}
		if !utf8.ValidString(seq.At(i).Text) {
			t.Errorf("chunk %d is not valid UTF-8", i)
		}
	}
}

func TestNew_EmptyText(t *testing.T) {
	seq := New("", 2000)
	if seq.Len() != 0 {
		t.Fatalf("expected 0 chunks, got %d", seq.Len())
	}
	for range seq.All() {
		t.Fatal("expected no chunks to be yielded")
	}
}

func TestNew_DefaultSizeFallback(t *testing.T) {
	seq := New(strings.Repeat("y", 4500), 0)
	if seq.Size() != DefaultChunkSize {
		t.Fatalf("expected size %d, got %d", DefaultChunkSize, seq.Size())
	}
	if seq.Len() != 3 {
		t.Fatalf("expected 3 chunks, got %d", seq.Len())
	}
}

func TestSequence_Restartable(t *testing.T) {
	seq := New(strings.Repeat("z", 25), 10)

	var first, second []Chunk
	for c := range seq.All() {
		first = append(first, c)
	}
	for c := range seq.All() {
		second = append(second, c)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 chunks on each pass, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("chunk %d differs between passes", i)
		}
		if first[i].Index != i {
			t.Errorf("chunk %d: expected index %d, got %d", i, i, first[i].Index)
		}
	}
}

func TestSequence_EarlyBreak(t *testing.T) {
	seq := New(strings.Repeat("z", 100), 10)
	seen := 0
	for range seq.All() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("expected iteration to stop after 2 chunks, got %d", seen)
	}
}

func TestSequence_AtOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for out-of-range index")
		}
	}()
	New("abc", 2).At(5)
}

func TestSplit(t *testing.T) {
	got := Split("abcdefg", 3)
	want := []string{"abc", "def", "g"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("part %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestEstimateTokens(t *testing.T) {
	if EstimateTokens("") != 0 {
		t.Error("expected 0 tokens for empty text")
	}
	if EstimateTokens("!") != 1 {
		t.Error("expected at least 1 token for non-empty text")
	}
	if got := EstimateTokens(strings.Repeat("word ", 300)); got != 399 {
		t.Errorf("expected 399 tokens for 300 words, got %d", got)
	}
}
