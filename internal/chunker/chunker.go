package chunker

import (
	"iter"
	"unicode/utf8"
)

// DefaultChunkSize is the chunk length in characters used when none is configured.
const DefaultChunkSize = 2000

// Chunk is a contiguous slice of the source text.
type Chunk struct {
	Index int    // Position in the sequence, starting at 0.
	Text  string // At most Size characters.
}

// Sequence splits text into non-overlapping chunks of a fixed number of
// characters (runes). The final chunk may be shorter. Chunks are produced on
// demand; the sequence can be iterated any number of times.
type Sequence struct {
	text    string
	size    int
	offsets []int // byte offset where each chunk starts, plus len(text)
}

// New builds a chunk sequence over text. A size <= 0 falls back to
// DefaultChunkSize.
func New(text string, size int) *Sequence {
	if size <= 0 {
		size = DefaultChunkSize
	}
	s := &Sequence{text: text, size: size}
	if text == "" {
		return s
	}

	s.offsets = make([]int, 0, utf8.RuneCountInString(text)/size+2)
	runes := 0
	for i := range text {
		if runes%size == 0 {
			s.offsets = append(s.offsets, i)
		}
		runes++
	}
	s.offsets = append(s.offsets, len(text))
	return s
}

// Size returns the configured chunk size in characters.
func (s *Sequence) Size() int { return s.size }

// Len returns the number of chunks.
func (s *Sequence) Len() int {
	if len(s.offsets) == 0 {
		return 0
	}
	return len(s.offsets) - 1
}

// At returns chunk i. It panics if i is out of range, like a slice index.
func (s *Sequence) At(i int) Chunk {
	if i < 0 || i >= s.Len() {
		panic("chunker: index out of range")
	}
	return Chunk{Index: i, Text: s.text[s.offsets[i]:s.offsets[i+1]]}
}

// All yields every chunk in order.
func (s *Sequence) All() iter.Seq[Chunk] {
	return func(yield func(Chunk) bool) {
		for i := range s.Len() {
			if !yield(s.At(i)) {
				return
			}
		}
	}
}

// Split is a convenience returning every chunk text as a slice.
func Split(text string, size int) []string {
	seq := New(text, size)
	out := make([]string, 0, seq.Len())
	for c := range seq.All() {
		out = append(out, c.Text)
	}
	return out
}
