package generate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParsePairs(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "plain array",
			content: `[{"question":"Q1","answer":"A1"},{"question":"Q2","answer":"A2"}]`,
			want:    []string{`{"question":"Q1","answer":"A1"}`, `{"question":"Q2","answer":"A2"}`},
		},
		{
			name:    "json fence",
			content: "```json\n[{\"question\":\"Q\",\"answer\":\"A\"}]\n```",
			want:    []string{`{"question":"Q","answer":"A"}`},
		},
		{
			name:    "bare fence with prose",
			content: "Here you go:\n```\n[{\"question\":\"Q\",\"answer\":\"A\"}]\n```\nDone.",
			want:    []string{`{"question":"Q","answer":"A"}`},
		},
		{
			name:    "surrounding whitespace",
			content: "\n\n  [1, 2]  \n",
			want:    []string{`1`, `2`},
		},
		{
			name:    "prose around unfenced array",
			content: `Sure! [{"question":"Q","answer":"A"}] Let me know if you need more.`,
			want:    []string{`{"question":"Q","answer":"A"}`},
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    []string{},
		},
		{
			name:    "elements kept unvalidated",
			content: `[{"q":"x"}, "loose string", 42]`,
			want:    []string{`{"q":"x"}`, `"loose string"`, `42`},
		},
		{
			name:    "unicode escapes resolved",
			content: `[{"question":"\u7cd6\u5c3f\u75c5?","answer":"caf\u00e9 \u003cb\u003e"}]`,
			want:    []string{`{"question":"糖尿病?","answer":"café <b>"}`},
		},
		{
			name:    "key order and numbers kept",
			content: `[{"z": 1.50, "a": [true, null, {"k": "\"q\"\n"}]}]`,
			want:    []string{`{"z":1.50,"a":[true,null,{"k":"\"q\"\n"}]}`},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePairs(tc.content)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d elements, got %d", len(tc.want), len(got))
			}
			for i := range got {
				if string(got[i]) != tc.want[i] {
					t.Errorf("element %d: expected %s, got %s", i, tc.want[i], got[i])
				}
			}
		})
	}
}

func TestParsePairs_Failures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed", `[{"question": "Q", "answer": }]`},
		{"object", `{"question":"Q","answer":"A"}`},
		{"object wrapping array", `{"pairs":[{"question":"Q","answer":"A"}]}`},
		{"string", `"just text"`},
		{"prose", `I cannot help with that.`},
		{"empty", ``},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePairs(tc.content)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Content != tc.content {
				t.Errorf("expected raw content to be kept")
			}
		})
	}
}

func TestParsePairs_FenceMatchesFirstArray(t *testing.T) {
	content := "```json\n[1]\n```\nand\n```json\n[2]\n```"
	got, err := ParsePairs(content)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || string(got[0]) != "1" {
		t.Errorf("expected first fenced array, got %v", got)
	}
}

func TestWellFormed(t *testing.T) {
	elems := []json.RawMessage{
		json.RawMessage(`{"question":"Q","answer":"A"}`),
		json.RawMessage(`{"question":"Q"}`),
		json.RawMessage(`"text"`),
	}
	if n := WellFormed(elems); n != 1 {
		t.Errorf("expected 1 well-formed pair, got %d", n)
	}
}

func TestParseError_TruncatesContent(t *testing.T) {
	err := &ParseError{Content: strings.Repeat("x", 1000), Err: errNotArray}
	if len(err.Error()) > 300 {
		t.Errorf("expected truncated error message, got %d bytes", len(err.Error()))
	}
}
