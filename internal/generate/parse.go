package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// QAPair is the typed view of one generated element. Elements are stored as
// returned, so a stored element is not guaranteed to have this shape.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParseError reports a model response that did not contain a JSON array.
type ParseError struct {
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse pairs: %v (raw: %s)", e.Err, truncate(e.Content, 200))
}

func (e *ParseError) Unwrap() error { return e.Err }

var errNotArray = errors.New("response is not a JSON array")

var fencedArrayRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\[.*?\\])\\s*```")

// ParsePairs extracts the array of generated elements from model output.
// A fenced ```json block is preferred; otherwise the whole content is parsed.
// If that fails, the span from the first '[' to the last ']' is tried.
// Elements are returned in order, unvalidated, with string escapes resolved.
func ParsePairs(content string) ([]json.RawMessage, error) {
	candidate := content
	if m := fencedArrayRe.FindStringSubmatch(content); m != nil {
		candidate = m[1]
	}
	candidate = strings.TrimSpace(candidate)

	elems, err := decodeArray(candidate)
	if err == nil {
		return elems, nil
	}
	if errors.Is(err, errNotArray) {
		return nil, &ParseError{Content: content, Err: err}
	}

	start := strings.IndexByte(candidate, '[')
	end := strings.LastIndexByte(candidate, ']')
	if start >= 0 && end > start {
		if elems, spanErr := decodeArray(candidate[start : end+1]); spanErr == nil {
			return elems, nil
		}
	}
	return nil, &ParseError{Content: content, Err: err}
}

func decodeArray(s string) ([]json.RawMessage, error) {
	if !json.Valid([]byte(s)) {
		var probe any
		return nil, json.Unmarshal([]byte(s), &probe)
	}
	if !strings.HasPrefix(s, "[") {
		return nil, errNotArray
	}
	elems := []json.RawMessage{}
	if err := json.Unmarshal([]byte(s), &elems); err != nil {
		return nil, err
	}
	for i, raw := range elems {
		norm, err := normalize(raw)
		if err != nil {
			return nil, err
		}
		elems[i] = norm
	}
	return elems, nil
}

// normalize re-encodes one element with string escapes resolved, so
// non-ASCII and HTML characters are stored literally. Key order and number
// literals are kept as written.
func normalize(raw json.RawMessage) (json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var buf bytes.Buffer
	if err := writeValue(dec, &buf); err != nil {
		return nil, fmt.Errorf("normalize element: %w", err)
	}
	return buf.Bytes(), nil
}

func writeValue(dec *json.Decoder, buf *bytes.Buffer) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case json.Delim:
		closing := byte(']')
		if v == '{' {
			closing = '}'
		}
		buf.WriteByte(byte(v))
		for first := true; dec.More(); first = false {
			if !first {
				buf.WriteByte(',')
			}
			if v == '{' {
				key, err := dec.Token()
				if err != nil {
					return err
				}
				writeString(buf, key.(string))
				buf.WriteByte(':')
			}
			if err := writeValue(dec, buf); err != nil {
				return err
			}
		}
		if _, err := dec.Token(); err != nil {
			return err
		}
		buf.WriteByte(closing)
	case string:
		writeString(buf, v)
	case json.Number:
		buf.WriteString(v.String())
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case nil:
		buf.WriteString("null")
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends a newline.
}

// WellFormed counts elements that decode as a QAPair with both fields set.
func WellFormed(elems []json.RawMessage) int {
	n := 0
	for _, raw := range elems {
		var p QAPair
		if json.Unmarshal(raw, &p) == nil && p.Question != "" && p.Answer != "" {
			n++
		}
	}
	return n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
