// Package store persists the generated result set.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONFile writes the full result set to one file. Each Save replaces the
// file atomically, so readers see either the previous or the new set.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile {
	return &JSONFile{path: path}
}

// Path returns the target file path.
func (f *JSONFile) Path() string { return f.path }

// Save encodes elems as a two-space indented JSON array with non-ASCII text
// and HTML characters left unescaped. A nil slice is written as [].
func (f *JSONFile) Save(elems []json.RawMessage) error {
	data, err := Encode(elems)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename to %s: %w", f.path, err)
	}
	return nil
}

// Load reads a previously saved set. A missing file yields an empty set.
func (f *JSONFile) Load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	elems := []json.RawMessage{}
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return elems, nil
}

// Encode renders elems exactly as Save writes them.
func Encode(elems []json.RawMessage) ([]byte, error) {
	if elems == nil {
		elems = []json.RawMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(elems); err != nil {
		return nil, fmt.Errorf("encode result set: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
