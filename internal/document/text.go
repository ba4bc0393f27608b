package document

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// TextExtractor reads plain text, normalising paragraphs to be separated by
// a single blank line.
type TextExtractor struct{}

func (e *TextExtractor) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	if err := scanner.Err(); err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("read text: %w", err)}
	}
	return joinBlocks(paragraphs), nil
}

// CSVExtractor renders each data row as "header: value" pairs, one row per
// line, in groups of csvBatchRows separated by blank lines.
type CSVExtractor struct{}

const csvBatchRows = 20

func (e *CSVExtractor) Extract(_ context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", &ExtractionError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", &ExtractionError{Path: path, Err: fmt.Errorf("parse csv: %w", err)}
	}
	if len(records) < 2 {
		return "", nil
	}

	headers := records[0]
	rows := records[1:]
	var blocks []string
	for i := 0; i < len(rows); i += csvBatchRows {
		end := min(i+csvBatchRows, len(rows))
		var sb strings.Builder
		for r, row := range rows[i:end] {
			if r > 0 {
				sb.WriteString("\n")
			}
			for j, cell := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				if j < len(headers) {
					sb.WriteString(headers[j] + ": ")
				}
				sb.WriteString(cell)
			}
		}
		blocks = append(blocks, sb.String())
	}
	return joinBlocks(blocks), nil
}
