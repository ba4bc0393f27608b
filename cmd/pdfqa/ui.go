package main

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	failureColor = color.New(color.FgRed, color.Bold)
	warnColor    = color.New(color.FgYellow)
)

func success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ %s\n", fmt.Sprintf(format, args...))
}

func failure(w io.Writer, format string, args ...any) {
	failureColor.Fprintf(w, "✗ %s\n", fmt.Sprintf(format, args...))
}

func warning(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func newSpinner(w io.Writer, message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	return s
}
