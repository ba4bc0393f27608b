package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/dgallion1/pdfqa/internal/config"
	"github.com/dgallion1/pdfqa/internal/logger"
)

var version = "0.1.0"

// app holds state shared by all commands.
type app struct {
	cfg     config.Config
	log     zerolog.Logger
	stdout  io.Writer
	stderr  io.Writer
	envFile string
	verbose bool
	noColor bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfqa",
		Short: "Generate question-answer pairs from documents",
		Long: `pdfqa extracts the text of a document (OCR for scanned PDFs), splits it into
fixed-size chunks and asks a chat-completions model for question-answer pairs
per chunk. The result set is saved to a JSON file after every chunk.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(newGenerateCmd(a), newOCRCheckCmd(a), newVersionCmd(a))
	return root
}

func (a *app) init() error {
	if a.noColor {
		color.NoColor = true
	}
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	a.cfg = config.Load()
	if a.verbose {
		a.cfg.Logging.Level = "debug"
	}
	log, err := logger.New(logger.Options{
		Level:      a.cfg.Logging.Level,
		Pretty:     a.cfg.Logging.Pretty,
		File:       a.cfg.Logging.File,
		MaxSizeMB:  a.cfg.Logging.MaxSizeMB,
		MaxBackups: a.cfg.Logging.MaxBackups,
		MaxAgeDays: a.cfg.Logging.MaxAgeDays,
		Output:     a.stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pdfqa version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.stdout, "pdfqa %s\n", version)
			return nil
		},
	}
}

func main() {
	a := &app{stdout: os.Stdout, stderr: os.Stderr}
	if err := newRootCmd(a).Execute(); err != nil {
		failure(a.stderr, "%v", err)
		os.Exit(1)
	}
}
