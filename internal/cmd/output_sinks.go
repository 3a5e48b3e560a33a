package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tickerdesk/tickerdesk/internal/output"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

// openSink opens path for writing, or returns fallback for "" and "-".
func openSink(path string, fallback io.Writer) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: fallback, close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

// render writes datasets in the selected format to stdout or --out.
func render(cmd *cobra.Command, datasets ...*output.Dataset) error {
	state, err := currentApp()
	if err != nil {
		return err
	}

	sink, err := openSink(outFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if err := output.RenderAll(sink.writer, state.format, datasets...); err != nil {
		_ = sink.close()
		return err
	}
	return sink.close()
}

// printMessage writes a status line. Machine-readable formats stay clean, so
// messages go to stderr for json and csv.
func printMessage(cmd *cobra.Command, format string, args ...any) {
	w := cmd.OutOrStdout()
	if state, err := currentApp(); err == nil && (state.format == output.FormatJSON || state.format == output.FormatCSV) {
		w = cmd.ErrOrStderr()
	}
	_, _ = fmt.Fprintf(w, format+"\n", args...)
}
