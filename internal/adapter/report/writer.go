// Package report prints the analysis to the terminal and persists it to the
// summary file.
package report

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/renameio/v2"

	"github.com/couchcryptid/crime-temperature-analysis/internal/analysis"
)

// Writer implements pipeline.Reporter.
type Writer struct {
	out    io.Writer
	path   string
	logger *slog.Logger
}

// NewWriter creates a Writer that prints to out and writes the summary file at path.
func NewWriter(out io.Writer, path string, logger *slog.Logger) *Writer {
	return &Writer{out: out, path: path, logger: logger}
}

// Path returns the summary file path.
func (w *Writer) Path() string { return w.path }

// ReportCorrelation prints the correlation line. It runs before the model is
// fitted so the value is visible even when the fit fails.
func (w *Writer) ReportCorrelation(r float64) error {
	if _, err := fmt.Fprintln(w.out, analysis.CorrelationLine(r)); err != nil {
		return fmt.Errorf("print correlation: %w", err)
	}
	return nil
}

// ReportResult prints the model summary and replaces the summary file with
// the correlation line followed by the summary.
func (w *Writer) ReportResult(res analysis.Result) error {
	if _, err := fmt.Fprint(w.out, res.Model.Summary()); err != nil {
		return fmt.Errorf("print summary: %w", err)
	}
	if err := renameio.WriteFile(w.path, []byte(res.Report()), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", w.path, err)
	}
	w.logger.Info("regression summary written", "path", w.path)
	return nil
}
