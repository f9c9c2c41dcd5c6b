// Package plot renders the temperature/crime scatter chart.
package plot

import (
	"fmt"
	"log/slog"

	"github.com/google/renameio/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

const (
	Title  = "Temperature vs. Daily Crime Count (LA 2023)"
	XLabel = "Temperature (°F)"
	YLabel = "Crime Count"

	width  = 6.4 * vg.Inch
	height = 4.8 * vg.Inch
)

// Scatter writes a PNG scatter plot of temperature against crime count.
// It implements pipeline.Visualizer.
type Scatter struct {
	path   string
	logger *slog.Logger
}

// NewScatter creates a Scatter that writes to path, replacing any existing file.
func NewScatter(path string, logger *slog.Logger) *Scatter {
	return &Scatter{path: path, logger: logger}
}

// Path returns the output image path.
func (s *Scatter) Path() string { return s.path }

// Render draws the observations and atomically replaces the output file.
func (s *Scatter) Render(obs []domain.Observation) error {
	p, err := build(obs)
	if err != nil {
		return err
	}

	w, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render plot: %w", err)
	}

	f, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create %s: %w", s.path, err)
	}
	defer f.Cleanup() //nolint:errcheck // no-op after a successful replace

	if _, err := w.WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	s.logger.Info("scatter plot written", "path", s.path, "points", len(obs))
	return nil
}

func build(obs []domain.Observation) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = Title
	p.X.Label.Text = XLabel
	p.Y.Label.Text = YLabel
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(obs))
	for i, o := range obs {
		pts[i].X = o.Temperature
		pts[i].Y = float64(o.CrimeCount)
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("build scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2.5)
	p.Add(scatter)
	return p, nil
}
