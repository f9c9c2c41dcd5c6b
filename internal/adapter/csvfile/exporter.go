package csvfile

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/renameio/v2"

	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

// Exporter writes the merged observation table to CSV.
// It implements pipeline.Exporter.
type Exporter struct {
	path   string
	logger *slog.Logger
}

// NewExporter creates an Exporter that replaces the file at path.
func NewExporter(path string, logger *slog.Logger) *Exporter {
	return &Exporter{path: path, logger: logger}
}

// Export writes crime_date, crime_count, temperature and the carried weather
// columns, one row per observation.
func (e *Exporter) Export(obs []domain.Observation) error {
	if err := WriteRecords(e.path, MergedRecords(obs)); err != nil {
		return err
	}
	e.logger.Info("merged table written", "path", e.path, "rows", len(obs))
	return nil
}

// WriteRecords atomically replaces the file at path with records, the first
// of which is the header. Cells are written verbatim.
func WriteRecords(path string, records [][]string) error {
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("build table for %s: %w", path, df.Err)
	}

	f, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Cleanup() //nolint:errcheck // no-op after a successful replace

	if err := df.WriteCSV(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// MergedRecords renders observations as CSV records with a header row.
func MergedRecords(obs []domain.Observation) [][]string {
	header := []string{"crime_date", "crime_count", "temperature"}
	if len(obs) > 0 {
		for _, f := range obs[0].Extra {
			header = append(header, f.Name)
		}
	}

	records := make([][]string, 0, len(obs)+1)
	records = append(records, header)
	for _, o := range obs {
		row := []string{
			o.CrimeDate.Format(domain.DateLayout),
			strconv.Itoa(o.CrimeCount),
			strconv.FormatFloat(o.Temperature, 'f', -1, 64),
		}
		for _, f := range o.Extra {
			row = append(row, f.Value)
		}
		records = append(records, row)
	}
	return records
}
