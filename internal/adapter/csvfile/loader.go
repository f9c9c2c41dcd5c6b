package csvfile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

// Loader reads the crime and weather CSV files.
// It implements pipeline.Loader.
type Loader struct {
	crimePath   string
	weatherPath string
	logger      *slog.Logger
}

// NewLoader creates a Loader for the two source files.
func NewLoader(crimePath, weatherPath string, logger *slog.Logger) *Loader {
	return &Loader{crimePath: crimePath, weatherPath: weatherPath, logger: logger}
}

// Load reads both files. Either failing aborts the load.
func (l *Loader) Load(ctx context.Context) (crime, weather domain.Table, err error) {
	crimeTable, err := ReadTableFile(l.crimePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load crime data: %w", err)
	}
	l.logger.Debug("crime data loaded", "path", l.crimePath, "rows", crimeTable.Nrow(), "columns", len(crimeTable.Names()))

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	weatherTable, err := ReadTableFile(l.weatherPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load weather data: %w", err)
	}
	l.logger.Debug("weather data loaded", "path", l.weatherPath, "rows", weatherTable.Nrow(), "columns", len(weatherTable.Names()))

	return crimeTable, weatherTable, nil
}
