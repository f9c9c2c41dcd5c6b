package domain

import (
	"errors"
	"time"
)

// DateLayout is the canonical textual form of a calendar date.
const DateLayout = "2006-01-02"

var (
	// ErrMissingColumn is returned when a required column is absent from a table.
	ErrMissingColumn = errors.New("missing column")

	// ErrUnparseableDate is returned when a date or timestamp cell matches no known layout.
	ErrUnparseableDate = errors.New("unparseable date")

	// ErrInvalidNumber is returned when a numeric cell cannot be parsed.
	ErrInvalidNumber = errors.New("invalid number")
)

// Table is a column-addressable view over a loaded tabular file. Cells are the
// verbatim strings from the source.
type Table interface {
	// Names returns the column headers in file order.
	Names() []string

	// Nrow returns the number of data rows.
	Nrow() int

	// Column returns every cell of the named column in row order, or an error
	// wrapping ErrMissingColumn.
	Column(name string) ([]string, error)
}

// Schema names the source columns the preparer reads.
type Schema struct {
	CrimeDate          string // e.g. "DATE OCC"
	WeatherDate        string // e.g. "time"
	WeatherTemperature string // e.g. "temperature_2m_max (°F)"
}

// DefaultSchema returns the column names of the LAPD and Open-Meteo exports.
func DefaultSchema() Schema {
	return Schema{
		CrimeDate:          "DATE OCC",
		WeatherDate:        "time",
		WeatherTemperature: "temperature_2m_max (°F)",
	}
}

// Field is a named cell carried through the join unchanged.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// WeatherRecord is one weather row after renaming and parsing.
type WeatherRecord struct {
	Date        time.Time
	Temperature float64
	Extra       []Field // remaining weather columns in file order
}

// DailyCount is the number of crime incidents on a calendar date.
type DailyCount struct {
	Date  time.Time
	Count int
}

// Observation is one merged row: a daily crime count aligned with a weather row.
type Observation struct {
	CrimeDate   time.Time `json:"crime_date"`
	CrimeCount  int       `json:"crime_count"`
	Temperature float64   `json:"temperature"`
	Extra       []Field   `json:"weather,omitempty"`
}

// PrepareStats summarises how the two sources lined up.
type PrepareStats struct {
	CrimeRows             int
	WeatherRows           int
	CrimeDates            int // distinct dates in the crime table
	WeatherDates          int // distinct dates in the weather table
	CrimeOnlyDates        int // dropped by the join
	WeatherOnlyDates      int // dropped by the join
	DuplicateWeatherDates int
	Merged                int
}

// Temperatures returns the temperature series of the observations.
func Temperatures(obs []Observation) []float64 {
	out := make([]float64, len(obs))
	for i := range obs {
		out[i] = obs[i].Temperature
	}
	return out
}

// CrimeCounts returns the crime count series of the observations.
func CrimeCounts(obs []Observation) []float64 {
	out := make([]float64, len(obs))
	for i := range obs {
		out[i] = float64(obs[i].CrimeCount)
	}
	return out
}
