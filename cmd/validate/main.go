// Command validate cross-checks a merged observation export against the crime
// and weather files it was built from. It re-derives the join with the domain
// package and verifies row counts, column layout, ordering and every cell.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -crime data/mock/crime_data_2023.csv \
//	  -weather data/mock/weather_data_2023.csv \
//	  -merged data/mock/merged_2023.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/csvfile"
	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxReported caps the per-phase error list.
const maxReported = 20

func main() {
	schema := domain.DefaultSchema()
	crimePath := flag.String("crime", "", "path to the crime CSV")
	weatherPath := flag.String("weather", "", "path to the weather CSV")
	mergedPath := flag.String("merged", "", "path to the merged observation CSV")
	flag.StringVar(&schema.CrimeDate, "crime-date-column", schema.CrimeDate, "crime occurrence column")
	flag.StringVar(&schema.WeatherDate, "weather-date-column", schema.WeatherDate, "weather date column")
	flag.StringVar(&schema.WeatherTemperature, "weather-temperature-column", schema.WeatherTemperature, "weather temperature column")
	flag.Parse()

	if *crimePath == "" || *weatherPath == "" || *mergedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(schema, *crimePath, *weatherPath, *mergedPath))
}

func run(schema domain.Schema, crimePath, weatherPath, mergedPath string) int {
	fmt.Println("=== Crime/Temperature Merge Validation ===")
	fmt.Println()

	crime, err := csvfile.ReadTableFile(crimePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load crime data: %v\n", err)
		return 1
	}
	weather, err := csvfile.ReadTableFile(weatherPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load weather data: %v\n", err)
		return 1
	}
	merged, err := csvfile.ReadTableFile(mergedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load merged data: %v\n", err)
		return 1
	}

	dates, err := domain.NewDateParser(4096)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	prep := domain.NewPreparer(schema, dates)

	expected, stats, err := prep.Prepare(crime, weather)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: prepare sources: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateLayout(merged, weather, schema),
		validateCounts(merged, stats),
		validateRows(merged, expected),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d crime, %d weather, %d merged (expected %d)\n",
		stats.CrimeRows, stats.WeatherRows, merged.Nrow(), stats.Merged)
	fmt.Printf("Dates: %d crime, %d weather, %d crime-only, %d weather-only\n",
		stats.CrimeDates, stats.WeatherDates, stats.CrimeOnlyDates, stats.WeatherOnlyDates)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxReported {
				fmt.Printf("  ... %d more\n", len(p.errors)-maxReported)
				break
			}
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Layout ──
// The merged header is crime_date, crime_count, temperature followed by the
// remaining weather columns in their source order.

func validateLayout(merged domain.Table, weather domain.Table, schema domain.Schema) *phase {
	p := &phase{name: "Phase 1: Column Layout"}

	want := []string{"crime_date", "crime_count", "temperature"}
	for _, n := range weather.Names() {
		if n != schema.WeatherDate && n != schema.WeatherTemperature {
			want = append(want, n)
		}
	}
	got := merged.Names()
	if len(got) != len(want) {
		p.errorf("merged has %d columns, want %d (%q)", len(got), len(want), want)
		return p
	}
	for i := range want {
		if got[i] != want[i] {
			p.errorf("column %d: got %q, want %q", i+1, got[i], want[i])
		}
	}
	return p
}

// ── Phase 2: Counts ──
// Inner join bounds: with unique weather dates the merged table cannot exceed
// the smaller distinct-date set.

func validateCounts(merged domain.Table, stats domain.PrepareStats) *phase {
	p := &phase{name: "Phase 2: Row Counts"}

	if merged.Nrow() != stats.Merged {
		p.errorf("merged has %d rows, sources join to %d", merged.Nrow(), stats.Merged)
	}
	if stats.DuplicateWeatherDates == 0 && merged.Nrow() > min(stats.CrimeDates, stats.WeatherDates) {
		p.errorf("merged has %d rows, more than min(%d crime dates, %d weather dates)",
			merged.Nrow(), stats.CrimeDates, stats.WeatherDates)
	}
	return p
}

// ── Phase 3: Rows ──
// Every merged row matches the re-derived observation cell for cell, in order.

func validateRows(merged domain.Table, expected []domain.Observation) *phase {
	p := &phase{name: "Phase 3: Row Contents"}

	want := csvfile.MergedRecords(expected)[1:]
	cols := make([][]string, 0, len(merged.Names()))
	for _, name := range merged.Names() {
		col, err := merged.Column(name)
		if err != nil {
			p.errorf("%v", err)
			return p
		}
		cols = append(cols, col)
	}

	var prev time.Time
	for i := range min(merged.Nrow(), len(want)) {
		line := i + 2
		for j, col := range cols {
			if j >= len(want[i]) {
				break
			}
			if !cellEqual(j, col[i], want[i][j]) {
				p.errorf("line %d column %q: got %q, want %q", line, merged.Names()[j], col[i], want[i][j])
			}
		}
		d, err := time.Parse(domain.DateLayout, cols[0][i])
		if err != nil {
			p.errorf("line %d: crime_date %q: %v", line, cols[0][i], err)
			continue
		}
		if d.Before(prev) {
			p.errorf("line %d: crime_date %s out of order after %s", line, d.Format(domain.DateLayout), prev.Format(domain.DateLayout))
		}
		prev = d
	}
	return p
}

// cellEqual compares the temperature column numerically and everything else
// as text.
func cellEqual(col int, got, want string) bool {
	if col != 2 {
		return got == want
	}
	g, err1 := strconv.ParseFloat(got, 64)
	w, err2 := strconv.ParseFloat(want, 64)
	return err1 == nil && err2 == nil && g == w
}
