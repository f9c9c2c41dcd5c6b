package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Preparer normalises the crime and weather tables and aligns them by date.
type Preparer struct {
	schema Schema
	dates  *DateParser
}

// NewPreparer creates a Preparer reading the columns named by schema.
func NewPreparer(schema Schema, dates *DateParser) *Preparer {
	return &Preparer{schema: schema, dates: dates}
}

// Prepare aggregates crime rows into daily counts and inner-joins them with the
// weather rows on date. Observations are ordered by date, then by weather row.
func (p *Preparer) Prepare(crime, weather Table) ([]Observation, PrepareStats, error) {
	crimeDates, err := p.CrimeDates(crime)
	if err != nil {
		return nil, PrepareStats{}, err
	}
	records, err := p.Weather(weather)
	if err != nil {
		return nil, PrepareStats{}, err
	}

	counts := CountByDate(crimeDates)
	obs := InnerJoin(counts, records)

	stats := joinStats(counts, records)
	stats.CrimeRows = len(crimeDates)
	stats.Merged = len(obs)
	return obs, stats, nil
}

// CrimeDates parses the occurrence column of the crime table into calendar dates.
func (p *Preparer) CrimeDates(t Table) ([]time.Time, error) {
	col, err := t.Column(p.schema.CrimeDate)
	if err != nil {
		return nil, fmt.Errorf("crime table: %w", err)
	}

	out := make([]time.Time, len(col))
	for i, v := range col {
		d, err := p.dates.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("crime table column %q row %d: %w", p.schema.CrimeDate, i+1, err)
		}
		out[i] = d
	}
	return out, nil
}

// Weather renames the weather date and temperature columns and parses them.
// All other columns are kept verbatim in WeatherRecord.Extra.
func (p *Preparer) Weather(t Table) ([]WeatherRecord, error) {
	dateCol, err := t.Column(p.schema.WeatherDate)
	if err != nil {
		return nil, fmt.Errorf("weather table: %w", err)
	}
	tempCol, err := t.Column(p.schema.WeatherTemperature)
	if err != nil {
		return nil, fmt.Errorf("weather table: %w", err)
	}

	var extraNames []string
	var extraCols [][]string
	for _, name := range t.Names() {
		if name == p.schema.WeatherDate || name == p.schema.WeatherTemperature {
			continue
		}
		col, err := t.Column(name)
		if err != nil {
			return nil, fmt.Errorf("weather table: %w", err)
		}
		extraNames = append(extraNames, name)
		extraCols = append(extraCols, col)
	}

	out := make([]WeatherRecord, len(dateCol))
	for i := range dateCol {
		d, err := p.dates.ParseDate(dateCol[i])
		if err != nil {
			return nil, fmt.Errorf("weather table column %q row %d: %w", p.schema.WeatherDate, i+1, err)
		}
		temp, err := parseTemperature(tempCol[i])
		if err != nil {
			return nil, fmt.Errorf("weather table column %q row %d: %w", p.schema.WeatherTemperature, i+1, err)
		}

		var extra []Field
		if len(extraNames) > 0 {
			extra = make([]Field, len(extraNames))
			for j, name := range extraNames {
				extra[j] = Field{Name: name, Value: extraCols[j][i]}
			}
		}
		out[i] = WeatherRecord{Date: d, Temperature: temp, Extra: extra}
	}
	return out, nil
}

// CountByDate groups dates and counts the rows per date, sorted by date.
func CountByDate(dates []time.Time) []DailyCount {
	counts := make(map[time.Time]int)
	for _, d := range dates {
		counts[d]++
	}

	out := make([]DailyCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DailyCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// InnerJoin pairs each daily count with every weather record on the same date.
// Dates missing from either side produce no observation.
func InnerJoin(counts []DailyCount, weather []WeatherRecord) []Observation {
	byDate := make(map[time.Time][]int, len(weather))
	for i := range weather {
		byDate[weather[i].Date] = append(byDate[weather[i].Date], i)
	}

	var out []Observation
	for _, c := range counts {
		for _, i := range byDate[c.Date] {
			out = append(out, Observation{
				CrimeDate:   c.Date,
				CrimeCount:  c.Count,
				Temperature: weather[i].Temperature,
				Extra:       weather[i].Extra,
			})
		}
	}
	return out
}

func joinStats(counts []DailyCount, weather []WeatherRecord) PrepareStats {
	crimeDates := make(map[time.Time]struct{}, len(counts))
	for _, c := range counts {
		crimeDates[c.Date] = struct{}{}
	}
	weatherDates := make(map[time.Time]struct{}, len(weather))
	for _, w := range weather {
		weatherDates[w.Date] = struct{}{}
	}

	stats := PrepareStats{
		WeatherRows:           len(weather),
		CrimeDates:            len(crimeDates),
		WeatherDates:          len(weatherDates),
		DuplicateWeatherDates: len(weather) - len(weatherDates),
	}
	for d := range crimeDates {
		if _, ok := weatherDates[d]; !ok {
			stats.CrimeOnlyDates++
		}
	}
	for d := range weatherDates {
		if _, ok := crimeDates[d]; !ok {
			stats.WeatherOnlyDates++
		}
	}
	return stats
}

func parseTemperature(s string) (float64, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}

// CacheStats reports date-parse cache hits and misses since construction.
func (p *Preparer) CacheStats() (hits, misses int) {
	return p.dates.CacheStats()
}
