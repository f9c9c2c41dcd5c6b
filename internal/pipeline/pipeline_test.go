package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/csvfile"
	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/plot"
	"github.com/couchcryptid/crime-temperature-analysis/internal/adapter/report"
	"github.com/couchcryptid/crime-temperature-analysis/internal/analysis"
	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
	"github.com/couchcryptid/crime-temperature-analysis/internal/observability"
	"github.com/couchcryptid/crime-temperature-analysis/internal/pipeline"
)

// --- mocks ---

type stubTable struct {
	cols  map[string][]string
	names []string
}

func (s stubTable) Names() []string { return s.names }

func (s stubTable) Nrow() int {
	for _, c := range s.cols {
		return len(c)
	}
	return 0
}

func (s stubTable) Column(name string) ([]string, error) {
	c, ok := s.cols[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, domain.ErrMissingColumn)
	}
	return c, nil
}

type mockLoader struct {
	crime, weather domain.Table
	err            error
}

func (m *mockLoader) Load(_ context.Context) (domain.Table, domain.Table, error) {
	return m.crime, m.weather, m.err
}

type mockVisualizer struct {
	rendered [][]domain.Observation
	err      error
}

func (m *mockVisualizer) Render(obs []domain.Observation) error {
	m.rendered = append(m.rendered, obs)
	return m.err
}

type mockReporter struct {
	correlations []float64
	results      []analysis.Result
}

func (m *mockReporter) ReportCorrelation(r float64) error {
	m.correlations = append(m.correlations, r)
	return nil
}

func (m *mockReporter) ReportResult(res analysis.Result) error {
	m.results = append(m.results, res)
	return nil
}

type mockExporter struct {
	exported []domain.Observation
}

func (m *mockExporter) Export(obs []domain.Observation) error {
	m.exported = obs
	return nil
}

type mockPublisher struct {
	published int
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, obs []domain.Observation, _ analysis.Result) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.published = len(obs) + 1
	return m.published, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPreparer(t *testing.T) *domain.Preparer {
	t.Helper()
	dates, err := domain.NewDateParser(64)
	require.NoError(t, err)
	return domain.NewPreparer(domain.DefaultSchema(), dates)
}

// tables builds a crime table with counts[i] incidents on day i+1 of January
// and a weather table with temps[i] on the same days.
func tables(counts []int, temps []float64) (domain.Table, domain.Table) {
	var occ []string
	for i, c := range counts {
		for range c {
			occ = append(occ, fmt.Sprintf("01/%02d/2023 12:00:00 AM", i+1))
		}
	}
	days := make([]string, len(temps))
	tcol := make([]string, len(temps))
	for i, v := range temps {
		days[i] = fmt.Sprintf("2023-01-%02d", i+1)
		tcol[i] = fmt.Sprint(v)
	}
	crime := stubTable{names: []string{"DATE OCC"}, cols: map[string][]string{"DATE OCC": occ}}
	weather := stubTable{
		names: []string{"time", "temperature_2m_max (°F)"},
		cols:  map[string][]string{"time": days, "temperature_2m_max (°F)": tcol},
	}
	return crime, weather
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	crime, weather := tables([]int{2, 4, 6, 8, 10}, []float64{50, 55, 60, 65, 70})
	vis := &mockVisualizer{}
	rep := &mockReporter{}
	exp := &mockExporter{}
	pub := &mockPublisher{}

	p := pipeline.New(&mockLoader{crime: crime, weather: weather}, newPreparer(t), vis, rep,
		discardLogger(), observability.NewMetricsForTesting()).
		WithExporter(exp).
		WithPublisher(pub)

	require.Error(t, p.CheckReadiness(context.Background()))

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, res.Observations, 5)
	assert.Equal(t, 5, res.Stats.Merged)
	assert.Equal(t, 30, res.Stats.CrimeRows)
	assert.InDelta(t, 1.0, res.Correlation, 1e-9)
	assert.InDelta(t, 0.4, res.Model.Slope(), 1e-9)
	assert.Equal(t, time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC), res.GeneratedAt)

	require.Len(t, vis.rendered, 1)
	assert.Len(t, vis.rendered[0], 5)
	assert.Equal(t, []float64{res.Correlation}, rep.correlations)
	require.Len(t, rep.results, 1)
	assert.Len(t, exp.exported, 5)
	assert.Equal(t, 6, pub.published)

	require.NoError(t, p.CheckReadiness(context.Background()))
	summary, ok := p.Report()
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(summary, "Correlation: 1.000\n\n"))
}

func TestPipeline_Run_LoadError(t *testing.T) {
	vis := &mockVisualizer{}
	p := pipeline.New(&mockLoader{err: os.ErrNotExist}, newPreparer(t), vis, &mockReporter{},
		discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "load")
	assert.Empty(t, vis.rendered)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_MissingColumn(t *testing.T) {
	crime, weather := tables([]int{1}, []float64{60})
	crime = stubTable{names: []string{"Date Rptd"}, cols: map[string][]string{"Date Rptd": {"01/01/2023"}}}

	p := pipeline.New(&mockLoader{crime: crime, weather: weather}, newPreparer(t), &mockVisualizer{},
		&mockReporter{}, discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrMissingColumn)
	assert.Contains(t, err.Error(), "prepare")
}

func TestPipeline_Run_VisualizerError(t *testing.T) {
	crime, weather := tables([]int{1, 2, 3}, []float64{60, 61, 62})
	rep := &mockReporter{}
	p := pipeline.New(&mockLoader{crime: crime, weather: weather}, newPreparer(t),
		&mockVisualizer{err: errors.New("disk full")}, rep,
		discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "visualize")
	assert.Empty(t, rep.correlations)
}

func TestPipeline_Run_SingleRowReportsNaNThenFails(t *testing.T) {
	crime, weather := tables([]int{3}, []float64{70})
	rep := &mockReporter{}
	p := pipeline.New(&mockLoader{crime: crime, weather: weather}, newPreparer(t),
		&mockVisualizer{}, rep, discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, analysis.ErrInsufficientObservations)
	require.Len(t, rep.correlations, 1)
	assert.True(t, rep.correlations[0] != rep.correlations[0], "correlation should be NaN")
	assert.Empty(t, rep.results)
}

func TestPipeline_Run_ConstantTemperatureFails(t *testing.T) {
	crime, weather := tables([]int{3, 5, 7}, []float64{70, 70, 70})
	p := pipeline.New(&mockLoader{crime: crime, weather: weather}, newPreparer(t),
		&mockVisualizer{}, &mockReporter{}, discardLogger(), observability.NewMetricsForTesting())

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, analysis.ErrSingularDesign)
}

func TestPipeline_Run_PublishError(t *testing.T) {
	crime, weather := tables([]int{1, 2, 4}, []float64{60, 65, 70})
	p := pipeline.New(&mockLoader{crime: crime, weather: weather}, newPreparer(t),
		&mockVisualizer{}, &mockReporter{}, discardLogger(), observability.NewMetricsForTesting()).
		WithPublisher(&mockPublisher{err: errors.New("broker unavailable")})

	_, err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish")
	assert.Error(t, p.CheckReadiness(context.Background()))
}

const crimeCSV = `DR_NO,Date Rptd,DATE OCC,AREA NAME
1,01/02/2023 12:00:00 AM,01/01/2023 12:00:00 AM,Central
2,01/02/2023 12:00:00 AM,01/01/2023 12:00:00 AM,Central
3,01/02/2023 12:00:00 AM,01/01/2023 12:00:00 AM,Hollywood
4,01/03/2023 12:00:00 AM,01/02/2023 12:00:00 AM,Central
5,01/03/2023 12:00:00 AM,01/03/2023 12:00:00 AM,Central
6,01/04/2023 12:00:00 AM,01/03/2023 12:00:00 AM,Newton
7,01/05/2023 12:00:00 AM,01/04/2023 12:00:00 AM,Newton
8,01/05/2023 12:00:00 AM,01/04/2023 12:00:00 AM,Newton
9,01/05/2023 12:00:00 AM,01/04/2023 12:00:00 AM,Central
10,01/05/2023 12:00:00 AM,01/04/2023 12:00:00 AM,Central
11,01/06/2023 12:00:00 AM,01/09/2023 12:00:00 AM,Central
`

const weatherCSV = `time,temperature_2m_max (°F),precipitation_sum (inch)
2023-01-01,61.2,0.00
2023-01-02,58.4,0.31
2023-01-03,60.1,0.00
2023-01-04,66.0,0.00
2023-01-05,64.3,0.02
`

func TestPipeline_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	crimePath := filepath.Join(dir, "crime.csv")
	weatherPath := filepath.Join(dir, "weather.csv")
	require.NoError(t, os.WriteFile(crimePath, []byte(crimeCSV), 0o644))
	require.NoError(t, os.WriteFile(weatherPath, []byte(weatherCSV), 0o644))

	plotPath := filepath.Join(dir, "temp_vs_crime.png")
	summaryPath := filepath.Join(dir, "regression_summary.txt")
	mergedPath := filepath.Join(dir, "merged.csv")

	run := func() (string, []byte) {
		var stdout bytes.Buffer
		logger := discardLogger()
		p := pipeline.New(
			csvfile.NewLoader(crimePath, weatherPath, logger),
			newPreparer(t),
			plot.NewScatter(plotPath, logger),
			report.NewWriter(&stdout, summaryPath, logger),
			logger,
			observability.NewMetricsForTesting(),
		).WithExporter(csvfile.NewExporter(mergedPath, logger))

		res, err := p.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, res.Stats.Merged)
		assert.Equal(t, 1, res.Stats.CrimeOnlyDates)
		assert.Equal(t, 1, res.Stats.WeatherOnlyDates)

		summary, err := os.ReadFile(summaryPath)
		require.NoError(t, err)
		return stdout.String(), summary
	}

	out1, summary1 := run()
	out2, summary2 := run()

	assert.True(t, strings.HasPrefix(out1, "Correlation: "))
	assert.Contains(t, out1, "OLS Regression Results")
	assert.Equal(t, out1, out2)
	if diff := cmp.Diff(string(summary1), string(summary2)); diff != "" {
		t.Errorf("summary changed between runs (-first +second):\n%s", diff)
	}

	png, err := os.ReadFile(plotPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	merged, err := csvfile.ReadTableFile(mergedPath)
	require.NoError(t, err)
	dates, err := merged.Column("crime_date")
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-01-01", "2023-01-02", "2023-01-03", "2023-01-04"}, dates)
	counts, err := merged.Column("crime_count")
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1", "2", "4"}, counts)
	assert.Equal(t, []string{"crime_date", "crime_count", "temperature", "precipitation_sum (inch)"}, merged.Names())
}
