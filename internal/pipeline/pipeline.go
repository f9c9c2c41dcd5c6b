package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/crime-temperature-analysis/internal/analysis"
	"github.com/couchcryptid/crime-temperature-analysis/internal/domain"
	"github.com/couchcryptid/crime-temperature-analysis/internal/observability"
)

// Loader reads the crime and weather tables.
type Loader interface {
	Load(ctx context.Context) (crime, weather domain.Table, err error)
}

// Preparer aggregates crime rows per day and joins them with the weather rows.
type Preparer interface {
	Prepare(crime, weather domain.Table) ([]domain.Observation, domain.PrepareStats, error)
	CacheStats() (hits, misses int)
}

// Visualizer renders the merged observations.
type Visualizer interface {
	Render(obs []domain.Observation) error
}

// Reporter presents the analysis. ReportCorrelation runs before the model is fitted.
type Reporter interface {
	ReportCorrelation(r float64) error
	ReportResult(res analysis.Result) error
}

// Exporter persists the merged observation table.
type Exporter interface {
	Export(obs []domain.Observation) error
}

// Publisher sends the observations and the regression result downstream.
type Publisher interface {
	Publish(ctx context.Context, obs []domain.Observation, res analysis.Result) (int, error)
}

// Result is the outcome of one successful run.
type Result struct {
	analysis.Result
	Observations []domain.Observation
	Stats        domain.PrepareStats
}

// Pipeline runs load, prepare, visualize and analyze in sequence, then the
// optional export and publish sinks.
type Pipeline struct {
	loader     Loader
	preparer   Preparer
	visualizer Visualizer
	reporter   Reporter
	exporter   Exporter  // nil disables export
	publisher  Publisher // nil disables publishing
	logger     *slog.Logger
	metrics    *observability.Metrics
	ready      atomic.Bool
	last       atomic.Pointer[Result]

	// cache counters already exported, so repeated runs add only the delta
	cacheHits, cacheMisses int
}

// New creates a Pipeline with the given stages and observability.
func New(l Loader, p Preparer, v Visualizer, r Reporter, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		loader:     l,
		preparer:   p,
		visualizer: v,
		reporter:   r,
		logger:     logger,
		metrics:    metrics,
	}
}

// WithExporter enables writing the merged table.
func (p *Pipeline) WithExporter(e Exporter) *Pipeline {
	p.exporter = e
	return p
}

// WithPublisher enables publishing results.
func (p *Pipeline) WithPublisher(pub Publisher) *Pipeline {
	p.publisher = pub
	return p
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("analysis has not completed")
	}
	return nil
}

// Report returns the summary text of the last successful run.
func (p *Pipeline) Report() (string, bool) {
	res := p.last.Load()
	if res == nil {
		return "", false
	}
	return res.Report(), true
}

// Run executes every stage once. Any stage failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("pipeline started")
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	start := time.Now()

	var crime, weather domain.Table
	err := p.stage("load", func() error {
		var err error
		crime, weather, err = p.loader.Load(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.metrics.RowsLoaded.WithLabelValues("crime").Set(float64(crime.Nrow()))
	p.metrics.RowsLoaded.WithLabelValues("weather").Set(float64(weather.Nrow()))

	var obs []domain.Observation
	var stats domain.PrepareStats
	err = p.stage("prepare", func() error {
		var err error
		obs, stats, err = p.preparer.Prepare(crime, weather)
		return err
	})
	p.recordCacheStats()
	if err != nil {
		return nil, err
	}
	p.recordPrepareStats(stats)

	if err := p.stage("visualize", func() error { return p.visualizer.Render(obs) }); err != nil {
		return nil, err
	}

	var res analysis.Result
	if err := p.stage("analyze", func() error {
		var err error
		res, err = p.analyze(obs)
		return err
	}); err != nil {
		return nil, err
	}

	if p.exporter != nil {
		if err := p.stage("export", func() error { return p.exporter.Export(obs) }); err != nil {
			return nil, err
		}
	}

	if p.publisher != nil {
		if err := p.stage("publish", func() error {
			n, err := p.publisher.Publish(ctx, obs, res)
			p.metrics.MessagesProduced.Add(float64(n))
			return err
		}); err != nil {
			return nil, err
		}
	}

	out := &Result{Result: res, Observations: obs, Stats: stats}
	p.last.Store(out)
	p.ready.Store(true)
	p.metrics.LastSuccess.Set(float64(domain.Now().Unix()))

	p.logger.Info("pipeline finished",
		"observations", len(obs),
		"correlation", res.Correlation,
		"r_squared", res.Model.RSquared,
		"slope", res.Model.Slope(),
		"duration", time.Since(start),
	)
	return out, nil
}

func (p *Pipeline) analyze(obs []domain.Observation) (analysis.Result, error) {
	temps := domain.Temperatures(obs)
	counts := domain.CrimeCounts(obs)

	r := analysis.Correlation(temps, counts)
	p.metrics.Correlation.Set(r)
	if err := p.reporter.ReportCorrelation(r); err != nil {
		return analysis.Result{}, err
	}

	model, err := analysis.FitSimpleOLS("crime_count", counts, "temperature", temps)
	if err != nil {
		return analysis.Result{}, err
	}
	p.metrics.RSquared.Set(model.RSquared)
	p.metrics.Slope.Set(model.Slope())

	res := analysis.Result{Correlation: r, Model: model, GeneratedAt: domain.Now()}
	if err := p.reporter.ReportResult(res); err != nil {
		return analysis.Result{}, err
	}
	return res, nil
}

// stage runs fn, records its duration and names the stage in any error.
func (p *Pipeline) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	p.metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err, "duration", elapsed)
		return fmt.Errorf("%s: %w", name, err)
	}
	p.logger.Debug("stage complete", "stage", name, "duration", elapsed)
	return nil
}

func (p *Pipeline) recordCacheStats() {
	hits, misses := p.preparer.CacheStats()
	p.metrics.DateParseCache.WithLabelValues("hit").Add(float64(hits - p.cacheHits))
	p.metrics.DateParseCache.WithLabelValues("miss").Add(float64(misses - p.cacheMisses))
	p.cacheHits, p.cacheMisses = hits, misses
}

func (p *Pipeline) recordPrepareStats(s domain.PrepareStats) {
	p.metrics.DistinctDates.WithLabelValues("crime").Set(float64(s.CrimeDates))
	p.metrics.DistinctDates.WithLabelValues("weather").Set(float64(s.WeatherDates))
	p.metrics.DatesDropped.WithLabelValues("crime").Set(float64(s.CrimeOnlyDates))
	p.metrics.DatesDropped.WithLabelValues("weather").Set(float64(s.WeatherOnlyDates))
	p.metrics.DuplicateDates.Set(float64(s.DuplicateWeatherDates))
	p.metrics.MergedObservations.Set(float64(s.Merged))

	p.logger.Info("data prepared",
		"crime_rows", s.CrimeRows,
		"weather_rows", s.WeatherRows,
		"crime_dates", s.CrimeDates,
		"weather_dates", s.WeatherDates,
		"merged", s.Merged,
	)
	if s.CrimeOnlyDates > 0 || s.WeatherOnlyDates > 0 {
		p.logger.Info("dates dropped by join",
			"crime_only", s.CrimeOnlyDates,
			"weather_only", s.WeatherOnlyDates,
		)
	}
	if s.DuplicateWeatherDates > 0 {
		p.logger.Warn("duplicate weather dates fan out the join", "dates", s.DuplicateWeatherDates)
	}
}
