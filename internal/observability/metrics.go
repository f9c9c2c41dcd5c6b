package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crimetemp"

// Metrics holds the Prometheus counters and gauges for one analysis run.
type Metrics struct {
	PipelineRunning prometheus.Gauge
	LastSuccess     prometheus.Gauge
	StageDuration   *prometheus.HistogramVec // labels: stage={load,prepare,visualize,analyze,export,publish}

	RowsLoaded         *prometheus.GaugeVec   // labels: table={crime,weather}
	DistinctDates      *prometheus.GaugeVec   // labels: source={crime,weather}
	DatesDropped       *prometheus.GaugeVec   // labels: source={crime,weather}
	DuplicateDates     prometheus.Gauge       // weather dates appearing more than once
	MergedObservations prometheus.Gauge       // rows after the join
	DateParseCache     *prometheus.CounterVec // labels: result={hit,miss}

	Correlation prometheus.Gauge
	RSquared    prometheus.Gauge
	Slope       prometheus.Gauge

	MessagesProduced prometheus.Counter

	gatherer prometheus.Gatherer
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	m.gatherer = prometheus.DefaultGatherer
	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	reg := prometheus.NewRegistry()
	reg.MustRegister(m.collectors()...)
	m.gatherer = reg
	return m
}

// Gatherer returns the registry the metrics are registered with.
func (m *Metrics) Gatherer() prometheus.Gatherer { return m.gatherer }

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while the analysis pipeline is running, 0 otherwise.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		RowsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_loaded",
			Help:      "Data rows read from each input table.",
		}, []string{"table"}),
		DistinctDates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "distinct_dates",
			Help:      "Distinct calendar dates per source.",
		}, []string{"source"}),
		DatesDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dates_dropped",
			Help:      "Dates present in one source only and dropped by the join.",
		}, []string{"source"}),
		DuplicateDates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_duplicate_dates",
			Help:      "Weather dates that occur on more than one row.",
		}),
		MergedObservations: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "merged_observations",
			Help:      "Rows in the merged observation table.",
		}),
		DateParseCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_parse_cache_total",
			Help:      "Date parse cache lookups by result.",
		}, []string{"result"}),
		Correlation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "correlation",
			Help:      "Pearson correlation of temperature and daily crime count.",
		}),
		RSquared: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "r_squared",
			Help:      "R-squared of the fitted regression.",
		}),
		Slope: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "slope",
			Help:      "Fitted crimes per degree of temperature.",
		}),
		MessagesProduced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_produced_total",
			Help:      "Total messages written to the sink topic.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PipelineRunning,
		m.LastSuccess,
		m.StageDuration,
		m.RowsLoaded,
		m.DistinctDates,
		m.DatesDropped,
		m.DuplicateDates,
		m.MergedObservations,
		m.DateParseCache,
		m.Correlation,
		m.RSquared,
		m.Slope,
		m.MessagesProduced,
	}
}
