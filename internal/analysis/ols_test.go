package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var (
	testTemps  = []float64{50, 55, 60, 65, 70, 75, 80, 85, 90, 95}
	testNoise  = []float64{1.5, -2, 0.5, 3, -1, -0.5, 2, -3.5, 1, -1}
	testCounts = func() []float64 {
		out := make([]float64, len(testTemps))
		for i, x := range testTemps {
			out[i] = 0.8*x + 540 + testNoise[i]*4
		}
		return out
	}()
)

func TestCorrelation_Symmetric(t *testing.T) {
	r1 := Correlation(testTemps, testCounts)
	r2 := Correlation(testCounts, testTemps)

	assert.Equal(t, r1, r2)
	assert.GreaterOrEqual(t, r1, -1.0)
	assert.LessOrEqual(t, r1, 1.0)
	assert.InDelta(t, stat.Correlation(testTemps, testCounts, nil), r1, 1e-12)
}

func TestCorrelation_Perfect(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	up := []float64{7, 9, 11, 13, 15}
	down := []float64{15, 13, 11, 9, 7}

	assert.InDelta(t, 1.0, Correlation(x, up), 1e-12)
	assert.InDelta(t, -1.0, Correlation(x, down), 1e-12)
	assert.LessOrEqual(t, Correlation(x, up), 1.0)
	assert.GreaterOrEqual(t, Correlation(x, down), -1.0)
}

func TestCorrelation_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
	}{
		{"empty", nil, nil},
		{"single row", []float64{70}, []float64{512}},
		{"constant temperature", []float64{70, 70, 70}, []float64{500, 510, 520}},
		{"constant counts", []float64{60, 70, 80}, []float64{500, 500, 500}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, math.IsNaN(Correlation(tt.x, tt.y)))
		})
	}
}

func TestFitSimpleOLS_RecoversNoiselessLine(t *testing.T) {
	y := make([]float64, len(testTemps))
	for i, x := range testTemps {
		y[i] = 2*x + 5
	}

	m, err := FitSimpleOLS("crime_count", y, "temperature", testTemps)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, m.Intercept(), 1e-8)
	assert.InDelta(t, 2.0, m.Slope(), 1e-10)
	assert.InDelta(t, 1.0, m.RSquared, 1e-12)
	assert.InDelta(t, 185.0, m.Predict(90), 1e-8)
}

func TestFitSimpleOLS_MatchesClosedForm(t *testing.T) {
	m, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)

	alpha, beta := stat.LinearRegression(testTemps, testCounts, nil, false)
	assert.InDelta(t, alpha, m.Intercept(), 1e-8)
	assert.InDelta(t, beta, m.Slope(), 1e-10)
	assert.InDelta(t, stat.RSquared(testTemps, testCounts, nil, alpha, beta), m.RSquared, 1e-10)

	assert.Equal(t, 10, m.NObs)
	assert.Equal(t, 1.0, m.DfModel)
	assert.Equal(t, 8.0, m.DfResid)
	assert.Equal(t, []string{"const", "temperature"}, m.ExogNames)
	assert.Len(t, m.Residuals, 10)
	assert.Len(t, m.Fitted, 10)
}

func TestFitSimpleOLS_Statistics(t *testing.T) {
	m, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)

	// In simple regression F equals the squared t statistic of the slope.
	assert.InEpsilon(t, m.TValues[1]*m.TValues[1], m.FValue, 1e-9)
	assert.InDelta(t, m.PValues[1], m.FPValue, 1e-9)

	r := Correlation(testTemps, testCounts)
	assert.InDelta(t, r*r, m.RSquared, 1e-10)
	assert.InDelta(t, 1-9.0/8.0*(1-m.RSquared), m.AdjRSquared, 1e-12)

	for j := range m.Params {
		assert.Greater(t, m.StdErr[j], 0.0)
		assert.InDelta(t, m.Params[j]/m.StdErr[j], m.TValues[j], 1e-9)
		assert.GreaterOrEqual(t, m.PValues[j], 0.0)
		assert.LessOrEqual(t, m.PValues[j], 1.0)
		assert.Less(t, m.ConfInt[j][0], m.Params[j])
		assert.Greater(t, m.ConfInt[j][1], m.Params[j])
	}

	var ssr float64
	for _, e := range m.Residuals {
		ssr += e * e
	}
	assert.InDelta(t, ssr, m.SSR, 1e-9)

	n := float64(m.NObs)
	llf := -n/2*math.Log(2*math.Pi) - n/2*math.Log(ssr/n) - n/2
	assert.InDelta(t, llf, m.LogLikelihood, 1e-9)
	assert.InDelta(t, -2*llf+4, m.AIC, 1e-9)
	assert.InDelta(t, -2*llf+2*math.Log(n), m.BIC, 1e-9)
}

func TestFitSimpleOLS_Diagnostics(t *testing.T) {
	m, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)

	d := m.Diagnostics
	assert.GreaterOrEqual(t, d.DurbinWatson, 0.0)
	assert.LessOrEqual(t, d.DurbinWatson, 4.0)
	assert.False(t, math.IsNaN(d.Omnibus))
	assert.GreaterOrEqual(t, d.OmnibusP, 0.0)
	assert.LessOrEqual(t, d.OmnibusP, 1.0)
	assert.GreaterOrEqual(t, d.JarqueBera, 0.0)
	assert.Greater(t, d.Kurtosis, 0.0)
	assert.Greater(t, d.CondNo, 1.0)
}

func TestFitSimpleOLS_OmnibusUndefinedForSmallSamples(t *testing.T) {
	m, err := FitSimpleOLS("crime_count",
		[]float64{500, 512, 509, 530}, "temperature", []float64{60, 65, 70, 75})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(m.Diagnostics.Omnibus))
	assert.True(t, math.IsNaN(m.Diagnostics.OmnibusP))
	assert.Contains(t, m.Summary(), "Omnibus:")
}

func TestFitSimpleOLS_ConstantPredictor(t *testing.T) {
	_, err := FitSimpleOLS("crime_count",
		[]float64{500, 510, 520}, "temperature", []float64{70.1, 70.1, 70.1})
	require.ErrorIs(t, err, ErrSingularDesign)
	assert.Contains(t, err.Error(), "temperature")
}

func TestFitSimpleOLS_TooFewObservations(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		x := testTemps[:n]
		y := testCounts[:n]
		_, err := FitSimpleOLS("crime_count", y, "temperature", x)
		require.ErrorIs(t, err, ErrInsufficientObservations, "n=%d", n)
	}
}

func TestFitSimpleOLS_LengthMismatch(t *testing.T) {
	_, err := FitSimpleOLS("crime_count", []float64{1, 2, 3}, "temperature", []float64{1, 2})
	require.Error(t, err)
}

func TestSummary(t *testing.T) {
	m, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)

	s := m.Summary()
	for _, want := range []string{
		"OLS Regression Results",
		"Dep. Variable:",
		"crime_count",
		"Least Squares",
		"No. Observations:",
		"R-squared:",
		"Prob (F-statistic):",
		"const",
		"temperature",
		"P>|t|",
		"Durbin-Watson:",
		"Jarque-Bera (JB):",
		"Cond. No.",
	} {
		assert.Contains(t, s, want)
	}

	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if strings.HasPrefix(line, "[") || line == "Notes:" || strings.HasPrefix(line, "strong") {
			continue
		}
		assert.LessOrEqual(t, len([]rune(line)), summaryWidth, "line %q", line)
	}

	assert.NotContains(t, s, "[2] The condition number is large")
}

func TestSummary_Deterministic(t *testing.T) {
	m1, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)
	m2, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)

	assert.Equal(t, m1.Summary(), m2.Summary())
}

func TestResult_Report(t *testing.T) {
	m, err := FitSimpleOLS("crime_count", testCounts, "temperature", testTemps)
	require.NoError(t, err)

	res := Result{Correlation: 0.5, Model: m}
	report := res.Report()

	assert.True(t, strings.HasPrefix(report, "Correlation: 0.500\n\n"))
	assert.True(t, strings.HasSuffix(report, m.Summary()))
	assert.Equal(t, "Correlation: NaN", CorrelationLine(math.NaN()))
	assert.Equal(t, "Correlation: -0.123", CorrelationLine(-0.12345))
}

func TestFormatStat(t *testing.T) {
	assert.Equal(t, "4.3210", formatStat(4.321, 4))
	assert.Equal(t, "1.235e+04", formatStat(12345.6, 4))
	assert.Equal(t, "3.2e-05", formatStat(0.000032, 3))
	assert.Equal(t, "0.000", formatStat(0, 3))
}
