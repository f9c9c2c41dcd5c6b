// Package analysis computes the correlation and the ordinary-least-squares fit
// between daily temperature and daily crime counts.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	// ErrSingularDesign is returned when the design matrix is rank deficient,
	// e.g. a predictor that takes a single value.
	ErrSingularDesign = errors.New("singular design matrix")

	// ErrInsufficientObservations is returned when there are no residual degrees of freedom.
	ErrInsufficientObservations = errors.New("insufficient observations")
)

// Correlation returns the Pearson correlation coefficient of x and y, or NaN
// when either series has fewer than two points or does not vary.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) {
		panic("analysis: series length mismatch")
	}
	if len(x) < 2 || isConstant(x) || isConstant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}

// Model is a fitted ordinary-least-squares regression with an intercept.
type Model struct {
	DepVar    string
	ExogNames []string // "const" first

	NObs    int
	DfModel float64
	DfResid float64

	Params  []float64
	StdErr  []float64
	TValues []float64
	PValues []float64
	ConfInt [][2]float64 // 95% intervals

	SSR           float64
	ESS           float64
	RSquared      float64
	AdjRSquared   float64
	FValue        float64
	FPValue       float64
	LogLikelihood float64
	AIC           float64
	BIC           float64

	Diagnostics Diagnostics

	Fitted    []float64
	Residuals []float64
}

// Diagnostics are residual and design statistics reported under the coefficient table.
type Diagnostics struct {
	Omnibus      float64 // D'Agostino K², NaN below 8 observations
	OmnibusP     float64
	Skew         float64
	Kurtosis     float64 // Pearson (normal = 3)
	DurbinWatson float64
	JarqueBera   float64
	JarqueBeraP  float64
	CondNo       float64
}

// Intercept returns the fitted constant term.
func (m *Model) Intercept() float64 { return m.Params[0] }

// Slope returns the coefficient of the single predictor.
func (m *Model) Slope() float64 { return m.Params[1] }

// Predict evaluates the fitted line at x.
func (m *Model) Predict(x float64) float64 {
	return m.Params[0] + m.Params[1]*x
}

// FitSimpleOLS regresses y on x with an intercept term.
func FitSimpleOLS(yName string, y []float64, xName string, x []float64) (*Model, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("fit ols: %d predictor values for %d responses", len(x), len(y))
	}

	const k = 2
	n := len(y)
	if n <= k {
		return nil, fmt.Errorf("fit ols: %w: %d observations for %d parameters", ErrInsufficientObservations, n, k)
	}
	if isConstant(x) {
		return nil, fmt.Errorf("fit ols: %w: predictor %q has zero variance", ErrSingularDesign, xName)
	}

	design := mat.NewDense(n, k, nil)
	for i := range x {
		design.Set(i, 0, 1)
		design.Set(i, 1, x[i])
	}

	return fit(yName, y, []string{"const", xName}, design)
}

func fit(yName string, y []float64, names []string, design *mat.Dense) (*Model, error) {
	n, k := design.Dims()

	var beta mat.VecDense
	if err := beta.SolveVec(design, mat.NewVecDense(n, y)); err != nil {
		return nil, fmt.Errorf("fit ols: solve least squares: %w", err)
	}

	var xtx mat.SymDense
	xtx.SymOuterK(1, design.T())

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("fit ols: invert normal matrix: %w", err)
	}

	var fittedVec mat.VecDense
	fittedVec.MulVec(design, &beta)

	fitted := make([]float64, n)
	resid := make([]float64, n)
	for i := range y {
		fitted[i] = fittedVec.AtVec(i)
		resid[i] = y[i] - fitted[i]
	}

	ssr := floats.Dot(resid, resid)
	yMean := stat.Mean(y, nil)
	var tss float64
	for _, v := range y {
		tss += (v - yMean) * (v - yMean)
	}

	m := &Model{
		DepVar:    yName,
		ExogNames: names,
		NObs:      n,
		DfModel:   float64(k - 1),
		DfResid:   float64(n - k),
		Params:    make([]float64, k),
		StdErr:    make([]float64, k),
		TValues:   make([]float64, k),
		PValues:   make([]float64, k),
		ConfInt:   make([][2]float64, k),
		SSR:       ssr,
		ESS:       tss - ssr,
		Fitted:    fitted,
		Residuals: resid,
	}

	scale := ssr / m.DfResid
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: m.DfResid}
	tCrit := tDist.Quantile(0.975)
	for j := range k {
		m.Params[j] = beta.AtVec(j)
		m.StdErr[j] = math.Sqrt(scale * xtxInv.At(j, j))
		m.TValues[j] = m.Params[j] / m.StdErr[j]
		m.PValues[j] = 2 * tDist.Survival(math.Abs(m.TValues[j]))
		m.ConfInt[j] = [2]float64{
			m.Params[j] - tCrit*m.StdErr[j],
			m.Params[j] + tCrit*m.StdErr[j],
		}
	}

	m.RSquared = 1 - ssr/tss
	m.AdjRSquared = 1 - float64(n-1)/m.DfResid*(1-m.RSquared)
	m.FValue = (m.ESS / m.DfModel) / scale
	if math.IsInf(m.FValue, 1) {
		m.FPValue = 0
	} else {
		m.FPValue = distuv.F{D1: m.DfModel, D2: m.DfResid}.Survival(m.FValue)
	}

	nf := float64(n)
	m.LogLikelihood = -nf/2*math.Log(2*math.Pi) - nf/2*math.Log(ssr/nf) - nf/2
	m.AIC = -2*m.LogLikelihood + 2*float64(k)
	m.BIC = -2*m.LogLikelihood + float64(k)*math.Log(nf)

	m.Diagnostics = diagnose(resid, &xtx)
	return m, nil
}

func isConstant(v []float64) bool {
	return len(v) == 0 || floats.Min(v) == floats.Max(v)
}
