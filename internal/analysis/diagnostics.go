package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// omnibusMinObs is the smallest sample the skewness test is defined for.
const omnibusMinObs = 8

func diagnose(resid []float64, xtx *mat.SymDense) Diagnostics {
	n := float64(len(resid))
	chi2 := distuv.ChiSquared{K: 2}

	m2 := stat.Moment(2, resid, nil)
	skew := stat.Moment(3, resid, nil) / math.Pow(m2, 1.5)
	kurt := stat.Moment(4, resid, nil) / (m2 * m2)

	d := Diagnostics{
		Skew:         skew,
		Kurtosis:     kurt,
		DurbinWatson: durbinWatson(resid),
		CondNo:       conditionNumber(xtx),
		Omnibus:      math.NaN(),
		OmnibusP:     math.NaN(),
	}

	d.JarqueBera = n / 6 * (skew*skew + (kurt-3)*(kurt-3)/4)
	d.JarqueBeraP = chi2.Survival(d.JarqueBera)

	if len(resid) >= omnibusMinObs {
		zs := skewTestZ(skew, n)
		zk := kurtosisTestZ(kurt, n)
		d.Omnibus = zs*zs + zk*zk
		d.OmnibusP = chi2.Survival(d.Omnibus)
	}
	return d
}

func durbinWatson(resid []float64) float64 {
	var num, den float64
	for i, e := range resid {
		den += e * e
		if i > 0 {
			diff := e - resid[i-1]
			num += diff * diff
		}
	}
	return num / den
}

// conditionNumber is sqrt(λmax/λmin) of XᵀX.
func conditionNumber(xtx *mat.SymDense) float64 {
	var eig mat.EigenSym
	if !eig.Factorize(xtx, false) {
		return math.NaN()
	}
	vals := eig.Values(nil)
	lo, hi := vals[0], vals[len(vals)-1]
	return math.Sqrt(hi / lo)
}

// skewTestZ is D'Agostino's normal approximation for the sample skewness b1.
func skewTestZ(b1, n float64) float64 {
	y := b1 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) / ((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

// kurtosisTestZ is the Anscombe-Glynn normal approximation for the Pearson kurtosis b2.
func kurtosisTestZ(b2, n float64) float64 {
	mean := 3 * (n - 1) / (n + 1)
	variance := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - mean) / math.Sqrt(variance)

	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) * math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))

	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Copysign(math.Cbrt((1-2/a)/math.Abs(denom)), denom)
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
