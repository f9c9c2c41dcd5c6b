package analysis

import (
	"fmt"
	"math"
	"strings"
)

const summaryWidth = 78

// Summary renders the fitted model as a fixed-width text report: model
// statistics, the coefficient table and residual diagnostics. The output
// carries no timestamps, so identical fits render identical text.
func (m *Model) Summary() string {
	var b strings.Builder

	title := "OLS Regression Results"
	pad := (summaryWidth - len(title)) / 2
	b.WriteString(strings.Repeat(" ", pad) + title + "\n")
	b.WriteString(rule('='))

	left := [][2]string{
		{"Dep. Variable:", m.DepVar},
		{"Model:", "OLS"},
		{"Method:", "Least Squares"},
		{"No. Observations:", fmt.Sprintf("%d", m.NObs)},
		{"Df Residuals:", fmt.Sprintf("%.0f", m.DfResid)},
		{"Df Model:", fmt.Sprintf("%.0f", m.DfModel)},
		{"Covariance Type:", "nonrobust"},
	}
	right := [][2]string{
		{"R-squared:", fmt.Sprintf("%.3f", m.RSquared)},
		{"Adj. R-squared:", fmt.Sprintf("%.3f", m.AdjRSquared)},
		{"F-statistic:", formatStat(m.FValue, 4)},
		{"Prob (F-statistic):", formatStat(m.FPValue, 3)},
		{"Log-Likelihood:", formatStat(m.LogLikelihood, 5)},
		{"AIC:", formatStat(m.AIC, 4)},
		{"BIC:", formatStat(m.BIC, 4)},
	}
	writePairs(&b, left, right)
	b.WriteString(rule('='))

	nameWidth := 12
	for _, name := range m.ExogNames {
		nameWidth = max(nameWidth, len(name)+1)
	}
	fmt.Fprintf(&b, "%-*s%10s%11s%11s%11s%12s%11s\n", nameWidth, "",
		"coef", "std err", "t", "P>|t|", "[0.025", "0.975]")
	b.WriteString(rule('-'))
	for j, name := range m.ExogNames {
		fmt.Fprintf(&b, "%-*s%10.4f%11.3f%11.3f%11.3f%12.3f%11.3f\n", nameWidth, name,
			m.Params[j], m.StdErr[j], m.TValues[j], m.PValues[j], m.ConfInt[j][0], m.ConfInt[j][1])
	}
	b.WriteString(rule('='))

	d := m.Diagnostics
	writePairs(&b, [][2]string{
		{"Omnibus:", fmt.Sprintf("%.3f", d.Omnibus)},
		{"Prob(Omnibus):", fmt.Sprintf("%.3f", d.OmnibusP)},
		{"Skew:", fmt.Sprintf("%.3f", d.Skew)},
		{"Kurtosis:", fmt.Sprintf("%.3f", d.Kurtosis)},
	}, [][2]string{
		{"Durbin-Watson:", fmt.Sprintf("%.3f", d.DurbinWatson)},
		{"Jarque-Bera (JB):", fmt.Sprintf("%.3f", d.JarqueBera)},
		{"Prob(JB):", formatStat(d.JarqueBeraP, 3)},
		{"Cond. No.", formatStat(d.CondNo, 3)},
	})
	b.WriteString(rule('='))

	b.WriteString("\nNotes:\n")
	b.WriteString("[1] Standard Errors assume that the covariance matrix of the errors is correctly specified.\n")
	if d.CondNo > 1000 {
		fmt.Fprintf(&b, "[2] The condition number is large, %.3g. This might indicate that there are\n", d.CondNo)
		b.WriteString("strong multicollinearity or other numerical problems.\n")
	}
	return b.String()
}

func writePairs(b *strings.Builder, left, right [][2]string) {
	for i := range max(len(left), len(right)) {
		var l, r [2]string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		fmt.Fprintf(b, "%-18s%18s   %-21s%18s\n", l[0], l[1], r[0], r[1])
	}
}

func rule(c byte) string {
	return strings.Repeat(string(c), summaryWidth) + "\n"
}

// formatStat prints very large or very small magnitudes in %g form and
// everything else with a fixed number of decimals.
func formatStat(x float64, prec int) string {
	ax := math.Abs(x)
	if ax != 0 && (ax >= 1e4 || ax < 1e-4) {
		return fmt.Sprintf("%.*g", prec, x)
	}
	return fmt.Sprintf("%.*f", prec, x)
}
