package analysis

import (
	"fmt"
	"time"
)

// Result is the outcome of one analysis run.
type Result struct {
	Correlation float64
	Model       *Model
	GeneratedAt time.Time
}

// CorrelationLine formats the correlation the way it leads the report.
func CorrelationLine(r float64) string {
	return fmt.Sprintf("Correlation: %.3f", r)
}

// Report is the full text written to the summary file: the correlation line,
// a blank line and the model summary.
func (r Result) Report() string {
	return CorrelationLine(r.Correlation) + "\n\n" + r.Model.Summary()
}
