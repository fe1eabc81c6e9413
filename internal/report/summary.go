package report

import (
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the exclusion percentages of a batch.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// Summarize returns the mean and population standard deviation of
// percentages. An empty batch gives a zero Summary.
func Summarize(percentages []float64) Summary {
	if len(percentages) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(percentages, nil)
	return Summary{Count: len(percentages), Mean: mean, StdDev: std}
}
