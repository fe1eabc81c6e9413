package report

import (
	"encoding/csv"
	"io"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/graphene-metrics/internal/detection"
)

// HistogramBins is the number of bins of the flake histograms.
const HistogramBins = 25

// Bin is one histogram bin covering [Start, End).
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// AngleHistogram counts flake orientations in degrees over [-90, 90].
func AngleHistogram(flakes []detection.Flake) []Bin {
	angles := make([]float64, len(flakes))
	for i, f := range flakes {
		angles[i] = degrees(f.Angle)
	}
	return Histogram(angles, -90, 90, HistogramBins)
}

// LengthHistogram counts flake lengths over [0, longest].
func LengthHistogram(flakes []detection.Flake) []Bin {
	lengths := make([]float64, len(flakes))
	longest := 0.0
	for i, f := range flakes {
		lengths[i] = f.Length
		longest = max(longest, f.Length)
	}
	return Histogram(lengths, 0, longest, HistogramBins)
}

// Histogram counts values in n equal bins spanning [lower, upper]. Values
// outside the range fall into the first or last bin, and upper itself is
// counted in the last bin. An empty range is widened to [lower, lower+1].
func Histogram(values []float64, lower, upper float64, n int) []Bin {
	if !(upper > lower) {
		upper = lower + 1
	}

	edges := floats.Span(make([]float64, n+1), lower, upper)
	edges[n] = upper
	dividers := append([]float64(nil), edges...)
	dividers[n] = math.Nextafter(upper, math.Inf(1))

	x := make([]float64, len(values))
	for i, v := range values {
		x[i] = min(max(v, lower), upper)
	}
	sort.Float64s(x)

	counts := stat.Histogram(nil, dividers, x, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Start: edges[i], End: edges[i+1], Count: int(counts[i])}
	}
	return bins
}

// WriteHistogram writes bins as bin_start,bin_end,count rows.
func WriteHistogram(w io.Writer, bins []Bin) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"bin_start", "bin_end", "count"}); err != nil {
		return err
	}
	for _, b := range bins {
		record := []string{formatFloat(b.Start), formatFloat(b.End), strconv.Itoa(b.Count)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
