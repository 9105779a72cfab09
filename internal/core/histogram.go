package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Histogram bin limits.
const (
	DefaultBins = 20
	MinBins     = 5
	MaxBins     = 200
)

// ErrInvalidBins is returned for a bin count outside [MinBins, MaxBins].
var ErrInvalidBins = errors.New("invalid bin count")

// Bin is one equal-width histogram bucket. Every bin is [Low, High) except
// the last, which also includes High.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// HistogramResult is the binned distribution of a numeric column.
type HistogramResult struct {
	Column  string `json:"column"`
	Bins    []Bin  `json:"bins"`
	Missing int    `json:"missing"`
}

// Histogram bins the non-null values of a numeric column into equal-width
// buckets spanning [min, max]. bins == 0 selects DefaultBins.
func Histogram(t *Table, column string, bins int) (*HistogramResult, error) {
	if bins == 0 {
		bins = DefaultBins
	}
	if bins < MinBins || bins > MaxBins {
		return nil, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidBins, bins, MinBins, MaxBins)
	}

	col, err := numericColumn(t, column)
	if err != nil {
		return nil, err
	}

	res := &HistogramResult{Column: column, Bins: []Bin{}, Missing: col.NullCount()}
	values := col.Floats()
	if len(values) == 0 {
		return res, nil
	}

	sorted := sortedCopy(values)
	low, high := sorted[0], sorted[len(sorted)-1]
	if low == high {
		low, high = low-0.5, high+0.5
	}

	edges := binEdges(low, high, bins)

	// stat.Histogram bins are half-open; nudge the last divider so max lands
	// in the final bin.
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	dividers[bins] = math.Nextafter(high, math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	res.Bins = make([]Bin, bins)
	for i := range res.Bins {
		res.Bins[i] = Bin{Low: edges[i], High: edges[i+1], Count: int(counts[i])}
	}
	return res, nil
}

// binEdges returns bins+1 equal-width edges from low to high. The width is
// taken as high/n - low/n so ranges wider than MaxFloat64 stay finite.
func binEdges(low, high float64, bins int) []float64 {
	n := float64(bins)
	width := high/n - low/n
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = low + float64(i)*width
	}
	edges[bins] = high
	return edges
}
