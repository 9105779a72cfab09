package core

import (
	"math"
	"sort"
	"strconv"
)

// Number is a float64 that encodes NaN and infinities as JSON null.
// Statistics of empty or constant columns are NaN and must still serialize.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// Valid reports whether n is a finite number.
func (n Number) Valid() bool {
	f := float64(n)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

var nan = Number(math.NaN())

// sortedCopy returns vals sorted ascending without touching the input.
func sortedCopy(vals []float64) []float64 {
	out := make([]float64, len(vals))
	copy(out, vals)
	sort.Float64s(out)
	return out
}

// quantile returns the p-quantile (0 <= p <= 1) of sorted values using linear
// interpolation between closest ranks, the method spreadsheet and dataframe
// tools use for quartiles. sorted must be non-empty.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}
	rank := p * float64(n-1)
	lower := int(rank)
	if lower+1 >= n {
		return sorted[lower]
	}
	weight := rank - float64(lower)
	return sorted[lower]*(1-weight) + sorted[lower+1]*weight
}

// numericColumn looks up name and requires it to be numeric.
func numericColumn(t *Table, name string) (*Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, missingColumn(t, name)
	}
	if col.Type != ColumnNumeric {
		return nil, &TypeError{Column: name, Want: ColumnNumeric}
	}
	return col, nil
}
