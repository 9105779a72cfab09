package core

import (
	"fmt"
	"math"
)

// Interval is a closed numeric range. A nil bound means the column's
// observed minimum (Low) or maximum (High).
type Interval struct {
	Low  *float64 `json:"low,omitempty"`
	High *float64 `json:"high,omitempty"`
}

// FilterSpec narrows a table to rows matching one column constraint.
//
// With Range set the column must be numeric and a row passes iff
// low <= value <= high. Otherwise Values is a set of allowed values:
// text cells match exactly, numeric cells match by value. An empty set
// matches nothing.
type FilterSpec struct {
	Column string    `json:"column"`
	Values []string  `json:"values,omitempty"`
	Range  *Interval `json:"range,omitempty"`
}

// ApplyFilter returns the rows of t satisfying f.
// A nil spec or an empty column name returns t itself.
func ApplyFilter(t *Table, f *FilterSpec) (*Table, error) {
	if f == nil || f.Column == "" {
		return t, nil
	}

	col, ok := t.Column(f.Column)
	if !ok {
		return nil, missingColumn(t, f.Column)
	}

	if f.Range != nil {
		return filterRange(t, col, *f.Range)
	}
	return filterSet(t, col, f.Values), nil
}

func filterRange(t *Table, col *Column, iv Interval) (*Table, error) {
	if col.Type != ColumnNumeric {
		return nil, &TypeError{Column: col.Name, Want: ColumnNumeric}
	}

	low, high := resolveBounds(col, iv)
	if math.IsNaN(low) || math.IsNaN(high) {
		return nil, fmt.Errorf("%w: range bound is NaN", ErrInvalidParam)
	}
	if low > high {
		return nil, fmt.Errorf("%w: low bound %g exceeds high bound %g", ErrInvalidRange, low, high)
	}

	var rows []int
	for i := 0; i < col.Len(); i++ {
		v, ok := col.Float(i)
		if ok && v >= low && v <= high {
			rows = append(rows, i)
		}
	}
	return t.selectRows(rows), nil
}

// resolveBounds fills missing interval bounds with the observed min and max.
// A column without values yields an unbounded interval, which still matches
// no rows since every cell is null.
func resolveBounds(col *Column, iv Interval) (float64, float64) {
	low, high := math.Inf(-1), math.Inf(1)
	if min, max, ok := col.Bounds(); ok {
		low, high = min, max
	}
	if iv.Low != nil {
		low = *iv.Low
	}
	if iv.High != nil {
		high = *iv.High
	}
	return low, high
}

func filterSet(t *Table, col *Column, values []string) *Table {
	var rows []int

	if col.Type == ColumnNumeric {
		allowed := make(map[float64]bool, len(values))
		for _, v := range values {
			if f, ok := parseNumber(v); ok {
				allowed[f] = true
			}
		}
		for i := 0; i < col.Len(); i++ {
			if v, ok := col.Float(i); ok && allowed[v] {
				rows = append(rows, i)
			}
		}
		return t.selectRows(rows)
	}

	allowed := make(map[string]bool, len(values))
	for _, v := range values {
		allowed[v] = true
	}
	for i := 0; i < col.Len(); i++ {
		if !col.IsNull(i) && allowed[col.Cell(i)] {
			rows = append(rows, i)
		}
	}
	return t.selectRows(rows)
}

// RowsWhere returns the rows whose value in column equals value.
func RowsWhere(t *Table, column, value string) (*Table, error) {
	return ApplyFilter(t, &FilterSpec{Column: column, Values: []string{value}})
}

// Head returns the first n rows of t, or t itself when it is shorter.
func Head(t *Table, n int) *Table {
	if n < 0 || n >= t.NumRows() {
		return t
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.selectRows(rows)
}
