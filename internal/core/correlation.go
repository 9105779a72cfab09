package core

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationMatrix holds pairwise Pearson coefficients. Values[i][j] is the
// correlation of Columns[i] and Columns[j]; it is null when fewer than two
// rows have both values or either side is constant.
type CorrelationMatrix struct {
	Columns []string   `json:"columns"`
	Values  [][]Number `json:"values"`
}

// Correlation computes the Pearson correlation between the named numeric
// columns using pairwise-complete rows. nil cols selects every numeric column.
func Correlation(t *Table, cols []string) (*CorrelationMatrix, error) {
	if cols == nil {
		cols = t.NumericColumns()
	}

	columns := make([]*Column, len(cols))
	for i, name := range cols {
		c, err := numericColumn(t, name)
		if err != nil {
			return nil, err
		}
		columns[i] = c
	}

	m := &CorrelationMatrix{
		Columns: append([]string{}, cols...),
		Values:  make([][]Number, len(cols)),
	}
	for i := range m.Values {
		m.Values[i] = make([]Number, len(cols))
	}

	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := pearson(columns[i], columns[j], t.NumRows())
			if i == j && !math.IsNaN(r) {
				r = 1
			}
			m.Values[i][j] = Number(r)
			m.Values[j][i] = Number(r)
		}
	}
	return m, nil
}

// pearson correlates the rows where both columns are present.
func pearson(a, b *Column, rows int) float64 {
	x := make([]float64, 0, rows)
	y := make([]float64, 0, rows)
	for i := 0; i < rows; i++ {
		av, oka := a.Float(i)
		bv, okb := b.Float(i)
		if oka && okb {
			x = append(x, av)
			y = append(y, bv)
		}
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}
