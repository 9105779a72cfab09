package core

import "fmt"

// Point is one scatter sample. Hue is the row's value in the hue column.
type Point struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Hue string  `json:"hue,omitempty"`
}

// ScatterResult pairs two numeric columns row by row.
type ScatterResult struct {
	X       string  `json:"x"`
	Y       string  `json:"y"`
	Hue     string  `json:"hue,omitempty"`
	Points  []Point `json:"points"`
	Skipped int     `json:"skipped"` // rows where x or y was missing
}

// Scatter returns the (x, y) pairs of rows where both values are present.
// Empty x or y default to the first and second numeric columns. hue is
// optional and may name any column.
func Scatter(t *Table, x, y, hue string) (*ScatterResult, error) {
	if x == "" || y == "" {
		numeric := t.NumericColumns()
		if len(numeric) < 2 {
			return nil, fmt.Errorf("%w: scatter needs at least two numeric columns, found %d", ErrInvalidParam, len(numeric))
		}
		if x == "" {
			x = numeric[0]
		}
		if y == "" {
			y = numeric[1]
			if y == x {
				y = numeric[0]
			}
		}
	}

	xc, err := numericColumn(t, x)
	if err != nil {
		return nil, err
	}
	yc, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}

	var hc *Column
	if hue != "" {
		var ok bool
		if hc, ok = t.Column(hue); !ok {
			return nil, missingColumn(t, hue)
		}
	}

	res := &ScatterResult{X: x, Y: y, Hue: hue, Points: []Point{}}
	for i := 0; i < t.NumRows(); i++ {
		xv, okx := xc.Float(i)
		yv, oky := yc.Float(i)
		if !okx || !oky {
			res.Skipped++
			continue
		}
		p := Point{X: xv, Y: yv}
		if hc != nil && !hc.IsNull(i) {
			p.Hue = hc.Cell(i)
		}
		res.Points = append(res.Points, p)
	}
	return res, nil
}
