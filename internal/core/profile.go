package core

// ColumnProfile describes one column's type and missing values.
type ColumnProfile struct {
	Column         string     `json:"column"`
	Type           ColumnType `json:"type"`
	Missing        int        `json:"missing"`
	MissingPercent float64    `json:"missingPercent"`
	Distinct       int        `json:"distinct"`
}

// Profile returns a profile for every column of t, in column order.
func Profile(t *Table) []ColumnProfile {
	cols := t.Columns()
	out := make([]ColumnProfile, len(cols))
	for i, c := range cols {
		p := ColumnProfile{
			Column:   c.Name,
			Type:     c.Type,
			Missing:  c.NullCount(),
			Distinct: len(c.Distinct(0)),
		}
		if t.NumRows() > 0 {
			p.MissingPercent = float64(p.Missing) / float64(t.NumRows()) * 100
		}
		out[i] = p
	}
	return out
}
