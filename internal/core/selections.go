package core

import (
	"fmt"
	"strings"
)

// Selections are the caller's explicit choices for one run.
//
// A nil Columns means "use the default projection"; a non-nil empty slice
// selects no columns. A nil Filter, or one with an empty Column, filters nothing.
// Within a filter on a text column, nil Values means "use the default values"
// while an empty slice selects nothing.
type Selections struct {
	Columns []string    `json:"columns"`
	Filter  *FilterSpec `json:"filter,omitempty"`
	Limit   int         `json:"limit"`
}

// SelectionDefaults fill in what the caller left out.
type SelectionDefaults struct {
	Columns      int // leading columns projected by default
	FilterValues int // leading distinct values selected by default
	PreviewRows  int // rows shown when Limit is not positive
	MaxRows      int // upper bound on Limit; 0 means unbounded
}

// DefaultSelectionDefaults mirrors the analyst page: five columns, five values,
// a 200-row preview.
var DefaultSelectionDefaults = SelectionDefaults{
	Columns:      5,
	FilterValues: 5,
	PreviewRows:  200,
	MaxRows:      10000,
}

// ResolveSelections checks s against t's current columns and fills defaults.
//
// A selection that names a column t does not have is reset to its default and
// reported in the returned warnings, so a new upload never fails on choices
// made against the previous one. The result is always valid for t.
func ResolveSelections(t *Table, s Selections, d SelectionDefaults) (Selections, []string) {
	var warnings []string
	out := Selections{Limit: s.Limit}

	// Projection.
	switch {
	case s.Columns == nil:
		out.Columns = leading(t.ColumnNames(), d.Columns)
	default:
		var stale []string
		for _, name := range s.Columns {
			if !t.HasColumn(name) {
				stale = append(stale, name)
			}
		}
		if len(stale) > 0 {
			out.Columns = leading(t.ColumnNames(), d.Columns)
			warnings = append(warnings, fmt.Sprintf(
				"column selection reset: %s not in the current data", quoteList(stale)))
		} else {
			out.Columns = append([]string{}, s.Columns...)
		}
	}

	// Filter.
	if s.Filter != nil && s.Filter.Column != "" {
		f, warn := resolveFilter(t, *s.Filter, d)
		out.Filter = f
		if warn != "" {
			warnings = append(warnings, warn)
		}
	}

	// Preview limit.
	if out.Limit <= 0 {
		out.Limit = d.PreviewRows
	}
	if d.MaxRows > 0 && out.Limit > d.MaxRows {
		warnings = append(warnings, fmt.Sprintf("preview limited to %d rows", d.MaxRows))
		out.Limit = d.MaxRows
	}

	return out, warnings
}

func resolveFilter(t *Table, f FilterSpec, d SelectionDefaults) (*FilterSpec, string) {
	col, ok := t.Column(f.Column)
	if !ok {
		return nil, fmt.Sprintf("filter reset: column %q not in the current data", f.Column)
	}

	out := &FilterSpec{Column: f.Column}

	if col.Type == ColumnNumeric {
		switch {
		case f.Range != nil:
			iv := *f.Range
			out.Range = &iv
		case f.Values != nil:
			out.Values = append([]string{}, f.Values...)
		default:
			out.Range = fullRange(col)
		}
		return out, ""
	}

	if f.Range != nil {
		out.Values = col.Distinct(d.FilterValues)
		return out, fmt.Sprintf("filter on %q reset: range needs a numeric column", f.Column)
	}
	if f.Values == nil {
		out.Values = col.Distinct(d.FilterValues)
		if out.Values == nil {
			out.Values = []string{}
		}
		return out, ""
	}
	out.Values = append([]string{}, f.Values...)
	return out, ""
}

// fullRange returns the interval spanning the column's observed values.
func fullRange(col *Column) *Interval {
	min, max, ok := col.Bounds()
	if !ok {
		return &Interval{}
	}
	return &Interval{Low: &min, High: &max}
}

func leading(names []string, n int) []string {
	if n < 0 || n > len(names) {
		n = len(names)
	}
	return append([]string{}, names[:n]...)
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}
