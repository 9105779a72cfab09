package templates

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/explorer/internal/core"
)

// Page names used to highlight the active navigation link.
const (
	PageAnalyst  = "analyst"
	PageOverview = "overview"
	PageAffine   = "affine"
)

var navLinks = []struct{ page, href, label string }{
	{PageAnalyst, "/", "Data analyst"},
	{PageOverview, "/overview", "Overview"},
	{PageAffine, "/affine", "Affine function"},
}

var chartTypes = []string{"scatter", "histogram"}

// TableData is a rendered slice of a table.
type TableData struct {
	Columns []core.ColumnDescriptor
	Rows    [][]string
	Total   int // rows before the preview limit
}

// NewTableData previews at most limit rows of t; limit <= 0 keeps every row.
func NewTableData(t *core.Table, limit int) TableData {
	if t == nil {
		return TableData{}
	}
	preview := t
	if limit > 0 {
		preview = core.Head(t, limit)
	}
	return TableData{Columns: t.Descriptors(), Rows: preview.Records(), Total: t.NumRows()}
}

type statRow struct {
	label  string
	values []string
}

// summaryRows transposes column summaries into one row per statistic.
func summaryRows(rows []core.ColumnSummary) []statRow {
	stats := []struct {
		label string
		get   func(core.ColumnSummary) string
	}{
		{"count", func(s core.ColumnSummary) string { return strconv.Itoa(s.Count) }},
		{"mean", func(s core.ColumnSummary) string { return num(s.Mean) }},
		{"std", func(s core.ColumnSummary) string { return num(s.Std) }},
		{"min", func(s core.ColumnSummary) string { return num(s.Min) }},
		{"25%", func(s core.ColumnSummary) string { return num(s.Q25) }},
		{"50%", func(s core.ColumnSummary) string { return num(s.Median) }},
		{"75%", func(s core.ColumnSummary) string { return num(s.Q75) }},
		{"max", func(s core.ColumnSummary) string { return num(s.Max) }},
	}
	out := make([]statRow, len(stats))
	for i, st := range stats {
		values := make([]string, len(rows))
		for j, r := range rows {
			values[j] = st.get(r)
		}
		out[i] = statRow{label: st.label, values: values}
	}
	return out
}

func maxCount(bins []core.Bin) int {
	peak := 0
	for _, b := range bins {
		peak = max(peak, b.Count)
	}
	return peak
}

// barStyle sizes a histogram bar relative to the tallest bin.
func barStyle(count, peak int) string {
	width := 0
	if peak > 0 {
		width = count * 100 / peak
	}
	return "width:" + strconv.Itoa(width) + "%"
}

func scatterPreview(res *core.ScatterResult, limit int) []core.Point {
	if limit > 0 && len(res.Points) > limit {
		return res.Points[:limit]
	}
	return res.Points
}

func outlierList(values []float64) string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = FormatNumber(v)
	}
	return strings.Join(out, ", ")
}

func corrClass(v core.Number) string {
	switch f := float64(v); {
	case !v.Valid():
		return "corr-none"
	case f >= 0.5:
		return "corr-pos"
	case f <= -0.5:
		return "corr-neg"
	default:
		return "corr-weak"
	}
}

func groupLabel(r core.GroupMeanRow) string {
	if r.Missing {
		return "NaN"
	}
	return r.Group
}

// affineSamples picks about twenty evenly spaced points of a line, always
// ending on the last one.
func affineSamples(line *core.AffineLine) []int {
	n := len(line.X)
	if n == 0 {
		return nil
	}
	step := max(n/20, 1)
	var idx []int
	for i := 0; i < n; i += step {
		idx = append(idx, i)
	}
	if last := n - 1; last%step != 0 {
		idx = append(idx, last)
	}
	return idx
}
