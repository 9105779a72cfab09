package templates

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/explorer/internal/core"
)

func renderString(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{2.123456, "2.1235"},
		{0.00004, "0"},
		{1e6, "1000000"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "NaN"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestDataTable_EscapesCells(t *testing.T) {
	tbl, err := core.NewTable([]string{"<b>name</b>", "n"}, [][]string{
		{"<script>alert(1)</script>", "1"},
		{"Tom & Jerry", "2"},
		{"plain", "3"},
	})
	require.NoError(t, err)

	out := renderString(t, DataTable(NewTableData(tbl, 2)))
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "&lt;b&gt;name&lt;/b&gt;")
	assert.Contains(t, out, "Tom &amp; Jerry")
	assert.NotContains(t, out, "plain", "limit respected")
	assert.Contains(t, out, "Showing 2 of 3 rows")
}

func TestNewTableData_NoLimit(t *testing.T) {
	tbl, err := core.NewTable([]string{"a"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)

	d := NewTableData(tbl, 0)
	assert.Len(t, d.Rows, 2)
	assert.Equal(t, 2, d.Total)
	assert.Equal(t, TableData{}, NewTableData(nil, 5))
}

func TestErrorAlert(t *testing.T) {
	out := renderString(t, ErrorAlert("Bad <file>", "Try again", "FILE001"))
	assert.Contains(t, out, "Bad &lt;file&gt;")
	assert.Contains(t, out, "<code>FILE001</code>")
}

func TestMarkdown(t *testing.T) {
	out := renderString(t, Markdown("some **bold** text <em>raw</em>"))
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.NotContains(t, out, "<em>raw</em>", "inline HTML is dropped")

	again := renderString(t, Markdown("some **bold** text <em>raw</em>"))
	assert.Equal(t, out, again)
}

func TestHistogramTable(t *testing.T) {
	res := &core.HistogramResult{
		Column:  "score",
		Bins:    []core.Bin{{Low: 0, High: 5, Count: 2}, {Low: 5, High: 10, Count: 4}},
		Missing: 1,
	}
	out := renderString(t, HistogramTable(res))
	assert.Contains(t, out, "Histogram of score")
	assert.Contains(t, out, `style="width:50%;"`)
	assert.Contains(t, out, `style="width:100%;"`)
	assert.Contains(t, out, "1 missing values not shown")

	empty := renderString(t, HistogramTable(&core.HistogramResult{Column: "x"}))
	assert.Contains(t, empty, "x has no values to bin")
}

func TestAnalystPage_NoData(t *testing.T) {
	out := renderString(t, AnalystPage(AnalystParams{
		Demos:      []string{"employes", "vgsales"},
		Demo:       "vgsales",
		NoData:     "No data loaded.",
		ExportCSV:  "/api/datasets/x/export?format=csv",
		ExportXLSX: "/api/datasets/x/export?format=xlsx",
	}))
	assert.Contains(t, out, "No data loaded.")
	assert.NotContains(t, out, "/export", "a halted run never links an export")
	assert.Contains(t, out, `<option value="vgsales" selected>`)
}

func TestAnalystPage_UploadDataset(t *testing.T) {
	tbl, err := core.NewTable([]string{"a", "b"}, [][]string{{"x", "1"}, {"y", "2"}})
	require.NoError(t, err)

	out := renderString(t, AnalystPage(AnalystParams{
		Demos:     []string{"vgsales"},
		Dataset:   &DatasetInfo{ID: "abc123", Name: "mine.csv", Source: core.SourceUpload, Rows: 2, Columns: 2},
		Head:      NewTableData(tbl, 5),
		View:      NewTableData(tbl, 5),
		Form:      SelectionForm{Columns: []string{"a", "b"}, Selected: []string{"a"}, FilterColumns: []string{"a", "b"}, Limit: 200},
		ExportCSV: "/api/datasets/abc123/export?columns=a&format=csv",
		Chart:     ChartParams{Type: "scatter", Message: "Not enough numeric columns for a scatter plot."},
	}))
	assert.Contains(t, out, `<input type="hidden" name="dataset" value="abc123">`)
	assert.Contains(t, out, `href="/api/datasets/abc123/export?columns=a&amp;format=csv"`)
	assert.Contains(t, out, `name="columns" value="a" checked`)
	assert.Contains(t, out, "Not enough numeric columns")
	assert.False(t, strings.Contains(out, "using the"), "uploads are not announced as demos")
}

func TestCorrClass(t *testing.T) {
	assert.Equal(t, "corr-pos", corrClass(0.9))
	assert.Equal(t, "corr-neg", corrClass(-0.7))
	assert.Equal(t, "corr-weak", corrClass(0.1))
	assert.Equal(t, "corr-none", corrClass(core.Number(math.NaN())))
}

func TestLayout_MarksActivePage(t *testing.T) {
	out := renderString(t, AffinePage(AffinePageParams{Form: core.AffineParams{A: 1, XMin: -5, XMax: 5, Color: "#ff0000"}}))
	assert.Contains(t, out, `<a href="/affine" class="active">Affine function</a>`)
	assert.Contains(t, out, `<title>Affine function · CSV Explorer</title>`)
	assert.NotContains(t, out, "Current equation", "no line without a computed result")
}

func TestAffinePage_SamplesLine(t *testing.T) {
	line, err := core.Affine(core.AffineParams{A: 2, B: 1, XMin: -10, XMax: 10, Color: "#00ff00"})
	require.NoError(t, err)

	out := renderString(t, AffinePage(AffinePageParams{Line: line, Form: line.AffineParams}))
	assert.Contains(t, out, `style="color:#00ff00;"`)
	assert.Contains(t, out, line.Equation)
	assert.Equal(t, len(affineSamples(line)), strings.Count(out, "<tr><td"))
}

func TestAffineSamples(t *testing.T) {
	tests := []struct {
		n    int
		want []int
	}{
		{0, nil},
		{1, []int{0}},
		{5, []int{0, 1, 2, 3, 4}},
		{45, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30, 32, 34, 36, 38, 40, 42, 44}},
		{46, []int{0, 2, 4, 6, 8, 10, 12, 14, 16, 18, 20, 22, 24, 26, 28, 30, 32, 34, 36, 38, 40, 42, 44, 45}},
	}
	for _, tt := range tests {
		line := &core.AffineLine{X: make([]float64, tt.n)}
		assert.Equal(t, tt.want, affineSamples(line), "n=%d", tt.n)
	}
}

func TestCheckboxes_KeepsFieldWhenEmpty(t *testing.T) {
	out := renderString(t, checkboxes("columns", []string{"a", " b"}, nil))
	assert.Contains(t, out, `<input type="hidden" name="columns" value="">`)
	assert.Contains(t, out, `value=" b">`)
	assert.NotContains(t, out, "checked")
}

func TestRender_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := DataTable(TableData{}).Render(ctx, &buf)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}
