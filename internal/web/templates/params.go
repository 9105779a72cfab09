package templates

import "github.com/JonMunkholm/explorer/internal/core"

// DatasetInfo identifies the loaded dataset on a page.
type DatasetInfo struct {
	ID      string
	Name    string
	Source  core.SourceKind
	Rows    int
	Columns int
}

// SelectionForm is the state of the column and filter pickers.
type SelectionForm struct {
	Columns       []string // every column of the dataset
	Selected      []string
	FilterColumns []string // choices for the filter column
	FilterColumn  string
	FilterNumeric bool
	FilterOptions []string // distinct values of a text filter column
	FilterValues  []string
	FilterMin     string
	FilterMax     string
	RangeMin      string // bounds of a numeric filter column
	RangeMax      string
	Limit         int
}

// ChartParams hold the visualisation section.
type ChartParams struct {
	Type           string // "scatter" or "histogram"
	NumericColumns []string
	X, Y           string
	HistColumn     string
	Bins           int
	Scatter        *core.ScatterResult
	Histogram      *core.HistogramResult
	Message        string
}

// PivotParams hold the optional group-mean table.
type PivotParams struct {
	Show    bool
	Columns []string
	By      string
	Value   string
	Rows    []core.GroupMeanRow
	Message string
}

// AnalystParams is everything the analyst page shows.
type AnalystParams struct {
	Demos   []string
	Demo    string
	UseDemo bool

	Dataset  *DatasetInfo
	Error    *core.UserMessage
	Warnings []string
	NoData   string // set when the run halted without data

	Head     TableData
	Describe []core.ColumnSummary
	Profile  []core.ColumnProfile
	Form     SelectionForm
	View     TableData

	TotalRows    int
	FilteredRows int
	ExportCSV    string
	ExportXLSX   string

	Chart ChartParams
	Pivot PivotParams
}

// OverviewParams is everything the overview page shows.
type OverviewParams struct {
	Error       *core.UserMessage
	Warnings    []string
	Dataset     DatasetInfo
	Table       TableData
	Head        TableData
	Describe    []core.ColumnSummary
	Histogram   *core.HistogramResult
	Scatter     *core.ScatterResult
	BoxByCity   []core.BoxStats
	BoxBySex    []core.BoxStats
	Correlation *core.CorrelationMatrix

	Names    []string
	Name     string
	Details  TableData
	Form     SelectionForm
	View     TableData
	Export   string
	Upload   *TableData
	UploadOK string
}

// AffinePageParams is the affine function page state.
type AffinePageParams struct {
	Error *core.UserMessage
	Line  *core.AffineLine
	Form  core.AffineParams
}

const analystIntro = `Load a CSV file (for example the **video game sales** dataset) to explore
the data, visualise relationships between variables and filter rows.`

const overviewIntro = `This page loads the bundled **employees** file and shows its content as
tables, summary statistics and the data behind common charts.

Pick the columns to show, filter rows and download the result, or upload another CSV file below.`

const affineIntro = "This page draws the function **y = a x + b** over a chosen interval."

// demoNotice announces a run that fell back to a bundled dataset.
func demoNotice(d *DatasetInfo) string {
	return "No file loaded, using the " + d.Name + " demo dataset."
}
