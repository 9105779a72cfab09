package web

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/explorer/internal/core"
	"github.com/JonMunkholm/explorer/internal/logging"
	"github.com/JonMunkholm/explorer/internal/web/templates"
)

// The overview page walks through the bundled employees file.
const (
	overviewDemo   = "employes"
	overviewName   = "Nom"
	overviewAge    = "Âge"
	overviewIncome = "Revenu"
	overviewScore  = "Score"
	overviewSex    = "Sexe"
	overviewCity   = "Ville"
)

// Pivot defaults used when the dataset has these columns.
const (
	pivotDefaultBy    = "Platform"
	pivotDefaultValue = "Global_Sales"
)

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// handleAnalyst serves the analysis page. GET / shows the form; POST /explore
// re-runs the pipeline with an upload, the demo flag or the carried dataset.
func (s *Server) handleAnalyst(w http.ResponseWriter, r *http.Request) {
	p := templates.AnalystParams{Demos: s.service.DemoNames(), Demo: core.DefaultDemo}

	in, err := s.readRunInput(w, r)
	p.UseDemo = in.UseDemo
	if in.Demo != "" {
		p.Demo = in.Demo
	}
	if err == nil {
		in.Selections = dropStaleFilter(r.Form, in.Selections)
		var res *core.RunResult
		if res, err = s.run(r, in); err == nil {
			s.fillAnalyst(&p, r.Form, res)
			render(w, r, http.StatusOK, templates.AnalystPage(p))
			return
		}
	}

	status := http.StatusOK
	if core.IsWarning(err) {
		msg := core.MapError(err)
		p.NoData = msg.Message + ". " + msg.Action + "."
	} else {
		status = statusFor(err)
		p.Error = userMessage(err)
		logging.FromContext(r.Context()).Warn("analyst run failed", "status", status, "error", err)
	}
	render(w, r, status, templates.AnalystPage(p))
}

func (s *Server) fillAnalyst(p *templates.AnalystParams, form url.Values, res *core.RunResult) {
	ds, view := res.Dataset, res.View

	p.Dataset = datasetInfo(ds)
	p.Warnings = view.Warnings
	p.Head = templates.NewTableData(ds.Table, 5)
	p.Describe = core.Describe(ds.Table)
	p.Profile = core.Profile(ds.Table)
	p.Form = selectionForm(ds.Table, view.Selections)
	p.View = templates.NewTableData(view.Table, view.Selections.Limit)
	p.TotalRows, p.FilteredRows = view.TotalRows, view.FilteredRows
	p.ExportCSV = exportURL(ds.ID, view.Selections, core.FormatCSV)
	p.ExportXLSX = exportURL(ds.ID, view.Selections, core.FormatXLSX)
	p.Chart = s.chartParams(form, view.Filtered)
	p.Pivot = pivotParams(form, ds.Table, view.Filtered)
}

func datasetInfo(ds *core.Dataset) *templates.DatasetInfo {
	return &templates.DatasetInfo{
		ID:      ds.ID,
		Name:    ds.Name,
		Source:  ds.Source,
		Rows:    ds.Table.NumRows(),
		Columns: ds.Table.NumColumns(),
	}
}

// dropStaleFilter clears filter values and bounds picked for a different
// column than the one now selected, so the new column starts from defaults.
func dropStaleFilter(form url.Values, sel core.Selections) core.Selections {
	if sel.Filter == nil {
		return sel
	}
	if _, ok := form["filter_prev"]; !ok || form.Get("filter_prev") == sel.Filter.Column {
		return sel
	}
	f := *sel.Filter
	f.Values, f.Range = nil, nil
	sel.Filter = &f
	return sel
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func selectionForm(t *core.Table, sel core.Selections) templates.SelectionForm {
	names := t.ColumnNames()
	f := templates.SelectionForm{
		Columns:       names,
		Selected:      sel.Columns,
		FilterColumns: names,
		Limit:         sel.Limit,
	}
	if sel.Filter == nil {
		return f
	}

	f.FilterColumn = sel.Filter.Column
	col, ok := t.Column(sel.Filter.Column)
	if !ok {
		return f
	}
	if col.Type == core.ColumnNumeric {
		f.FilterNumeric = true
		if lo, hi, ok := col.Bounds(); ok {
			f.RangeMin, f.RangeMax = formatFloat(lo), formatFloat(hi)
		}
		if rg := sel.Filter.Range; rg != nil {
			if rg.Low != nil {
				f.FilterMin = formatFloat(*rg.Low)
			}
			if rg.High != nil {
				f.FilterMax = formatFloat(*rg.High)
			}
		}
		return f
	}

	opts := col.Distinct(0)
	sort.Strings(opts)
	f.FilterOptions = opts
	f.FilterValues = sel.Filter.Values
	return f
}

// pick returns v when it is one of opts, else opts[i].
func pick(v string, opts []string, i int) string {
	for _, o := range opts {
		if o == v {
			return v
		}
	}
	return opts[i]
}

func (s *Server) chartParams(form url.Values, t *core.Table) templates.ChartParams {
	nums := t.NumericColumns()
	c := templates.ChartParams{
		Type:           "scatter",
		NumericColumns: nums,
		Bins:           s.service.Options().DefaultBins,
	}
	if form.Get("chart") == "histogram" {
		c.Type = "histogram"
	}

	if c.Type == "histogram" {
		if len(nums) == 0 {
			c.Message = "No numeric column available for a histogram."
			return c
		}
		c.HistColumn = pick(form.Get("hist_column"), nums, 0)
		if b, err := intParam(form, "bins"); err == nil && b != 0 {
			c.Bins = b
		}
		res, err := core.Histogram(t, c.HistColumn, c.Bins)
		if err != nil {
			c.Message = core.FormatUserError(err)
			return c
		}
		c.Histogram = res
		return c
	}

	if len(nums) < 2 {
		c.Message = "Not enough numeric columns for a scatter plot."
		return c
	}
	c.X = pick(form.Get("x"), nums, 0)
	c.Y = pick(form.Get("y"), nums, 1)
	res, err := core.Scatter(t, c.X, c.Y, "")
	if err != nil {
		c.Message = core.FormatUserError(err)
		return c
	}
	c.Scatter = res
	return c
}

func pivotParams(form url.Values, all, filtered *core.Table) templates.PivotParams {
	p := templates.PivotParams{
		Show:    truthy(form.Get("pivot")),
		Columns: all.ColumnNames(),
		By:      form.Get("pivot_by"),
		Value:   form.Get("pivot_value"),
	}
	if !all.HasColumn(p.By) {
		p.By = ""
		if all.HasColumn(pivotDefaultBy) {
			p.By = pivotDefaultBy
		} else if text := all.TextColumns(); len(text) > 0 {
			p.By = text[0]
		}
	}
	if !all.HasColumn(p.Value) {
		p.Value = ""
		if all.HasColumn(pivotDefaultValue) {
			p.Value = pivotDefaultValue
		} else if nums := all.NumericColumns(); len(nums) > 0 {
			p.Value = nums[0]
		}
	}
	if !p.Show {
		return p
	}
	if p.By == "" || p.Value == "" {
		p.Message = "Pick a column to group by and a numeric column to average."
		return p
	}
	rows, err := core.GroupMean(filtered, p.By, p.Value)
	if err != nil {
		p.Message = core.FormatUserError(err)
		return p
	}
	p.Rows = rows
	return p
}

// handleOverview serves the walkthrough over the employees demo. A POST may
// carry an extra CSV file, shown below the demo without replacing it.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var p templates.OverviewParams
	status := http.StatusOK
	setErr := func(err error) {
		p.Error = userMessage(err)
		status = statusFor(err)
		logging.FromContext(ctx).Warn("overview failed", "status", status, "error", err)
	}

	formErr := parseForm(w, r, s.cfg.Upload.MaxFileSize)
	if formErr != nil {
		setErr(formErr)
	}

	ds, err := s.service.Demo(ctx, overviewDemo)
	if err != nil {
		fail(w, r, err)
		return
	}
	t := ds.Table
	opts := s.service.Options()

	p.Dataset = *datasetInfo(ds)
	p.Table = templates.NewTableData(t, opts.Selection.PreviewRows)
	p.Head = templates.NewTableData(t, 5)
	p.Describe = core.Describe(t)
	if h, err := core.Histogram(t, overviewIncome, 10); err == nil {
		p.Histogram = h
	}
	if sc, err := core.Scatter(t, overviewAge, overviewIncome, overviewSex); err == nil {
		p.Scatter = sc
	}
	if b, err := core.BoxPlot(t, overviewIncome, overviewCity); err == nil {
		p.BoxByCity = b
	}
	if b, err := core.BoxPlot(t, overviewIncome, overviewSex); err == nil {
		p.BoxBySex = b
	}
	if m, err := core.Correlation(t, []string{overviewAge, overviewIncome, overviewScore}); err == nil {
		p.Correlation = m
	}

	if col, ok := t.Column(overviewName); ok {
		p.Names = col.Distinct(0)
		if len(p.Names) > 0 {
			p.Name = pick(r.Form.Get("name"), p.Names, 0)
			if rows, err := core.RowsWhere(t, overviewName, p.Name); err == nil {
				p.Details = templates.NewTableData(rows, 0)
			}
		}
	}

	sel, err := parseSelections(r.Form)
	if err != nil {
		setErr(err)
		sel = core.Selections{}
	}
	if sel.Columns == nil {
		sel.Columns = t.ColumnNames()
	}
	view, err := s.service.Select(ctx, ds, dropStaleFilter(r.Form, sel))
	if err != nil {
		setErr(err)
	} else {
		p.Warnings = view.Warnings
		p.Form = selectionForm(t, view.Selections)
		p.View = templates.NewTableData(view.Table, view.Selections.Limit)
		p.Export = exportURL(ds.ID, view.Selections, core.FormatCSV)
	}

	if r.Method == http.MethodPost && formErr == nil {
		if err := s.loadAuxUpload(r, &p); err != nil {
			setErr(err)
		}
	}

	render(w, r, status, templates.OverviewPage(p))
}

func (s *Server) loadAuxUpload(r *http.Request, p *templates.OverviewParams) error {
	up, err := formUpload(r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		return err
	}
	if up == nil {
		return errNoFile
	}
	aux, err := s.service.Load(r.Context(), *up)
	if err != nil {
		return err
	}
	td := templates.NewTableData(aux.Table, s.service.Options().Selection.PreviewRows)
	p.Upload = &td
	p.UploadOK = "File loaded successfully: " + aux.Name
	return nil
}

func (s *Server) handleAffinePage(w http.ResponseWriter, r *http.Request) {
	p := templates.AffinePageParams{Form: core.DefaultAffineParams()}
	status := http.StatusOK

	params, err := parseAffineParams(r.URL.Query())
	if err == nil {
		p.Form = params
		p.Line, err = core.Affine(params)
	}
	if err != nil {
		p.Error = userMessage(err)
		status = statusFor(err)
	}
	render(w, r, status, templates.AffinePage(p))
}
