package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/explorer/internal/core"
	"github.com/JonMunkholm/explorer/internal/logging"
)

var errEventsDisabled = errors.New("event store not configured")

type datasetResponse struct {
	ID      string                  `json:"id"`
	Name    string                  `json:"name"`
	Source  core.SourceKind         `json:"source"`
	Rows    int                     `json:"rows"`
	Columns []core.ColumnDescriptor `json:"columns"`
}

func newDatasetResponse(ds *core.Dataset) datasetResponse {
	return datasetResponse{
		ID:      ds.ID,
		Name:    ds.Name,
		Source:  ds.Source,
		Rows:    ds.Table.NumRows(),
		Columns: ds.Table.Descriptors(),
	}
}

type tableResponse struct {
	Columns   []core.ColumnDescriptor `json:"columns"`
	Rows      [][]string              `json:"rows"`
	Truncated bool                    `json:"truncated"`
}

func newTableResponse(t *core.Table, limit int) tableResponse {
	head := core.Head(t, limit)
	return tableResponse{
		Columns:   t.Descriptors(),
		Rows:      head.Records(),
		Truncated: head.NumRows() < t.NumRows(),
	}
}

type viewResponse struct {
	Dataset datasetResponse `json:"dataset"`
	*core.View
	Table      tableResponse `json:"table"`
	ExportURL  string        `json:"exportUrl"`
	ExportXLSX string        `json:"exportXlsxUrl"`
}

func newViewResponse(ds *core.Dataset, view *core.View) viewResponse {
	return viewResponse{
		Dataset:    newDatasetResponse(ds),
		View:       view,
		Table:      newTableResponse(view.Table, view.Selections.Limit),
		ExportURL:  exportURL(ds.ID, view.Selections, core.FormatCSV),
		ExportXLSX: exportURL(ds.ID, view.Selections, core.FormatXLSX),
	}
}

// analysisResponse wraps an exploration result computed on the filtered rows.
type analysisResponse struct {
	FilteredRows int      `json:"filteredRows"`
	Warnings     []string `json:"warnings,omitempty"`
	Result       any      `json:"result"`
}

// runInput is one request to run the pipeline.
type runInput struct {
	Upload     *core.Upload
	UseDemo    bool
	Demo       string
	DatasetID  string // reuse a loaded upload when no new file is sent
	Selections core.Selections
}

type runBody struct {
	UseDemo    bool            `json:"useDemo"`
	Demo       string          `json:"demo"`
	Dataset    string          `json:"dataset"`
	Selections core.Selections `json:"selections"`
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// readRunInput reads a run from a JSON body or from form fields with an
// optional "file" upload.
func (s *Server) readRunInput(w http.ResponseWriter, r *http.Request) (runInput, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var body runBody
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
		if err := dec.Decode(&body); err != nil {
			return runInput{}, fmt.Errorf("%w: request body: %v", core.ErrInvalidParam, err)
		}
		return runInput{
			UseDemo:    body.UseDemo,
			Demo:       body.Demo,
			DatasetID:  body.Dataset,
			Selections: body.Selections,
		}, nil
	}

	if err := parseForm(w, r, s.cfg.Upload.MaxFileSize); err != nil {
		return runInput{}, err
	}
	in := runInput{
		UseDemo:   truthy(r.Form.Get("use_demo")),
		Demo:      r.Form.Get("demo"),
		DatasetID: r.Form.Get("dataset"),
	}
	up, err := formUpload(r, s.cfg.Upload.MaxFileSize)
	if err != nil {
		return in, err
	}
	in.Upload = up
	sel, err := parseSelections(r.Form)
	if err != nil {
		return in, err
	}
	in.Selections = sel
	return in, nil
}

// run executes the pipeline. A fresh upload wins; otherwise a carried dataset
// ID is reused before falling back to the demo flag.
func (s *Server) run(r *http.Request, in runInput) (*core.RunResult, error) {
	ctx := r.Context()
	if in.Upload == nil && in.DatasetID != "" {
		ds, err := s.service.Dataset(ctx, in.DatasetID)
		if err != nil {
			return nil, err
		}
		view, err := s.service.Select(ctx, ds, in.Selections)
		if err != nil {
			return nil, err
		}
		return &core.RunResult{Dataset: ds, View: view}, nil
	}
	return s.service.Run(ctx, core.RunRequest{
		Upload:     in.Upload,
		UseDemo:    in.UseDemo,
		Demo:       in.Demo,
		Selections: in.Selections,
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	in, err := s.readRunInput(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := s.run(r, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, newViewResponse(res.Dataset, res.View))
}

func (s *Server) handleListDemos(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"demos": s.service.DemoNames(), "default": core.DefaultDemo})
}

func (s *Server) handleLoadDataset(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r, s.cfg.Upload.MaxFileSize); err != nil {
		fail(w, r, err)
		return
	}
	up, err := formUpload(r, s.cfg.Upload.MaxFileSize)
	if err == nil && up == nil {
		err = errNoFile
	}
	if err != nil {
		fail(w, r, err)
		return
	}
	ds, err := s.service.Load(r.Context(), *up)
	if err != nil {
		fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/datasets/"+url.PathEscape(ds.ID))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(newDatasetResponse(ds)); err != nil {
		s.logWriteError(r, err)
	}
}

func (s *Server) handleLoadDemo(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Demo(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, newDatasetResponse(ds))
}

// datasetView loads the {id} dataset and applies the query's selections.
func (s *Server) datasetView(w http.ResponseWriter, r *http.Request) (*core.Dataset, *core.View, bool) {
	ds, err := s.service.Dataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return nil, nil, false
	}
	sel, err := parseSelections(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return nil, nil, false
	}
	view, err := s.service.Select(r.Context(), ds, sel)
	if err != nil {
		fail(w, r, err)
		return nil, nil, false
	}
	return ds, view, true
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, newDatasetResponse(ds))
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	ds, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	writeJSON(w, newViewResponse(ds, view))
}

var exportTypes = map[core.Format]string{
	core.FormatCSV:  "text/csv; charset=utf-8",
	core.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	r = r.WithContext(logging.With(r.Context(), "dataset", ds.ID))

	format := core.Format(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = core.FormatCSV
	}
	data, err := s.service.Export(r.Context(), view.Table, format)
	if err != nil {
		fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", exportTypes[format])
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="filtered_data.%s"`, format))
	if _, err := w.Write(data); err != nil {
		s.logWriteError(r, err)
	}
}

// logWriteError logs a failure after the status line was already sent.
func (s *Server) logWriteError(r *http.Request, err error) {
	logging.FromContext(r.Context()).Warn("write response", "path", r.URL.Path, "error", err)
}

func (s *Server) writeAnalysis(w http.ResponseWriter, view *core.View, result any) {
	writeJSON(w, analysisResponse{
		FilteredRows: view.FilteredRows,
		Warnings:     view.Warnings,
		Result:       result,
	})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	s.writeAnalysis(w, view, core.Describe(view.Filtered))
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	s.writeAnalysis(w, view, core.Profile(view.Filtered))
}

// firstNumeric returns name, or the first numeric column when name is empty.
func firstNumeric(t *core.Table, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if nums := t.NumericColumns(); len(nums) > 0 {
		return nums[0], nil
	}
	return "", fmt.Errorf("%w: no numeric column", core.ErrInvalidParam)
}

func (s *Server) handleHistogram(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	col, err := firstNumeric(view.Filtered, q.Get("column"))
	if err != nil {
		fail(w, r, err)
		return
	}
	bins, err := intParam(q, "bins")
	if err != nil {
		fail(w, r, err)
		return
	}
	if bins == 0 {
		bins = s.service.Options().DefaultBins
	}
	res, err := core.Histogram(view.Filtered, col, bins)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeAnalysis(w, view, res)
}

func (s *Server) handleScatter(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	res, err := core.Scatter(view.Filtered, q.Get("x"), q.Get("y"), q.Get("hue"))
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeAnalysis(w, view, res)
}

func (s *Server) handleBoxPlot(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	value, err := firstNumeric(view.Filtered, q.Get("value"))
	if err != nil {
		fail(w, r, err)
		return
	}
	res, err := core.BoxPlot(view.Filtered, value, q.Get("by"))
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeAnalysis(w, view, res)
}

func (s *Server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	res, err := core.Correlation(view.Filtered, listParam(r.URL.Query(), "vars", true))
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeAnalysis(w, view, res)
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	by, value := q.Get("by"), q.Get("value")
	if by == "" || value == "" {
		fail(w, r, fmt.Errorf("%w: pivot needs by and value", core.ErrInvalidParam))
		return
	}
	res, err := core.GroupMean(view.Filtered, by, value)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeAnalysis(w, view, res)
}

func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	_, view, ok := s.datasetView(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	col := q.Get("column")
	if col == "" {
		fail(w, r, fmt.Errorf("%w: rows needs a column", core.ErrInvalidParam))
		return
	}
	rows, err := core.RowsWhere(view.Filtered, col, q.Get("value"))
	if err != nil {
		fail(w, r, err)
		return
	}
	s.writeAnalysis(w, view, newTableResponse(rows, view.Selections.Limit))
}

func (s *Server) handleAffine(w http.ResponseWriter, r *http.Request) {
	p, err := parseAffineParams(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	line, err := core.Affine(p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, line)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		respondError(w, r, errEventsDisabled, http.StatusNotFound)
		return
	}
	limit, err := intParam(r.URL.Query(), "limit")
	if err != nil {
		fail(w, r, err)
		return
	}
	events, err := s.events.Recent(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"events": events})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"parses": s.service.Limiter().Status(),
		"demos":  s.service.DemoNames(),
	})
}
