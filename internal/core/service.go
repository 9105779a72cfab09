package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	LoadCacheSize       int
	ExportCacheSize     int
	MaxConcurrentParses int
	ParseWait           time.Duration
	MaxFileSize         int64
	Selection           SelectionDefaults
	DefaultBins         int
}

const (
	defaultLoadCacheSize   = 32
	defaultExportCacheSize = 64
)

// Dataset is a loaded table and the content-derived ID that names it.
// Equal input bytes always produce the same ID.
type Dataset struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Source SourceKind `json:"source"`
	Table  *Table     `json:"-"`
}

// View is the outcome of running the filter and projection stages.
type View struct {
	Selections   Selections `json:"selections"`
	Warnings     []string   `json:"warnings,omitempty"`
	Filtered     *Table     `json:"-"` // filter applied, every column kept
	Table        *Table     `json:"-"` // filter then projection
	TotalRows    int        `json:"totalRows"`
	FilteredRows int        `json:"filteredRows"`
}

// RunRequest is everything one run of the pipeline depends on.
type RunRequest struct {
	Upload     *Upload
	UseDemo    bool
	Demo       string
	Selections Selections
}

// RunResult is a completed run.
type RunResult struct {
	Dataset *Dataset
	View    *View
}

// Service runs the explore pipeline: source selection, load, filter,
// projection and export. Loads and exports are memoized by content.
type Service struct {
	opts    Options
	demos   DemoSet
	demoIDs map[string]string // dataset ID -> demo name

	loads   *memo[*Dataset]
	exports *memo[[]byte]
	limiter *ParseLimiter
	events  EventRecorder
}

// NewService creates a Service over the bundled demo datasets.
func NewService(opts Options, events EventRecorder) (*Service, error) {
	return newService(opts, BundledDemos(), events)
}

func newService(opts Options, demos DemoSet, events EventRecorder) (*Service, error) {
	if opts.LoadCacheSize <= 0 {
		opts.LoadCacheSize = defaultLoadCacheSize
	}
	if opts.ExportCacheSize <= 0 {
		opts.ExportCacheSize = defaultExportCacheSize
	}
	if opts.Selection == (SelectionDefaults{}) {
		opts.Selection = DefaultSelectionDefaults
	}
	if opts.DefaultBins <= 0 {
		opts.DefaultBins = DefaultBins
	}
	if events == nil {
		events = NopRecorder{}
	}

	loads, err := newMemo[*Dataset](opts.LoadCacheSize)
	if err != nil {
		return nil, fmt.Errorf("load cache: %w", err)
	}
	exports, err := newMemo[[]byte](opts.ExportCacheSize)
	if err != nil {
		return nil, fmt.Errorf("export cache: %w", err)
	}

	demoIDs := make(map[string]string, len(demos))
	for name, up := range demos {
		demoIDs[datasetID(up)] = name
	}

	return &Service{
		opts:    opts,
		demos:   demos,
		demoIDs: demoIDs,
		loads:   loads,
		exports: exports,
		limiter: NewParseLimiter(opts.MaxConcurrentParses, opts.ParseWait),
		events:  events,
	}, nil
}

// Options returns the effective options after defaults were applied.
func (s *Service) Options() Options { return s.opts }

// Limiter returns the parse limiter, used for health checks and shutdown.
func (s *Service) Limiter() *ParseLimiter { return s.limiter }

// DemoNames lists the bundled demo datasets.
func (s *Service) DemoNames() []string { return s.demos.Names() }

// datasetID derives the ID of an upload from its format and bytes.
func datasetID(up Upload) string {
	return contentKey([]byte(up.Format()), up.Data)
}

// Load parses an upload, returning the cached dataset when the same bytes were
// loaded before. Parse failures are not cached.
func (s *Service) Load(ctx context.Context, up Upload) (*Dataset, error) {
	return s.load(ctx, up, SourceUpload)
}

// Demo loads a bundled demo dataset by name; "" selects DefaultDemo.
func (s *Service) Demo(ctx context.Context, name string) (*Dataset, error) {
	up, err := s.demos.Get(name)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, up, SourceDemo)
}

func (s *Service) load(ctx context.Context, up Upload, kind SourceKind) (*Dataset, error) {
	if s.opts.MaxFileSize > 0 && int64(len(up.Data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, len(up.Data), s.opts.MaxFileSize)
	}

	id := datasetID(up)
	start := time.Now()

	ds, hit, err := s.loads.Do(ctx, id, func(ctx context.Context) (*Dataset, error) {
		var t *Table
		err := s.limiter.Run(ctx, func() error {
			var perr error
			t, perr = up.Parse()
			return perr
		})
		if err != nil {
			return nil, err
		}
		return &Dataset{ID: id, Name: up.Name, Source: kind, Table: t}, nil
	})
	if err != nil {
		e := newEvent(ctx, ActionLoadFailed, fmt.Sprintf("Error loading file: %v", err))
		e.Source = up.Name
		s.record(ctx, e)
		return nil, err
	}

	if !hit {
		slog.Info("dataset loaded",
			"dataset_id", ds.ID,
			"name", ds.Name,
			"rows", ds.Table.NumRows(),
			"columns", ds.Table.NumColumns(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		e := newEvent(ctx, ActionLoad, "File loaded successfully")
		e.DatasetID, e.Source, e.Rows = ds.ID, ds.Name, ds.Table.NumRows()
		s.record(ctx, e)
	}
	return ds, nil
}

// Dataset returns a previously loaded dataset. Evicted demos are reloaded;
// evicted or unknown uploads yield ErrDatasetNotFound.
func (s *Service) Dataset(ctx context.Context, id string) (*Dataset, error) {
	if ds, ok := s.loads.Get(id); ok {
		return ds, nil
	}
	if name, ok := s.demoIDs[id]; ok {
		return s.Demo(ctx, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
}

// Select resolves sel against the dataset and runs the filter and projection
// stages.
func (s *Service) Select(ctx context.Context, ds *Dataset, sel Selections) (*View, error) {
	resolved, warnings := ResolveSelections(ds.Table, sel, s.opts.Selection)
	for _, w := range warnings {
		e := newEvent(ctx, ActionSelectReset, w)
		e.DatasetID = ds.ID
		s.record(ctx, e)
	}

	filtered, err := ApplyFilter(ds.Table, resolved.Filter)
	if err != nil {
		return nil, err
	}
	view, err := Project(filtered, resolved.Columns)
	if err != nil {
		return nil, err
	}

	if resolved.Filter != nil {
		e := newEvent(ctx, ActionFilter, describeFilter(resolved.Filter))
		e.DatasetID, e.Rows = ds.ID, filtered.NumRows()
		s.record(ctx, e)
	}

	return &View{
		Selections:   resolved,
		Warnings:     warnings,
		Filtered:     filtered,
		Table:        view,
		TotalRows:    ds.Table.NumRows(),
		FilteredRows: filtered.NumRows(),
	}, nil
}

// Run executes the whole pipeline for one request. With neither an upload nor
// the demo flag it halts with ErrNoData.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	src, err := SelectSource(req.Upload, req.UseDemo, s.demos, req.Demo)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			s.record(ctx, newEvent(ctx, ActionNoData, "No file loaded"))
		}
		return nil, err
	}

	ds, err := s.load(ctx, src.Upload, src.Kind)
	if err != nil {
		return nil, err
	}

	view, err := s.Select(ctx, ds, req.Selections)
	if err != nil {
		return nil, err
	}
	return &RunResult{Dataset: ds, View: view}, nil
}

// Export serializes t in the given format. Equal tables share one cached
// encoding.
func (s *Service) Export(ctx context.Context, t *Table, format Format) ([]byte, error) {
	var encode func(*Table) ([]byte, error)
	switch format {
	case FormatCSV, "":
		format, encode = FormatCSV, ExportCSV
	case FormatXLSX:
		encode = ExportXLSX
	default:
		return nil, fmt.Errorf("%w: export format %q", ErrInvalidParam, format)
	}

	data, _, err := s.exports.Do(ctx, t.Fingerprint()+"."+string(format), func(context.Context) ([]byte, error) {
		return encode(t)
	})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	e := newEvent(ctx, ActionExport, fmt.Sprintf("%s exported", strings.ToUpper(string(format))))
	e.Rows = t.NumRows()
	s.record(ctx, e)
	return data, nil
}

// record writes an event; a failing event log never fails the run.
func (s *Service) record(ctx context.Context, e Event) {
	if err := s.events.Record(ctx, e); err != nil {
		slog.Warn("record event failed", "action", e.Action, "error", err)
	}
}

func describeFilter(f *FilterSpec) string {
	if f.Range != nil {
		low, high := "min", "max"
		if f.Range.Low != nil {
			low = fmt.Sprintf("%g", *f.Range.Low)
		}
		if f.Range.High != nil {
			high = fmt.Sprintf("%g", *f.Range.High)
		}
		return fmt.Sprintf("Filter applied on %q: [%s, %s]", f.Column, low, high)
	}
	return fmt.Sprintf("Filter applied on %q: %d value(s)", f.Column, len(f.Values))
}
