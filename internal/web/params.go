package web

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/explorer/internal/core"
)

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temporary files.
const multipartMemory = 8 << 20

// parseForm parses query, urlencoded and multipart parameters into r.Form,
// capping the body at maxBytes plus room for the other fields.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if r.Body != nil && r.Method != http.MethodGet {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	}
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var merr *http.MaxBytesError
		if errors.As(err, &merr) {
			return fmt.Errorf("%w: %v", core.ErrFileTooLarge, err)
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidParam, err)
	}
	return nil
}

// formUpload reads the "file" field. It returns nil when no file was sent.
func formUpload(r *http.Request, maxBytes int64) (*core.Upload, error) {
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	defer f.Close()

	if hdr.Size > maxBytes {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", core.ErrFileTooLarge, hdr.Size, maxBytes)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", core.ErrFileTooLarge, maxBytes)
	}
	if hdr.Filename == "" && len(data) == 0 {
		return nil, nil
	}
	return &core.Upload{Name: hdr.Filename, Data: data}, nil
}

// listParam collects a parameter given as repeated keys or as one comma list.
// Repeated values are taken verbatim, so names with leading spaces or commas
// survive; a single value is split on commas when commas is set, and its
// parts are trimmed. Empty values are dropped. It returns nil when the key is
// absent and a non-nil, possibly empty slice when it is present.
func listParam(form url.Values, key string, commas bool) []string {
	raw, ok := form[key]
	if !ok {
		return nil
	}
	out := []string{}
	if len(raw) == 1 && commas && strings.Contains(raw[0], ",") {
		for _, p := range strings.Split(raw[0], ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	for _, v := range raw {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func floatParam(form url.Values, key string) (*float64, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("%w: %s=%q is not a finite number", core.ErrInvalidParam, key, v)
	}
	return &f, nil
}

func intParam(form url.Values, key string) (int, error) {
	v := strings.TrimSpace(form.Get(key))
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", core.ErrInvalidParam, key, v)
	}
	return i, nil
}

// parseSelections reads the selection parameters:
//
//	columns        comma list or repeated; present but empty selects no columns
//	filter_column  column to filter on, verbatim
//	filter_values  repeated, verbatim; values kept by a text filter
//	filter_min     lower bound of a numeric filter
//	filter_max     upper bound of a numeric filter
//	limit          preview row count
func parseSelections(form url.Values) (core.Selections, error) {
	sel := core.Selections{Columns: listParam(form, "columns", true)}

	if col := form.Get("filter_column"); col != "" {
		f := &core.FilterSpec{Column: col, Values: listParam(form, "filter_values", false)}
		low, err := floatParam(form, "filter_min")
		if err != nil {
			return sel, err
		}
		high, err := floatParam(form, "filter_max")
		if err != nil {
			return sel, err
		}
		if low != nil || high != nil {
			f.Range = &core.Interval{Low: low, High: high}
		}
		sel.Filter = f
	}

	limit, err := intParam(form, "limit")
	if err != nil {
		return sel, err
	}
	sel.Limit = limit
	return sel, nil
}

// selectionQuery encodes resolved selections so that parseSelections reads
// them back unchanged.
func selectionQuery(sel core.Selections) url.Values {
	q := url.Values{}
	q["columns"] = append([]string{""}, sel.Columns...)
	if f := sel.Filter; f != nil {
		q.Set("filter_column", f.Column)
		if f.Range != nil {
			if f.Range.Low != nil {
				q.Set("filter_min", strconv.FormatFloat(*f.Range.Low, 'g', -1, 64))
			}
			if f.Range.High != nil {
				q.Set("filter_max", strconv.FormatFloat(*f.Range.High, 'g', -1, 64))
			}
		} else {
			q["filter_values"] = append([]string{""}, f.Values...)
		}
	}
	return q
}

// exportURL links to the export of a dataset view.
func exportURL(datasetID string, sel core.Selections, format core.Format) string {
	q := selectionQuery(sel)
	q.Set("format", string(format))
	return "/api/datasets/" + url.PathEscape(datasetID) + "/export?" + q.Encode()
}

func parseAffineParams(form url.Values) (core.AffineParams, error) {
	p := core.DefaultAffineParams()
	fields := []struct {
		key string
		dst *float64
	}{
		{"a", &p.A}, {"b", &p.B}, {"xmin", &p.XMin}, {"xmax", &p.XMax},
	}
	for _, f := range fields {
		v, err := floatParam(form, f.key)
		if err != nil {
			return p, err
		}
		if v != nil {
			*f.dst = *v
		}
	}
	if c := strings.TrimSpace(form.Get("color")); c != "" {
		p.Color = c
	}
	return p, nil
}
