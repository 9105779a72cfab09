package core

import (
	"reflect"
	"strings"
	"testing"
)

func TestResolveSelections_Defaults(t *testing.T) {
	tbl := mustCSV(t, "a,b,c,d,e,f,g\n1,2,3,4,5,6,7\n")

	got, warnings := ResolveSelections(tbl, Selections{}, DefaultSelectionDefaults)

	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if want := []string{"a", "b", "c", "d", "e"}; !reflect.DeepEqual(got.Columns, want) {
		t.Errorf("Columns = %v, want %v", got.Columns, want)
	}
	if got.Filter != nil {
		t.Errorf("Filter = %+v, want nil", got.Filter)
	}
	if got.Limit != 200 {
		t.Errorf("Limit = %d, want 200", got.Limit)
	}
}

func TestResolveSelections_ExplicitEmptyProjection(t *testing.T) {
	tbl := mustCSV(t, people)

	got, warnings := ResolveSelections(tbl, Selections{Columns: []string{}}, DefaultSelectionDefaults)

	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if got.Columns == nil || len(got.Columns) != 0 {
		t.Errorf("Columns = %#v, want a non-nil empty slice", got.Columns)
	}
}

func TestResolveSelections_StaleColumnsReset(t *testing.T) {
	tbl := mustCSV(t, people)

	got, warnings := ResolveSelections(tbl, Selections{Columns: []string{"Nom", "Platform"}}, DefaultSelectionDefaults)

	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one", warnings)
	}
	if !strings.Contains(warnings[0], `"Platform"`) {
		t.Errorf("warning %q does not name Platform", warnings[0])
	}
	if !reflect.DeepEqual(got.Columns, tbl.ColumnNames()) {
		t.Errorf("Columns = %v, want %v", got.Columns, tbl.ColumnNames())
	}
}

func TestResolveSelections_NamesAreExact(t *testing.T) {
	tbl := mustCSV(t, "Nom, Ville\nA, Paris\nB, Lyon\n")

	in := Selections{
		Columns: []string{" Ville"},
		Filter:  &FilterSpec{Column: " Ville", Values: []string{" Paris"}},
	}
	got, warnings := ResolveSelections(tbl, in, DefaultSelectionDefaults)

	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
	if !reflect.DeepEqual(got.Columns, []string{" Ville"}) {
		t.Errorf("Columns = %q, want [\" Ville\"]", got.Columns)
	}
	if got.Filter == nil || !reflect.DeepEqual(got.Filter.Values, []string{" Paris"}) {
		t.Errorf("Filter = %+v, want \" Paris\" kept", got.Filter)
	}

	filtered, err := ApplyFilter(tbl, got.Filter)
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if filtered.NumRows() != 1 {
		t.Errorf("filtered rows = %d, want 1", filtered.NumRows())
	}
}

func TestResolveSelections_Filter(t *testing.T) {
	tbl := mustCSV(t, "Ville,Age\nParis,30\nLyon,40\nParis,35\nLille,\nNice,50\nBrest,20\nTours,25\n")

	tests := []struct {
		name     string
		filter   *FilterSpec
		want     *FilterSpec
		wantWarn bool
	}{
		{
			name:   "text column gets first five values",
			filter: &FilterSpec{Column: "Ville"},
			want:   &FilterSpec{Column: "Ville", Values: []string{"Paris", "Lyon", "Lille", "Nice", "Brest"}},
		},
		{
			name:   "explicit values kept",
			filter: &FilterSpec{Column: "Ville", Values: []string{"Nice"}},
			want:   &FilterSpec{Column: "Ville", Values: []string{"Nice"}},
		},
		{
			name:   "numeric column gets full range",
			filter: &FilterSpec{Column: "Age"},
			want:   &FilterSpec{Column: "Age", Range: &Interval{Low: ptr(20), High: ptr(50)}},
		},
		{
			name:     "range on text column resets to default values",
			filter:   &FilterSpec{Column: "Ville", Range: &Interval{}},
			want:     &FilterSpec{Column: "Ville", Values: []string{"Paris", "Lyon", "Lille", "Nice", "Brest"}},
			wantWarn: true,
		},
		{
			name:     "stale column drops the filter",
			filter:   &FilterSpec{Column: "Genre", Values: []string{"Sports"}},
			wantWarn: true,
		},
		{
			name:   "empty column means no filter",
			filter: &FilterSpec{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warnings := ResolveSelections(tbl, Selections{Filter: tt.filter}, DefaultSelectionDefaults)

			if (len(warnings) > 0) != tt.wantWarn {
				t.Errorf("warnings = %v, want any: %v", warnings, tt.wantWarn)
			}
			if !reflect.DeepEqual(got.Filter, tt.want) {
				t.Errorf("Filter = %+v, want %+v", got.Filter, tt.want)
			}
		})
	}
}

func TestResolveSelections_Limit(t *testing.T) {
	tbl := mustCSV(t, people)
	d := SelectionDefaults{Columns: 2, FilterValues: 2, PreviewRows: 10, MaxRows: 50}

	got, warnings := ResolveSelections(tbl, Selections{Limit: 1000}, d)
	if got.Limit != 50 || len(warnings) != 1 {
		t.Errorf("limit 1000: got %d with %d warnings, want 50 with 1", got.Limit, len(warnings))
	}

	if got, _ = ResolveSelections(tbl, Selections{Limit: 3}, d); got.Limit != 3 {
		t.Errorf("limit 3: got %d", got.Limit)
	}
	if got, _ = ResolveSelections(tbl, Selections{Limit: -1}, d); got.Limit != 10 {
		t.Errorf("limit -1: got %d, want the preview default 10", got.Limit)
	}
}

func TestResolveSelections_DoesNotAliasInput(t *testing.T) {
	tbl := mustCSV(t, people)
	cols := []string{"Nom", "Age"}

	got, _ := ResolveSelections(tbl, Selections{Columns: cols}, DefaultSelectionDefaults)
	got.Columns[0] = "changed"

	if cols[0] != "Nom" {
		t.Errorf("input mutated: %v", cols)
	}
}
