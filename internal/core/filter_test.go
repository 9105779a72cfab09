package core

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func ptr(f float64) *float64 { return &f }

const people = "Nom,Age,Revenu,Ville\n" +
	"A,30,1000,Paris\n" +
	"B,40,2000,Lyon\n" +
	"C,,1500,Paris\n" +
	"D,45,NA,Lille\n"

func TestApplyFilter_Scenario(t *testing.T) {
	tbl := mustCSV(t, "Nom,Age,Revenu\nA,30,1000\nB,40,2000\n")

	got, err := ApplyFilter(tbl, &FilterSpec{Column: "Age", Range: &Interval{Low: ptr(35), High: ptr(45)}})
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	want := [][]string{{"B", "40", "2000"}}
	if !reflect.DeepEqual(got.Records(), want) {
		t.Errorf("rows = %v, want %v", got.Records(), want)
	}
}

func TestApplyFilter_Identity(t *testing.T) {
	tbl := mustCSV(t, people)
	for _, f := range []*FilterSpec{nil, {}} {
		got, err := ApplyFilter(tbl, f)
		if err != nil {
			t.Fatalf("ApplyFilter(%v): %v", f, err)
		}
		if got != tbl {
			t.Errorf("ApplyFilter(%v) returned a new table, want the input", f)
		}
	}
}

func TestApplyFilter_FullRangeKeepsEverything(t *testing.T) {
	tbl := mustCSV(t, "x,y\n3,a\n1,b\n2,c\n")
	col, _ := tbl.Column("x")
	min, max, _ := col.Bounds()

	got, err := ApplyFilter(tbl, &FilterSpec{Column: "x", Range: &Interval{Low: &min, High: &max}})
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if !got.Equal(tbl) {
		t.Errorf("filter over [min, max] changed the table: %v", got.Records())
	}
}

func TestApplyFilter_PointRange(t *testing.T) {
	tbl := mustCSV(t, "x,y\n1,a\n2,b\n1,c\n3,d\n")

	got, err := ApplyFilter(tbl, &FilterSpec{Column: "x", Range: &Interval{Low: ptr(1), High: ptr(1)}})
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	want := [][]string{{"1", "a"}, {"1", "c"}}
	if !reflect.DeepEqual(got.Records(), want) {
		t.Errorf("rows = %v, want %v", got.Records(), want)
	}
}

func TestApplyFilter_Range(t *testing.T) {
	tbl := mustCSV(t, people)

	tests := []struct {
		name  string
		iv    Interval
		names []string
	}{
		{"inclusive bounds", Interval{Low: ptr(30), High: ptr(40)}, []string{"A", "B"}},
		{"missing low uses min", Interval{High: ptr(40)}, []string{"A", "B"}},
		{"missing high uses max", Interval{Low: ptr(40)}, []string{"B", "D"}},
		{"no bounds keeps non-null", Interval{}, []string{"A", "B", "D"}},
		{"nothing in range", Interval{Low: ptr(100), High: ptr(200)}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFilter(tbl, &FilterSpec{Column: "Age", Range: &tt.iv})
			if err != nil {
				t.Fatalf("ApplyFilter: %v", err)
			}
			if names := columnCells(got, "Nom"); !reflect.DeepEqual(names, tt.names) {
				t.Errorf("Nom = %v, want %v", names, tt.names)
			}
			if got.NumColumns() != tbl.NumColumns() {
				t.Errorf("columns = %d, want %d", got.NumColumns(), tbl.NumColumns())
			}
		})
	}
}

func TestApplyFilter_Values(t *testing.T) {
	tbl := mustCSV(t, people)

	tests := []struct {
		name   string
		column string
		values []string
		names  []string
	}{
		{"text membership", "Ville", []string{"Paris"}, []string{"A", "C"}},
		{"several values", "Ville", []string{"Lyon", "Lille"}, []string{"B", "D"}},
		{"unknown value", "Ville", []string{"Nice"}, nil},
		{"empty set", "Ville", []string{}, nil},
		{"numeric by value", "Age", []string{"40.0", "45"}, []string{"B", "D"}},
		{"numeric ignores junk", "Age", []string{"forty"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyFilter(tbl, &FilterSpec{Column: tt.column, Values: tt.values})
			if err != nil {
				t.Fatalf("ApplyFilter: %v", err)
			}
			if names := columnCells(got, "Nom"); !reflect.DeepEqual(names, tt.names) {
				t.Errorf("Nom = %v, want %v", names, tt.names)
			}
		})
	}
}

func TestApplyFilter_EmptySetKeepsColumns(t *testing.T) {
	tbl := mustCSV(t, people)
	got, err := ApplyFilter(tbl, &FilterSpec{Column: "Ville", Values: []string{}})
	if err != nil {
		t.Fatalf("ApplyFilter: %v", err)
	}
	if got.NumRows() != 0 {
		t.Errorf("rows = %d, want 0", got.NumRows())
	}
	if !reflect.DeepEqual(got.Descriptors(), tbl.Descriptors()) {
		t.Errorf("descriptors = %v, want %v", got.Descriptors(), tbl.Descriptors())
	}
}

func TestApplyFilter_Errors(t *testing.T) {
	tbl := mustCSV(t, people)

	_, err := ApplyFilter(tbl, &FilterSpec{Column: "Âge", Values: []string{"1"}})
	var serr *SchemaError
	if !errors.As(err, &serr) || serr.Column != "Âge" {
		t.Errorf("unknown column: err = %v, want *SchemaError", err)
	}

	_, err = ApplyFilter(tbl, &FilterSpec{Column: "Age", Range: &Interval{Low: ptr(50), High: ptr(10)}})
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("low > high: err = %v, want ErrInvalidRange", err)
	}

	_, err = ApplyFilter(tbl, &FilterSpec{Column: "Age", Range: &Interval{Low: ptr(math.NaN())}})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("NaN bound: err = %v, want ErrInvalidParam", err)
	}

	_, err = ApplyFilter(tbl, &FilterSpec{Column: "Ville", Range: &Interval{}})
	if !errors.Is(err, ErrInvalidParam) {
		t.Errorf("range on text: err = %v, want ErrInvalidParam", err)
	}
}

func TestRowsWhere(t *testing.T) {
	tbl := mustCSV(t, people)
	got, err := RowsWhere(tbl, "Nom", "C")
	if err != nil {
		t.Fatalf("RowsWhere: %v", err)
	}
	want := [][]string{{"C", "", "1500", "Paris"}}
	if !reflect.DeepEqual(got.Records(), want) {
		t.Errorf("RowsWhere = %v, want %v", got.Records(), want)
	}
}

func TestHead(t *testing.T) {
	tbl := mustCSV(t, people)
	if got := Head(tbl, 2).NumRows(); got != 2 {
		t.Errorf("Head(2) rows = %d, want 2", got)
	}
	if got := Head(tbl, 100); got != tbl {
		t.Error("Head beyond length should return the table itself")
	}
	if got := Head(tbl, 0).NumRows(); got != 0 {
		t.Errorf("Head(0) rows = %d, want 0", got)
	}
}

// columnCells returns the cells of one column, nil for an empty table.
func columnCells(tbl *Table, name string) []string {
	col, ok := tbl.Column(name)
	if !ok {
		return nil
	}
	var out []string
	for i := 0; i < col.Len(); i++ {
		out = append(out, col.Cell(i))
	}
	return out
}
