package core

import (
	"math"
	"reflect"
	"testing"
)

func TestNewColumn_TypeInference(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  ColumnType
	}{
		{"integers", []string{"1", "2", "3"}, ColumnNumeric},
		{"decimals and exponents", []string{"1.5", "-2e3", ".5", "+4."}, ColumnNumeric},
		{"nulls ignored", []string{"1", "", "NA", "3"}, ColumnNumeric},
		{"all null", []string{"", "N/A"}, ColumnNumeric},
		{"leading zeros", []string{"007", "010"}, ColumnNumeric},
		{"one word", []string{"1", "two", "3"}, ColumnText},
		{"thousands separator", []string{"1,000"}, ColumnText},
		{"currency", []string{"$5"}, ColumnText},
		{"no rows", nil, ColumnText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newColumn("c", tt.cells)
			if c.Type != tt.want {
				t.Errorf("Type = %v, want %v", c.Type, tt.want)
			}
		})
	}
}

func TestColumn_Accessors(t *testing.T) {
	c := newColumn("Age", []string{"30", "", "40.0", "40"})

	if got := c.NullCount(); got != 1 {
		t.Errorf("NullCount = %d, want 1", got)
	}
	if _, ok := c.Float(1); ok {
		t.Error("Float(1) ok = true for a null cell")
	}
	if v, ok := c.Float(2); !ok || v != 40 {
		t.Errorf("Float(2) = %v, %v, want 40, true", v, ok)
	}
	if got := c.Cell(2); got != "40.0" {
		t.Errorf("Cell(2) = %q, want original text 40.0", got)
	}
	if got := c.Floats(); !reflect.DeepEqual(got, []float64{30, 40, 40}) {
		t.Errorf("Floats = %v", got)
	}
	min, max, ok := c.Bounds()
	if !ok || min != 30 || max != 40 {
		t.Errorf("Bounds = %v, %v, %v, want 30, 40, true", min, max, ok)
	}
	if got := c.Distinct(0); !reflect.DeepEqual(got, []string{"30", "40.0"}) {
		t.Errorf("Distinct = %v, want [30 40.0]", got)
	}
}

func TestColumn_DistinctLimit(t *testing.T) {
	c := newColumn("Ville", []string{"Paris", "Lyon", "Paris", "", "Lille", "Nantes"})
	if got := c.Distinct(2); !reflect.DeepEqual(got, []string{"Paris", "Lyon"}) {
		t.Errorf("Distinct(2) = %v, want [Paris Lyon]", got)
	}
	if got := c.Distinct(0); len(got) != 4 {
		t.Errorf("Distinct(0) has %d values, want 4", len(got))
	}
}

func TestColumn_BoundsTextOrEmpty(t *testing.T) {
	if _, _, ok := newColumn("t", []string{"a"}).Bounds(); ok {
		t.Error("Bounds on text column ok = true")
	}
	if _, _, ok := newColumn("n", []string{"", ""}).Bounds(); ok {
		t.Error("Bounds on all-null column ok = true")
	}
}

func TestNewTable(t *testing.T) {
	tbl, err := NewTable([]string{"a", "b"}, [][]string{{"1", "x"}, {"2", "y"}})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if tbl.NumRows() != 2 || tbl.NumColumns() != 2 {
		t.Errorf("shape = %dx%d, want 2x2", tbl.NumRows(), tbl.NumColumns())
	}
	if got := tbl.NumericColumns(); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("NumericColumns = %v", got)
	}
	if got := tbl.TextColumns(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("TextColumns = %v", got)
	}
	if got := tbl.Row(1); !reflect.DeepEqual(got, []string{"2", "y"}) {
		t.Errorf("Row(1) = %v", got)
	}
	want := []ColumnDescriptor{{"a", ColumnNumeric}, {"b", ColumnText}}
	if got := tbl.Descriptors(); !reflect.DeepEqual(got, want) {
		t.Errorf("Descriptors = %v, want %v", got, want)
	}
}

func TestNewTable_Invalid(t *testing.T) {
	if _, err := NewTable([]string{"a", "a"}, nil); err == nil {
		t.Error("duplicate header: want error")
	}
	if _, err := NewTable([]string{"a", "b"}, [][]string{{"1"}}); err == nil {
		t.Error("ragged row: want error")
	}
}

func TestTable_EqualAndFingerprint(t *testing.T) {
	a := mustCSV(t, "x,y\n1,a\n2,b\n")
	b := mustCSV(t, "x,y\n1,a\n2,b\n")
	c := mustCSV(t, "x,y\n1,a\n2,c\n")

	if !a.Equal(b) {
		t.Error("equal tables reported different")
	}
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal tables have different fingerprints")
	}
	if a.Equal(c) {
		t.Error("different tables reported equal")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("different tables share a fingerprint")
	}
}

func TestColumnType_String(t *testing.T) {
	if ColumnNumeric.String() != "numeric" || ColumnText.String() != "text" {
		t.Errorf("String = %q, %q", ColumnNumeric, ColumnText)
	}
}

func TestColumnType_Text(t *testing.T) {
	for _, ct := range []ColumnType{ColumnText, ColumnNumeric} {
		b, err := ct.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", ct, err)
		}
		var got ColumnType
		if err := got.UnmarshalText(b); err != nil || got != ct {
			t.Errorf("UnmarshalText(%s) = %v, %v; want %v", b, got, err, ct)
		}
	}

	var ct ColumnType
	if err := ct.UnmarshalText([]byte("date")); err == nil {
		t.Error("UnmarshalText(date) succeeded")
	}
}

func TestNumber_MarshalJSON(t *testing.T) {
	tests := []struct {
		in   Number
		want string
	}{
		{1.5, "1.5"},
		{Number(math.NaN()), "null"},
		{Number(math.Inf(1)), "null"},
		{0, "0"},
	}
	for _, tt := range tests {
		got, err := tt.in.MarshalJSON()
		if err != nil {
			t.Fatalf("MarshalJSON(%v): %v", tt.in, err)
		}
		if string(got) != tt.want {
			t.Errorf("MarshalJSON(%v) = %s, want %s", float64(tt.in), got, tt.want)
		}
	}
}

// mustCSV parses CSV text or fails the test.
func mustCSV(t *testing.T, text string) *Table {
	t.Helper()
	tbl, err := ParseCSV([]byte(text))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	return tbl
}
