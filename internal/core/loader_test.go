package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV_Basic(t *testing.T) {
	tbl, err := ParseCSV([]byte("Nom,Age,Revenu\nA,30,1000\nB,40,2000\n"))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}

	if got := tbl.ColumnNames(); !reflect.DeepEqual(got, []string{"Nom", "Age", "Revenu"}) {
		t.Errorf("ColumnNames = %v", got)
	}
	if tbl.NumRows() != 2 {
		t.Errorf("NumRows = %d, want 2", tbl.NumRows())
	}
	if got := tbl.NumericColumns(); !reflect.DeepEqual(got, []string{"Age", "Revenu"}) {
		t.Errorf("NumericColumns = %v", got)
	}
	if got := tbl.Row(1); !reflect.DeepEqual(got, []string{"B", "40", "2000"}) {
		t.Errorf("Row(1) = %v", got)
	}
}

func TestParseCSV_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		header  []string
		records [][]string
	}{
		{
			name:    "utf-8 bom stripped",
			input:   "\xef\xbb\xbfa,b\n1,2\n",
			header:  []string{"a", "b"},
			records: [][]string{{"1", "2"}},
		},
		{
			name:    "crlf line endings",
			input:   "a,b\r\n1,2\r\n",
			header:  []string{"a", "b"},
			records: [][]string{{"1", "2"}},
		},
		{
			name:    "blank lines skipped",
			input:   "a,b\n1,2\n\n\n3,4\n\n",
			header:  []string{"a", "b"},
			records: [][]string{{"1", "2"}, {"3", "4"}},
		},
		{
			name:    "short rows padded",
			input:   "a,b,c\n1\n",
			header:  []string{"a", "b", "c"},
			records: [][]string{{"1", "", ""}},
		},
		{
			name:    "quoted fields",
			input:   "a,b\n\"x, y\",\"say \"\"hi\"\"\"\n",
			header:  []string{"a", "b"},
			records: [][]string{{"x, y", `say "hi"`}},
		},
		{
			name:    "empty and duplicate headers",
			input:   "a,,a,a\n1,2,3,4\n",
			header:  []string{"a", "Unnamed: 1", "a.1", "a.2"},
			records: [][]string{{"1", "2", "3", "4"}},
		},
		{
			name:    "leading spaces kept",
			input:   "Nom, Ville\nA, Paris\n",
			header:  []string{"Nom", " Ville"},
			records: [][]string{{"A", " Paris"}},
		},
		{
			name:    "header only",
			input:   "a,b\n",
			header:  []string{"a", "b"},
			records: [][]string{},
		},
		{
			name:    "no trailing newline",
			input:   "a\nx",
			header:  []string{"a"},
			records: [][]string{{"x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := ParseCSV([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseCSV: %v", err)
			}
			if got := tbl.ColumnNames(); !reflect.DeepEqual(got, tt.header) {
				t.Errorf("header = %v, want %v", got, tt.header)
			}
			if got := tbl.Records(); !reflect.DeepEqual(got, tt.records) {
				t.Errorf("records = %v, want %v", got, tt.records)
			}
		})
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		wantKind ParseErrorKind
		wantLine int
	}{
		{"empty file", []byte(""), ParseEmpty, 0},
		{"only blank lines", []byte("\n\n"), ParseEmpty, 0},
		{"invalid utf-8", []byte("a,b\n\xff\xfe\xfd,1\n"), ParseEncoding, 0},
		{"row longer than header", []byte("a,b\n1,2\n1,2,3\n"), ParseMalformed, 3},
		{"bare quote", []byte("a,b\n1,x\"y\n"), ParseMalformed, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCSV(tt.input)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if perr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", perr.Kind, tt.wantKind)
			}
			if tt.wantLine != 0 && perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", perr.Line, tt.wantLine)
			}
		})
	}
}

func TestParseCSV_Deterministic(t *testing.T) {
	data := []byte("x,y\n1,a\n,b\n3,NA\n")
	a, err := ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	b, err := ParseCSV(data)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if !a.Equal(b) {
		t.Error("two parses of the same bytes differ")
	}
}

func TestUpload_ParseSetsSource(t *testing.T) {
	_, err := Upload{Name: "broken.csv", Data: []byte("a\n1,2\n")}.Parse()
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if perr.Source != "broken.csv" {
		t.Errorf("Source = %q, want broken.csv", perr.Source)
	}
	if want := "invalid csv in broken.csv at line 2"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err, want)
	}
}

func TestUpload_Format(t *testing.T) {
	tests := []struct {
		up   Upload
		want Format
	}{
		{Upload{Name: "data.csv"}, FormatCSV},
		{Upload{Name: "DATA.XLSX"}, FormatXLSX},
		{Upload{Name: "blob", Data: []byte("PK\x03\x04rest")}, FormatXLSX},
		{Upload{Name: "blob", Data: []byte("a,b")}, FormatCSV},
	}
	for _, tt := range tests {
		if got := tt.up.Format(); got != tt.want {
			t.Errorf("Format(%q) = %v, want %v", tt.up.Name, got, tt.want)
		}
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{{"Nom", "Age"}, {"A", 30}, {"B", 40}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	tbl, err := Upload{Name: "people.xlsx", Data: buf.Bytes()}.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := tbl.ColumnNames(); !reflect.DeepEqual(got, []string{"Nom", "Age"}) {
		t.Errorf("ColumnNames = %v", got)
	}
	if got := tbl.Records(); !reflect.DeepEqual(got, [][]string{{"A", "30"}, {"B", "40"}}) {
		t.Errorf("Records = %v", got)
	}
	if got := tbl.NumericColumns(); !reflect.DeepEqual(got, []string{"Age"}) {
		t.Errorf("NumericColumns = %v", got)
	}
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := ParseXLSX([]byte("PK\x03\x04 not really"))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("err = %v, want *ParseError", err)
	}
}
