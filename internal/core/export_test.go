package core

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestProject(t *testing.T) {
	tbl := mustCSV(t, people)

	tests := []struct {
		name  string
		cols  []string
		want  []string
		nrows int
	}{
		{"caller order", []string{"Ville", "Nom"}, []string{"Ville", "Nom"}, 4},
		{"duplicates collapse", []string{"Nom", "Age", "Nom"}, []string{"Nom", "Age"}, 4},
		{"empty keeps row count", []string{}, []string{}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(tbl, tt.cols)
			if err != nil {
				t.Fatalf("Project: %v", err)
			}
			if names := got.ColumnNames(); !reflect.DeepEqual(names, tt.want) {
				t.Errorf("columns = %v, want %v", names, tt.want)
			}
			if got.NumRows() != tt.nrows {
				t.Errorf("rows = %d, want %d", got.NumRows(), tt.nrows)
			}
		})
	}
}

func TestProject_FullSetIsIdentity(t *testing.T) {
	tbl := mustCSV(t, people)
	got, err := Project(tbl, tbl.ColumnNames())
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	if !got.Equal(tbl) {
		t.Error("projection on every column in order changed the table")
	}
}

func TestProject_UnknownColumn(t *testing.T) {
	tbl := mustCSV(t, people)
	_, err := Project(tbl, []string{"Nom", "Salaire"})
	var serr *SchemaError
	if !errors.As(err, &serr) {
		t.Fatalf("err = %v, want *SchemaError", err)
	}
	if serr.Column != "Salaire" {
		t.Errorf("Column = %q, want Salaire", serr.Column)
	}
	if !reflect.DeepEqual(serr.Available, tbl.ColumnNames()) {
		t.Errorf("Available = %v, want %v", serr.Available, tbl.ColumnNames())
	}
}

func TestExportCSV_RoundTrip(t *testing.T) {
	inputs := []string{
		people,
		"Nom,Age,Revenu\nA,30,1000\nB,40,2000\n",
		"a,b\n\"x, y\",\"line\nbreak\"\n\"q\"\"uote\",\n",
		"only\n\n",
		"h\nv\n\n",
		"n,t\n007,NA\n1e3,N/A\n",
		"a,b\n",
		"Nom,Prénom,Âge\nDupont,Jean,34\n",
	}

	for _, in := range inputs {
		orig := mustCSV(t, in)
		out, err := ExportCSV(orig)
		if err != nil {
			t.Fatalf("ExportCSV(%q): %v", in, err)
		}
		back, err := ParseCSV(out)
		if err != nil {
			t.Fatalf("ParseCSV(ExportCSV(%q)): %v\n%s", in, err, out)
		}
		if !back.Equal(orig) {
			t.Errorf("round trip of %q changed the table:\ngot  %v\nwant %v", in, back.Records(), orig.Records())
		}
	}
}

func TestExportCSV_Format(t *testing.T) {
	out, err := ExportCSV(mustCSV(t, "Nom,Age\nA,30\nB,\n"))
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if want := "Nom,Age\nA,30\nB,\n"; string(out) != want {
		t.Errorf("ExportCSV = %q, want %q", out, want)
	}
}

func TestExportCSV_SingleEmptyCellIsQuoted(t *testing.T) {
	view, err := Project(mustCSV(t, "a,b\n1,\n"), []string{"b"})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}

	out, err := ExportCSV(view)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if want := "b\n\"\"\n"; string(out) != want {
		t.Errorf("ExportCSV = %q, want %q", out, want)
	}

	back, err := ParseCSV(out)
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if back.NumRows() != 1 {
		t.Errorf("rows after round trip = %d, want 1", back.NumRows())
	}
}

func TestExportCSV_ZeroColumns(t *testing.T) {
	view, err := Project(mustCSV(t, people), []string{})
	if err != nil {
		t.Fatalf("Project: %v", err)
	}
	out, err := ExportCSV(view)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if len(out) == 0 {
		t.Error("ExportCSV of a zero-column view is empty")
	}
}

func TestExportXLSX(t *testing.T) {
	tbl := mustCSV(t, "Nom,Age\nA,30\nB,\n")
	data, err := ExportXLSX(tbl)
	if err != nil {
		t.Fatalf("ExportXLSX: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3: %v", len(rows), rows)
	}
	if !reflect.DeepEqual(rows[0], []string{"Nom", "Age"}) || !reflect.DeepEqual(rows[1], []string{"A", "30"}) {
		t.Errorf("rows = %v", rows)
	}
	if rows[2][0] != "B" {
		t.Errorf("rows[2] = %v, want B first", rows[2])
	}

	back, err := Upload{Name: "x.xlsx", Data: data}.Parse()
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(back.Descriptors(), tbl.Descriptors()) {
		t.Errorf("Descriptors = %v, want %v", back.Descriptors(), tbl.Descriptors())
	}
}
