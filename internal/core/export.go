package core

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportCSV serializes t as UTF-8 CSV with a header row and no index column.
// Cells are written as their original text, so ParseCSV(ExportCSV(t)) equals t.
func ExportCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := writeRecord(w, &buf, t.ColumnNames()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := writeRecord(w, &buf, t.Row(i)); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRecord writes one CSV record. A record made of a single empty field
// would otherwise become a blank line, which readers skip, so it is quoted.
func writeRecord(w *csv.Writer, buf *bytes.Buffer, record []string) error {
	if len(record) == 1 && record[0] == "" {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
		buf.WriteString("\"\"\n")
		return nil
	}
	return w.Write(record)
}

// ExportXLSX writes t to the first sheet of a new workbook.
// Numeric cells are stored as numbers, missing cells are left empty.
func ExportXLSX(t *Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	cols := t.Columns()

	header := make([]interface{}, len(cols))
	for j, c := range cols {
		header[j] = c.Name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := 0; i < t.NumRows(); i++ {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			switch {
			case c.IsNull(i):
				row[j] = nil
			case c.Type == ColumnNumeric:
				row[j], _ = c.Float(i)
			default:
				row[j] = c.Cell(i)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
