package core

// loader.go turns uploaded bytes into a Table.
//
// Parsing is deterministic: identical bytes always give an equal Table, which is
// what lets Service memoize loads by content hash. The CSV path follows the
// behaviour users expect from spreadsheet tools:
//
//   - a UTF-8 BOM is dropped and UTF-16 files with a BOM are transcoded
//   - any other invalid UTF-8 is an encoding error, never silently replaced
//   - blank lines are skipped, short rows are padded with missing cells
//   - rows longer than the header are malformed
//   - empty header names become "Unnamed: N", duplicates get ".1", ".2" suffixes

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Format identifies how an upload is parsed.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// xlsxMagic is the zip local file header every .xlsx starts with.
var xlsxMagic = []byte("PK\x03\x04")

// Upload is a file supplied by the user.
type Upload struct {
	Name string
	Data []byte
}

// Format guesses the upload format from its extension, falling back to content.
func (u Upload) Format() Format {
	switch strings.ToLower(filepath.Ext(u.Name)) {
	case ".xlsx":
		return FormatXLSX
	case ".csv", ".txt":
		return FormatCSV
	}
	if bytes.HasPrefix(u.Data, xlsxMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// Parse reads the upload according to its format.
func (u Upload) Parse() (*Table, error) {
	var (
		t   *Table
		err error
	)
	if u.Format() == FormatXLSX {
		t, err = ParseXLSX(u.Data)
	} else {
		t, err = ParseCSV(u.Data)
	}

	var perr *ParseError
	if errors.As(err, &perr) && perr.Source == "" {
		perr.Source = u.Name
	}
	return t, err
}

// ParseCSV parses comma-separated bytes with a header row.
func ParseCSV(data []byte) (*Table, error) {
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Kind: ParseEmpty, Err: errors.New("no header row")}
	}
	if err != nil {
		return nil, csvParseError(err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvParseError(err)
		}
		if len(record) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("expected %d fields, saw %d", len(header), len(record)),
			}
		}
		rows = append(rows, padRow(record, len(header)))
	}

	return buildTable(header, rows)
}

// ParseXLSX parses the first sheet of an Excel workbook; its first row is the header.
func ParseXLSX(data []byte) (*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Kind: ParseEmpty, Err: errors.New("workbook has no sheets")}
	}

	all, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}

	var records [][]string
	for _, row := range all {
		if !isBlankRow(row) {
			records = append(records, row)
		}
	}
	if len(records) == 0 {
		return nil, &ParseError{Kind: ParseEmpty, Err: errors.New("no header row")}
	}

	header := records[0]
	width := len(header)
	for _, row := range records[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header = padRow(header, width)

	rows := make([][]string, 0, len(records)-1)
	for _, row := range records[1:] {
		rows = append(rows, padRow(row, width))
	}
	return buildTable(header, rows)
}

func buildTable(header []string, rows [][]string) (*Table, error) {
	t, err := NewTable(uniqueHeader(header), rows)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	return t, nil
}

// decodeUTF8 strips a byte order mark and rejects invalid UTF-8.
func decodeUTF8(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, &ParseError{Kind: ParseEncoding, Err: err}
	}
	if !utf8.Valid(out) {
		return nil, &ParseError{Kind: ParseEncoding, Err: errors.New("file is not valid UTF-8")}
	}
	return out, nil
}

func csvParseError(err error) *ParseError {
	var cerr *csv.ParseError
	if errors.As(err, &cerr) {
		return &ParseError{Line: cerr.Line, Err: cerr.Err}
	}
	return &ParseError{Err: err}
}

// uniqueHeader names empty headers "Unnamed: N" and suffixes repeated names.
func uniqueHeader(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))

	for i, name := range header {
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		candidate := name
		for used[candidate] {
			counts[name]++
			candidate = fmt.Sprintf("%s.%d", name, counts[name])
		}
		used[candidate] = true
		out[i] = candidate
	}
	return out
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
