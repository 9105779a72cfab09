package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"sync"
)

// ColumnType is the type inferred for a column at load time.
// It decides which filter applies: set membership or a numeric interval.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnNumeric
)

// String returns the lowercase name used in JSON and templates.
func (t ColumnType) String() string {
	if t == ColumnNumeric {
		return "numeric"
	}
	return "text"
}

// MarshalText implements encoding.TextMarshaler.
func (t ColumnType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ColumnType) UnmarshalText(b []byte) error {
	switch string(b) {
	case "numeric":
		*t = ColumnNumeric
	case "text":
		*t = ColumnText
	default:
		return fmt.Errorf("unknown column type %q", b)
	}
	return nil
}

// ColumnDescriptor is the (name, type) pair exposed to callers picking selections.
type ColumnDescriptor struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Column is a named, typed sequence of cells.
// Cells keep their original text so exports reproduce the input exactly.
// Columns are never mutated after construction.
type Column struct {
	Name string
	Type ColumnType

	cells []string
	nulls []bool
	nums  []float64 // parsed values for numeric columns; NaN where null
}

// newColumn builds a column from raw cells and infers its type.
func newColumn(name string, cells []string) *Column {
	c := &Column{
		Name:  name,
		cells: cells,
		nulls: make([]bool, len(cells)),
	}

	numeric := len(cells) > 0
	nums := make([]float64, len(cells))
	for i, cell := range cells {
		if isNullCell(cell) {
			c.nulls[i] = true
			nums[i] = math.NaN()
			continue
		}
		if !numeric {
			continue
		}
		f, ok := parseNumber(cell)
		if !ok {
			numeric = false
			continue
		}
		nums[i] = f
	}

	if numeric {
		c.Type = ColumnNumeric
		c.nums = nums
	}
	return c
}

// pick returns a new column holding the cells at the given row indices.
// The type is kept as-is rather than re-inferred.
func (c *Column) pick(rows []int) *Column {
	out := &Column{
		Name:  c.Name,
		Type:  c.Type,
		cells: make([]string, len(rows)),
		nulls: make([]bool, len(rows)),
	}
	if c.nums != nil {
		out.nums = make([]float64, len(rows))
	}
	for i, r := range rows {
		out.cells[i] = c.cells[r]
		out.nulls[i] = c.nulls[r]
		if c.nums != nil {
			out.nums[i] = c.nums[r]
		}
	}
	return out
}

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.cells) }

// Cell returns the original text of row i.
func (c *Column) Cell(i int) string { return c.cells[i] }

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool { return c.nulls[i] }

// Float returns the numeric value of row i.
// ok is false for text columns and null cells.
func (c *Column) Float(i int) (float64, bool) {
	if c.nums == nil || c.nulls[i] {
		return 0, false
	}
	return c.nums[i], true
}

// Floats returns the non-null numeric values in row order.
func (c *Column) Floats() []float64 {
	if c.nums == nil {
		return nil
	}
	out := make([]float64, 0, len(c.nums))
	for i, v := range c.nums {
		if !c.nulls[i] {
			out = append(out, v)
		}
	}
	return out
}

// NullCount returns the number of missing cells.
func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.nulls {
		if null {
			n++
		}
	}
	return n
}

// Bounds returns the observed minimum and maximum of a numeric column.
// ok is false when the column is textual or holds no values.
func (c *Column) Bounds() (min, max float64, ok bool) {
	vals := c.Floats()
	if len(vals) == 0 {
		return 0, 0, false
	}
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max, true
}

// Distinct returns the distinct non-null values in order of first appearance.
// Numeric values are compared by value, so "40" and "40.0" count once.
// A limit <= 0 returns every value.
func (c *Column) Distinct(limit int) []string {
	var out []string
	seenText := make(map[string]bool)
	seenNum := make(map[float64]bool)

	for i, cell := range c.cells {
		if c.nulls[i] {
			continue
		}
		if c.nums != nil {
			if seenNum[c.nums[i]] {
				continue
			}
			seenNum[c.nums[i]] = true
		} else {
			if seenText[cell] {
				continue
			}
			seenText[cell] = true
		}
		out = append(out, cell)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Table is an ordered set of uniquely named columns of equal length.
// A table remembers its row count even when it has no columns, so a
// zero-column projection still reports how many rows it was built from.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int

	fpOnce sync.Once
	fp     string
}

// NewTable builds a table from a header and data rows.
// Header names must be unique; every row must have exactly len(header) cells.
func NewTable(header []string, rows [][]string) (*Table, error) {
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("row %d has %d cells, expected %d", i+1, len(row), len(header))
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		cells := make([]string, len(rows))
		for i, row := range rows {
			cells[i] = row[j]
		}
		cols[j] = newColumn(name, cells)
	}
	return newTable(cols, len(rows))
}

func newTable(cols []*Column, rows int) (*Table, error) {
	t := &Table{
		columns: cols,
		index:   make(map[string]int, len(cols)),
		rows:    rows,
	}
	for i, c := range cols {
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		if c.Len() != rows {
			return nil, fmt.Errorf("column %q has %d cells, expected %d", c.Name, c.Len(), rows)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.columns) }

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Descriptors returns the (name, type) pair of every column.
func (t *Table) Descriptors() []ColumnDescriptor {
	out := make([]ColumnDescriptor, len(t.columns))
	for i, c := range t.columns {
		out[i] = ColumnDescriptor{Name: c.Name, Type: c.Type}
	}
	return out
}

// NumericColumns returns the names of numeric columns in order.
func (t *Table) NumericColumns() []string {
	var out []string
	for _, c := range t.columns {
		if c.Type == ColumnNumeric {
			out = append(out, c.Name)
		}
	}
	return out
}

// TextColumns returns the names of textual columns in order.
func (t *Table) TextColumns() []string {
	var out []string
	for _, c := range t.columns {
		if c.Type == ColumnText {
			out = append(out, c.Name)
		}
	}
	return out
}

// Row returns the original text of row i across all columns.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.cells[i]
	}
	return row
}

// Records returns every row as original text, without the header.
func (t *Table) Records() [][]string {
	out := make([][]string, t.rows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// selectRows returns a new table holding the given rows of every column.
func (t *Table) selectRows(rows []int) *Table {
	cols := make([]*Column, len(t.columns))
	for i, c := range t.columns {
		cols[i] = c.pick(rows)
	}
	out, _ := newTable(cols, len(rows))
	return out
}

// Equal reports whether two tables have the same columns, types and cells.
func (t *Table) Equal(o *Table) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil || t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for i, c := range t.columns {
		oc := o.columns[i]
		if c.Name != oc.Name || c.Type != oc.Type {
			return false
		}
		for r := range c.cells {
			if c.cells[r] != oc.cells[r] {
				return false
			}
		}
	}
	return true
}

// Fingerprint returns a content hash of the table, used as the export cache key.
// Equal tables have equal fingerprints.
func (t *Table) Fingerprint() string {
	t.fpOnce.Do(func() {
		h := sha256.New()
		var buf [8]byte
		writeString := func(s string) {
			binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
			h.Write(buf[:])
			h.Write([]byte(s))
		}

		binary.LittleEndian.PutUint64(buf[:], uint64(t.rows))
		h.Write(buf[:])
		for _, c := range t.columns {
			writeString(c.Name)
			writeString(c.Type.String())
			for _, cell := range c.cells {
				writeString(cell)
			}
		}
		t.fp = hex.EncodeToString(h.Sum(nil))
	})
	return t.fp
}
