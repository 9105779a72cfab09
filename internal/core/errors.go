package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData halts a run when there is neither an upload nor the demo flag.
// It is a warning for the user, not a failure of the service.
var ErrNoData = errors.New("no data loaded: upload a CSV file or enable the demo dataset")

// ErrDatasetNotFound is returned for an unknown or evicted dataset ID.
var ErrDatasetNotFound = errors.New("dataset not found")

// ErrUnknownDemo is returned when a demo dataset name is not bundled.
var ErrUnknownDemo = errors.New("unknown demo dataset")

// ErrInvalidRange is returned when a numeric filter has low > high.
var ErrInvalidRange = errors.New("invalid range")

// ErrInvalidParam is returned for out-of-range or ill-typed parameters.
var ErrInvalidParam = errors.New("invalid parameter")

// ErrFileTooLarge is returned when an upload exceeds the configured size limit.
var ErrFileTooLarge = errors.New("file too large")

// ParseErrorKind classifies why input could not be read as a table.
type ParseErrorKind int

const (
	ParseMalformed ParseErrorKind = iota
	ParseEncoding
	ParseEmpty
)

// ParseError reports malformed or unreadable tabular content.
// The run that hit it halts; no partial table is produced.
type ParseError struct {
	Kind   ParseErrorKind
	Source string // file name, when known
	Line   int    // 1-based input line, 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case ParseEncoding:
		b.WriteString("encoding error")
	case ParseEmpty:
		b.WriteString("empty file")
	default:
		b.WriteString("invalid csv")
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a selection naming a column absent from the current table.
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("column not found: %q (available: %s)", e.Column, strings.Join(e.Available, ", "))
}

func missingColumn(t *Table, name string) *SchemaError {
	return &SchemaError{Column: name, Available: t.ColumnNames()}
}

// TypeError reports an operation applied to a column of the wrong type.
// It matches ErrInvalidParam under errors.Is.
type TypeError struct {
	Column string
	Want   ColumnType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("column %q is not %s", e.Column, e.Want)
}

func (e *TypeError) Is(target error) bool { return target == ErrInvalidParam }
