package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"no data", ErrNoData, "DATA001"},
		{"wrapped no data", fmt.Errorf("run: %w", ErrNoData), "DATA001"},
		{"unknown demo", fmt.Errorf("%w: %q", ErrUnknownDemo, "x"), "DATA002"},
		{"malformed csv", &ParseError{Line: 3, Err: errors.New("bare quote")}, "FILE002"},
		{"encoding", &ParseError{Kind: ParseEncoding}, "FILE003"},
		{"empty file", &ParseError{Kind: ParseEmpty}, "FILE005"},
		{"wrapped parse error", fmt.Errorf("load: %w", &ParseError{Kind: ParseEmpty}), "FILE005"},
		{"file too large", fmt.Errorf("%w: 10 bytes", ErrFileTooLarge), "FILE001"},
		{"schema", &SchemaError{Column: "Age"}, "SCH001"},
		{"invalid range", fmt.Errorf("%w: 5 > 1", ErrInvalidRange), "VAL001"},
		{"invalid bins", fmt.Errorf("%w: 2", ErrInvalidBins), "VAL002"},
		{"type error", &TypeError{Column: "Nom", Want: ColumnNumeric}, "VAL003"},
		{"dataset evicted", fmt.Errorf("%w: abc", ErrDatasetNotFound), "DS001"},
		{"busy", ErrTooManyParses, "UPL002"},
		{"cancelled", context.Canceled, "UPL004"},
		{"deadline", fmt.Errorf("parse: %w", context.DeadlineExceeded), "UPL005"},
		{"text pattern", errors.New("no file provided"), "FILE004"},
		{"rate limit pattern", errors.New("Rate Limit exceeded"), "RATE001"},
		{"event store down", errors.New("dial tcp 127.0.0.1:5432: connection refused"), "EVT001"},
		{"unknown falls back", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
			if tt.err != nil && got.Message == "" {
				t.Errorf("MapError(%v).Message is empty", tt.err)
			}
		})
	}
}

func TestMapError_SchemaNamesColumn(t *testing.T) {
	got := MapError(&SchemaError{Column: "Âge", Available: []string{"Nom"}})
	want := `Column "Âge" is not in the data`
	if got.Message != want {
		t.Errorf("Message = %q, want %q", got.Message, want)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNoData)
	want := `No data loaded (Code: DATA001). Upload a CSV file or tick "Use demo dataset"`
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true, want false")
	}
	if !IsUserFacing(ErrInvalidRange) {
		t.Error("IsUserFacing(ErrInvalidRange) = false, want true")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("IsUserFacing(unknown) = true, want false")
	}
}

func TestIsWarning(t *testing.T) {
	if !IsWarning(fmt.Errorf("x: %w", ErrNoData)) {
		t.Error("IsWarning(ErrNoData) = false, want true")
	}
	if IsWarning(&ParseError{}) {
		t.Error("IsWarning(ParseError) = true, want false")
	}
}
