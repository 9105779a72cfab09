package core

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a cell is a plain decimal or scientific number.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// nullTokens are the cell values read as missing. Matching is exact, so
// " NA" with a leading space is a regular string.
var nullTokens = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"n/a":  true,
	"#N/A": true,
	"NULL": true,
	"null": true,
	"NaN":  true,
	"nan":  true,
	"None": true,
	"<NA>": true,
}

func isNullCell(s string) bool {
	return nullTokens[s]
}

// parseNumber parses a cell as a float64.
// Surrounding whitespace is ignored; thousands separators and currency
// symbols are not accepted, so "1,000" stays text.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
