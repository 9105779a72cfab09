package core

// error_messages.go maps technical errors to coded messages users can act on.
//
// Codes by category:
//
//	FILE001  file larger than the upload limit
//	FILE002  malformed CSV or workbook (quotes, ragged rows)
//	FILE003  text that is not valid UTF-8
//	FILE004  no file in the request
//	FILE005  file with no header row
//	DATA001  neither an upload nor the demo dataset
//	DATA002  unknown demo dataset
//	SCH001   selection names a column the data does not have
//	VAL001   numeric range with low > high
//	VAL002   histogram bin count out of range
//	VAL003   parameter out of range or of the wrong type
//	DS001    dataset ID unknown or evicted from the cache
//	UPL002   every parse slot busy
//	UPL004   request cancelled
//	UPL005   request timed out
//	RATE001  too many requests
//	EVT001   event store unreachable
//	EVT002   event history requested without an event store
//	ERR000   anything else; check the logs for the technical error
//
// Typed errors are matched first with errors.Is / errors.As. Errors that only
// carry text (from the standard library or drivers) fall back to
// case-insensitive substring patterns; the first match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Upload a smaller file or remove unused columns",
		Code:    "FILE001",
	}
	msgInvalidCSV = UserMessage{
		Message: "File is not a valid CSV",
		Action:  "Ensure the file is comma-separated with a header row and consistent columns",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a CSV file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a CSV file with a header row",
		Code:    "FILE005",
	}
	msgNoData = UserMessage{
		Message: "No data loaded",
		Action:  "Upload a CSV file or tick \"Use demo dataset\"",
		Code:    "DATA001",
	}
	msgUnknownDemo = UserMessage{
		Message: "Demo dataset not found",
		Action:  "Pick one of the listed demo datasets",
		Code:    "DATA002",
	}
	msgSchema = UserMessage{
		Message: "Selected column is not in the data",
		Action:  "Pick columns from the current file",
		Code:    "SCH001",
	}
	msgInvalidRange = UserMessage{
		Message: "Range minimum is greater than its maximum",
		Action:  "Swap the bounds or widen the range",
		Code:    "VAL001",
	}
	msgInvalidBins = UserMessage{
		Message: fmt.Sprintf("Bin count must be between %d and %d", MinBins, MaxBins),
		Action:  "Choose a bin count within the allowed range",
		Code:    "VAL002",
	}
	msgInvalidParam = UserMessage{
		Message: "A parameter is invalid",
		Action:  "Check the selected columns and values",
		Code:    "VAL003",
	}
	msgDatasetNotFound = UserMessage{
		Message: "Dataset is no longer loaded",
		Action:  "Upload the file again",
		Code:    "DS001",
	}
	msgBusy = UserMessage{
		Message: "System is busy processing other files",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
)

// typedErrors are checked in order with errors.Is.
var typedErrors = []struct {
	target error
	msg    UserMessage
}{
	{ErrNoData, msgNoData},
	{ErrUnknownDemo, msgUnknownDemo},
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrDatasetNotFound, msgDatasetNotFound},
	{ErrTooManyParses, msgBusy},
	{ErrInvalidRange, msgInvalidRange},
	{ErrInvalidBins, msgInvalidBins},
	{ErrInvalidParam, msgInvalidParam},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that reach MapError as plain text.
var errorPatterns = []errorPattern{
	{pattern: "no file provided", msg: msgNoFile},
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "request body too large", msg: msgFileTooLarge},
	{pattern: "invalid csv", msg: msgInvalidCSV},
	{pattern: "encoding error", msg: msgEncoding},
	{pattern: "empty file", msg: msgEmptyFile},
	{pattern: "column not found", msg: msgSchema},
	{pattern: "context canceled", msg: msgCancelled},
	{pattern: "context deadline exceeded", msg: msgTimeout},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "event store not configured",
		msg: UserMessage{
			Message: "Event history is not enabled",
			Action:  "Set DATABASE_URL to keep a queryable event history",
			Code:    "EVT002",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to reach the event store",
			Action:  "Please try again in a few moments",
			Code:    "EVT001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var perr *ParseError
	if errors.As(err, &perr) {
		switch perr.Kind {
		case ParseEncoding:
			return msgEncoding
		case ParseEmpty:
			return msgEmptyFile
		default:
			return msgInvalidCSV
		}
	}

	var serr *SchemaError
	if errors.As(err, &serr) {
		msg := msgSchema
		msg.Message = fmt.Sprintf("Column %q is not in the data", serr.Column)
		return msg
	}

	for _, te := range typedErrors {
		if errors.Is(err, te.target) {
			return te.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// IsWarning reports whether err is an expected halt the user can fix, shown
// as a warning rather than an error.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNoData)
}
