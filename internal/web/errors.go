package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError to a coded message rendered as JSON, an HTMX
// fragment or plain text depending on the client.

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/explorer/internal/core"
	"github.com/JonMunkholm/explorer/internal/web/templates"
)

var (
	errNoFile      = errors.New("no file provided")
	errRateLimited = errors.New("rate limit exceeded")
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Warning bool   `json:"warning,omitempty"`
}

// statusFor picks the HTTP status for an error from the core pipeline.
func statusFor(err error) int {
	var (
		perr *core.ParseError
		serr *core.SchemaError
		merr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrFileTooLarge), errors.As(err, &merr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrDatasetNotFound), errors.Is(err, core.ErrUnknownDemo):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyParses):
		return http.StatusServiceUnavailable
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &perr), errors.As(err, &serr),
		errors.Is(err, core.ErrInvalidRange), errors.Is(err, core.ErrInvalidBins),
		errors.Is(err, core.ErrInvalidParam), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// fail responds to err with the status statusFor picks.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	respondError(w, r, err, statusFor(err))
}

// respondError handles error responses with user-friendly messages.
// It logs the technical error server-side and returns an appropriate response
// based on the request type (HTMX, JSON, or plain text).
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	level := slog.LevelError
	if statusCode < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	switch {
	case isHTMX(r):
		renderErrorPartial(w, r, userMsg, statusCode)
	case wantsJSON(r):
		respondErrorJSON(w, userMsg, statusCode, core.IsWarning(err))
	default:
		respondErrorText(w, userMsg, statusCode)
	}
}

// respondErrorJSON writes a JSON error response.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int, warning bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Warning: warning,
	}); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// respondErrorText writes a plain text error response.
func respondErrorText(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	http.Error(w, msg.Message+" ("+msg.Code+")", statusCode)
}

// renderErrorPartial renders an HTMX-compatible error fragment.
func renderErrorPartial(w http.ResponseWriter, r *http.Request, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := templates.ErrorAlert(msg.Message, msg.Action, msg.Code).Render(r.Context(), w); err != nil {
		slog.Error("render error partial", "error", err)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	// API routes default to JSON
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// userMessage maps err for rendering inside a page.
func userMessage(err error) *core.UserMessage {
	msg := core.MapError(err)
	return &msg
}
