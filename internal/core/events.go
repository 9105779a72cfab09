package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventAction names what happened in a run.
type EventAction string

const (
	ActionLoad        EventAction = "load"
	ActionLoadFailed  EventAction = "load_failed"
	ActionNoData      EventAction = "no_data"
	ActionFilter      EventAction = "filter"
	ActionExport      EventAction = "export"
	ActionSelectReset EventAction = "selection_reset"
)

// EventLevel is the severity written to the event log.
type EventLevel string

const (
	LevelInfo    EventLevel = "INFO"
	LevelWarning EventLevel = "WARNING"
	LevelError   EventLevel = "ERROR"
)

// levelFor returns the level an action is logged at.
func levelFor(action EventAction) EventLevel {
	switch action {
	case ActionLoadFailed:
		return LevelError
	case ActionNoData, ActionSelectReset:
		return LevelWarning
	default:
		return LevelInfo
	}
}

// Event is one entry of the append-only event log.
type Event struct {
	ID        string      `json:"id"`
	Action    EventAction `json:"action"`
	Level     EventLevel  `json:"level"`
	Message   string      `json:"message"`
	DatasetID string      `json:"datasetId,omitempty"`
	Source    string      `json:"source,omitempty"`
	Rows      int         `json:"rows,omitempty"`
	IPAddress string      `json:"ipAddress,omitempty"`
	UserAgent string      `json:"userAgent,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// EventRecorder persists events. Implementations must be safe for concurrent use.
type EventRecorder interface {
	Record(ctx context.Context, e Event) error
}

// NopRecorder discards every event.
type NopRecorder struct{}

// Record implements EventRecorder.
func (NopRecorder) Record(context.Context, Event) error { return nil }

// newEvent stamps an event with an ID, time, level and the request's client info.
func newEvent(ctx context.Context, action EventAction, message string) Event {
	c := ClientFromContext(ctx)
	return Event{
		ID:        uuid.New().String(),
		Action:    action,
		Level:     levelFor(action),
		Message:   message,
		IPAddress: c.IP,
		UserAgent: c.UserAgent,
		CreatedAt: time.Now().UTC(),
	}
}
