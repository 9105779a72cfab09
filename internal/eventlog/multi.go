package eventlog

import (
	"context"
	"errors"

	"github.com/JonMunkholm/explorer/internal/core"
)

// Multi records every event to each recorder in order. A failing recorder
// does not stop the others; their errors are joined.
type Multi []core.EventRecorder

// Record implements core.EventRecorder.
func (m Multi) Record(ctx context.Context, e core.Event) error {
	var errs []error
	for _, r := range m {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
