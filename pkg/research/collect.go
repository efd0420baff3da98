package research

import (
	"context"
	"errors"
)

// Collect drains events, calling onProgress for each progress event, and
// returns the terminal result. An error event is returned as an error whose
// text is the sanitized message. A stream that ends without a terminal event
// yields context.Canceled.
func Collect(events <-chan Event, onProgress func(Progress)) (Result, error) {
	for ev := range events {
		switch ev.Type {
		case EventProgress:
			if onProgress != nil && ev.Progress != nil {
				onProgress(*ev.Progress)
			}
		case EventComplete:
			if ev.Result == nil {
				return Result{}, errors.New(msgUnexpected)
			}
			return *ev.Result, nil
		case EventError:
			return Result{}, errors.New(ev.Message)
		}
	}
	return Result{}, context.Canceled
}
