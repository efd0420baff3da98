package research

import (
	"context"
	"errors"
	"fmt"
)

var errStreamClosed = errors.New("event stream already terminated")

// emitter is the single writer of a request's event stream. It enforces the
// step ordering and the at-most-one terminal event rule. It is owned by the
// coordinating goroutine and is not safe for concurrent use.
type emitter struct {
	ctx  context.Context
	out  chan Event
	last *Progress
	done bool
}

func newEmitter(ctx context.Context, buffer int) *emitter {
	if buffer < 0 {
		buffer = 0
	}
	return &emitter{ctx: ctx, out: make(chan Event, buffer)}
}

func (e *emitter) events() <-chan Event {
	return e.out
}

// progress publishes p after checking it does not move the stream backwards.
func (e *emitter) progress(p Progress) error {
	if err := e.checkOrder(p); err != nil {
		return err
	}
	if err := e.send(Event{Type: EventProgress, Progress: &p}); err != nil {
		return err
	}
	e.last = &p
	return nil
}

func (e *emitter) checkOrder(p Progress) error {
	if p.Step.Order() == 0 {
		return Errorf(KindInternal, "unknown progress step %q", p.Step)
	}
	if e.last == nil {
		return nil
	}
	prev, next := e.last.Step.Order(), p.Step.Order()
	switch {
	case next > prev:
		return nil
	case next < prev:
		return Errorf(KindInternal, "progress step %q after %q", p.Step, e.last.Step)
	case !p.Step.Repeatable():
		return Errorf(KindInternal, "progress step %q repeated", p.Step)
	}
	if p.Current == nil || e.last.Current == nil || *p.Current <= *e.last.Current {
		return Errorf(KindInternal, "progress step %q repeated without advancing", p.Step)
	}
	if p.Total == nil || e.last.Total == nil || *p.Total != *e.last.Total {
		return Errorf(KindInternal, "progress step %q changed its total", p.Step)
	}
	return nil
}

func (e *emitter) complete(r Result) error {
	err := e.send(Event{Type: EventComplete, Result: &r})
	e.done = true
	return err
}

func (e *emitter) fail(message string) error {
	err := e.send(Event{Type: EventError, Message: message})
	e.done = true
	return err
}

// send blocks until the consumer takes ev or the request is cancelled. Once
// cancelled nothing else is published.
func (e *emitter) send(ev Event) error {
	if e.done {
		return errStreamClosed
	}
	if err := e.ctx.Err(); err != nil {
		return err
	}
	select {
	case e.out <- ev:
		return nil
	case <-e.ctx.Done():
		return fmt.Errorf("publish %s event: %w", ev.Type, e.ctx.Err())
	}
}

func (e *emitter) close() {
	close(e.out)
}
