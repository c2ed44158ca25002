// Package registry dispatches a completed event to the handler registered
// for its (type, name) pair.
package registry

import (
	"context"
	"fmt"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
)

// Handler performs one action for an event. A nil error and event.SUCCESS
// zero value both mean "succeeded"; returning (event.Result(0), nil) is
// coerced to event.SUCCESS by Dispatch, matching the "a None return is
// coerced to SUCCESS" rule.
type Handler func(ctx context.Context, params *globalparams.Params, ev event.Event) (event.Result, error)

// Registry is a two-level map keyed by event type then event name.
type Registry struct {
	handlers map[event.Type]map[string]Handler
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{handlers: make(map[event.Type]map[string]Handler)}
}

// Register wires a handler for (t, name). Re-registering the same key
// replaces the previous handler.
func (r *Registry) Register(t event.Type, name string, h Handler) {
	if r.handlers[t] == nil {
		r.handlers[t] = make(map[string]Handler)
	}
	r.handlers[t][name] = h
}

// ErrNoHandler is returned by Dispatch when no handler is registered for an
// event's (type, name). The worker treats this as FAIL per spec.
var ErrNoHandler = fmt.Errorf("registry: no handler registered")

// Dispatch looks up and invokes the handler for ev, recovering any panic
// and converting it to a FAIL result rather than propagating it, and
// coercing a zero-value result to SUCCESS.
func (r *Registry) Dispatch(ctx context.Context, params *globalparams.Params, ev event.Event) (result event.Result, err error) {
	byName, ok := r.handlers[ev.Type]
	if !ok {
		return event.FAIL, fmt.Errorf("%w: type=%s name=%s", ErrNoHandler, ev.Type, ev.Name)
	}
	h, ok := byName[ev.Name]
	if !ok {
		return event.FAIL, fmt.Errorf("%w: type=%s name=%s", ErrNoHandler, ev.Type, ev.Name)
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = event.FAIL
			err = fmt.Errorf("registry: handler panic for %s.%s: %v", ev.Type, ev.Name, rec)
		}
	}()

	res, herr := h(ctx, params, ev)
	if herr != nil {
		return event.FAIL, herr
	}
	if res == 0 {
		return event.SUCCESS, nil
	}
	return res, nil
}
