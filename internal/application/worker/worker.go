// Package worker runs the single cooperative consumer that drains the
// EventQueue, dispatches each event through the HandlerRegistry, and paces
// outgoing remote calls to stay under the API's rate limit.
package worker

import (
	"context"
	"time"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/infrastructure/logging"
	"github.com/andrescamacho/spacetraders-go/pkg/utils"
)

// Config holds the worker's two timing constants.
type Config struct {
	// EmptyQueuePoll is how long Get blocks before the worker re-checks the
	// deferred heap (T_empty, spec default 0.6s).
	EmptyQueuePoll time.Duration
	// PostSuccessPace is the sleep after a SUCCESS dispatch to cap the
	// outgoing request rate (T_pace, spec default 0.55s).
	PostSuccessPace time.Duration
}

// DefaultConfig returns the spec's named defaults.
func DefaultConfig() Config {
	return Config{
		EmptyQueuePoll:  600 * time.Millisecond,
		PostSuccessPace: 550 * time.Millisecond,
	}
}

// Worker is the single-process event consumer.
type Worker struct {
	params   *globalparams.Params
	registry *registry.Registry
	cfg      Config
}

// New builds a Worker over params and registry with cfg timing.
func New(params *globalparams.Params, reg *registry.Registry, cfg Config) *Worker {
	return &Worker{params: params, registry: reg, cfg: cfg}
}

// Run blocks the calling goroutine, consuming events until ctx is canceled
// or a DEFAULT.exit event is dispatched.
func (w *Worker) Run(ctx context.Context) {
	logger := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		w.params.Queue.UpdateScheduled(w.params.Clock.Now())

		ev, err := w.params.Queue.Get(w.cfg.EmptyQueuePoll)
		if err != nil {
			continue
		}

		if ev.Type == event.TypeDefault && ev.Name == "exit" {
			return
		}

		result, derr := w.registry.Dispatch(ctx, w.params, ev)
		if derr != nil {
			fields := map[string]interface{}{"type": ev.Type, "name": ev.Name, "id": ev.ID, "error": derr.Error()}
			if ev.Type == event.TypeShip && len(ev.Args) > 0 {
				if shipSymbol, ok := ev.Args[0].(string); ok {
					fields["trace"] = utils.GenerateContainerID(ev.Name, shipSymbol)
				}
			}
			logger.Error("handler error", fields)
		}

		switch result {
		case event.SKIP:
			// No notification, no pacing delay: the action consumed no
			// remote request.
		case event.FAIL:
			w.params.Queue.EventDone(ev, event.FAIL)
		case event.INSTANT:
			w.params.Queue.EventDone(ev, event.SUCCESS)
		default: // event.SUCCESS
			w.params.Queue.EventDone(ev, event.SUCCESS)
			w.params.Clock.Sleep(w.cfg.PostSuccessPace)
		}
	}
}
