package steps

import (
	"context"
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/application/worker"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

const workerTestPace = 50 * time.Millisecond

type workerContext struct {
	queue      *event.Queue
	clock      *shared.MockClock
	reg        *registry.Registry
	params     *globalparams.Params
	w          *worker.Worker
	handlerRuns int
	clockBefore time.Time
	clockAfter  time.Time
}

func (c *workerContext) reset() {
	c.queue = event.NewQueue(func(ev event.Event, r interface{}) {})
	c.clock = shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c.reg = registry.New()
	c.params = globalparams.New(c.queue, gamestate.New("test-token"), nil, nil, c.clock)
	c.w = worker.New(c.params, c.reg, worker.Config{EmptyQueuePoll: 20 * time.Millisecond, PostSuccessPace: workerTestPace})
	c.handlerRuns = 0
}

func (c *workerContext) aWorkerWithAHandlerThatAlwaysReturns(result string) error {
	c.reset()
	var r event.Result
	switch result {
	case "SUCCESS":
		r = event.SUCCESS
	case "SKIP":
		r = event.SKIP
	default:
		return fmt.Errorf("unsupported result %q", result)
	}
	c.reg.Register(event.TypeShip, "dock", func(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
		c.handlerRuns++
		return r, nil
	})
	return nil
}

func (c *workerContext) aWorkerWithNoHandlersRegistered() error {
	c.reset()
	return nil
}

func (c *workerContext) aShipDockEventIsEnqueued() error {
	c.queue.PutNew(event.TypeShip, "dock", "ALPHA-1")
	c.queue.PutNew(event.TypeDefault, "exit")
	return nil
}

func (c *workerContext) aDefaultExitEventIsEnqueued() error {
	c.queue.PutNew(event.TypeDefault, "exit")
	return nil
}

func (c *workerContext) theWorkerProcessesOneEvent() error {
	c.clockBefore = c.clock.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.w.Run(ctx)
	c.clockAfter = c.clock.Now()
	return nil
}

func (c *workerContext) theWorkerRunsUntilItStopsOnItsOwn() error {
	return c.theWorkerProcessesOneEvent()
}

func (c *workerContext) theHandlerRanExactlyTimes(n int) error {
	if c.handlerRuns != n {
		return fmt.Errorf("expected handler to run %d time(s), ran %d", n, c.handlerRuns)
	}
	return nil
}

func (c *workerContext) theWorkerPacedAfterTheDispatch() error {
	if !c.clockAfter.After(c.clockBefore) {
		return fmt.Errorf("expected the clock to advance by the pacing duration, stayed at %v", c.clockBefore)
	}
	return nil
}

func (c *workerContext) theWorkerDidNotPaceAfterTheDispatch() error {
	if c.clockAfter.After(c.clockBefore) {
		return fmt.Errorf("expected no pacing sleep, but clock advanced from %v to %v", c.clockBefore, c.clockAfter)
	}
	return nil
}

// InitializeWorkerScenario registers the Worker feature's steps.
func InitializeWorkerScenario(sc *godog.ScenarioContext) {
	ctx := &workerContext{}

	sc.Step(`^a worker with a handler that always returns (\w+)$`, ctx.aWorkerWithAHandlerThatAlwaysReturns)
	sc.Step(`^a worker with no handlers registered$`, ctx.aWorkerWithNoHandlersRegistered)
	sc.Step(`^a SHIP dock event is enqueued$`, ctx.aShipDockEventIsEnqueued)
	sc.Step(`^a DEFAULT exit event is enqueued$`, ctx.aDefaultExitEventIsEnqueued)
	sc.Step(`^the worker processes one event$`, ctx.theWorkerProcessesOneEvent)
	sc.Step(`^the worker runs until it stops on its own$`, ctx.theWorkerRunsUntilItStopsOnItsOwn)
	sc.Step(`^the handler ran exactly (\d+) times?$`, ctx.theHandlerRanExactlyTimes)
	sc.Step(`^the worker paced after the dispatch$`, ctx.theWorkerPacedAfterTheDispatch)
	sc.Step(`^the worker did not pace after the dispatch$`, ctx.theWorkerDidNotPaceAfterTheDispatch)
}
