package steps

import (
	"fmt"
	"strings"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

type eventQueueContext struct {
	queue       *event.Queue
	clock       *shared.MockClock
	baseTime    time.Time
	readyOrder  []string
	subscribers []string
	recorded    bool
	lastEvent   event.Event
}

func (c *eventQueueContext) reset() {
	c.queue = event.NewQueue(func(ev event.Event, r interface{}) {})
	c.clock = shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c.baseTime = c.clock.Now()
	c.readyOrder = nil
	c.recorded = false
}

func (c *eventQueueContext) anEmptyEventQueue() error {
	c.reset()
	return nil
}

func (c *eventQueueContext) aDeferredShipEventScheduledSecondsFromNow(name string, seconds int) error {
	ev := c.queue.NewEvent(event.TypeShip, name, "ALPHA-1")
	c.queue.Schedule(c.baseTime.Add(time.Duration(seconds)*time.Second), ev)
	return nil
}

func (c *eventQueueContext) aBatchOfShipEventsScheduledAtTheSameInstant(names string) error {
	when := c.baseTime.Add(5 * time.Second)
	var batch []event.Event
	for _, name := range strings.Split(names, ",") {
		batch = append(batch, c.queue.NewEvent(event.TypeShip, name, "ALPHA-1"))
	}
	c.queue.ScheduleBatch(when, batch)
	return nil
}

func (c *eventQueueContext) theClockAdvancesSecondsAndScheduledEventsArePromoted(seconds int) error {
	c.clock.Advance(time.Duration(seconds) * time.Second)
	c.queue.UpdateScheduled(c.clock.Now())
	for {
		ev, err := c.queue.Get(10 * time.Millisecond)
		if err != nil {
			break
		}
		c.readyOrder = append(c.readyOrder, ev.Name)
	}
	return nil
}

func (c *eventQueueContext) theClockAdvancesPastThatInstantAndScheduledEventsArePromoted() error {
	return c.theClockAdvancesSecondsAndScheduledEventsArePromoted(6)
}

func (c *eventQueueContext) theReadyQueueYieldsBefore(first, second string) error {
	return c.assertOrder(first, second)
}

func (c *eventQueueContext) theReadyQueueYieldsThenThen(first, second, third string) error {
	if err := c.assertOrder(first, second); err != nil {
		return err
	}
	return c.assertOrder(second, third)
}

func (c *eventQueueContext) assertOrder(first, second string) error {
	firstIdx, secondIdx := -1, -1
	for i, name := range c.readyOrder {
		if name == first && firstIdx == -1 {
			firstIdx = i
		}
		if name == second && secondIdx == -1 {
			secondIdx = i
		}
	}
	if firstIdx == -1 || secondIdx == -1 {
		return fmt.Errorf("expected both %q and %q in ready order %v", first, second, c.readyOrder)
	}
	if firstIdx >= secondIdx {
		return fmt.Errorf("expected %q before %q, got order %v", first, second, c.readyOrder)
	}
	return nil
}

func (c *eventQueueContext) aSubscriberOnShipNavigateThatAlwaysPanics() error {
	c.queue.Subscribe(event.TypeShip, "navigate", func(ev event.Event) {
		panic("boom")
	})
	return nil
}

func (c *eventQueueContext) aSubscriberOnShipNavigateThatRecordsCompletion() error {
	c.queue.Subscribe(event.TypeShip, "navigate", func(ev event.Event) {
		c.recorded = true
	})
	return nil
}

func (c *eventQueueContext) aShipNavigateEventIsPutAndMarkedDoneWithResult(result string) error {
	ev := c.queue.PutNew(event.TypeShip, "navigate", "ALPHA-1")
	c.lastEvent = ev
	var r event.Result
	switch result {
	case "SUCCESS":
		r = event.SUCCESS
	case "FAIL":
		r = event.FAIL
	default:
		return fmt.Errorf("unsupported result %q", result)
	}
	c.queue.EventDone(ev, r)
	return nil
}

func (c *eventQueueContext) theRecordingSubscriberObservedTheCompletion() error {
	if !c.recorded {
		return fmt.Errorf("expected the recording subscriber to have run despite the panicking one")
	}
	return nil
}

// InitializeEventQueueScenario registers the EventQueue feature's steps.
func InitializeEventQueueScenario(sc *godog.ScenarioContext) {
	ctx := &eventQueueContext{}

	sc.Step(`^an empty event queue$`, ctx.anEmptyEventQueue)
	sc.Step(`^a deferred SHIP (\w+) event scheduled (\d+) seconds? from now$`, ctx.aDeferredShipEventScheduledSecondsFromNow)
	sc.Step(`^a batch of SHIP events "([^"]*)" scheduled at the same instant$`, ctx.aBatchOfShipEventsScheduledAtTheSameInstant)
	sc.Step(`^the clock advances (\d+) seconds? and scheduled events are promoted$`, ctx.theClockAdvancesSecondsAndScheduledEventsArePromoted)
	sc.Step(`^the clock advances past that instant and scheduled events are promoted$`, ctx.theClockAdvancesPastThatInstantAndScheduledEventsArePromoted)
	sc.Step(`^the ready queue yields "([^"]*)" before "([^"]*)"$`, ctx.theReadyQueueYieldsBefore)
	sc.Step(`^the ready queue yields "([^"]*)" then "([^"]*)" then "([^"]*)"$`, ctx.theReadyQueueYieldsThenThen)
	sc.Step(`^a subscriber on SHIP navigate that always panics$`, ctx.aSubscriberOnShipNavigateThatAlwaysPanics)
	sc.Step(`^a subscriber on SHIP navigate that records completion$`, ctx.aSubscriberOnShipNavigateThatRecordsCompletion)
	sc.Step(`^a SHIP navigate event is put and marked done with result (\w+)$`, ctx.aShipNavigateEventIsPutAndMarkedDoneWithResult)
	sc.Step(`^the recording subscriber observed the completion$`, ctx.theRecordingSubscriberObservedTheCompletion)
}
