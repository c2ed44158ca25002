package steps

import (
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/strategy"
	"github.com/andrescamacho/spacetraders-go/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-go/internal/domain/ship"
)

const contractTestShip = "ALPHA-1"
const contractTestAsteroid = "X1-JOHN-B6"
const contractTestContractID = "contract-1"

type contractStrategyContext struct {
	params       *globalparams.Params
	clock        *shared.MockClock
	state        *gamestate.State
	strategy     *strategy.BaseContractStrategy
	extractEvent event.Event
	resource     string
	promoted     []event.Event
}

func (c *contractStrategyContext) aContractRequiringUnitsOfDeliveredTo(units int, resource, dest string) error {
	c.clock = shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c.state = gamestate.New("test-token")
	queue := event.NewQueue(func(ev event.Event, r interface{}) {})
	c.params = globalparams.New(queue, c.state, nil, nil, c.clock)
	c.resource = resource

	terms := contract.Terms{
		Deliveries: []contract.Delivery{
			{TradeSymbol: resource, DestinationSymbol: dest, UnitsRequired: units, UnitsFulfilled: 0},
		},
	}
	ct, err := contract.NewContract(contractTestContractID, shared.MustNewPlayerID(1), "FACTION", "PROCUREMENT", terms, c.clock)
	if err != nil {
		return err
	}
	c.state.Lock()
	c.state.SetContract(ct)
	c.state.Unlock()

	c.strategy = strategy.NewBaseContractStrategy(c.params, contractTestContractID, contractTestAsteroid)
	return nil
}

func (c *contractStrategyContext) aShipAtTheAsteroidDockedWithUnitsOfInAHold(units int, resource string, capacity int) error {
	item, err := shared.NewCargoItem(resource, resource, "", units)
	if err != nil {
		return err
	}
	cargo, err := shared.NewCargo(capacity, units, []*shared.CargoItem{item})
	if err != nil {
		return err
	}
	fuel, err := shared.NewFuel(100, 100)
	if err != nil {
		return err
	}
	sh := &ship.Ship{
		Symbol: contractTestShip,
		Nav: ship.Nav{
			SystemSymbol:   "X1-JOHN",
			WaypointSymbol: contractTestAsteroid,
			Status:         ship.NavDocked,
		},
		Fuel:  *fuel,
		Cargo: *cargo,
	}
	c.state.Lock()
	c.state.SetShip(sh)
	c.state.Unlock()

	c.strategy.AssignShip(contractTestShip)

	ev, err := c.params.Queue.Get(time.Second)
	if err != nil {
		return fmt.Errorf("expected an extract event to have been enqueued: %w", err)
	}
	if ev.Name != "extract" {
		return fmt.Errorf("expected an extract event, got %s.%s", ev.Type, ev.Name)
	}
	c.extractEvent = ev
	return nil
}

func (c *contractStrategyContext) theShipsExtractEventForCompletes(resource string) error {
	c.params.Queue.EventDone(c.extractEvent, event.SUCCESS)

	c.clock.Advance(10 * time.Second)
	c.params.Queue.UpdateScheduled(c.clock.Now())

	c.promoted = nil
	for {
		ev, err := c.params.Queue.Get(10 * time.Millisecond)
		if err != nil {
			break
		}
		c.promoted = append(c.promoted, ev)
	}
	return nil
}

func (c *contractStrategyContext) aNavigateEventToIsScheduledForTheShip(dest string) error {
	for _, ev := range c.promoted {
		if ev.Type == event.TypeShip && ev.Name == "navigate" {
			if len(ev.Args) < 2 {
				return fmt.Errorf("navigate event missing destination argument")
			}
			if ev.Args[1] != dest {
				return fmt.Errorf("expected navigate destination %q, got %v", dest, ev.Args[1])
			}
			return nil
		}
	}
	return fmt.Errorf("no navigate event found among promoted events: %+v", c.promoted)
}

func (c *contractStrategyContext) noNavigateEventToIsScheduledForTheShip(dest string) error {
	for _, ev := range c.promoted {
		if ev.Type == event.TypeShip && ev.Name == "navigate" {
			return fmt.Errorf("did not expect a navigate event, found one to %v", ev.Args)
		}
	}
	return nil
}

// theContractHasNoRemainingRequiredResources checks the strategy's own
// bookkeeping: the contract entity only changes when CONTRACT.deliver runs,
// but once no required units remain the delivery is flagged to fulfil the
// contract, so completing the delivery navigate schedules CONTRACT.fulfill.
func (c *contractStrategyContext) theContractHasNoRemainingRequiredResources() error {
	var nav *event.Event
	for i := range c.promoted {
		if c.promoted[i].Type == event.TypeShip && c.promoted[i].Name == "navigate" {
			nav = &c.promoted[i]
			break
		}
	}
	if nav == nil {
		return fmt.Errorf("no delivery navigate event found among promoted events: %+v", c.promoted)
	}
	c.params.Queue.EventDone(*nav, event.SUCCESS)
	c.clock.Advance(20 * time.Second)
	c.params.Queue.UpdateScheduled(c.clock.Now())
	for {
		ev, err := c.params.Queue.Get(10 * time.Millisecond)
		if err != nil {
			break
		}
		if ev.Type == event.TypeContract && ev.Name == "fulfill" && len(ev.Args) > 0 && ev.Args[0] == contractTestContractID {
			return nil
		}
	}
	return fmt.Errorf("expected no remaining %s requirement, so the delivery fulfils the contract; no CONTRACT fulfill was scheduled", c.resource)
}

func (c *contractStrategyContext) anotherExtractIsScheduledForTheShip() error {
	for _, ev := range c.promoted {
		if ev.Type == event.TypeShip && ev.Name == "extract" {
			return nil
		}
	}
	return fmt.Errorf("no extract event found among promoted events: %+v", c.promoted)
}

// InitializeContractStrategyScenario registers the contract strategy feature's steps.
func InitializeContractStrategyScenario(sc *godog.ScenarioContext) {
	ctx := &contractStrategyContext{}

	sc.Step(`^a contract requiring (\d+) units of (\w+) delivered to (\S+)$`, ctx.aContractRequiringUnitsOfDeliveredTo)
	sc.Step(`^a ship at the asteroid docked with (\d+) units of (\w+) in a (\d+)-capacity hold$`, ctx.aShipAtTheAsteroidDockedWithUnitsOfInAHold)
	sc.Step(`^the ship's extract event for (\w+) completes$`, ctx.theShipsExtractEventForCompletes)
	sc.Step(`^a navigate event to "([^"]*)" is scheduled for the ship$`, ctx.aNavigateEventToIsScheduledForTheShip)
	sc.Step(`^no navigate event to "([^"]*)" is scheduled for the ship$`, ctx.noNavigateEventToIsScheduledForTheShip)
	sc.Step(`^the contract has no remaining required resources$`, ctx.theContractHasNoRemainingRequiredResources)
	sc.Step(`^another extract is scheduled for the ship$`, ctx.anotherExtractIsScheduledForTheShip)
}
