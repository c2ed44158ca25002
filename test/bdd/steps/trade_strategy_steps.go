package steps

import (
	"fmt"
	"time"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/strategy"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
	"github.com/andrescamacho/spacetraders-go/internal/domain/market"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

const tradeTestShip = "TRADER-1"
const tradeTestSystem = "X1-TEST"

type tradeStrategyContext struct {
	params   *globalparams.Params
	state    *gamestate.State
	strategy *strategy.SystemTradeStrategy
	nextX    float64
}

func (c *tradeStrategyContext) reset() {
	c.state = gamestate.New("test-token")
	queue := event.NewQueue(func(ev event.Event, r interface{}) {})
	clock := shared.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	c.params = globalparams.New(queue, c.state, nil, nil, clock)
	c.strategy = strategy.NewSystemTradeStrategy(c.params)
	c.nextX = 0
	// Register the trader ship before planning so BuildTradeRoutes assigns
	// it the winning route directly.
	c.strategy.AssignTrader(tradeTestShip)
}

func (c *tradeStrategyContext) setMarket(waypointSymbol string, dist float64, resource string, purchasePrice, sellPrice int) error {
	if c.state == nil {
		c.reset()
	}
	wp := &shared.Waypoint{Symbol: waypointSymbol, SystemSymbol: tradeTestSystem, X: dist, Y: 0, Traits: []string{"MARKETPLACE"}}
	tg, err := market.NewTradeGood(resource, nil, nil, purchasePrice, sellPrice, 100)
	if err != nil {
		return err
	}
	m, err := market.NewMarket(waypointSymbol, []market.TradeGood{*tg}, time.Time{})
	if err != nil {
		return err
	}
	c.state.Lock()
	c.state.SetWaypoint(wp)
	c.state.SetMarket(m)
	c.state.Unlock()
	return nil
}

// noIncentivePrice is used for the leg each fixture waypoint isn't meant to
// offer, set to the extreme that keeps it from ever winning that leg's sort
// (a cheap sell / expensive buy), rather than 0, which would falsely sort
// first among ascending buy quotes.
const noIncentivePrice = 1
const noIncentiveBuyPrice = 999999

func (c *tradeStrategyContext) aMarketplaceAtWhereShipsBuyFor(waypointSymbol, resource string, price int) error {
	c.reset()
	// Ship buy cost is the domain's SellPrice (what the market charges a
	// ship); purchasePrice (ship sell proceeds) is given no incentive here.
	return c.setMarket(waypointSymbol, 0, resource, noIncentivePrice, price)
}

func (c *tradeStrategyContext) aMarketplaceAtDistanceAwayWhereShipsSellFor(waypointSymbol string, dist float64, resource string, price int) error {
	// Ship sell proceeds is the domain's PurchasePrice (what the market
	// pays a ship); sellPrice (ship buy cost) is given no incentive here.
	return c.setMarket(waypointSymbol, dist, resource, price, noIncentiveBuyPrice)
}

func (c *tradeStrategyContext) theTradePlannerBuildsRoutesForSystem(system string) error {
	c.strategy.AssignMarketUpdater(tradeTestShip+"-SCOUT", system)
	c.strategy.BuildTradeRoutes()
	return nil
}

func (c *tradeStrategyContext) thePickedRouteBuysAtAndSellsAt(resource, source, target string) error {
	route, ok := c.strategy.Route(tradeTestShip)
	if !ok || route == nil {
		return fmt.Errorf("expected a route to be assigned to %s", tradeTestShip)
	}
	if route.Resource != resource {
		return fmt.Errorf("expected resource %q, got %q", resource, route.Resource)
	}
	if route.Source != source {
		return fmt.Errorf("expected source %q, got %q", source, route.Source)
	}
	if route.Target != target {
		return fmt.Errorf("expected target %q, got %q", target, route.Target)
	}
	return nil
}

func (c *tradeStrategyContext) thePickedRoutesTripMarginIs(margin float64) error {
	route, ok := c.strategy.Route(tradeTestShip)
	if !ok || route == nil {
		return fmt.Errorf("expected a route to be assigned to %s", tradeTestShip)
	}
	if route.TripMargin != margin {
		return fmt.Errorf("expected trip margin %v, got %v", margin, route.TripMargin)
	}
	return nil
}

func (c *tradeStrategyContext) noRouteIsPickedAndTradeIsHalted() error {
	if _, ok := c.strategy.Route(tradeTestShip); ok {
		return fmt.Errorf("expected no route to be assigned")
	}
	if !c.strategy.Halted() {
		return fmt.Errorf("expected trade to be halted")
	}
	return nil
}

// InitializeTradeStrategyScenario registers the trade strategy feature's steps.
func InitializeTradeStrategyScenario(sc *godog.ScenarioContext) {
	ctx := &tradeStrategyContext{}

	sc.Step(`^a marketplace at "([^"]*)" where ships buy (\w+) for (\d+) credits$`, ctx.aMarketplaceAtWhereShipsBuyFor)
	sc.Step(`^a marketplace at "([^"]*)" (\d+) distance away where ships sell (\w+) for (\d+) credits$`, ctx.aMarketplaceAtDistanceAwayWhereShipsSellFor)
	sc.Step(`^the trade planner builds routes for system "([^"]*)"$`, ctx.theTradePlannerBuildsRoutesForSystem)
	sc.Step(`^the picked route buys (\w+) at "([^"]*)" and sells at "([^"]*)"$`, ctx.thePickedRouteBuysAtAndSellsAt)
	sc.Step(`^the picked route's trip margin is (\d+)$`, ctx.thePickedRoutesTripMarginIs)
	sc.Step(`^no route is picked and trade is halted$`, ctx.noRouteIsPickedAndTradeIsHalted)
}
