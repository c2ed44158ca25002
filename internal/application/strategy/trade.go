package strategy

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

const marketRefreshCadence = 30 * time.Minute
const tradeArrivalSlack = 10 * time.Second
const fuelDistanceDivisor = 50.0

var tradeRouteValidate = validator.New()

// TradeRoute is a buy-at-source, sell-at-target pair for one resource. ID
// gives the planner's pick a stable identity for logging across the route's
// lifetime, since (Resource, Source, Target) can recur across rebuilds.
type TradeRoute struct {
	ID         string `validate:"required"`
	Resource   string `validate:"required"`
	Source     string `validate:"required"`
	Target     string `validate:"required,nefield=Source"`
	TripMargin float64
}

// SystemTradeStrategy runs in-system arbitrage: a scout tours every
// marketplace refreshing prices, and a pool of traders loop a planner-picked
// TradeRoute.
type SystemTradeStrategy struct {
	mu sync.Mutex

	params       *globalparams.Params
	targetSystem string

	targetWaypoints        map[string]*shared.Waypoint
	waypointsWithMarketplace []string
	visitedMarketplaces     map[string]bool

	tradeRoutes       map[string]*TradeRoute
	pendingRouteChange map[string]*TradeRoute

	pendingNavigateMarket     map[int64]bool
	pendingNavigateSource     map[int64]string
	pendingNavigateTarget     map[int64]string
	pendingFetchMarket        map[int64]bool

	haltTrade     bool
	assignedShips map[string]bool
}

// NewSystemTradeStrategy constructs the trade strategy and subscribes to
// the completions it reacts to.
func NewSystemTradeStrategy(p *globalparams.Params) *SystemTradeStrategy {
	s := &SystemTradeStrategy{
		params:                p,
		targetWaypoints:       make(map[string]*shared.Waypoint),
		visitedMarketplaces:   make(map[string]bool),
		tradeRoutes:           make(map[string]*TradeRoute),
		pendingRouteChange:    make(map[string]*TradeRoute),
		pendingNavigateMarket: make(map[int64]bool),
		pendingNavigateSource: make(map[int64]string),
		pendingNavigateTarget: make(map[int64]string),
		pendingFetchMarket:    make(map[int64]bool),
		assignedShips:         make(map[string]bool),
	}
	p.Queue.Subscribe(event.TypeShip, "navigate", s.onNavigate)
	p.Queue.Subscribe(event.TypeSystem, "fetch_market", s.onFetchMarket)
	return s
}

// AssignMarketUpdater designates shipSymbol as the scout for system.
func (s *SystemTradeStrategy) AssignMarketUpdater(shipSymbol, system string) {
	p := s.params

	p.State.Lock()
	waypoints := p.State.WaypointsInSystem(system)
	p.State.Unlock()

	if len(waypoints) == 0 && p.Store != nil {
		records, err := p.Store.LoadWaypoints(context.Background(), system)
		if err == nil {
			p.State.Lock()
			for _, r := range records {
				wp := &shared.Waypoint{Symbol: r.Symbol, SystemSymbol: r.SystemSymbol, Type: r.Type, X: r.X, Y: r.Y, Traits: r.Traits, HasFuel: r.HasFuel, Orbitals: r.Orbitals}
				p.State.SetWaypoint(wp)
				waypoints = append(waypoints, wp)
			}
			p.State.Unlock()
		}
	}

	s.mu.Lock()
	s.targetSystem = system
	s.targetWaypoints = make(map[string]*shared.Waypoint, len(waypoints))
	s.waypointsWithMarketplace = nil
	for _, wp := range waypoints {
		s.targetWaypoints[wp.Symbol] = wp
		if hasTrait(wp.Traits, "MARKETPLACE") {
			s.waypointsWithMarketplace = append(s.waypointsWithMarketplace, wp.Symbol)
		}
	}
	s.visitedMarketplaces = make(map[string]bool)
	s.assignedShips[shipSymbol] = true
	s.mu.Unlock()

	p.Queue.PutNew(event.TypeShip, "flight_mode", shipSymbol, "BURN")
	p.Queue.PutNew(event.TypeShip, "orbit", shipSymbol)
	s.navigateToNearestUnvisited(shipSymbol)
}

func hasTrait(traits []string, trait string) bool {
	for _, t := range traits {
		if t == trait {
			return true
		}
	}
	return false
}

func (s *SystemTradeStrategy) navigateToNearestUnvisited(shipSymbol string) {
	p := s.params
	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	var current *shared.Waypoint
	if sh != nil {
		current = p.State.Waypoint(sh.Nav.WaypointSymbol)
	}
	p.State.Unlock()
	if current == nil {
		return
	}

	nearest := s.nearestUnvisited(current)
	if nearest == "" {
		return
	}

	ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, nearest)
	s.mu.Lock()
	s.pendingNavigateMarket[ev.ID] = true
	s.mu.Unlock()
}

func (s *SystemTradeStrategy) nearestUnvisited(from *shared.Waypoint) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := ""
	bestDist := math.MaxFloat64
	for _, symbol := range s.waypointsWithMarketplace {
		if s.visitedMarketplaces[symbol] {
			continue
		}
		wp := s.targetWaypoints[symbol]
		if wp == nil {
			continue
		}
		d := from.DistanceTo(wp)
		if d < bestDist {
			bestDist = d
			best = symbol
		}
	}
	return best
}

// onNavigate dispatches to the scout or trader handler depending on which
// pending map the completed navigate ID is tracked in.
func (s *SystemTradeStrategy) onNavigate(ev event.Event) {
	shipSymbol, ok := ev.Args[0].(string)
	if !ok {
		return
	}

	s.mu.Lock()
	_, isMarketScout := s.pendingNavigateMarket[ev.ID]
	if isMarketScout {
		delete(s.pendingNavigateMarket, ev.ID)
	}
	sourceFor, isSource := s.pendingNavigateSource[ev.ID]
	if isSource {
		delete(s.pendingNavigateSource, ev.ID)
	}
	targetFor, isTarget := s.pendingNavigateTarget[ev.ID]
	if isTarget {
		delete(s.pendingNavigateTarget, ev.ID)
	}
	s.mu.Unlock()

	switch {
	case isMarketScout:
		s.onScoutArrival(shipSymbol)
	case isTarget:
		s.onTargetArrival(shipSymbol, targetFor)
	case isSource:
		s.onSourceArrival(shipSymbol, sourceFor)
	}
}

func (s *SystemTradeStrategy) onScoutArrival(shipSymbol string) {
	p := s.params
	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	var waypointSymbol string
	if sh != nil {
		waypointSymbol = sh.Nav.WaypointSymbol
	}
	system := s.targetSystemSymbol()
	p.State.Unlock()
	if waypointSymbol == "" {
		return
	}
	ev := p.Queue.PutNew(event.TypeSystem, "fetch_market", system, waypointSymbol)
	s.mu.Lock()
	s.pendingFetchMarket[ev.ID] = true
	s.mu.Unlock()
}

func (s *SystemTradeStrategy) targetSystemSymbol() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetSystem
}

// onFetchMarket reacts to SYSTEM.fetch_market completions for the scout's
// own requests, advancing the tour or running the planner at wrap-around.
func (s *SystemTradeStrategy) onFetchMarket(ev event.Event) {
	s.mu.Lock()
	_, tracked := s.pendingFetchMarket[ev.ID]
	if tracked {
		delete(s.pendingFetchMarket, ev.ID)
	}
	s.mu.Unlock()
	if !tracked {
		return
	}

	waypointSymbol, ok := ev.Args[1].(string)
	if !ok {
		return
	}

	s.mu.Lock()
	s.visitedMarketplaces[waypointSymbol] = true
	s.mu.Unlock()

	p := s.params
	p.State.Lock()
	current := p.State.Waypoint(waypointSymbol)
	p.State.Unlock()
	if current == nil {
		return
	}

	nearest := s.nearestUnvisited(current)
	if nearest != "" {
		// find the scout ship (the one whose last navigate targeted a
		// marketplace); simplest correct source is any assigned ship.
		shipSymbol := s.anyAssignedShip()
		if shipSymbol == "" {
			return
		}
		ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, nearest)
		s.mu.Lock()
		s.pendingNavigateMarket[ev.ID] = true
		s.mu.Unlock()
		return
	}

	s.BuildTradeRoutes()

	s.mu.Lock()
	s.visitedMarketplaces = make(map[string]bool)
	s.visitedMarketplaces[waypointSymbol] = true
	s.mu.Unlock()

	current2 := current
	nextNearest := s.nearestUnvisited(current2)
	if nextNearest == "" {
		return
	}
	shipSymbol := s.anyAssignedShip()
	if shipSymbol == "" {
		return
	}
	when := s.params.Clock.Now().Add(marketRefreshCadence)
	navEv := p.Queue.NewEvent(event.TypeShip, "navigate", shipSymbol, nextNearest)
	p.Queue.Schedule(when, navEv)
	s.mu.Lock()
	s.pendingNavigateMarket[navEv.ID] = true
	s.mu.Unlock()
}

// Route reports the trade route currently assigned to shipSymbol, if any.
func (s *SystemTradeStrategy) Route(shipSymbol string) (*TradeRoute, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	route, ok := s.tradeRoutes[shipSymbol]
	return route, ok
}

// Halted reports whether the last planning pass found no route clearing
// the price threshold.
func (s *SystemTradeStrategy) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.haltTrade
}

func (s *SystemTradeStrategy) anyAssignedShip() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sym := range s.assignedShips {
		return sym
	}
	return ""
}

// BuildTradeRoutes re-plans every trade route from cached market data,
// accepting pairs clearing the configured price threshold and assigning
// the top route to standby ships or queuing a route change for active ones.
func (s *SystemTradeStrategy) BuildTradeRoutes() {
	p := s.params
	system := s.targetSystemSymbol()

	p.State.Lock()
	waypoints := p.State.WaypointsInSystem(system)
	type quote = struct {
		waypoint string
		price    int
	}
	sellQuotes := make(map[string][]quote)
	buyQuotes := make(map[string][]quote)
	for _, wp := range waypoints {
		m := p.State.Market(wp.Symbol)
		if m == nil {
			continue
		}
		for _, g := range m.TradeGoods() {
			// TradeGood is in market/ship perspective (see DESIGN.md): PurchasePrice
			// is what a ship gets selling into this market, SellPrice is what a ship
			// pays buying from it.
			sellQuotes[g.Symbol()] = append(sellQuotes[g.Symbol()], quote{wp.Symbol, g.PurchasePrice()})
			buyQuotes[g.Symbol()] = append(buyQuotes[g.Symbol()], quote{wp.Symbol, g.SellPrice()})
		}
	}
	waypointDist := func(a, b string) float64 {
		wa := p.State.Waypoint(a)
		wb := p.State.Waypoint(b)
		if wa == nil || wb == nil {
			return 0
		}
		return wa.DistanceTo(wb)
	}
	p.State.Unlock()

	var candidates []*TradeRoute
	for resource, sells := range sellQuotes {
		buys := buyQuotes[resource]
		if len(buys) == 0 {
			continue
		}
		sortByPriceAsc(buys)
		sortByPriceDesc(sells)
		n := len(buys)
		if len(sells) < n {
			n = len(sells)
		}
		for i := 0; i < n; i++ {
			purchase := buys[i]
			sell := sells[i]
			if purchase.waypoint == sell.waypoint {
				continue
			}
			dist := waypointDist(purchase.waypoint, sell.waypoint)
			rawMargin := float64(p.Tuning.AssumedCargo) * float64(sell.price-purchase.price)
			fuelCost := dist / fuelDistanceDivisor * float64(p.Tuning.AvgFuelPrice)
			tripMargin := rawMargin - fuelCost
			if tripMargin >= float64(p.Tuning.PriceThreshold) {
				route := &TradeRoute{
					ID:         uuid.NewString(),
					Resource:   resource,
					Source:     purchase.waypoint,
					Target:     sell.waypoint,
					TripMargin: tripMargin,
				}
				if err := tradeRouteValidate.Struct(route); err != nil {
					continue
				}
				candidates = append(candidates, route)
			}
		}
	}

	if len(candidates) == 0 {
		s.mu.Lock()
		s.haltTrade = true
		s.mu.Unlock()
		return
	}

	sortRoutesDesc(candidates)
	best := candidates[0]

	s.mu.Lock()
	s.haltTrade = false
	for shipSymbol := range s.assignedShips {
		current := s.tradeRoutes[shipSymbol]
		if current == nil {
			s.tradeRoutes[shipSymbol] = best
			continue
		}
		if current.Resource != best.Resource || current.Source != best.Source || current.Target != best.Target {
			s.pendingRouteChange[shipSymbol] = best
		}
	}
	s.mu.Unlock()
}

func sortByPriceAsc(qs []struct {
	waypoint string
	price    int
}) {
	for i := 1; i < len(qs); i++ {
		for j := i; j > 0 && qs[j].price < qs[j-1].price; j-- {
			qs[j], qs[j-1] = qs[j-1], qs[j]
		}
	}
}

func sortByPriceDesc(qs []struct {
	waypoint string
	price    int
}) {
	for i := 1; i < len(qs); i++ {
		for j := i; j > 0 && qs[j].price > qs[j-1].price; j-- {
			qs[j], qs[j-1] = qs[j-1], qs[j]
		}
	}
}

func sortRoutesDesc(routes []*TradeRoute) {
	for i := 1; i < len(routes); i++ {
		for j := i; j > 0 && routes[j].TripMargin > routes[j-1].TripMargin; j-- {
			routes[j], routes[j-1] = routes[j-1], routes[j]
		}
	}
}

// AssignTrader puts a ship into the trader pool, restoring its in-progress
// trip from current nav state on a fresh process.
func (s *SystemTradeStrategy) AssignTrader(shipSymbol string) {
	s.mu.Lock()
	s.assignedShips[shipSymbol] = true
	route := s.tradeRoutes[shipSymbol]
	s.mu.Unlock()
	if route == nil {
		return
	}

	p := s.params
	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	p.State.Unlock()
	if sh == nil {
		return
	}

	switch sh.Nav.WaypointSymbol {
	case route.Target:
		s.onTargetArrival(shipSymbol, route.Resource)
	case route.Source:
		s.onSourceArrival(shipSymbol, route.Resource)
	default:
		ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, route.Source)
		s.mu.Lock()
		s.pendingNavigateSource[ev.ID] = route.Resource
		s.mu.Unlock()
	}
}

// onTargetArrival sells the traded resource at the target waypoint, then
// either switches routes, halts, or heads back to source.
func (s *SystemTradeStrategy) onTargetArrival(shipSymbol, resource string) {
	p := s.params

	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	var arrival time.Time
	if sh != nil && sh.Nav.Route != nil {
		arrival = sh.Nav.Route.Arrival
	} else {
		arrival = p.Clock.Now()
	}
	p.State.Unlock()

	when := arrival.Add(tradeArrivalSlack)
	batch := []event.Event{
		p.Queue.NewEvent(event.TypeShip, "dock", shipSymbol),
		p.Queue.NewEvent(event.TypeShip, "sell_cargo_item", shipSymbol, resource, -1),
		p.Queue.NewEvent(event.TypeShip, "orbit", shipSymbol),
	}
	p.Queue.ScheduleBatch(when, batch)

	s.mu.Lock()
	newRoute, changing := s.pendingRouteChange[shipSymbol]
	if changing {
		delete(s.pendingRouteChange, shipSymbol)
		s.tradeRoutes[shipSymbol] = newRoute
	}
	halt := s.haltTrade
	currentRoute := s.tradeRoutes[shipSymbol]
	s.mu.Unlock()

	if changing {
		p.Queue.PutNew(event.TypeShip, "refuel", shipSymbol)
		if newRoute.Source != resourceDestination(currentRoute) {
			ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, newRoute.Source)
			s.mu.Lock()
			s.pendingNavigateSource[ev.ID] = newRoute.Resource
			s.mu.Unlock()
		} else {
			s.onSourceArrival(shipSymbol, newRoute.Resource)
		}
		return
	}

	if halt {
		return
	}

	if currentRoute == nil {
		return
	}
	ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, currentRoute.Source)
	s.mu.Lock()
	s.pendingNavigateSource[ev.ID] = currentRoute.Resource
	s.mu.Unlock()
}

func resourceDestination(r *TradeRoute) string {
	if r == nil {
		return ""
	}
	return r.Target
}

// onSourceArrival refuels if the round trip would otherwise leave the ship
// short, jettisons anything not reserved or traded, buys to fill, then
// heads to the target.
func (s *SystemTradeStrategy) onSourceArrival(shipSymbol, resource string) {
	p := s.params

	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	p.State.Unlock()
	if sh == nil {
		return
	}

	s.mu.Lock()
	route := s.tradeRoutes[shipSymbol]
	s.mu.Unlock()
	if route == nil {
		return
	}

	p.State.Lock()
	srcWp := p.State.Waypoint(route.Source)
	dstWp := p.State.Waypoint(route.Target)
	var dist float64
	if srcWp != nil && dstWp != nil {
		dist = srcWp.DistanceTo(dstWp)
	}
	currentFuel := sh.Fuel.Current
	var jettisonEvents []event.Event
	for _, item := range sh.Cargo.Inventory {
		if p.IsReserved(item.Symbol) || item.Symbol == resource {
			continue
		}
		if item.Units > 0 {
			jettisonEvents = append(jettisonEvents, p.Queue.NewEvent(event.TypeShip, "jettison_cargo_item", shipSymbol, item.Symbol, -1))
		}
	}
	p.State.Unlock()

	p.Queue.PutNew(event.TypeShip, "dock", shipSymbol)
	if 2.5*dist >= float64(currentFuel) {
		p.Queue.PutNew(event.TypeShip, "refuel", shipSymbol)
	}
	for _, jEv := range jettisonEvents {
		p.Queue.Put(jEv)
	}
	p.Queue.PutNew(event.TypeShip, "buy_cargo_item", shipSymbol, resource, -1)
	p.Queue.PutNew(event.TypeShip, "orbit", shipSymbol)
	ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, route.Target)
	s.mu.Lock()
	s.pendingNavigateTarget[ev.ID] = resource
	s.mu.Unlock()
}
