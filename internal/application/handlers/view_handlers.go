package handlers

import (
	"context"
	"fmt"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
)

// RegisterViewHandlers wires every VIEW.* handler into r. View handlers are
// read-only console reports; the REPL runs them synchronously, bypassing
// the worker and its queue. They return INSTANT, or FAIL when a required
// argument is missing.
func RegisterViewHandlers(r *registry.Registry) {
	r.Register(event.TypeView, "agent", ViewAgent)
	r.Register(event.TypeView, "ship", ViewShip)
	r.Register(event.TypeView, "ships", ViewShips)
	r.Register(event.TypeView, "contracts", ViewContracts)
	r.Register(event.TypeView, "market", ViewMarket)
}

// ViewAgent prints the cached agent summary.
func ViewAgent(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	p.State.Lock()
	agent := p.State.Agent()
	p.State.Unlock()
	fmt.Printf("agent %s hq=%s credits=%d faction=%s\n", agent.Symbol, agent.Headquarters, agent.Credits, agent.StartingFaction)
	return event.INSTANT, nil
}

// ViewShip prints one ship's nav/fuel/cargo/cooldown summary.
func ViewShip(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := argString(ev.Args, 0, "ship")
	if err != nil {
		return event.FAIL, err
	}
	p.State.Lock()
	sh := p.State.Ship(symbol)
	p.State.Unlock()
	if sh == nil {
		fmt.Printf("unknown ship %s\n", symbol)
		return event.INSTANT, nil
	}
	fmt.Printf("ship %s nav=%s@%s fuel=%d/%d cargo=%d/%d role=%s\n",
		sh.Symbol, sh.Nav.Status, sh.Nav.WaypointSymbol, sh.Fuel.Current, sh.Fuel.Capacity, sh.Cargo.Units, sh.Cargo.Capacity, sh.Role)
	return event.INSTANT, nil
}

// ViewShips prints every tracked ship's one-line summary.
func ViewShips(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	p.State.Lock()
	ships := p.State.Ships()
	p.State.Unlock()
	for _, sh := range ships {
		fmt.Printf("ship %s nav=%s@%s fuel=%d/%d cargo=%d/%d role=%s\n",
			sh.Symbol, sh.Nav.Status, sh.Nav.WaypointSymbol, sh.Fuel.Current, sh.Fuel.Capacity, sh.Cargo.Units, sh.Cargo.Capacity, sh.Role)
	}
	return event.INSTANT, nil
}

// ViewContracts prints every tracked contract's status.
func ViewContracts(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	p.State.Lock()
	contracts := p.State.Contracts()
	p.State.Unlock()
	for _, c := range contracts {
		fmt.Printf("contract %s type=%s accepted=%v fulfilled=%v\n", c.ContractID(), c.Type(), c.Accepted(), c.Fulfilled())
	}
	return event.INSTANT, nil
}

// ViewMarket prints one cached market's trade goods table.
func ViewMarket(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	waypointSymbol, err := argString(ev.Args, 0, "waypoint")
	if err != nil {
		return event.FAIL, err
	}
	p.State.Lock()
	m := p.State.Market(waypointSymbol)
	p.State.Unlock()
	if m == nil {
		fmt.Printf("no cached market for %s\n", waypointSymbol)
		return event.INSTANT, nil
	}
	for _, g := range m.TradeGoods() {
		fmt.Printf("%s %s purchase=%d sell=%d volume=%d\n", m.WaypointSymbol(), g.Symbol(), g.PurchasePrice(), g.SellPrice(), g.TradeVolume())
	}
	return event.INSTANT, nil
}
