package handlers

import (
	"context"
	"fmt"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-go/internal/domain/ship"
	"github.com/andrescamacho/spacetraders-go/internal/domain/survey"
	"github.com/andrescamacho/spacetraders-go/pkg/utils"
)

// RegisterShipHandlers wires every SHIP.* handler into r.
func RegisterShipHandlers(r *registry.Registry) {
	r.Register(event.TypeShip, "dock", ShipDock)
	r.Register(event.TypeShip, "orbit", ShipOrbit)
	r.Register(event.TypeShip, "navigate", ShipNavigate)
	r.Register(event.TypeShip, "refuel", ShipRefuel)
	r.Register(event.TypeShip, "extract", ShipExtract)
	r.Register(event.TypeShip, "survey", ShipSurvey)
	r.Register(event.TypeShip, "sell_cargo_item", ShipSellCargoItem)
	r.Register(event.TypeShip, "buy_cargo_item", ShipBuyCargoItem)
	r.Register(event.TypeShip, "jettison_cargo_item", ShipJettisonCargoItem)
	r.Register(event.TypeShip, "purchase", ShipPurchase)
	r.Register(event.TypeShip, "jump", ShipJump)
	r.Register(event.TypeShip, "flight_mode", ShipFlightMode)
	r.Register(event.TypeShip, "chart", ShipChart)
	r.Register(event.TypeShip, "scan_waypoints", ShipScanWaypoints)
	r.Register(event.TypeShip, "fetch_all", ShipFetchAll)
}

func shipArg(args []interface{}) (string, error) { return argString(args, 0, "ship") }

// ShipDock docks a ship. SKIPs if already docked.
func ShipDock(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if sh.Nav.Status == ship.NavDocked {
		p.State.Unlock()
		return event.SKIP, nil
	}
	p.State.Unlock()

	if err := p.API.Dock(ctx, p.State.Token(), symbol); err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		sh.Nav.Status = ship.NavDocked
	}
	return event.SUCCESS, nil
}

// ShipOrbit sends a ship to orbit. SKIPs if already in orbit.
func ShipOrbit(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if sh.Nav.Status == ship.NavInOrbit {
		p.State.Unlock()
		return event.SKIP, nil
	}
	p.State.Unlock()

	if err := p.API.Orbit(ctx, p.State.Token(), symbol); err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		sh.Nav.Status = ship.NavInOrbit
	}
	return event.SUCCESS, nil
}

// ShipNavigate always executes; remote semantics decide same-waypoint cases.
func ShipNavigate(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	destination, err := argString(ev.Args, 1, "waypoint")
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.Navigate(ctx, p.State.Token(), symbol, destination)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	arrival := parseTimeOrZero(result.ArrivalTime)
	sh.Nav.Status = ship.NavInTransit
	sh.Nav.Route = &ship.Route{
		Origin:      sh.Nav.WaypointSymbol,
		Destination: result.Destination,
		Departure:   p.Clock.Now(),
		Arrival:     arrival,
	}
	sh.Nav.WaypointSymbol = result.Destination
	fuel, ferr := sh.Fuel.Consume(result.FuelConsumed)
	if ferr == nil {
		sh.Fuel = *fuel
	}
	return event.SUCCESS, nil
}

// ShipRefuel tops off fuel. SKIPs if already full.
func ShipRefuel(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if sh.Fuel.IsFull() {
		p.State.Unlock()
		return event.SKIP, nil
	}
	p.State.Unlock()

	result, err := p.API.Refuel(ctx, p.State.Token(), symbol, nil)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		fuel, ferr := sh.Fuel.Add(result.FuelAdded)
		if ferr == nil {
			sh.Fuel = *fuel
		}
	}
	agent := p.State.Agent()
	agent.Credits -= result.CreditsCost
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}

// ShipExtract mines cargo, optionally biased by a survey signature. An
// expired survey is dropped and extraction proceeds un-targeted.
func ShipExtract(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	signature := argStringOrEmpty(ev.Args, 1)

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	waypoint := sh.Nav.WaypointSymbol
	if signature != "" {
		sv := p.State.Survey(waypoint, signature)
		if sv == nil || sv.IsExpired(p.Clock.Now()) {
			if sv != nil {
				p.State.DeleteSurvey(waypoint, signature)
			}
			signature = ""
		}
	}
	p.State.Unlock()

	result, err := p.API.Extract(ctx, p.State.Token(), symbol, signature)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh == nil {
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	sh.Cooldown = parseCooldown(result.CooldownExpires)
	applyYieldToCargo(sh, result.Yield, result.CargoCapacity)
	return event.SUCCESS, nil
}

// applyYieldToCargo folds one extracted/scanned yield line into cargo
// in-place, adding the yield to the locally tracked units and taking the
// cargo capacity from the remote call's result when it is positive.
func applyYieldToCargo(sh *ship.Ship, yield ports.ExtractedYield, cargoCapacity int) {
	items := sh.Cargo.Inventory
	found := false
	for _, item := range items {
		if item.Symbol == yield.Symbol {
			item.Units += yield.Units
			found = true
			break
		}
	}
	if !found {
		item, err := sharedCargoItem(yield.Symbol, yield.Units)
		if err == nil {
			items = append(items, item)
		}
	}
	sh.Cargo.Inventory = items
	sh.Cargo.Units += yield.Units
	if cargoCapacity > 0 {
		sh.Cargo.Capacity = cargoCapacity
	}
}

// ShipSurvey records returned survey signatures and sets cooldown.
func ShipSurvey(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}

	surveys, cooldownExpires, err := p.API.Survey(ctx, p.State.Token(), symbol)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh != nil {
		sh.Cooldown = parseCooldown(cooldownExpires)
	}
	for _, sv := range surveys {
		deposits := make([]string, len(sv.Deposits))
		for i, d := range sv.Deposits {
			deposits[i] = d.Symbol
		}
		p.State.SetSurvey(&survey.Survey{
			Signature:      sv.Signature,
			WaypointSymbol: sv.WaypointSymbol,
			Size:           sv.Size,
			Deposits:       deposits,
			Expiration:     parseTimeOrZero(sv.Expiration),
		})
	}
	p.State.Unlock()

	if p.Store != nil {
		for _, sv := range surveys {
			deposits := make([]string, len(sv.Deposits))
			for i, d := range sv.Deposits {
				deposits[i] = d.Symbol
			}
			_ = p.Store.SaveSurvey(ctx, ports.SurveyRecordData{
				WaypointSymbol: sv.WaypointSymbol,
				Signature:      sv.Signature,
				Size:           sv.Size,
				Deposits:       deposits,
				Expiration:     sv.Expiration,
			})
		}
	}
	return event.SUCCESS, nil
}

// ShipSellCargoItem sells units of resource. units == -1 sells everything
// of that symbol currently held. SKIPs if nothing to sell or the symbol is
// reserved.
func ShipSellCargoItem(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	resource, err := argString(ev.Args, 1, "resource")
	if err != nil {
		return event.FAIL, err
	}
	units := argIntOrDefault(ev.Args, 2, -1)

	if p.IsReserved(resource) {
		return event.SKIP, nil
	}

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if units == -1 {
		units = sh.CargoUnitsOf(resource)
	}
	p.State.Unlock()
	if units <= 0 {
		return event.SKIP, nil
	}

	result, err := p.API.Sell(ctx, p.State.Token(), symbol, resource, units)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		removeCargoUnits(sh, resource, result.Units)
	}
	agent := p.State.Agent()
	agent.Credits += result.TotalPrice
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}

// ShipBuyCargoItem buys units of resource. units == -1 fills remaining
// cargo space. SKIPs if computed units <= 0.
func ShipBuyCargoItem(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	resource, err := argString(ev.Args, 1, "resource")
	if err != nil {
		return event.FAIL, err
	}
	units := argIntOrDefault(ev.Args, 2, -1)

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if units == -1 {
		units = sh.FillCargoUnits()
		if m := p.State.Market(sh.Nav.WaypointSymbol); m != nil {
			if limit := m.GetTransactionLimit(resource); limit > 0 {
				agent := p.State.Agent()
				price := m.FindGood(resource).SellPrice()
				affordable := units
				if price > 0 {
					affordable = agent.Credits / price
				}
				units = utils.Min3(units, limit, affordable)
			}
		}
	}
	p.State.Unlock()
	if units <= 0 {
		return event.SKIP, nil
	}

	result, err := p.API.Buy(ctx, p.State.Token(), symbol, resource, units)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		addCargoUnits(sh, resource, result.Units)
	}
	agent := p.State.Agent()
	agent.Credits -= result.TotalPrice
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}

// ShipJettisonCargoItem discards units of resource from cargo. Same -1
// semantics as sell: everything currently held.
func ShipJettisonCargoItem(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	resource, err := argString(ev.Args, 1, "resource")
	if err != nil {
		return event.FAIL, err
	}
	units := argIntOrDefault(ev.Args, 2, -1)

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if units == -1 {
		units = sh.CargoUnitsOf(resource)
	}
	p.State.Unlock()
	if units <= 0 {
		return event.SKIP, nil
	}

	if err := p.API.Jettison(ctx, p.State.Token(), symbol, resource, units); err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		removeCargoUnits(sh, resource, units)
	}
	return event.SUCCESS, nil
}

// ShipPurchase buys a new ship at a shipyard waypoint and adds it to state.
func ShipPurchase(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	waypoint, err := argString(ev.Args, 0, "waypoint")
	if err != nil {
		return event.FAIL, err
	}
	shipType, err := argString(ev.Args, 1, "ship_type")
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.PurchaseShip(ctx, p.State.Token(), shipType, waypoint)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	if _, err := storeShip(p.State, result.Ship); err != nil {
		return event.FAIL, err
	}
	agent := p.State.Agent()
	agent.Credits = result.Credits
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}

// ShipJump jumps a ship to another system via a jump gate. Sets nav and
// cooldown.
func ShipJump(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	destination, err := argString(ev.Args, 1, "system")
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.Jump(ctx, p.State.Token(), symbol, destination)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	sh.Nav.WaypointSymbol = result.WaypointSymbol
	sh.Nav.SystemSymbol = shared.ExtractSystemSymbol(result.WaypointSymbol)
	sh.Cooldown = parseCooldown(result.CooldownExpires)
	agent := p.State.Agent()
	agent.Credits = result.Credits
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}

// ShipFlightMode switches a ship's flight mode. SKIPs if already in mode.
func ShipFlightMode(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	mode, err := argString(ev.Args, 1, "mode")
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	sh := p.State.Ship(symbol)
	if sh == nil {
		p.State.Unlock()
		return event.FAIL, fmt.Errorf("unknown ship %s", symbol)
	}
	if sh.FlightMode.Name() == mode {
		p.State.Unlock()
		return event.SKIP, nil
	}
	p.State.Unlock()

	if err := p.API.PatchFlightMode(ctx, p.State.Token(), symbol, mode); err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh = p.State.Ship(symbol)
	if sh != nil {
		sh.FlightMode = flightModeFromAPI(mode)
	}
	return event.SUCCESS, nil
}

// ShipChart charts the ship's current waypoint.
func ShipChart(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}
	if _, err := p.API.Chart(ctx, p.State.Token(), symbol); err != nil {
		return event.FAIL, err
	}
	return event.SUCCESS, nil
}

// ShipScanWaypoints scans nearby waypoints and sets cooldown.
func ShipScanWaypoints(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := shipArg(ev.Args)
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.ScanWaypoints(ctx, p.State.Token(), symbol)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	sh := p.State.Ship(symbol)
	if sh != nil {
		sh.Cooldown = parseCooldown(result.CooldownExpires)
	}
	for _, wd := range result.Waypoints {
		wp, err := waypointFromData(shared.ExtractSystemSymbol(wd.Symbol), wd)
		if err == nil {
			p.State.SetWaypoint(wp)
		}
	}
	return event.SUCCESS, nil
}

// ShipFetchAll refreshes every ship from the remote fleet listing.
func ShipFetchAll(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	ships, err := p.API.ListShips(ctx, p.State.Token())
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	for _, d := range ships {
		if _, err := storeShip(p.State, d); err != nil {
			return event.FAIL, err
		}
	}
	return event.SUCCESS, nil
}
