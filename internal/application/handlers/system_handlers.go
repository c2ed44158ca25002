package handlers

import (
	"context"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/market"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

// RegisterSystemHandlers wires every SYSTEM.* handler into r.
func RegisterSystemHandlers(r *registry.Registry) {
	r.Register(event.TypeSystem, "system", SystemFetch)
	r.Register(event.TypeSystem, "jump_gate", SystemJumpGate)
	r.Register(event.TypeSystem, "waypoint", SystemWaypoint)
	r.Register(event.TypeSystem, "system_waypoints", SystemWaypoints)
	r.Register(event.TypeSystem, "fetch_market", SystemFetchMarket)
	r.Register(event.TypeSystem, "shipyard", SystemShipyard)
}

// SystemFetch loads one system's header fields and persists them.
func SystemFetch(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	systemSymbol, err := argString(ev.Args, 0, "system")
	if err != nil {
		return event.FAIL, err
	}

	data, err := p.API.GetSystem(ctx, p.State.Token(), systemSymbol)
	if err != nil {
		return event.FAIL, err
	}

	if p.Store != nil {
		_ = p.Store.SaveSystem(ctx, data.Symbol, data.Sector, data.Type, float64(data.X), float64(data.Y))
	}
	return event.SUCCESS, nil
}

// SystemJumpGate loads a jump gate's connected systems. Read-only; not
// persisted since Store has no jump-gate table in this cache.
func SystemJumpGate(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	systemSymbol, err := argString(ev.Args, 0, "system")
	if err != nil {
		return event.FAIL, err
	}
	waypointSymbol, err := argString(ev.Args, 1, "waypoint")
	if err != nil {
		return event.FAIL, err
	}
	if _, err := p.API.GetJumpGate(ctx, p.State.Token(), systemSymbol, waypointSymbol); err != nil {
		return event.FAIL, err
	}
	return event.SUCCESS, nil
}

// SystemWaypoint loads and caches a single waypoint.
func SystemWaypoint(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	systemSymbol, err := argString(ev.Args, 0, "system")
	if err != nil {
		return event.FAIL, err
	}
	waypointSymbol, err := argString(ev.Args, 1, "waypoint")
	if err != nil {
		return event.FAIL, err
	}

	data, err := p.API.GetWaypoint(ctx, p.State.Token(), systemSymbol, waypointSymbol)
	if err != nil {
		return event.FAIL, err
	}

	wp, err := waypointFromData(systemSymbol, *data)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	p.State.SetWaypoint(wp)
	p.State.Unlock()

	if p.Store != nil {
		_ = p.Store.SaveWaypoints(ctx, systemSymbol, []ports.WaypointRecord{waypointRecordFrom(wp)})
	}
	return event.SUCCESS, nil
}

func waypointRecordFrom(wp *shared.Waypoint) ports.WaypointRecord {
	return ports.WaypointRecord{
		Symbol:       wp.Symbol,
		SystemSymbol: wp.SystemSymbol,
		Type:         wp.Type,
		X:            wp.X,
		Y:            wp.Y,
		Traits:       wp.Traits,
		HasFuel:      wp.HasFuel,
		Orbitals:     wp.Orbitals,
	}
}

// SystemWaypoints pages through and caches every waypoint in a system. This
// is the handler strategies rely on indirectly: it is what populates
// Store.LoadWaypoints for a system the scout targets.
func SystemWaypoints(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	systemSymbol, err := argString(ev.Args, 0, "system")
	if err != nil {
		return event.FAIL, err
	}

	const pageLimit = 20
	var all []ports.WaypointData
	page := 1
	for {
		result, err := p.API.ListWaypoints(ctx, p.State.Token(), systemSymbol, page, pageLimit)
		if err != nil {
			return event.FAIL, err
		}
		all = append(all, result.Data...)
		if len(all) >= result.Meta.Total || len(result.Data) == 0 {
			break
		}
		page++
	}

	p.State.Lock()
	records := make([]ports.WaypointRecord, 0, len(all))
	for _, d := range all {
		wp, err := waypointFromData(systemSymbol, d)
		if err != nil {
			p.State.Unlock()
			return event.FAIL, err
		}
		p.State.SetWaypoint(wp)
		records = append(records, waypointRecordFrom(wp))
	}
	p.State.Unlock()

	if p.Store != nil {
		_ = p.Store.SaveWaypoints(ctx, systemSymbol, records)
	}
	return event.SUCCESS, nil
}

// SystemFetchMarket loads a market's trade goods, caches it on State and
// Store. Strategies (the scout loop) subscribe to this completion.
func SystemFetchMarket(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	systemSymbol, err := argString(ev.Args, 0, "system")
	if err != nil {
		return event.FAIL, err
	}
	waypointSymbol, err := argString(ev.Args, 1, "waypoint")
	if err != nil {
		return event.FAIL, err
	}

	data, err := p.API.GetMarket(ctx, p.State.Token(), systemSymbol, waypointSymbol)
	if err != nil {
		return event.FAIL, err
	}

	goods := make([]market.TradeGood, 0, len(data.TradeGoods))
	goodRecords := make([]ports.TradeGoodData, 0, len(data.TradeGoods))
	for _, g := range data.TradeGoods {
		var supply, activity *string
		if g.Supply != "" {
			s := g.Supply
			supply = &s
		}
		if g.Activity != "" {
			a := g.Activity
			activity = &a
		}
		// TradeGoodData is ship's-perspective; domain TradeGood is market's
		// perspective, so purchase/sell swap here too.
		tg, err := market.NewTradeGood(g.Symbol, supply, activity, g.SellPrice, g.PurchasePrice, g.TradeVolume)
		if err != nil {
			return event.FAIL, err
		}
		goods = append(goods, *tg)
		goodRecords = append(goodRecords, g)
	}

	now := p.Clock.Now()
	m, err := market.NewMarketWithGoodLists(data.Symbol, goods, data.Imports, data.Exports, data.Exchanges, now)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	p.State.SetMarket(m)
	p.State.Unlock()

	if p.Store != nil {
		_ = p.Store.SaveMarket(ctx, ports.MarketRecord{
			WaypointSymbol: data.Symbol,
			Goods:          goodRecords,
			UpdatedAt:      now,
		})
	}
	return event.SUCCESS, nil
}

// SystemShipyard loads and caches a shipyard's listings.
func SystemShipyard(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	systemSymbol, err := argString(ev.Args, 0, "system")
	if err != nil {
		return event.FAIL, err
	}
	waypointSymbol, err := argString(ev.Args, 1, "waypoint")
	if err != nil {
		return event.FAIL, err
	}

	data, err := p.API.GetShipyard(ctx, p.State.Token(), systemSymbol, waypointSymbol)
	if err != nil {
		return event.FAIL, err
	}

	if p.Store != nil {
		listings := make([]ports.ShipyardListingData, len(data.Listings))
		copy(listings, data.Listings)
		_ = p.Store.SaveShipyard(ctx, data.Symbol, ports.ShipyardRecord{
			WaypointSymbol: data.Symbol,
			Listings:       listings,
		})
	}
	return event.SUCCESS, nil
}
