// Package handlers implements the action handlers HandlerRegistry dispatches
// to: one function per (EventType, EventName) pair, each locking GameState,
// validating preconditions, issuing the remote call, and applying the
// returned delta back onto GameState.
package handlers

import (
	"fmt"
	"time"

	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-go/internal/domain/ship"
)

// SinglePlayerID is the fixed player identity this controller persists
// under; the system manages exactly one authenticated agent per process.
var SinglePlayerID = shared.MustNewPlayerID(1)

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseCooldown(s string) *time.Time {
	t := parseTimeOrZero(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

func navStatusFromAPI(status string) ship.NavStatus {
	switch status {
	case "DOCKED":
		return ship.NavDocked
	case "IN_ORBIT":
		return ship.NavInOrbit
	case "IN_TRANSIT":
		return ship.NavInTransit
	default:
		return ship.NavStatus(status)
	}
}

func flightModeFromAPI(mode string) shared.FlightMode {
	switch mode {
	case "DRIFT":
		return shared.FlightModeDrift
	case "BURN":
		return shared.FlightModeBurn
	case "STEALTH":
		return shared.FlightModeStealth
	default:
		return shared.FlightModeCruise
	}
}

// shipFromData hydrates a domain Ship from the GameAPI projection, preserving
// the Role GameState already recorded for it (the remote API has no concept
// of strategy ownership).
func shipFromData(d ports.ShipData, existingRole string) (*ship.Ship, error) {
	fuel, err := shared.NewFuel(d.FuelCurrent, d.FuelCapacity)
	if err != nil {
		return nil, err
	}

	items := make([]*shared.CargoItem, 0, len(d.Cargo))
	for _, c := range d.Cargo {
		item, err := shared.NewCargoItem(c.Symbol, c.Symbol, "", c.Units)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	cargo, err := shared.NewCargo(d.CargoCapacity, d.CargoUnits, items)
	if err != nil {
		return nil, err
	}

	var route *ship.Route
	if d.Route != nil {
		route = &ship.Route{
			Origin:      d.Route.Origin,
			Destination: d.Route.Destination,
			Departure:   parseTimeOrZero(d.Route.DepartureAt),
			Arrival:     parseTimeOrZero(d.Route.Arrival),
		}
	}

	role := d.Role
	if role == "" {
		role = existingRole
	}

	return &ship.Ship{
		Symbol: d.Symbol,
		Nav: ship.Nav{
			SystemSymbol:   d.SystemSymbol,
			WaypointSymbol: d.WaypointSymbol,
			Status:         navStatusFromAPI(d.NavStatus),
			Route:          route,
		},
		Fuel:       *fuel,
		Cargo:      *cargo,
		Cooldown:   parseCooldown(d.Cooldown),
		FlightMode: flightModeFromAPI(d.FlightMode),
		Role:       role,
	}, nil
}

// storeShip hydrates and stores a ship, preserving any existing role.
func storeShip(state *gamestate.State, d ports.ShipData) (*ship.Ship, error) {
	existing := state.Ship(d.Symbol)
	existingRole := ""
	if existing != nil {
		existingRole = existing.Role
	}
	sh, err := shipFromData(d, existingRole)
	if err != nil {
		return nil, err
	}
	state.SetShip(sh)
	return sh, nil
}

// waypointFromData hydrates a domain Waypoint from the GameAPI projection.
func waypointFromData(systemSymbol string, d ports.WaypointData) (*shared.Waypoint, error) {
	wp, err := shared.NewWaypoint(d.Symbol, float64(d.X), float64(d.Y))
	if err != nil {
		return nil, err
	}
	wp.SystemSymbol = systemSymbol
	wp.Type = d.Type
	wp.Traits = d.Traits
	wp.Orbitals = d.Orbitals
	wp.HasFuel = d.HasFuel
	return wp, nil
}

// argString extracts args[i] as a string, erroring with a readable message
// naming the handler's expected positional shape if it is missing or of
// the wrong type.
func argString(args []interface{}, i int, name string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d (%s)", i, name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d (%s) is not a string: %v", i, name, args[i])
	}
	return s, nil
}

// argInt extracts args[i] as an int, accepting float64 (the shape JSON/REPL
// number parsing tends to produce) as well as int.
func argInt(args []interface{}, i int, name string) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d (%s)", i, name)
	}
	switch v := args[i].(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("argument %d (%s) is not a number: %v", i, name, args[i])
	}
}

// argIntOrDefault is argInt but returns def when the arg is absent.
func argIntOrDefault(args []interface{}, i int, def int) int {
	if i >= len(args) {
		return def
	}
	v, err := argInt(args, i, "")
	if err != nil {
		return def
	}
	return v
}

// argStringOrEmpty is argString but returns "" when the arg is absent.
func argStringOrEmpty(args []interface{}, i int) string {
	if i >= len(args) {
		return ""
	}
	s, _ := args[i].(string)
	return s
}

// sharedCargoItem constructs a new cargo line, returning the validation
// error to the caller.
func sharedCargoItem(symbol string, units int) (*shared.CargoItem, error) {
	return shared.NewCargoItem(symbol, symbol, "", units)
}

// addCargoUnits folds units of symbol into a ship's cargo in-place,
// creating the inventory line if absent.
func addCargoUnits(sh *ship.Ship, symbol string, units int) {
	for _, item := range sh.Cargo.Inventory {
		if item.Symbol == symbol {
			item.Units += units
			sh.Cargo.Units += units
			return
		}
	}
	item, err := sharedCargoItem(symbol, units)
	if err == nil {
		sh.Cargo.Inventory = append(sh.Cargo.Inventory, item)
		sh.Cargo.Units += units
	}
}

// removeCargoUnits subtracts units of symbol from a ship's cargo in-place,
// floored at zero.
func removeCargoUnits(sh *ship.Ship, symbol string, units int) {
	for _, item := range sh.Cargo.Inventory {
		if item.Symbol == symbol {
			if units > item.Units {
				units = item.Units
			}
			item.Units -= units
			sh.Cargo.Units -= units
			return
		}
	}
}
