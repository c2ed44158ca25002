// Package ship holds the Ship entity: nav state, fuel, cargo, cooldown and
// flight mode, the projection of a remote ship that GameState tracks and
// action handlers mutate under the global state lock.
package ship

import (
	"time"

	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

// NavStatus is the ship's current navigational state.
type NavStatus string

const (
	NavDocked    NavStatus = "DOCKED"
	NavInOrbit   NavStatus = "IN_ORBIT"
	NavInTransit NavStatus = "IN_TRANSIT"
)

// Route describes an in-transit ship's departure/arrival window.
type Route struct {
	Origin      string
	Destination string
	Departure   time.Time
	Arrival     time.Time
}

// Nav is the ship's location and motion state.
type Nav struct {
	SystemSymbol   string
	WaypointSymbol string
	Status         NavStatus
	Route          *Route
}

// Ship is the in-memory projection of a remote ship. Role records which
// strategy (if any) currently owns it, mirroring the persisted ship_symbol
// -> role assignment.
type Ship struct {
	Symbol     string
	Nav        Nav
	Fuel       shared.Fuel
	Cargo      shared.Cargo
	Cooldown   *time.Time
	FlightMode shared.FlightMode
	Role       string
}

// IsOnCooldown reports whether the ship's cooldown has not yet expired.
func (s *Ship) IsOnCooldown(now time.Time) bool {
	return s.Cooldown != nil && s.Cooldown.After(now)
}

// CargoUnitsOf returns held units of a trade symbol (0 if absent).
func (s *Ship) CargoUnitsOf(symbol string) int {
	return s.Cargo.GetItemUnits(symbol)
}

// FillCargoUnits returns how many more units of any good fit in the hold.
func (s *Ship) FillCargoUnits() int {
	return s.Cargo.AvailableCapacity()
}
