// Package globalparams bundles the process-wide singletons (queue, state,
// remote API, store, clock) into one record passed explicitly to every
// handler and strategy, instead of reaching for package-level globals.
package globalparams

import (
	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

// Tuning holds the numeric policies spec.md fixes as constants but the
// configuration layer allows overriding.
type Tuning struct {
	// AssumedCargo is the cargo size the trade planner assumes when sizing
	// a round trip's margin (spec default: 60).
	AssumedCargo int
	// AvgFuelPrice is the assumed credits-per-fuel-unit used to price a
	// trade route's fuel cost (spec default: 240).
	AvgFuelPrice int
	// PriceThreshold is the minimum trip margin a trade route must clear
	// to be accepted (spec default: 20 * AssumedCargo).
	PriceThreshold int
	// Reserved lists cargo symbols strategies never sell, buy, or jettison.
	Reserved map[string]bool
}

// DefaultTuning returns the numeric policies named in spec.md section 4.5.
func DefaultTuning() Tuning {
	const assumedCargo = 60
	return Tuning{
		AssumedCargo:   assumedCargo,
		AvgFuelPrice:   240,
		PriceThreshold: 20 * assumedCargo,
		Reserved:       map[string]bool{"ANTIMATTER": true},
	}
}

// Params is the context record threaded through every handler and strategy
// method instead of package-level singletons, so tests can substitute fakes.
type Params struct {
	Queue  *event.Queue
	State  *gamestate.State
	API    ports.GameAPI
	Store  ports.Store
	Clock  shared.Clock
	Tuning Tuning
}

// New wires a Params record from its constituent singletons, applying
// DefaultTuning.
func New(queue *event.Queue, state *gamestate.State, api ports.GameAPI, store ports.Store, clock shared.Clock) *Params {
	return &Params{
		Queue:  queue,
		State:  state,
		API:    api,
		Store:  store,
		Clock:  clock,
		Tuning: DefaultTuning(),
	}
}

// IsReserved reports whether a cargo symbol is never sold, bought, or
// jettisoned automatically by strategies.
func (p *Params) IsReserved(symbol string) bool {
	return p.Tuning.Reserved[symbol]
}
