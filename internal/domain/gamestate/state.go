// Package gamestate holds the single in-memory mapping of agent, ships,
// contracts, surveys, markets and waypoints that action handlers mutate and
// strategies read. It is the only shared mutable structure in the system.
//
// State does not lock itself: every accessor below assumes the caller
// already holds State.Lock() for the duration of the read-modify-write (or
// multi-field read) it is part of, per the shared-resource policy — a
// handler locks once, validates, mutates, and unlocks, rather than paying a
// separate lock per field access.
package gamestate

import (
	"sync"

	"github.com/andrescamacho/spacetraders-go/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-go/internal/domain/market"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
	"github.com/andrescamacho/spacetraders-go/internal/domain/ship"
	"github.com/andrescamacho/spacetraders-go/internal/domain/survey"
)

// Agent mirrors the authenticated agent's headline fields.
type Agent struct {
	Symbol          string
	Headquarters    string
	Credits         int
	StartingFaction string
}

// surveyKey identifies a survey by (asteroid waypoint, signature).
type surveyKey struct {
	waypoint  string
	signature string
}

// State is the process-wide game state. Zero value is not usable; use New.
type State struct {
	mu sync.Mutex

	token string
	agent Agent

	ships     map[string]*ship.Ship
	contracts map[string]*contract.Contract
	surveys   map[surveyKey]*survey.Survey
	markets   map[string]*market.Market
	waypoints map[string]*shared.Waypoint
}

// New creates an empty game state authenticated with the given bearer token.
func New(token string) *State {
	return &State{
		token:     token,
		ships:     make(map[string]*ship.Ship),
		contracts: make(map[string]*contract.Contract),
		surveys:   make(map[surveyKey]*survey.Survey),
		markets:   make(map[string]*market.Market),
		waypoints: make(map[string]*shared.Waypoint),
	}
}

// Token returns the bearer token used for all GameAPI calls. Safe to call
// without holding the lock; it never changes after New.
func (s *State) Token() string {
	return s.token
}

// Lock/Unlock guard every mutation or multi-field read. Call Lock before
// touching any accessor below and Unlock when done.
func (s *State) Lock()   { s.mu.Lock() }
func (s *State) Unlock() { s.mu.Unlock() }

// --- Agent ---

func (s *State) Agent() Agent      { return s.agent }
func (s *State) SetAgent(a Agent)  { s.agent = a }

// --- Ships ---

func (s *State) Ship(symbol string) *ship.Ship { return s.ships[symbol] }

func (s *State) SetShip(sh *ship.Ship) { s.ships[sh.Symbol] = sh }

func (s *State) Ships() []*ship.Ship {
	out := make([]*ship.Ship, 0, len(s.ships))
	for _, sh := range s.ships {
		out = append(out, sh)
	}
	return out
}

// --- Contracts ---

func (s *State) Contract(id string) *contract.Contract { return s.contracts[id] }

func (s *State) SetContract(c *contract.Contract) { s.contracts[c.ContractID()] = c }

func (s *State) Contracts() []*contract.Contract {
	out := make([]*contract.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	return out
}

// --- Surveys ---

// SetSurvey stores or replaces a survey keyed by (waypoint, signature).
func (s *State) SetSurvey(sv *survey.Survey) {
	s.surveys[surveyKey{waypoint: sv.WaypointSymbol, signature: sv.Signature}] = sv
}

// Survey looks up a survey by its exact key.
func (s *State) Survey(waypointSymbol, signature string) *survey.Survey {
	return s.surveys[surveyKey{waypoint: waypointSymbol, signature: signature}]
}

// SurveysAt returns all (including expired) surveys at a waypoint. Callers
// filter on IsExpired(now) themselves.
func (s *State) SurveysAt(waypointSymbol string) []*survey.Survey {
	var out []*survey.Survey
	for k, sv := range s.surveys {
		if k.waypoint == waypointSymbol {
			out = append(out, sv)
		}
	}
	return out
}

// DeleteSurvey removes one survey by its exact key.
func (s *State) DeleteSurvey(waypointSymbol, signature string) {
	delete(s.surveys, surveyKey{waypoint: waypointSymbol, signature: signature})
}

// --- Markets ---

func (s *State) Market(waypointSymbol string) *market.Market { return s.markets[waypointSymbol] }

func (s *State) SetMarket(m *market.Market) { s.markets[m.WaypointSymbol()] = m }

// --- Waypoints ---

func (s *State) Waypoint(symbol string) *shared.Waypoint { return s.waypoints[symbol] }

func (s *State) SetWaypoint(wp *shared.Waypoint) { s.waypoints[wp.Symbol] = wp }

// WaypointsInSystem returns the cached waypoints belonging to a system.
func (s *State) WaypointsInSystem(systemSymbol string) []*shared.Waypoint {
	var out []*shared.Waypoint
	for _, wp := range s.waypoints {
		if wp.SystemSymbol == systemSymbol {
			out = append(out, wp)
		}
	}
	return out
}
