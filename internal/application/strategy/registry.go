// Package strategy holds the long-lived, subscriber-driven state machines
// that drive autonomous fleet behavior: one BaseContractStrategy per active
// contract, and the single in-system SystemTradeStrategy.
package strategy

import (
	"fmt"
	"sync"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
)

// Registry is the named collection of active strategies. The REPL runs its
// Dispatch synchronously, on the reader goroutine, bypassing the worker and
// its queue — only the strategies' own subscriber callbacks run on the
// worker goroutine, so every strategy method guards its state with its own
// mutex independent of dispatch order.
type Registry struct {
	mu sync.Mutex

	params    *globalparams.Params
	trade     *SystemTradeStrategy
	contracts map[string]*BaseContractStrategy
}

// New builds an empty strategy registry over params.
func New(params *globalparams.Params) *Registry {
	return &Registry{
		params:    params,
		contracts: make(map[string]*BaseContractStrategy),
	}
}

// Trade lazily constructs and returns the single in-system trade strategy.
func (r *Registry) Trade() *SystemTradeStrategy {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.trade == nil {
		r.trade = NewSystemTradeStrategy(r.params)
	}
	return r.trade
}

// Contract returns the strategy tracking contractID, or nil if none has
// been started.
func (r *Registry) Contract(contractID string) *BaseContractStrategy {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.contracts[contractID]
}

// StartContract creates and registers a BaseContractStrategy for contractID
// mining asteroidWaypoint, replacing any existing strategy for that id.
func (r *Registry) StartContract(contractID, asteroidWaypoint string) *BaseContractStrategy {
	s := NewBaseContractStrategy(r.params, contractID, asteroidWaypoint)
	r.mu.Lock()
	r.contracts[contractID] = s
	r.mu.Unlock()
	return s
}

// Dispatch forwards one REPL-issued command to the strategy it targets.
// eventType/name follow the same (type, name) vocabulary as the worker's
// HandlerRegistry, but these commands never enter the EventQueue: they
// mutate strategy state directly.
// Each strategy method below takes the state lock itself only around the
// gamestate reads/writes it needs (the same methods also run from
// subscriber callbacks on the worker goroutine, where no outer lock is
// held), so Dispatch must not hold it across the call or a REPL-issued
// command would deadlock against itself.
func (r *Registry) Dispatch(eventType, name string, args []interface{}) error {
	switch eventType {
	case "STRATEGY":
		switch name {
		case "trade":
			ship, err := argString(args, 0)
			if err != nil {
				return err
			}
			r.Trade().AssignTrader(ship)
			return nil
		case "market_update":
			ship, err := argString(args, 0)
			if err != nil {
				return err
			}
			system, err := argString(args, 1)
			if err != nil {
				return err
			}
			r.Trade().AssignMarketUpdater(ship, system)
			return nil
		case "trade_routes":
			r.Trade().BuildTradeRoutes()
			return nil
		}
	case "CONTRACT":
		switch name {
		case "strategy":
			contractID, err := argString(args, 0)
			if err != nil {
				return err
			}
			asteroid, err := argString(args, 1)
			if err != nil {
				return err
			}
			r.StartContract(contractID, asteroid)
			return nil
		case "assign_strategy_ship":
			return r.forwardToContract(args, func(s *BaseContractStrategy, ship string) { s.AssignShip(ship) })
		case "assign_strategy_surveyor":
			return r.forwardToContract(args, func(s *BaseContractStrategy, ship string) { s.AssignSurveyor(ship) })
		case "assign_strategy_survey":
			return r.forwardToContractSignature(args)
		}
	}
	return fmt.Errorf("strategy registry: no route for %s.%s", eventType, name)
}

func (r *Registry) forwardToContract(args []interface{}, apply func(*BaseContractStrategy, string)) error {
	contractID, err := argString(args, 0)
	if err != nil {
		return err
	}
	ship, err := argString(args, 1)
	if err != nil {
		return err
	}
	s := r.Contract(contractID)
	if s == nil {
		return fmt.Errorf("strategy registry: no active strategy for contract %s", contractID)
	}
	apply(s, ship)
	return nil
}

func (r *Registry) forwardToContractSignature(args []interface{}) error {
	contractID, err := argString(args, 0)
	if err != nil {
		return err
	}
	signature, err := argString(args, 1)
	if err != nil {
		return err
	}
	s := r.Contract(contractID)
	if s == nil {
		return fmt.Errorf("strategy registry: no active strategy for contract %s", contractID)
	}
	if !s.AssignSurvey(signature) {
		return fmt.Errorf("strategy registry: survey %s is not a valid assignment for contract %s", signature, contractID)
	}
	return nil
}

func argString(args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("strategy registry: expected argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("strategy registry: argument %d is not a string", i)
	}
	return s, nil
}
