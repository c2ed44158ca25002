package handlers

import (
	"context"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/gamestate"
)

// RegisterAgentHandlers wires every AGENT.* handler into r.
func RegisterAgentHandlers(r *registry.Registry) {
	r.Register(event.TypeAgent, "fetch", AgentFetch)
	r.Register(event.TypeAgent, "register", AgentRegister)
}

// AgentFetch refreshes the agent's headline fields from the remote API.
func AgentFetch(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	data, err := p.API.FetchAgent(ctx, p.State.Token())
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	p.State.SetAgent(gamestate.Agent{
		Symbol:          data.Symbol,
		Headquarters:    data.Headquarters,
		Credits:         data.Credits,
		StartingFaction: data.StartingFaction,
	})
	return event.SUCCESS, nil
}

// AgentRegister registers a brand-new agent. The returned bearer token is
// not applied to the running State (State is constructed with a fixed
// token at startup); callers inspecting the event's subscribers pick up
// the new agent/ship instead.
func AgentRegister(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	symbol, err := argString(ev.Args, 0, "symbol")
	if err != nil {
		return event.FAIL, err
	}
	faction, err := argString(ev.Args, 1, "faction")
	if err != nil {
		return event.FAIL, err
	}
	email := argStringOrEmpty(ev.Args, 2)

	result, err := p.API.Register(ctx, symbol, faction, email)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	p.State.SetAgent(gamestate.Agent{
		Symbol:          result.Agent.Symbol,
		Headquarters:    result.Agent.Headquarters,
		Credits:         result.Agent.Credits,
		StartingFaction: result.Agent.StartingFaction,
	})
	if _, err := storeShip(p.State, result.Ship); err != nil {
		return event.FAIL, err
	}
	return event.SUCCESS, nil
}
