package handlers

import (
	"context"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/application/registry"
	"github.com/andrescamacho/spacetraders-go/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
)

// RegisterContractHandlers wires every CONTRACT.* handler into r.
func RegisterContractHandlers(r *registry.Registry) {
	r.Register(event.TypeContract, "fetch_all", ContractFetchAll)
	r.Register(event.TypeContract, "accept", ContractAccept)
	r.Register(event.TypeContract, "deliver", ContractDeliver)
	r.Register(event.TypeContract, "fulfill", ContractFulfill)
}

func contractFromData(d ports.ContractData) (*contract.Contract, error) {
	deliveries := make([]contract.Delivery, len(d.Terms.Deliveries))
	for i, dl := range d.Terms.Deliveries {
		deliveries[i] = contract.Delivery{
			TradeSymbol:       dl.TradeSymbol,
			DestinationSymbol: dl.DestinationSymbol,
			UnitsRequired:     dl.UnitsRequired,
			UnitsFulfilled:    dl.UnitsFulfilled,
		}
	}
	terms := contract.Terms{
		Payment: contract.Payment{
			OnAccepted:  d.Terms.Payment.OnAccepted,
			OnFulfilled: d.Terms.Payment.OnFulfilled,
		},
		Deliveries:       deliveries,
		DeadlineToAccept: d.Terms.DeadlineToAccept,
		Deadline:         d.Terms.Deadline,
	}
	c, err := contract.NewContract(d.ID, SinglePlayerID, d.FactionSymbol, d.Type, terms, nil)
	if err != nil {
		return nil, err
	}
	if d.Accepted {
		_ = c.Accept()
	}
	for _, dl := range deliveries {
		if dl.UnitsFulfilled > 0 {
			_ = c.DeliverCargo(dl.TradeSymbol, dl.UnitsFulfilled)
		}
	}
	if d.Fulfilled && c.CanFulfill() {
		_ = c.Fulfill()
	}
	return c, nil
}

// ContractFetchAll refreshes every contract visible to the agent.
func ContractFetchAll(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	contracts, err := p.API.ListContracts(ctx, p.State.Token())
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	for _, d := range contracts {
		c, err := contractFromData(d)
		if err != nil {
			return event.FAIL, err
		}
		p.State.SetContract(c)
	}
	return event.SUCCESS, nil
}

// ContractAccept accepts a contract and credits the acceptance payment.
func ContractAccept(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	contractID, err := argString(ev.Args, 0, "contract_id")
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.AcceptContract(ctx, p.State.Token(), contractID)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	c, err := contractFromData(result.Contract)
	if err != nil {
		return event.FAIL, err
	}
	p.State.SetContract(c)
	agent := p.State.Agent()
	agent.Credits = result.Agent.Credits
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}

// ContractDeliver delivers units of a resource towards one delivery line.
func ContractDeliver(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	contractID, err := argString(ev.Args, 0, "contract_id")
	if err != nil {
		return event.FAIL, err
	}
	shipSymbol, err := argString(ev.Args, 1, "ship")
	if err != nil {
		return event.FAIL, err
	}
	resource, err := argString(ev.Args, 2, "resource")
	if err != nil {
		return event.FAIL, err
	}
	units, err := argInt(ev.Args, 3, "units")
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.DeliverContract(ctx, p.State.Token(), contractID, shipSymbol, resource, units)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	c, err := contractFromData(result.Contract)
	if err != nil {
		return event.FAIL, err
	}
	p.State.SetContract(c)
	sh := p.State.Ship(shipSymbol)
	if sh != nil {
		removeCargoUnits(sh, resource, units)
		if result.Cargo.Capacity > 0 {
			sh.Cargo.Capacity = result.Cargo.Capacity
		}
	}
	return event.SUCCESS, nil
}

// ContractFulfill completes a contract whose deliveries are all satisfied.
func ContractFulfill(ctx context.Context, p *globalparams.Params, ev event.Event) (event.Result, error) {
	contractID, err := argString(ev.Args, 0, "contract_id")
	if err != nil {
		return event.FAIL, err
	}

	result, err := p.API.FulfillContract(ctx, p.State.Token(), contractID)
	if err != nil {
		return event.FAIL, err
	}

	p.State.Lock()
	defer p.State.Unlock()
	c, err := contractFromData(result.Contract)
	if err != nil {
		return event.FAIL, err
	}
	p.State.SetContract(c)
	agent := p.State.Agent()
	agent.Credits = result.Agent.Credits
	p.State.SetAgent(agent)
	return event.SUCCESS, nil
}
