package strategy

import (
	"math"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/andrescamacho/spacetraders-go/internal/application/globalparams"
	"github.com/andrescamacho/spacetraders-go/internal/domain/event"
	"github.com/andrescamacho/spacetraders-go/internal/domain/ship"
	"github.com/andrescamacho/spacetraders-go/pkg/utils"
)

const contractDeliverySlack = 5 * time.Second
const deliveryArrivalSlack = 10 * time.Second

// requiredResource tracks one remaining delivery line of a contract.
type requiredResource struct {
	deliverTo      string
	unitsRemaining int
}

// ContractDelivery is a scheduled drop-off of mined cargo against a
// contract's delivery terms.
// ContractDelivery is a scheduled drop-off: a ship carries Units of
// Resource to DeliverTo, optionally fulfilling the contract. ID identifies
// it across the navigate it's pinned to in pendingDeliveryNavigates.
type ContractDelivery struct {
	ID        string `validate:"required"`
	Ship      string `validate:"required"`
	Resource  string `validate:"required"`
	Units     int    `validate:"required,gt=0"`
	DeliverTo string `validate:"required"`
	Fulfill   bool
}

var contractDeliveryValidate = validator.New()

// BaseContractStrategy drives one contract's mining-for-delivery loop: ships
// are assigned to an asteroid, mine (optionally biased by a survey), and
// ferry cargo to the contract's delivery waypoint.
type BaseContractStrategy struct {
	mu sync.Mutex

	params           *globalparams.Params
	contractID       string
	asteroidWaypoint string

	requiredResources map[string]*requiredResource
	assignedShips     map[string]bool
	assignedSurveyor  string
	surveySignature   string
	contractComplete  bool

	pendingNavigates         map[int64]bool
	pendingExtracts          map[int64]bool
	pendingDeliveryNavigates map[int64]*ContractDelivery
}

// NewBaseContractStrategy constructs a strategy for one contract, deriving
// required resources from its delivery terms (required minus fulfilled) and
// subscribing to the completions it reacts to.
func NewBaseContractStrategy(p *globalparams.Params, contractID, asteroidWaypoint string) *BaseContractStrategy {
	s := &BaseContractStrategy{
		params:                   p,
		contractID:               contractID,
		asteroidWaypoint:         asteroidWaypoint,
		requiredResources:        make(map[string]*requiredResource),
		assignedShips:            make(map[string]bool),
		pendingNavigates:         make(map[int64]bool),
		pendingExtracts:          make(map[int64]bool),
		pendingDeliveryNavigates: make(map[int64]*ContractDelivery),
	}

	p.State.Lock()
	c := p.State.Contract(contractID)
	p.State.Unlock()
	if c != nil {
		for _, d := range c.Terms().Deliveries {
			remaining := d.UnitsRequired - d.UnitsFulfilled
			if remaining > 0 {
				s.requiredResources[d.TradeSymbol] = &requiredResource{
					deliverTo:      d.DestinationSymbol,
					unitsRemaining: remaining,
				}
			}
		}
	}

	p.Queue.Subscribe(event.TypeShip, "extract", s.onExtract)
	p.Queue.Subscribe(event.TypeShip, "navigate", s.onNavigate)
	p.Queue.Subscribe(event.TypeShip, "survey", s.onSurvey)

	return s
}

// AssignShip routes a ship to the asteroid and starts mining, restoring its
// in-progress state if the process was restarted mid-trip.
func (s *BaseContractStrategy) AssignShip(shipSymbol string) {
	s.mu.Lock()
	s.assignedShips[shipSymbol] = true
	s.mu.Unlock()
	s.restoreShipState(shipSymbol)
}

// AssignSurveyor nominates a ship to produce surveys for this contract.
func (s *BaseContractStrategy) AssignSurveyor(shipSymbol string) {
	s.mu.Lock()
	s.assignedSurveyor = shipSymbol
	s.mu.Unlock()
	s.restoreShipState(shipSymbol)
}

// AssignSurvey sets the preferred survey signature, validating it exists,
// is not expired, and belongs to the asteroid waypoint.
func (s *BaseContractStrategy) AssignSurvey(signature string) bool {
	p := s.params
	p.State.Lock()
	sv := p.State.Survey(s.asteroidWaypoint, signature)
	valid := sv != nil && !sv.IsExpired(p.Clock.Now())
	p.State.Unlock()
	if !valid {
		return false
	}
	s.mu.Lock()
	s.surveySignature = signature
	s.mu.Unlock()
	return true
}

// restoreShipState enqueues whatever the ship needs next to resume mining:
// navigate if away from the asteroid, orbit+survey if it is the surveyor
// with no current survey, otherwise dock/refuel/extract.
func (s *BaseContractStrategy) restoreShipState(shipSymbol string) {
	p := s.params
	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	p.State.Unlock()
	if sh == nil {
		return
	}

	if sh.Nav.WaypointSymbol != s.asteroidWaypoint || sh.Nav.Status == ship.NavInTransit {
		ev := p.Queue.PutNew(event.TypeShip, "navigate", shipSymbol, s.asteroidWaypoint)
		s.mu.Lock()
		s.pendingNavigates[ev.ID] = true
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	isSurveyor := s.assignedSurveyor == shipSymbol
	hasSurvey := s.surveySignature != ""
	s.mu.Unlock()

	if isSurveyor && !hasSurvey {
		p.Queue.PutNew(event.TypeShip, "orbit", shipSymbol)
		p.Queue.PutNew(event.TypeShip, "survey", shipSymbol)
		return
	}

	if sh.Nav.Status == ship.NavInOrbit {
		p.Queue.PutNew(event.TypeShip, "dock", shipSymbol)
	}
	if !sh.Fuel.IsFull() {
		p.Queue.PutNew(event.TypeShip, "refuel", shipSymbol)
	}
	ev := p.Queue.PutNew(event.TypeShip, "extract", shipSymbol, s.currentSurveySignature())
	s.mu.Lock()
	s.pendingExtracts[ev.ID] = true
	s.mu.Unlock()
}

func (s *BaseContractStrategy) currentSurveySignature() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surveySignature
}

// validateSurvey reports whether surveySignature still points at a live
// survey at the asteroid. Once the contract is complete, mining continues
// without needing a valid survey.
func (s *BaseContractStrategy) validateSurvey() bool {
	s.mu.Lock()
	complete := s.contractComplete
	sig := s.surveySignature
	s.mu.Unlock()
	if complete {
		return true
	}
	if sig == "" {
		return false
	}
	p := s.params
	p.State.Lock()
	sv := p.State.Survey(s.asteroidWaypoint, sig)
	valid := sv != nil && !sv.IsExpired(p.Clock.Now())
	p.State.Unlock()
	return valid
}

// onSurvey reacts to SHIP.survey completions, but only when the completing
// ship is this contract's assigned surveyor.
func (s *BaseContractStrategy) onSurvey(ev event.Event) {
	shipSymbol, ok := ev.Args[0].(string)
	if !ok {
		return
	}
	s.mu.Lock()
	isSurveyor := s.assignedSurveyor == shipSymbol
	s.mu.Unlock()
	if !isSurveyor {
		return
	}

	p := s.params
	p.State.Lock()
	now := p.Clock.Now()
	for _, sv := range p.State.SurveysAt(s.asteroidWaypoint) {
		if sv.IsExpired(now) {
			p.State.DeleteSurvey(sv.WaypointSymbol, sv.Signature)
		}
	}
	var found string
	var cooldownExpiry time.Time
	for _, sv := range p.State.SurveysAt(s.asteroidWaypoint) {
		if sv.IsExpired(now) {
			continue
		}
		for symbol := range s.requiredResources {
			if sv.HasDeposit(symbol) {
				found = sv.Signature
				break
			}
		}
		if found != "" {
			break
		}
	}
	sh := p.State.Ship(shipSymbol)
	if sh != nil && sh.Cooldown != nil {
		cooldownExpiry = *sh.Cooldown
	} else {
		cooldownExpiry = now
	}
	p.State.Unlock()

	when := cooldownExpiry.Add(contractDeliverySlack)

	if found != "" {
		s.mu.Lock()
		s.surveySignature = found
		s.mu.Unlock()
		dockEv := p.Queue.NewEvent(event.TypeShip, "dock", shipSymbol)
		extractEv := p.Queue.NewEvent(event.TypeShip, "extract", shipSymbol, found)
		p.Queue.ScheduleBatch(when, []event.Event{dockEv, extractEv})
		s.mu.Lock()
		s.pendingExtracts[extractEv.ID] = true
		s.mu.Unlock()
		return
	}

	surveyEv := p.Queue.NewEvent(event.TypeShip, "survey", shipSymbol)
	p.Queue.Schedule(when, surveyEv)
}

// onExtract reacts to SHIP.extract completions for IDs this strategy
// recorded in pendingExtracts.
func (s *BaseContractStrategy) onExtract(ev event.Event) {
	s.mu.Lock()
	_, tracked := s.pendingExtracts[ev.ID]
	if tracked {
		delete(s.pendingExtracts, ev.ID)
	}
	s.mu.Unlock()
	if !tracked {
		return
	}

	shipSymbol, ok := ev.Args[0].(string)
	if !ok {
		return
	}

	p := s.params
	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	if sh == nil {
		p.State.Unlock()
		return
	}

	s.mu.Lock()

	reservedUnits := 0
	for symbol := range p.Tuning.Reserved {
		reservedUnits += sh.CargoUnitsOf(symbol)
	}
	requiredDeliveryCargo := int(math.Floor(0.8 * float64(sh.Cargo.Capacity-reservedUnits)))

	contractItems := make(map[string]int)
	var sellEvents []event.Event
	for _, item := range sh.Cargo.Inventory {
		if p.IsReserved(item.Symbol) {
			continue
		}
		if _, required := s.requiredResources[item.Symbol]; required {
			contractItems[item.Symbol] = item.Units
			continue
		}
		if item.Units > 0 {
			sellEvents = append(sellEvents, p.Queue.NewEvent(event.TypeShip, "sell_cargo_item", shipSymbol, item.Symbol, -1))
		}
	}

	var delivery *ContractDelivery
	for symbol, units := range contractItems {
		req := s.requiredResources[symbol]
		if req == nil || units < requiredDeliveryCargo {
			continue
		}
		take := utils.Min(units, req.unitsRemaining)
		candidate := &ContractDelivery{ID: uuid.NewString(), Ship: shipSymbol, Resource: symbol, Units: take, DeliverTo: req.deliverTo}
		if err := contractDeliveryValidate.Struct(candidate); err != nil {
			continue
		}
		delivery = candidate
		req.unitsRemaining -= take
		if req.unitsRemaining <= 0 {
			delete(s.requiredResources, symbol)
		}
		break
	}
	if len(s.requiredResources) == 0 && delivery != nil {
		s.contractComplete = true
		delivery.Fulfill = true
	}
	cooldownExpiry := p.Clock.Now()
	if sh.Cooldown != nil {
		cooldownExpiry = *sh.Cooldown
	}
	isSurveyor := s.assignedSurveyor == shipSymbol
	s.mu.Unlock()
	p.State.Unlock()

	for _, sellEv := range sellEvents {
		p.Queue.Put(sellEv)
	}

	when := cooldownExpiry.Add(contractDeliverySlack)

	if delivery == nil {
		if !s.validateSurvey() {
			s.mu.Lock()
			s.surveySignature = ""
			s.mu.Unlock()
		}
		if isSurveyor {
			surveyEv := p.Queue.NewEvent(event.TypeShip, "survey", shipSymbol)
			p.Queue.Schedule(when, surveyEv)
		} else {
			extractEv := p.Queue.NewEvent(event.TypeShip, "extract", shipSymbol, s.currentSurveySignature())
			p.Queue.Schedule(when, extractEv)
			s.mu.Lock()
			s.pendingExtracts[extractEv.ID] = true
			s.mu.Unlock()
		}
		return
	}

	orbitEv := p.Queue.NewEvent(event.TypeShip, "orbit", shipSymbol)
	navEv := p.Queue.NewEvent(event.TypeShip, "navigate", shipSymbol, delivery.DeliverTo)
	p.Queue.ScheduleBatch(when, []event.Event{orbitEv, navEv})
	s.mu.Lock()
	s.pendingDeliveryNavigates[navEv.ID] = delivery
	s.mu.Unlock()
}

// onNavigate reacts to SHIP.navigate completions tracked either as an
// outbound delivery trip or a return trip to the asteroid.
func (s *BaseContractStrategy) onNavigate(ev event.Event) {
	shipSymbol, ok := ev.Args[0].(string)
	if !ok {
		return
	}
	p := s.params

	s.mu.Lock()
	delivery, isDelivery := s.pendingDeliveryNavigates[ev.ID]
	if isDelivery {
		delete(s.pendingDeliveryNavigates, ev.ID)
	}
	_, isReturn := s.pendingNavigates[ev.ID]
	if isReturn {
		delete(s.pendingNavigates, ev.ID)
	}
	s.mu.Unlock()

	if !isDelivery && !isReturn {
		return
	}

	p.State.Lock()
	sh := p.State.Ship(shipSymbol)
	var arrival time.Time
	if sh != nil && sh.Nav.Route != nil {
		arrival = sh.Nav.Route.Arrival
	} else {
		arrival = p.Clock.Now()
	}
	p.State.Unlock()

	if isDelivery {
		when := arrival.Add(deliveryArrivalSlack)
		batch := []event.Event{
			p.Queue.NewEvent(event.TypeShip, "dock", shipSymbol),
			p.Queue.NewEvent(event.TypeShip, "refuel", shipSymbol),
			p.Queue.NewEvent(event.TypeContract, "deliver", s.contractID, shipSymbol, delivery.Resource, delivery.Units),
		}
		if delivery.Fulfill {
			batch = append(batch, p.Queue.NewEvent(event.TypeContract, "fulfill", s.contractID))
		}
		batch = append(batch,
			p.Queue.NewEvent(event.TypeShip, "orbit", shipSymbol),
			p.Queue.NewEvent(event.TypeShip, "navigate", shipSymbol, s.asteroidWaypoint),
		)
		p.Queue.ScheduleBatch(when, batch)
		returnNav := batch[len(batch)-1]
		s.mu.Lock()
		s.pendingNavigates[returnNav.ID] = true
		s.mu.Unlock()
		return
	}

	// Return trip to the asteroid: dock, refuel, extract.
	when := arrival
	dockEv := p.Queue.NewEvent(event.TypeShip, "dock", shipSymbol)
	refuelEv := p.Queue.NewEvent(event.TypeShip, "refuel", shipSymbol)
	extractEv := p.Queue.NewEvent(event.TypeShip, "extract", shipSymbol, s.currentSurveySignature())
	p.Queue.ScheduleBatch(when, []event.Event{dockEv, refuelEv, extractEv})
	s.mu.Lock()
	s.pendingExtracts[extractEv.ID] = true
	s.mu.Unlock()
}
