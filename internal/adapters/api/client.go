package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

const (
	baseURL                 = "https://api.spacetraders.io/v2"
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 5
	defaultBackoffBase      = time.Second
	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = 60 * time.Second
)

// SpaceTradersClient implements ports.GameAPI against the live SpaceTraders
// v2 HTTP API: rate limited, circuit-breaker protected, retried on
// transient failures.
type SpaceTradersClient struct {
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	baseURL        string
	maxRetries     int
	backoffBase    time.Duration
	circuitBreaker *CircuitBreaker
	clock          shared.Clock
}

var _ ports.GameAPI = (*SpaceTradersClient)(nil)

// NewSpaceTradersClient creates a client with the defaults spec.md's T_get
// timeout and rate-limit policy call for: 2 req/sec, burst 2, 5 retries with
// 1s exponential backoff, circuit breaker opening after 5 failures for 60s.
func NewSpaceTradersClient() *SpaceTradersClient {
	return NewSpaceTradersClientWithConfig(
		baseURL,
		defaultMaxRetries,
		defaultBackoffBase,
		defaultCircuitThreshold,
		defaultCircuitTimeout,
		nil,
	)
}

// NewSpaceTradersClientWithConfig creates a client with custom tuning. A nil
// clock defaults to RealClock; tests inject shared.MockClock to make
// backoff/circuit timeouts instant.
func NewSpaceTradersClientWithConfig(
	baseURL string,
	maxRetries int,
	backoffBase time.Duration,
	circuitThreshold int,
	circuitTimeout time.Duration,
	clock shared.Clock,
) *SpaceTradersClient {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &SpaceTradersClient{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		rateLimiter:    rate.NewLimiter(rate.Limit(2), 2),
		baseURL:        baseURL,
		maxRetries:     maxRetries,
		backoffBase:    backoffBase,
		circuitBreaker: NewCircuitBreaker(circuitThreshold, circuitTimeout, clock),
		clock:          clock,
	}
}

// --- Agent ---

type agentPayload struct {
	AccountID       string `json:"accountId"`
	Symbol          string `json:"symbol"`
	Headquarters    string `json:"headquarters"`
	Credits         int    `json:"credits"`
	StartingFaction string `json:"startingFaction"`
}

func (p agentPayload) toDomain() ports.AgentData {
	return ports.AgentData{
		Symbol:          p.Symbol,
		Headquarters:    p.Headquarters,
		Credits:         p.Credits,
		StartingFaction: p.StartingFaction,
	}
}

func (c *SpaceTradersClient) FetchAgent(ctx context.Context, token string) (*ports.AgentData, error) {
	var response struct {
		Data agentPayload `json:"data"`
	}
	if err := c.request(ctx, "GET", "/my/agent", token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}
	agent := response.Data.toDomain()
	return &agent, nil
}

func (c *SpaceTradersClient) Register(ctx context.Context, symbol, faction, email string) (*ports.RegisterResult, error) {
	body := map[string]string{
		"symbol":  symbol,
		"faction": faction,
	}
	if email != "" {
		body["email"] = email
	}

	var response struct {
		Data struct {
			Token   string       `json:"token"`
			Agent   agentPayload `json:"agent"`
			Faction struct {
				Symbol string `json:"symbol"`
			} `json:"faction"`
			Ship shipPayload `json:"ship"`
		} `json:"data"`
	}

	if err := c.request(ctx, "POST", "/register", "", body, &response); err != nil {
		return nil, fmt.Errorf("failed to register agent: %w", err)
	}

	return &ports.RegisterResult{
		Token:   response.Data.Token,
		Agent:   response.Data.Agent.toDomain(),
		Faction: response.Data.Faction.Symbol,
		Ship:    response.Data.Ship.toDomain(),
	}, nil
}

// --- Fleet ---

type navRoutePayload struct {
	Destination struct {
		Symbol string `json:"symbol"`
	} `json:"destination"`
	Origin struct {
		Symbol string `json:"symbol"`
	} `json:"origin"`
	DepartureTime string `json:"departureTime"`
	Arrival       string `json:"arrival"`
}

type shipPayload struct {
	Symbol string `json:"symbol"`
	Nav    struct {
		SystemSymbol   string          `json:"systemSymbol"`
		WaypointSymbol string          `json:"waypointSymbol"`
		Status         string          `json:"status"`
		FlightMode     string          `json:"flightMode"`
		Route          navRoutePayload `json:"route"`
	} `json:"nav"`
	Cooldown struct {
		Expiration string `json:"expiration"`
	} `json:"cooldown"`
	Fuel struct {
		Current  int `json:"current"`
		Capacity int `json:"capacity"`
	} `json:"fuel"`
	Cargo struct {
		Capacity  int `json:"capacity"`
		Units     int `json:"units"`
		Inventory []struct {
			Symbol string `json:"symbol"`
			Units  int    `json:"units"`
		} `json:"inventory"`
	} `json:"cargo"`
	Engine struct {
		Speed int `json:"speed"`
	} `json:"engine"`
	Frame struct {
		Symbol string `json:"symbol"`
	} `json:"frame"`
}

func (p shipPayload) toDomain() ports.ShipData {
	inventory := make([]ports.CargoItemData, len(p.Cargo.Inventory))
	for i, item := range p.Cargo.Inventory {
		inventory[i] = ports.CargoItemData{Symbol: item.Symbol, Units: item.Units}
	}

	var route *ports.NavRoute
	if p.Nav.Status == "IN_TRANSIT" {
		route = &ports.NavRoute{
			Origin:      p.Nav.Route.Origin.Symbol,
			Destination: p.Nav.Route.Destination.Symbol,
			Arrival:     p.Nav.Route.Arrival,
			DepartureAt: p.Nav.Route.DepartureTime,
		}
	}

	return ports.ShipData{
		Symbol:         p.Symbol,
		SystemSymbol:   p.Nav.SystemSymbol,
		WaypointSymbol: p.Nav.WaypointSymbol,
		NavStatus:      p.Nav.Status,
		FlightMode:     p.Nav.FlightMode,
		Route:          route,
		FuelCurrent:    p.Fuel.Current,
		FuelCapacity:   p.Fuel.Capacity,
		CargoCapacity:  p.Cargo.Capacity,
		CargoUnits:     p.Cargo.Units,
		Cargo:          inventory,
		EngineSpeed:    p.Engine.Speed,
		FrameSymbol:    p.Frame.Symbol,
		Cooldown:       p.Cooldown.Expiration,
	}
}

// ListShips fetches all ships for the authenticated agent, paginating 20 per page.
func (c *SpaceTradersClient) ListShips(ctx context.Context, token string) ([]ports.ShipData, error) {
	var all []ports.ShipData
	page := 1
	const limit = 20

	for {
		path := fmt.Sprintf("/my/ships?page=%d&limit=%d", page, limit)
		var response struct {
			Data []shipPayload `json:"data"`
		}
		if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
			return nil, fmt.Errorf("failed to list ships (page %d): %w", page, err)
		}
		if len(response.Data) == 0 {
			break
		}
		for _, s := range response.Data {
			all = append(all, s.toDomain())
		}
		page++
	}
	return all, nil
}

func (c *SpaceTradersClient) PurchaseShip(ctx context.Context, token, shipType, waypointSymbol string) (*ports.PurchaseShipResult, error) {
	body := map[string]string{
		"shipType":       shipType,
		"waypointSymbol": waypointSymbol,
	}
	var response struct {
		Data struct {
			Ship    shipPayload  `json:"ship"`
			Agent   agentPayload `json:"agent"`
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", "/my/ships", token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to purchase ship: %w", err)
	}
	return &ports.PurchaseShipResult{
		Ship:    response.Data.Ship.toDomain(),
		Credits: response.Data.Agent.Credits,
		Agent:   response.Data.Agent.toDomain(),
	}, nil
}

func (c *SpaceTradersClient) Dock(ctx context.Context, token, shipSymbol string) error {
	path := fmt.Sprintf("/my/ships/%s/dock", shipSymbol)
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("failed to dock ship: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) Orbit(ctx context.Context, token, shipSymbol string) error {
	path := fmt.Sprintf("/my/ships/%s/orbit", shipSymbol)
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, nil); err != nil {
		return fmt.Errorf("failed to orbit ship: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) Navigate(ctx context.Context, token, shipSymbol, destination string) (*ports.NavigationResult, error) {
	path := fmt.Sprintf("/my/ships/%s/navigate", shipSymbol)
	body := map[string]string{"waypointSymbol": destination}

	var response struct {
		Data struct {
			Fuel struct {
				Consumed struct {
					Amount int `json:"amount"`
				} `json:"consumed"`
			} `json:"fuel"`
			Nav struct {
				WaypointSymbol string `json:"waypointSymbol"`
				Route          struct {
					Arrival string `json:"arrival"`
				} `json:"route"`
			} `json:"nav"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to navigate ship: %w", err)
	}
	return &ports.NavigationResult{
		Destination:  response.Data.Nav.WaypointSymbol,
		ArrivalTime:  response.Data.Nav.Route.Arrival,
		FuelConsumed: response.Data.Fuel.Consumed.Amount,
	}, nil
}

func (c *SpaceTradersClient) PatchFlightMode(ctx context.Context, token, shipSymbol, flightMode string) error {
	path := fmt.Sprintf("/my/ships/%s/nav", shipSymbol)
	body := map[string]string{"flightMode": flightMode}
	if err := c.request(ctx, "PATCH", path, token, body, nil); err != nil {
		return fmt.Errorf("failed to set flight mode: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) Jump(ctx context.Context, token, shipSymbol, destination string) (*ports.JumpResult, error) {
	path := fmt.Sprintf("/my/ships/%s/jump", shipSymbol)
	body := map[string]string{"waypointSymbol": destination}

	var response struct {
		Data struct {
			Nav struct {
				WaypointSymbol string `json:"waypointSymbol"`
			} `json:"nav"`
			Cooldown struct {
				Expiration string `json:"expiration"`
			} `json:"cooldown"`
			Agent agentPayload `json:"agent"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to jump ship: %w", err)
	}
	return &ports.JumpResult{
		WaypointSymbol:  response.Data.Nav.WaypointSymbol,
		CooldownExpires: response.Data.Cooldown.Expiration,
		Credits:         response.Data.Agent.Credits,
	}, nil
}

func (c *SpaceTradersClient) Refuel(ctx context.Context, token, shipSymbol string, units *int) (*ports.RefuelResult, error) {
	path := fmt.Sprintf("/my/ships/%s/refuel", shipSymbol)
	body := map[string]interface{}{}
	if units != nil {
		body["units"] = *units
	}

	var response struct {
		Data struct {
			Transaction struct {
				Units      int `json:"units"`
				TotalPrice int `json:"totalPrice"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to refuel ship: %w", err)
	}
	return &ports.RefuelResult{
		FuelAdded:   response.Data.Transaction.Units,
		CreditsCost: response.Data.Transaction.TotalPrice,
	}, nil
}

func (c *SpaceTradersClient) Extract(ctx context.Context, token, shipSymbol, surveySignature string) (*ports.ExtractResult, error) {
	path := fmt.Sprintf("/my/ships/%s/extract", shipSymbol)

	var body interface{}
	if surveySignature != "" {
		body = map[string]interface{}{
			"survey": map[string]string{"signature": surveySignature},
		}
	} else {
		body = map[string]interface{}{}
	}

	var response struct {
		Data struct {
			Extraction struct {
				Yield struct {
					Symbol string `json:"symbol"`
					Units  int    `json:"units"`
				} `json:"yield"`
			} `json:"extraction"`
			Cooldown struct {
				Expiration string `json:"expiration"`
			} `json:"cooldown"`
			Cargo struct {
				Capacity int `json:"capacity"`
				Units    int `json:"units"`
			} `json:"cargo"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to extract: %w", err)
	}
	return &ports.ExtractResult{
		Yield: ports.ExtractedYield{
			Symbol: response.Data.Extraction.Yield.Symbol,
			Units:  response.Data.Extraction.Yield.Units,
		},
		CooldownExpires: response.Data.Cooldown.Expiration,
		CargoUnits:      response.Data.Cargo.Units,
		CargoCapacity:   response.Data.Cargo.Capacity,
	}, nil
}

func (c *SpaceTradersClient) Survey(ctx context.Context, token, shipSymbol string) ([]ports.SurveyResult, string, error) {
	path := fmt.Sprintf("/my/ships/%s/survey", shipSymbol)

	var response struct {
		Data struct {
			Surveys []struct {
				Signature      string `json:"signature"`
				WaypointSymbol string `json:"symbol"`
				Size           string `json:"size"`
				Deposits       []struct {
					Symbol string `json:"symbol"`
				} `json:"deposits"`
				Expiration string `json:"expiration"`
			} `json:"surveys"`
			Cooldown struct {
				Expiration string `json:"expiration"`
			} `json:"cooldown"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, "", fmt.Errorf("failed to survey: %w", err)
	}

	surveys := make([]ports.SurveyResult, len(response.Data.Surveys))
	for i, s := range response.Data.Surveys {
		deposits := make([]ports.SurveyDeposit, len(s.Deposits))
		for j, d := range s.Deposits {
			deposits[j] = ports.SurveyDeposit{Symbol: d.Symbol}
		}
		surveys[i] = ports.SurveyResult{
			Signature:       s.Signature,
			WaypointSymbol:  s.WaypointSymbol,
			Size:            s.Size,
			Deposits:        deposits,
			Expiration:      s.Expiration,
			CooldownExpires: response.Data.Cooldown.Expiration,
		}
	}
	return surveys, response.Data.Cooldown.Expiration, nil
}

func (c *SpaceTradersClient) Sell(ctx context.Context, token, shipSymbol, tradeSymbol string, units int) (*ports.TradeResult, error) {
	return c.tradeRequest(ctx, token, shipSymbol, "sell", tradeSymbol, units)
}

func (c *SpaceTradersClient) Buy(ctx context.Context, token, shipSymbol, tradeSymbol string, units int) (*ports.TradeResult, error) {
	return c.tradeRequest(ctx, token, shipSymbol, "purchase", tradeSymbol, units)
}

func (c *SpaceTradersClient) tradeRequest(ctx context.Context, token, shipSymbol, verb, tradeSymbol string, units int) (*ports.TradeResult, error) {
	path := fmt.Sprintf("/my/ships/%s/%s", shipSymbol, verb)
	body := map[string]interface{}{
		"symbol": tradeSymbol,
		"units":  units,
	}

	var response struct {
		Data struct {
			Agent       agentPayload `json:"agent"`
			Transaction struct {
				TotalPrice int `json:"totalPrice"`
				Units      int `json:"units"`
			} `json:"transaction"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to %s cargo: %w", verb, err)
	}
	return &ports.TradeResult{
		TotalPrice: response.Data.Transaction.TotalPrice,
		Units:      response.Data.Transaction.Units,
		Credits:    response.Data.Agent.Credits,
	}, nil
}

func (c *SpaceTradersClient) Jettison(ctx context.Context, token, shipSymbol, tradeSymbol string, units int) error {
	path := fmt.Sprintf("/my/ships/%s/jettison", shipSymbol)
	body := map[string]interface{}{
		"symbol": tradeSymbol,
		"units":  units,
	}
	if err := c.request(ctx, "POST", path, token, body, nil); err != nil {
		return fmt.Errorf("failed to jettison cargo: %w", err)
	}
	return nil
}

func (c *SpaceTradersClient) Chart(ctx context.Context, token, shipSymbol string) (*ports.ChartResult, error) {
	path := fmt.Sprintf("/my/ships/%s/chart", shipSymbol)

	var response struct {
		Data struct {
			Chart struct {
				WaypointSymbol string `json:"waypointSymbol"`
				SubmittedBy    string `json:"submittedBy"`
			} `json:"chart"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to chart waypoint: %w", err)
	}
	return &ports.ChartResult{
		WaypointSymbol: response.Data.Chart.WaypointSymbol,
		SubmittedBy:    response.Data.Chart.SubmittedBy,
	}, nil
}

func (c *SpaceTradersClient) ScanWaypoints(ctx context.Context, token, shipSymbol string) (*ports.ScanWaypointsResult, error) {
	path := fmt.Sprintf("/my/ships/%s/scan/waypoints", shipSymbol)

	var response struct {
		Data struct {
			Waypoints []waypointPayload `json:"waypoints"`
			Cooldown  struct {
				Expiration string `json:"expiration"`
			} `json:"cooldown"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to scan waypoints: %w", err)
	}

	waypoints := make([]ports.WaypointData, len(response.Data.Waypoints))
	for i, w := range response.Data.Waypoints {
		waypoints[i] = w.toDomain()
	}
	return &ports.ScanWaypointsResult{
		Waypoints:       waypoints,
		CooldownExpires: response.Data.Cooldown.Expiration,
	}, nil
}

// --- Contracts ---

type contractPayload struct {
	ID            string `json:"id"`
	FactionSymbol string `json:"factionSymbol"`
	Type          string `json:"type"`
	Terms         struct {
		Deadline string `json:"deadline"`
		Payment  struct {
			OnAccepted  int `json:"onAccepted"`
			OnFulfilled int `json:"onFulfilled"`
		} `json:"payment"`
		Deliver []struct {
			TradeSymbol       string `json:"tradeSymbol"`
			DestinationSymbol string `json:"destinationSymbol"`
			UnitsRequired     int    `json:"unitsRequired"`
			UnitsFulfilled    int    `json:"unitsFulfilled"`
		} `json:"deliver"`
	} `json:"terms"`
	DeadlineToAccept string `json:"deadlineToAccept"`
	Accepted         bool   `json:"accepted"`
	Fulfilled        bool   `json:"fulfilled"`
}

func (p contractPayload) toDomain() ports.ContractData {
	deliveries := make([]ports.DeliveryData, len(p.Terms.Deliver))
	for i, d := range p.Terms.Deliver {
		deliveries[i] = ports.DeliveryData{
			TradeSymbol:       d.TradeSymbol,
			DestinationSymbol: d.DestinationSymbol,
			UnitsRequired:     d.UnitsRequired,
			UnitsFulfilled:    d.UnitsFulfilled,
		}
	}
	return ports.ContractData{
		ID:            p.ID,
		FactionSymbol: p.FactionSymbol,
		Type:          p.Type,
		Terms: ports.ContractTermsData{
			DeadlineToAccept: p.DeadlineToAccept,
			Deadline:         p.Terms.Deadline,
			Payment: ports.PaymentData{
				OnAccepted:  p.Terms.Payment.OnAccepted,
				OnFulfilled: p.Terms.Payment.OnFulfilled,
			},
			Deliveries: deliveries,
		},
		Accepted:  p.Accepted,
		Fulfilled: p.Fulfilled,
	}
}

func (c *SpaceTradersClient) ListContracts(ctx context.Context, token string) ([]ports.ContractData, error) {
	var response struct {
		Data []contractPayload `json:"data"`
	}
	if err := c.request(ctx, "GET", "/my/contracts", token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}
	contracts := make([]ports.ContractData, len(response.Data))
	for i, d := range response.Data {
		contracts[i] = d.toDomain()
	}
	return contracts, nil
}

func (c *SpaceTradersClient) AcceptContract(ctx context.Context, token, contractID string) (*ports.AcceptContractResult, error) {
	path := fmt.Sprintf("/my/contracts/%s/accept", contractID)
	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
			Agent    agentPayload    `json:"agent"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to accept contract: %w", err)
	}
	return &ports.AcceptContractResult{
		Contract: response.Data.Contract.toDomain(),
		Agent:    response.Data.Agent.toDomain(),
	}, nil
}

func (c *SpaceTradersClient) DeliverContract(ctx context.Context, token, contractID, shipSymbol, tradeSymbol string, units int) (*ports.DeliverContractResult, error) {
	path := fmt.Sprintf("/my/contracts/%s/deliver", contractID)
	body := map[string]interface{}{
		"shipSymbol":  shipSymbol,
		"tradeSymbol": tradeSymbol,
		"units":       units,
	}
	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
			Cargo    struct {
				Capacity int `json:"capacity"`
				Units    int `json:"units"`
			} `json:"cargo"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, body, &response); err != nil {
		return nil, fmt.Errorf("failed to deliver contract cargo: %w", err)
	}
	result := &ports.DeliverContractResult{Contract: response.Data.Contract.toDomain()}
	result.Cargo.Capacity = response.Data.Cargo.Capacity
	result.Cargo.Units = response.Data.Cargo.Units
	return result, nil
}

func (c *SpaceTradersClient) FulfillContract(ctx context.Context, token, contractID string) (*ports.FulfillContractResult, error) {
	path := fmt.Sprintf("/my/contracts/%s/fulfill", contractID)
	var response struct {
		Data struct {
			Contract contractPayload `json:"contract"`
			Agent    agentPayload    `json:"agent"`
		} `json:"data"`
	}
	if err := c.request(ctx, "POST", path, token, map[string]interface{}{}, &response); err != nil {
		return nil, fmt.Errorf("failed to fulfill contract: %w", err)
	}
	return &ports.FulfillContractResult{
		Contract: response.Data.Contract.toDomain(),
		Agent:    response.Data.Agent.toDomain(),
	}, nil
}

// --- Systems ---

type waypointPayload struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Traits []struct {
		Symbol string `json:"symbol"`
	} `json:"traits"`
	Orbitals []struct {
		Symbol string `json:"symbol"`
	} `json:"orbitals"`
}

func (p waypointPayload) toDomain() ports.WaypointData {
	traits := make([]string, len(p.Traits))
	for i, t := range p.Traits {
		traits[i] = t.Symbol
	}
	orbitals := make([]string, len(p.Orbitals))
	for i, o := range p.Orbitals {
		orbitals[i] = o.Symbol
	}
	hasFuel := false
	for _, t := range traits {
		if t == "MARKETPLACE" {
			hasFuel = true
			break
		}
	}
	return ports.WaypointData{
		Symbol:   p.Symbol,
		Type:     p.Type,
		X:        p.X,
		Y:        p.Y,
		Traits:   traits,
		Orbitals: orbitals,
		HasFuel:  hasFuel,
	}
}

func (c *SpaceTradersClient) GetSystem(ctx context.Context, token, systemSymbol string) (*ports.SystemData, error) {
	path := fmt.Sprintf("/systems/%s", systemSymbol)
	var response struct {
		Data struct {
			Symbol       string `json:"symbol"`
			SectorSymbol string `json:"sectorSymbol"`
			Type         string `json:"type"`
			X            int    `json:"x"`
			Y            int    `json:"y"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get system: %w", err)
	}
	return &ports.SystemData{
		Symbol: response.Data.Symbol,
		Sector: response.Data.SectorSymbol,
		Type:   response.Data.Type,
		X:      response.Data.X,
		Y:      response.Data.Y,
	}, nil
}

func (c *SpaceTradersClient) ListWaypoints(ctx context.Context, token, systemSymbol string, page, limit int) (*ports.WaypointsPage, error) {
	path := fmt.Sprintf("/systems/%s/waypoints?page=%d&limit=%d", systemSymbol, page, limit)
	var response struct {
		Data []waypointPayload `json:"data"`
		Meta struct {
			Total int `json:"total"`
			Page  int `json:"page"`
			Limit int `json:"limit"`
		} `json:"meta"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to list waypoints: %w", err)
	}
	waypoints := make([]ports.WaypointData, len(response.Data))
	for i, w := range response.Data {
		waypoints[i] = w.toDomain()
	}
	return &ports.WaypointsPage{
		Data: waypoints,
		Meta: ports.PaginationMeta{
			Total: response.Meta.Total,
			Page:  response.Meta.Page,
			Limit: response.Meta.Limit,
		},
	}, nil
}

func (c *SpaceTradersClient) GetWaypoint(ctx context.Context, token, systemSymbol, waypointSymbol string) (*ports.WaypointData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s", systemSymbol, waypointSymbol)
	var response struct {
		Data waypointPayload `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get waypoint: %w", err)
	}
	wp := response.Data.toDomain()
	return &wp, nil
}

func (c *SpaceTradersClient) GetMarket(ctx context.Context, token, systemSymbol, waypointSymbol string) (*ports.MarketData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/market", systemSymbol, waypointSymbol)
	var response struct {
		Data struct {
			Symbol  string `json:"symbol"`
			Imports []struct {
				Symbol string `json:"symbol"`
			} `json:"imports"`
			Exports []struct {
				Symbol string `json:"symbol"`
			} `json:"exports"`
			Exchange []struct {
				Symbol string `json:"symbol"`
			} `json:"exchange"`
			TradeGoods []struct {
				Symbol        string `json:"symbol"`
				Supply        string `json:"supply"`
				Activity      string `json:"activity"`
				SellPrice     int    `json:"sellPrice"`
				PurchasePrice int    `json:"purchasePrice"`
				TradeVolume   int    `json:"tradeVolume"`
			} `json:"tradeGoods"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get market: %w", err)
	}

	symbolsOf := func(xs []struct {
		Symbol string `json:"symbol"`
	}) []string {
		out := make([]string, len(xs))
		for i, x := range xs {
			out[i] = x.Symbol
		}
		return out
	}

	tradeGoods := make([]ports.TradeGoodData, len(response.Data.TradeGoods))
	for i, g := range response.Data.TradeGoods {
		tradeGoods[i] = ports.TradeGoodData{
			Symbol:        g.Symbol,
			Supply:        g.Supply,
			Activity:      g.Activity,
			SellPrice:     g.SellPrice,
			PurchasePrice: g.PurchasePrice,
			TradeVolume:   g.TradeVolume,
		}
	}

	return &ports.MarketData{
		Symbol:     response.Data.Symbol,
		Imports:    symbolsOf(response.Data.Imports),
		Exports:    symbolsOf(response.Data.Exports),
		Exchanges:  symbolsOf(response.Data.Exchange),
		TradeGoods: tradeGoods,
	}, nil
}

func (c *SpaceTradersClient) GetShipyard(ctx context.Context, token, systemSymbol, waypointSymbol string) (*ports.ShipyardData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/shipyard", systemSymbol, waypointSymbol)
	var response struct {
		Data struct {
			Symbol     string `json:"symbol"`
			ShipTypes  []struct {
				Type string `json:"type"`
			} `json:"shipTypes"`
			Ships []struct {
				Type          string `json:"type"`
				PurchasePrice int    `json:"purchasePrice"`
			} `json:"ships"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get shipyard: %w", err)
	}

	listings := make([]ports.ShipyardListingData, len(response.Data.Ships))
	for i, s := range response.Data.Ships {
		listings[i] = ports.ShipyardListingData{ShipType: s.Type, PurchasePrice: s.PurchasePrice}
	}

	return &ports.ShipyardData{
		Symbol:   response.Data.Symbol,
		Listings: listings,
	}, nil
}

func (c *SpaceTradersClient) GetJumpGate(ctx context.Context, token, systemSymbol, waypointSymbol string) (*ports.JumpGateData, error) {
	path := fmt.Sprintf("/systems/%s/waypoints/%s/jump-gate", systemSymbol, waypointSymbol)
	var response struct {
		Data struct {
			Connections []string `json:"connections"`
		} `json:"data"`
	}
	if err := c.request(ctx, "GET", path, token, nil, &response); err != nil {
		return nil, fmt.Errorf("failed to get jump gate: %w", err)
	}
	return &ports.JumpGateData{
		WaypointSymbol:   waypointSymbol,
		ConnectedSymbols: response.Data.Connections,
	}, nil
}

// request makes an HTTP request with rate limiting, circuit breaker, and retries.
func (c *SpaceTradersClient) request(ctx context.Context, method, path, token string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var lastErr error

	err := c.circuitBreaker.Call(func() error {
		for attempt := 0; attempt <= c.maxRetries; attempt++ {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return fmt.Errorf("rate limiter error: %w", err)
			}

			var reqBody io.Reader
			if body != nil {
				jsonData, err := json.Marshal(body)
				if err != nil {
					return fmt.Errorf("failed to marshal request body: %w", err)
				}
				reqBody = bytes.NewBuffer(jsonData)
			}

			req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}
			req.Header.Set("Content-Type", "application/json")
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = &retryableError{message: fmt.Errorf("network error: %w", err).Error()}
				if attempt >= c.maxRetries {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("context cancelled: %w", ctx.Err())
				}
				c.clock.Sleep(c.backoffBase * time.Duration(1<<attempt))
				continue
			}

			if resp.Body != nil {
				defer resp.Body.Close()
			}

			respBody, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				backoffDelay := c.backoffBase * time.Duration(1<<attempt)
				if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
					if seconds, err := strconv.Atoi(retryAfter); err == nil {
						backoffDelay = time.Duration(seconds) * time.Second
					}
				}
				lastErr = &retryableError{message: "rate limited (429)"}
				if attempt >= c.maxRetries {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("context cancelled: %w", ctx.Err())
				}
				c.clock.Sleep(backoffDelay)
				continue

			case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode >= 500:
				lastErr = &retryableError{message: fmt.Sprintf("server error (%d)", resp.StatusCode)}
				if attempt >= c.maxRetries {
					break
				}
				if ctx.Err() != nil {
					return fmt.Errorf("context cancelled: %w", ctx.Err())
				}
				c.clock.Sleep(c.backoffBase * time.Duration(1<<attempt))
				continue

			case resp.StatusCode >= 400 && resp.StatusCode < 500:
				return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))

			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
			}

			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				if result != nil {
					if err := json.Unmarshal(respBody, result); err != nil {
						return fmt.Errorf("failed to unmarshal response: %w", err)
					}
				}
				return nil
			}
		}

		if lastErr != nil {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}
		return fmt.Errorf("max retries exceeded")
	})

	if errors.Is(err, ErrCircuitOpen) {
		return fmt.Errorf("circuit breaker open: %w", err)
	}
	return err
}

// retryableError represents an error that should trigger a retry.
type retryableError struct {
	message string
}

func (e *retryableError) Error() string { return e.message }

func (c *SpaceTradersClient) GetCircuitBreakerState() CircuitState { return c.circuitBreaker.GetState() }

func (c *SpaceTradersClient) GetCircuitBreakerFailureCount() int {
	return c.circuitBreaker.GetFailureCount()
}

func (c *SpaceTradersClient) SetCircuitBreakerState(state CircuitState, failures int, lastFailure time.Time) {
	c.circuitBreaker.SetState(state, failures, lastFailure)
}

func (c *SpaceTradersClient) ResetCircuitBreaker() { c.circuitBreaker.Reset() }
