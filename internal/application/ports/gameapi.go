// Package ports defines the narrow interfaces the application layer depends
// on: GameAPI (the remote SpaceTraders service) and Store (persistence).
// Handlers and strategies depend only on these interfaces, never on the
// concrete HTTP client or GORM repositories.
package ports

import "context"

// AgentData is the subset of agent fields handlers and strategies consume.
type AgentData struct {
	Symbol          string
	Headquarters    string
	Credits         int
	StartingFaction string
}

// RegisterResult is the payload returned by register.
type RegisterResult struct {
	Token   string
	Agent   AgentData
	Faction string
	Ship    ShipData
}

// NavRoute describes the in-flight route of a ship, present only while
// NavStatus is IN_TRANSIT.
type NavRoute struct {
	Origin      string
	Destination string
	Arrival     string // ISO8601
	DepartureAt string // ISO8601
}

// CargoItemData is one inventory line in a ship's cargo hold.
type CargoItemData struct {
	Symbol string
	Units  int
}

// ShipData is the GameAPI projection of a ship used to hydrate the domain
// ship entity on refresh.
type ShipData struct {
	Symbol         string
	SystemSymbol   string
	WaypointSymbol string
	NavStatus      string
	FlightMode     string
	Route          *NavRoute
	FuelCurrent    int
	FuelCapacity   int
	CargoCapacity  int
	CargoUnits     int
	Cargo          []CargoItemData
	EngineSpeed    int
	FrameSymbol    string
	Cooldown       string // ISO8601 expiration, empty when not on cooldown
	Role           string
}

// NavigationResult is returned by navigate.
type NavigationResult struct {
	Destination  string
	ArrivalTime  string // ISO8601
	FuelConsumed int
}

// RefuelResult is returned by refuel.
type RefuelResult struct {
	FuelAdded   int
	CreditsCost int
}

// ExtractedYield is one resource line extracted or surveyed.
type ExtractedYield struct {
	Symbol string
	Units  int
}

// ExtractResult is returned by extract.
type ExtractResult struct {
	Yield           ExtractedYield
	CooldownExpires string // ISO8601
	CargoUnits      int
	CargoCapacity   int
}

// SurveyDeposit names one possible extraction yield a survey predicts.
type SurveyDeposit struct {
	Symbol string
}

// SurveyResult is one survey signature returned by survey.
type SurveyResult struct {
	Signature       string
	WaypointSymbol  string
	Size            string
	Deposits        []SurveyDeposit
	Expiration      string // ISO8601
	CooldownExpires string // ISO8601
}

// TradeResult is returned by buy/sell.
type TradeResult struct {
	TotalPrice int
	Units      int
	Credits    int
}

// PurchaseShipResult is returned by purchase_ship.
type PurchaseShipResult struct {
	Ship    ShipData
	Credits int
	Agent   AgentData
}

// PaymentData is the accept/fulfill payout schedule of a contract.
type PaymentData struct {
	OnAccepted  int
	OnFulfilled int
}

// DeliveryData is one required delivery line of a contract.
type DeliveryData struct {
	TradeSymbol       string
	DestinationSymbol string
	UnitsRequired     int
	UnitsFulfilled    int
}

// ContractTermsData is the full terms block of a contract.
type ContractTermsData struct {
	DeadlineToAccept string
	Deadline         string
	Payment          PaymentData
	Deliveries       []DeliveryData
}

// ContractData is the GameAPI projection of a contract.
type ContractData struct {
	ID            string
	FactionSymbol string
	Type          string
	Terms         ContractTermsData
	Accepted      bool
	Fulfilled     bool
}

// AcceptContractResult is returned by accept.
type AcceptContractResult struct {
	Contract ContractData
	Agent    AgentData
}

// DeliverContractResult is returned by deliver.
type DeliverContractResult struct {
	Contract ContractData
	Cargo    struct {
		Capacity int
		Units    int
	}
}

// FulfillContractResult is returned by fulfill.
type FulfillContractResult struct {
	Contract ContractData
	Agent    AgentData
}

// TradeGoodData is one listing in a market's trade goods table.
type TradeGoodData struct {
	Symbol        string
	Supply        string
	Activity      string
	SellPrice     int
	PurchasePrice int
	TradeVolume   int
}

// MarketData is the GameAPI projection of a market.
type MarketData struct {
	Symbol     string
	Imports    []string
	Exports    []string
	Exchanges  []string
	TradeGoods []TradeGoodData
}

// ShipyardListingData is one ship type a shipyard sells.
type ShipyardListingData struct {
	ShipType      string
	PurchasePrice int
}

// ShipyardData is the GameAPI projection of a shipyard.
type ShipyardData struct {
	Symbol   string
	Listings []ShipyardListingData
}

// WaypointData is the GameAPI projection of a waypoint.
type WaypointData struct {
	Symbol   string
	Type     string
	X        int
	Y        int
	Traits   []string
	Orbitals []string
	HasFuel  bool
}

// PaginationMeta mirrors the API's page/limit/total envelope.
type PaginationMeta struct {
	Total int
	Page  int
	Limit int
}

// WaypointsPage is one page of list_waypoints results.
type WaypointsPage struct {
	Data []WaypointData
	Meta PaginationMeta
}

// SystemData is the GameAPI projection of a system.
type SystemData struct {
	Symbol string
	Sector string
	Type   string
	X      int
	Y      int
}

// JumpGateData is the GameAPI projection of a jump gate.
type JumpGateData struct {
	WaypointSymbol  string
	ConnectedSymbols []string
}

// JumpResult is returned by jump.
type JumpResult struct {
	WaypointSymbol  string
	CooldownExpires string
	Credits         int
}

// ChartResult is returned by chart.
type ChartResult struct {
	WaypointSymbol string
	SubmittedBy    string
}

// ScanWaypointsResult is returned by scan_waypoints.
type ScanWaypointsResult struct {
	Waypoints       []WaypointData
	CooldownExpires string
}

// GameAPI is the narrow port around the remote SpaceTraders service. Every
// method maps to one remote endpoint and is synchronous. Transport and
// API-level failures are returned as plain errors wrapped with %w; no typed
// error from internal/domain/shared is used for them.
type GameAPI interface {
	FetchAgent(ctx context.Context, token string) (*AgentData, error)
	Register(ctx context.Context, symbol, faction, email string) (*RegisterResult, error)

	ListShips(ctx context.Context, token string) ([]ShipData, error)
	PurchaseShip(ctx context.Context, token, shipType, waypointSymbol string) (*PurchaseShipResult, error)
	Dock(ctx context.Context, token, shipSymbol string) error
	Orbit(ctx context.Context, token, shipSymbol string) error
	Navigate(ctx context.Context, token, shipSymbol, destination string) (*NavigationResult, error)
	PatchFlightMode(ctx context.Context, token, shipSymbol, flightMode string) error
	Jump(ctx context.Context, token, shipSymbol, destination string) (*JumpResult, error)
	Refuel(ctx context.Context, token, shipSymbol string, units *int) (*RefuelResult, error)
	Extract(ctx context.Context, token, shipSymbol, surveySignature string) (*ExtractResult, error)
	Survey(ctx context.Context, token, shipSymbol string) ([]SurveyResult, string, error)
	Sell(ctx context.Context, token, shipSymbol, tradeSymbol string, units int) (*TradeResult, error)
	Buy(ctx context.Context, token, shipSymbol, tradeSymbol string, units int) (*TradeResult, error)
	Jettison(ctx context.Context, token, shipSymbol, tradeSymbol string, units int) error
	Chart(ctx context.Context, token, shipSymbol string) (*ChartResult, error)
	ScanWaypoints(ctx context.Context, token, shipSymbol string) (*ScanWaypointsResult, error)

	ListContracts(ctx context.Context, token string) ([]ContractData, error)
	AcceptContract(ctx context.Context, token, contractID string) (*AcceptContractResult, error)
	DeliverContract(ctx context.Context, token, contractID, shipSymbol, tradeSymbol string, units int) (*DeliverContractResult, error)
	FulfillContract(ctx context.Context, token, contractID string) (*FulfillContractResult, error)

	GetSystem(ctx context.Context, token, systemSymbol string) (*SystemData, error)
	ListWaypoints(ctx context.Context, token, systemSymbol string, page, limit int) (*WaypointsPage, error)
	GetWaypoint(ctx context.Context, token, systemSymbol, waypointSymbol string) (*WaypointData, error)
	GetMarket(ctx context.Context, token, systemSymbol, waypointSymbol string) (*MarketData, error)
	GetShipyard(ctx context.Context, token, systemSymbol, waypointSymbol string) (*ShipyardData, error)
	GetJumpGate(ctx context.Context, token, systemSymbol, waypointSymbol string) (*JumpGateData, error)
}
