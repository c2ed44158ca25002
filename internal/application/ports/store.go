package ports

import (
	"context"
	"time"
)

// WaypointRecord is the cached projection of a waypoint Store persists and
// strategies read back via LoadWaypoints.
type WaypointRecord struct {
	Symbol       string
	SystemSymbol string
	Type         string
	X            float64
	Y            float64
	Traits       []string
	HasFuel      bool
	Orbitals     []string
}

// MarketRecord is the cached projection of one market's trade goods.
type MarketRecord struct {
	WaypointSymbol string
	Goods          []TradeGoodData
	UpdatedAt      time.Time
}

// ShipyardRecord is the cached projection of one shipyard's listings.
type ShipyardRecord struct {
	WaypointSymbol string
	Listings       []ShipyardListingData
}

// SurveyRecordData is the cached projection of one survey.
type SurveyRecordData struct {
	WaypointSymbol string
	Signature      string
	Size           string
	Deposits       []string
	Expiration     string
}

// Store is the persistence port: optional blob persistence for survey,
// market, waypoint and shipyard snapshots keyed by waypoint/system symbol,
// plus a relational record of ship roles, systems, and trade transactions.
// Only the caching handlers (survey, fetch_market, waypoint,
// system_waypoints, shipyard, system) write; jump-gate results are not
// stored. Strategies read waypoints for a system via LoadWaypoints.
type Store interface {
	SaveSystem(ctx context.Context, systemSymbol, sectorSymbol, systemType string, x, y float64) error
	SaveWaypoints(ctx context.Context, systemSymbol string, waypoints []WaypointRecord) error
	LoadWaypoints(ctx context.Context, systemSymbol string) ([]WaypointRecord, error)

	SaveMarket(ctx context.Context, rec MarketRecord) error
	SaveShipyard(ctx context.Context, waypointSymbol string, rec ShipyardRecord) error
	SaveSurvey(ctx context.Context, rec SurveyRecordData) error

	SetShipRole(ctx context.Context, playerID int, shipSymbol, role string) error
	ShipRoles(ctx context.Context, playerID int) (map[string]string, error)

	RecordTransaction(ctx context.Context, playerID int, shipSymbol, tradeSymbol, transactionType string, units, pricePerUnit, totalPrice int, waypointSymbol string) error
}
