// Package store wires the GORM repositories in internal/adapters/persistence
// into the application's Store port.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/spacetraders-go/internal/adapters/persistence"
	"github.com/andrescamacho/spacetraders-go/internal/application/ports"
	"github.com/andrescamacho/spacetraders-go/internal/domain/market"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

// GormStore implements ports.Store against a relational database via GORM.
type GormStore struct {
	systems   *persistence.GormSystemRepository
	waypoints *persistence.GormWaypointRepository
	markets   *persistence.GormMarketRepository
	shipyards *persistence.GormShipyardRepository
	surveys   *persistence.GormSurveyRepository
	shipRoles *persistence.GormShipAssignmentRepository
	txns      *persistence.GormTransactionRepository
}

// NewGormStore wires every repository needed by the Store port from a
// single *gorm.DB connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		systems:   persistence.NewGormSystemRepository(db),
		waypoints: persistence.NewGormWaypointRepository(db),
		markets:   persistence.NewGormMarketRepository(db),
		shipyards: persistence.NewGormShipyardRepository(db),
		surveys:   persistence.NewGormSurveyRepository(db),
		shipRoles: persistence.NewGormShipAssignmentRepository(db),
		txns:      persistence.NewGormTransactionRepository(db),
	}
}

var _ ports.Store = (*GormStore)(nil)

func (g *GormStore) SaveSystem(ctx context.Context, systemSymbol, sectorSymbol, systemType string, x, y float64) error {
	return g.systems.Save(ctx, persistence.SystemRecord{
		SystemSymbol: systemSymbol,
		SectorSymbol: sectorSymbol,
		Type:         systemType,
		X:            x,
		Y:            y,
	})
}

func (g *GormStore) SaveWaypoints(ctx context.Context, systemSymbol string, waypoints []ports.WaypointRecord) error {
	for _, wp := range waypoints {
		w, err := shared.NewWaypoint(wp.Symbol, wp.X, wp.Y)
		if err != nil {
			return err
		}
		w.SystemSymbol = systemSymbol
		w.Type = wp.Type
		w.HasFuel = wp.HasFuel
		w.Traits = wp.Traits
		w.Orbitals = wp.Orbitals
		if err := g.waypoints.Save(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (g *GormStore) LoadWaypoints(ctx context.Context, systemSymbol string) ([]ports.WaypointRecord, error) {
	waypoints, err := g.waypoints.ListBySystem(ctx, systemSymbol)
	if err != nil {
		return nil, err
	}
	out := make([]ports.WaypointRecord, len(waypoints))
	for i, wp := range waypoints {
		out[i] = ports.WaypointRecord{
			Symbol:       wp.Symbol,
			SystemSymbol: wp.SystemSymbol,
			Type:         wp.Type,
			X:            wp.X,
			Y:            wp.Y,
			Traits:       wp.Traits,
			HasFuel:      wp.HasFuel,
			Orbitals:     wp.Orbitals,
		}
	}
	return out, nil
}

func (g *GormStore) SaveMarket(ctx context.Context, rec ports.MarketRecord) error {
	goods := make([]market.TradeGood, 0, len(rec.Goods))
	for _, good := range rec.Goods {
		var supply, activity *string
		if good.Supply != "" {
			s := good.Supply
			supply = &s
		}
		if good.Activity != "" {
			a := good.Activity
			activity = &a
		}
		// TradeGoodData follows the ship's perspective (PurchasePrice is what a
		// ship pays to buy, SellPrice is what a ship receives selling); the
		// domain TradeGood follows the market's perspective, so the two swap.
		tg, err := market.NewTradeGood(good.Symbol, supply, activity, good.SellPrice, good.PurchasePrice, good.TradeVolume)
		if err != nil {
			return err
		}
		goods = append(goods, *tg)
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	m, err := market.NewMarket(rec.WaypointSymbol, goods, updatedAt)
	if err != nil {
		return err
	}
	return g.markets.UpsertMarket(ctx, m)
}

func (g *GormStore) SaveShipyard(ctx context.Context, waypointSymbol string, rec ports.ShipyardRecord) error {
	listings := make([]persistence.ShipyardListing, len(rec.Listings))
	for i, l := range rec.Listings {
		listings[i] = persistence.ShipyardListing{ShipType: l.ShipType, PurchasePrice: l.PurchasePrice}
	}
	return g.shipyards.Upsert(ctx, waypointSymbol, listings)
}

func (g *GormStore) SaveSurvey(ctx context.Context, rec ports.SurveyRecordData) error {
	return g.surveys.Save(ctx, persistence.SurveyRecord{
		WaypointSymbol: rec.WaypointSymbol,
		Signature:      rec.Signature,
		Size:           rec.Size,
		Deposits:       rec.Deposits,
		Expiration:     rec.Expiration,
	})
}

func (g *GormStore) SetShipRole(ctx context.Context, playerID int, shipSymbol, role string) error {
	return g.shipRoles.SetRole(ctx, playerID, shipSymbol, role)
}

func (g *GormStore) ShipRoles(ctx context.Context, playerID int) (map[string]string, error) {
	return g.shipRoles.RolesByPlayer(ctx, playerID)
}

func (g *GormStore) RecordTransaction(ctx context.Context, playerID int, shipSymbol, tradeSymbol, transactionType string, units, pricePerUnit, totalPrice int, waypointSymbol string) error {
	return g.txns.Record(ctx, playerID, persistence.TradeTransaction{
		ShipSymbol:      shipSymbol,
		TradeSymbol:     tradeSymbol,
		TransactionType: transactionType,
		Units:           units,
		PricePerUnit:    pricePerUnit,
		TotalPrice:      totalPrice,
		WaypointSymbol:  waypointSymbol,
		Timestamp:       time.Now().UTC(),
	})
}
