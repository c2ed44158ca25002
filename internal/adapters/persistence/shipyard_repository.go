package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ShipyardListing is a single buyable ship type and its price at a waypoint.
type ShipyardListing struct {
	ShipType      string
	PurchasePrice int
}

// GormShipyardRepository persists shipyard snapshots for SYSTEM.shipyard.
type GormShipyardRepository struct {
	db *gorm.DB
}

// NewGormShipyardRepository creates a new GORM shipyard repository.
func NewGormShipyardRepository(db *gorm.DB) *GormShipyardRepository {
	return &GormShipyardRepository{db: db}
}

// Upsert replaces all cached listings for a shipyard waypoint.
func (r *GormShipyardRepository) Upsert(ctx context.Context, waypointSymbol string, listings []ShipyardListing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("waypoint_symbol = ?", waypointSymbol).Delete(&ShipyardTradeModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear shipyard listings: %w", err)
		}
		now := time.Now().UTC()
		for _, l := range listings {
			model := ShipyardTradeModel{
				WaypointSymbol: waypointSymbol,
				ShipType:       l.ShipType,
				PurchasePrice:  l.PurchasePrice,
				UpdatedAt:      now,
			}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("failed to insert shipyard listing: %w", err)
			}
		}
		return nil
	})
}

// ListByWaypoint retrieves the cached shipyard listings at a waypoint.
func (r *GormShipyardRepository) ListByWaypoint(ctx context.Context, waypointSymbol string) ([]ShipyardListing, error) {
	var models []ShipyardTradeModel
	if err := r.db.WithContext(ctx).Where("waypoint_symbol = ?", waypointSymbol).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list shipyard listings: %w", err)
	}

	listings := make([]ShipyardListing, len(models))
	for i, m := range models {
		listings[i] = ShipyardListing{ShipType: m.ShipType, PurchasePrice: m.PurchasePrice}
	}
	return listings, nil
}

// FindCheapestShipType finds the waypoint in a system selling a ship type at
// the lowest purchase price among the given waypoints. Listings are compared
// regardless of when they were last synced.
func (r *GormShipyardRepository) FindCheapestShipType(ctx context.Context, shipType string, waypointSymbols []string) (string, int, error) {
	var model ShipyardTradeModel
	err := r.db.WithContext(ctx).
		Where("ship_type = ? AND waypoint_symbol IN ?", shipType, waypointSymbols).
		Order("purchase_price ASC").
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", 0, nil
		}
		return "", 0, fmt.Errorf("failed to find cheapest ship: %w", err)
	}
	return model.WaypointSymbol, model.PurchasePrice, nil
}
