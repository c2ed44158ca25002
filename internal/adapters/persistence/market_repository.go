package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/spacetraders-go/internal/domain/market"
)

// CheapestMarketResult is the outcome of a cheapest-sell-price lookup across
// a system's cached markets.
type CheapestMarketResult struct {
	WaypointSymbol string
	TradeSymbol    string
	SellPrice      int
	Supply         string
}

// GormMarketRepository implements market snapshot persistence using GORM.
// Database schema: one row per (waypoint, good) combination in market_trade.
type GormMarketRepository struct {
	db *gorm.DB
}

// NewGormMarketRepository creates a new GORM-based market repository.
func NewGormMarketRepository(db *gorm.DB) *GormMarketRepository {
	return &GormMarketRepository{db: db}
}

// UpsertMarket replaces the cached trade goods for a waypoint with a fresh
// snapshot, called by the SYSTEM.fetch_market handler.
func (r *GormMarketRepository) UpsertMarket(ctx context.Context, m *market.Market) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("waypoint_symbol = ?", m.WaypointSymbol()).
			Delete(&MarketTradeModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear old market trade rows: %w", err)
		}

		goods := m.TradeGoods()
		if len(goods) == 0 {
			return nil
		}

		records := make([]MarketTradeModel, len(goods))
		for i, good := range goods {
			records[i] = MarketTradeModel{
				WaypointSymbol: m.WaypointSymbol(),
				TradeSymbol:    good.Symbol(),
				Supply:         good.Supply(),
				Activity:       good.Activity(),
				PurchasePrice:  good.PurchasePrice(),
				SellPrice:      good.SellPrice(),
				TradeVolume:    good.TradeVolume(),
				UpdatedAt:      m.LastUpdated(),
			}
		}

		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to insert market trade rows: %w", err)
		}
		return nil
	})
}

// GetMarket retrieves the cached snapshot for a waypoint, or nil if absent.
func (r *GormMarketRepository) GetMarket(ctx context.Context, waypointSymbol string) (*market.Market, error) {
	var records []MarketTradeModel
	if err := r.db.WithContext(ctx).Where("waypoint_symbol = ?", waypointSymbol).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to get market trade rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	goods := make([]market.TradeGood, len(records))
	var updated time.Time
	for i, rec := range records {
		good, err := market.NewTradeGood(rec.TradeSymbol, rec.Supply, rec.Activity, rec.PurchasePrice, rec.SellPrice, rec.TradeVolume)
		if err != nil {
			return nil, fmt.Errorf("invalid trade good in database: %w", err)
		}
		goods[i] = *good
		updated = rec.UpdatedAt
	}

	return market.NewMarket(waypointSymbol, goods, updated)
}

// ListMarketsInSystem retrieves all cached markets for a system, optionally
// excluding rows older than maxAge (zero means no age filter).
func (r *GormMarketRepository) ListMarketsInSystem(ctx context.Context, systemSymbol string, maxAge time.Duration) ([]market.Market, error) {
	query := r.db.WithContext(ctx).Where("waypoint_symbol LIKE ?", systemSymbol+"-%")
	if maxAge > 0 {
		query = query.Where("updated_at >= ?", time.Now().Add(-maxAge))
	}

	var records []MarketTradeModel
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list market trade rows: %w", err)
	}

	byWaypoint := make(map[string][]MarketTradeModel)
	for _, rec := range records {
		byWaypoint[rec.WaypointSymbol] = append(byWaypoint[rec.WaypointSymbol], rec)
	}

	markets := make([]market.Market, 0, len(byWaypoint))
	for waypointSymbol, recs := range byWaypoint {
		goods := make([]market.TradeGood, len(recs))
		var updated time.Time
		for i, rec := range recs {
			good, err := market.NewTradeGood(rec.TradeSymbol, rec.Supply, rec.Activity, rec.PurchasePrice, rec.SellPrice, rec.TradeVolume)
			if err != nil {
				return nil, fmt.Errorf("invalid trade good in database: %w", err)
			}
			goods[i] = *good
			updated = rec.UpdatedAt
		}
		m, err := market.NewMarket(waypointSymbol, goods, updated)
		if err != nil {
			return nil, err
		}
		markets = append(markets, *m)
	}

	return markets, nil
}

// FindCheapestMarketSelling finds the cached market with the lowest sell
// price for a good within a system. The trade planner does not call it; it
// ranks quotes from the markets held in GameState.
func (r *GormMarketRepository) FindCheapestMarketSelling(ctx context.Context, goodSymbol, systemSymbol string) (*CheapestMarketResult, error) {
	var rec MarketTradeModel
	err := r.db.WithContext(ctx).
		Where("waypoint_symbol LIKE ? AND trade_symbol = ?", systemSymbol+"-%", goodSymbol).
		Order("sell_price ASC").
		First(&rec).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find cheapest market: %w", err)
	}

	supply := ""
	if rec.Supply != nil {
		supply = *rec.Supply
	}

	return &CheapestMarketResult{
		WaypointSymbol: rec.WaypointSymbol,
		TradeSymbol:    rec.TradeSymbol,
		SellPrice:      rec.SellPrice,
		Supply:         supply,
	}, nil
}
