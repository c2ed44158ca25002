package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TradeTransaction is a single buy/sell/refuel record for profit analysis.
type TradeTransaction struct {
	ShipSymbol      string
	TradeSymbol     string
	TransactionType string // PURCHASE, SELL, REFUEL
	Units           int
	PricePerUnit    int
	TotalPrice      int
	WaypointSymbol  string
	Timestamp       time.Time
}

// GormTransactionRepository persists the trade_transaction ledger.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM transaction repository.
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Record appends a trade transaction row.
func (r *GormTransactionRepository) Record(ctx context.Context, playerID int, tx TradeTransaction) error {
	model := TradeTransactionModel{
		PlayerID:        playerID,
		ShipSymbol:      tx.ShipSymbol,
		TradeSymbol:     tx.TradeSymbol,
		TransactionType: tx.TransactionType,
		Units:           tx.Units,
		PricePerUnit:    tx.PricePerUnit,
		TotalPrice:      tx.TotalPrice,
		WaypointSymbol:  tx.WaypointSymbol,
		Timestamp:       tx.Timestamp,
	}
	if result := r.db.WithContext(ctx).Create(&model); result.Error != nil {
		return fmt.Errorf("failed to record trade transaction: %w", result.Error)
	}
	return nil
}

// FindByShip retrieves the transaction history for one ship, most recent first.
func (r *GormTransactionRepository) FindByShip(ctx context.Context, playerID int, shipSymbol string, limit int) ([]TradeTransaction, error) {
	query := r.db.WithContext(ctx).
		Where("player_id = ? AND ship_symbol = ?", playerID, shipSymbol).
		Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []TradeTransactionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find trade transactions: %w", err)
	}

	txs := make([]TradeTransaction, len(models))
	for i, m := range models {
		txs[i] = TradeTransaction{
			ShipSymbol:      m.ShipSymbol,
			TradeSymbol:     m.TradeSymbol,
			TransactionType: m.TransactionType,
			Units:           m.Units,
			PricePerUnit:    m.PricePerUnit,
			TotalPrice:      m.TotalPrice,
			WaypointSymbol:  m.WaypointSymbol,
			Timestamp:       m.Timestamp,
		}
	}
	return txs, nil
}
