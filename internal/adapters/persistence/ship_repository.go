package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormShipAssignmentRepository persists which strategy (if any) owns a ship,
// so that restarts don't re-offer an already-assigned ship to a new strategy.
type GormShipAssignmentRepository struct {
	db *gorm.DB
}

// NewGormShipAssignmentRepository creates a new GORM ship assignment repository.
func NewGormShipAssignmentRepository(db *gorm.DB) *GormShipAssignmentRepository {
	return &GormShipAssignmentRepository{db: db}
}

// SetRole records (or clears, with role="") the strategy role owning a ship.
func (r *GormShipAssignmentRepository) SetRole(ctx context.Context, playerID int, shipSymbol, role string) error {
	model := ShipModel{
		ShipSymbol: shipSymbol,
		PlayerID:   playerID,
		Role:       role,
		UpdatedAt:  time.Now().UTC(),
	}
	if result := r.db.WithContext(ctx).Save(&model); result.Error != nil {
		return fmt.Errorf("failed to persist ship role: %w", result.Error)
	}
	return nil
}

// RolesByPlayer returns the persisted ship_symbol -> role mapping for a player.
func (r *GormShipAssignmentRepository) RolesByPlayer(ctx context.Context, playerID int) (map[string]string, error) {
	var models []ShipModel
	if err := r.db.WithContext(ctx).Where("player_id = ?", playerID).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list ship roles: %w", err)
	}

	roles := make(map[string]string, len(models))
	for _, m := range models {
		roles[m.ShipSymbol] = m.Role
	}
	return roles, nil
}
