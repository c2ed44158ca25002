package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SystemRecord is the cached (system_symbol, x, y) triple strategies use for
// distance math without a round trip to GameAPI.
type SystemRecord struct {
	SystemSymbol string
	SectorSymbol string
	Type         string
	X            float64
	Y            float64
}

// GormSystemRepository caches SYSTEM.system lookups.
type GormSystemRepository struct {
	db *gorm.DB
}

// NewGormSystemRepository creates a new GORM system repository.
func NewGormSystemRepository(db *gorm.DB) *GormSystemRepository {
	return &GormSystemRepository{db: db}
}

// Save upserts a system record.
func (r *GormSystemRepository) Save(ctx context.Context, rec SystemRecord) error {
	model := SystemModel{
		SystemSymbol: rec.SystemSymbol,
		SectorSymbol: rec.SectorSymbol,
		Type:         rec.Type,
		X:            rec.X,
		Y:            rec.Y,
		SyncedAt:     time.Now().UTC(),
	}
	if result := r.db.WithContext(ctx).Save(&model); result.Error != nil {
		return fmt.Errorf("failed to save system: %w", result.Error)
	}
	return nil
}

// FindBySymbol retrieves a cached system record, or nil if absent.
func (r *GormSystemRepository) FindBySymbol(ctx context.Context, systemSymbol string) (*SystemRecord, error) {
	var model SystemModel
	err := r.db.WithContext(ctx).Where("system_symbol = ?", systemSymbol).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find system: %w", err)
	}
	return &SystemRecord{
		SystemSymbol: model.SystemSymbol,
		SectorSymbol: model.SectorSymbol,
		Type:         model.Type,
		X:            model.X,
		Y:            model.Y,
	}, nil
}
