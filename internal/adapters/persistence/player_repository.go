package persistence

import (
	"context"
	"fmt"

	"github.com/andrescamacho/spacetraders-go/internal/domain/player"
	"gorm.io/gorm"
)

// GormPlayerRepository implements player persistence using GORM.
type GormPlayerRepository struct {
	db *gorm.DB
}

// NewGormPlayerRepository creates a new GORM player repository.
func NewGormPlayerRepository(db *gorm.DB) *GormPlayerRepository {
	return &GormPlayerRepository{db: db}
}

// FindByID retrieves a player by ID.
func (r *GormPlayerRepository) FindByID(ctx context.Context, id int) (*player.Player, error) {
	var model PlayerModel
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("player not found: %d", id)
		}
		return nil, fmt.Errorf("failed to find player: %w", result.Error)
	}
	return modelToPlayer(&model), nil
}

// FindByAgentSymbol retrieves a player by agent symbol.
func (r *GormPlayerRepository) FindByAgentSymbol(ctx context.Context, agentSymbol string) (*player.Player, error) {
	var model PlayerModel
	result := r.db.WithContext(ctx).Where("agent_symbol = ?", agentSymbol).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("player not found: %s", agentSymbol)
		}
		return nil, fmt.Errorf("failed to find player: %w", result.Error)
	}
	return modelToPlayer(&model), nil
}

// Add persists a player (create or update).
func (r *GormPlayerRepository) Add(ctx context.Context, p *player.Player) error {
	model := &PlayerModel{
		ID:              p.ID,
		AgentSymbol:     p.AgentSymbol,
		Token:           p.Token,
		StartingFaction: p.StartingFaction,
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to add player: %w", result.Error)
	}
	return nil
}

// modelToPlayer converts a database model to the domain type.
// Credits are never persisted - always fetched fresh from the API.
func modelToPlayer(model *PlayerModel) *player.Player {
	p := player.NewPlayer(model.ID, model.AgentSymbol, model.Token)
	p.StartingFaction = model.StartingFaction
	return p
}
