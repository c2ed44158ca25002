package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/spacetraders-go/internal/domain/contract"
	"github.com/andrescamacho/spacetraders-go/internal/domain/shared"
)

// GormContractRepository implements contract persistence using GORM.
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GORM contract repository.
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID retrieves a contract by ID and player ID.
func (r *GormContractRepository) FindByID(ctx context.Context, contractID string, playerID shared.PlayerID) (*contract.Contract, error) {
	var model ContractModel
	result := r.db.WithContext(ctx).Where("id = ? AND player_id = ?", contractID, playerID.Value()).First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("contract not found: %s", contractID)
		}
		return nil, fmt.Errorf("failed to find contract: %w", result.Error)
	}
	return modelToContract(&model)
}

// FindActiveContracts retrieves all accepted-but-unfulfilled contracts for a player.
func (r *GormContractRepository) FindActiveContracts(ctx context.Context, playerID shared.PlayerID) ([]*contract.Contract, error) {
	var models []ContractModel
	result := r.db.WithContext(ctx).
		Where("player_id = ? AND accepted = ? AND fulfilled = ?", playerID.Value(), true, false).
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to find active contracts: %w", result.Error)
	}

	contracts := make([]*contract.Contract, 0, len(models))
	for _, model := range models {
		entity, err := modelToContract(&model)
		if err != nil {
			return nil, fmt.Errorf("failed to convert contract %s: %w", model.ID, err)
		}
		contracts = append(contracts, entity)
	}
	return contracts, nil
}

// Add persists a contract (create or update).
func (r *GormContractRepository) Add(ctx context.Context, c *contract.Contract) error {
	model, err := contractToModel(c)
	if err != nil {
		return fmt.Errorf("failed to convert contract to model: %w", err)
	}
	if result := r.db.WithContext(ctx).Save(model); result.Error != nil {
		return fmt.Errorf("failed to add contract: %w", result.Error)
	}
	return nil
}

func modelToContract(model *ContractModel) (*contract.Contract, error) {
	var deliveries []contract.Delivery
	if err := json.Unmarshal([]byte(model.DeliveriesJSON), &deliveries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deliveries: %w", err)
	}

	terms := contract.Terms{
		Payment: contract.Payment{
			OnAccepted:  model.PaymentOnAccepted,
			OnFulfilled: model.PaymentOnFulfilled,
		},
		Deliveries:       deliveries,
		DeadlineToAccept: model.DeadlineToAccept,
		Deadline:         model.Deadline,
	}

	playerID, err := shared.NewPlayerID(model.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("invalid player ID in database: %w", err)
	}

	c, err := contract.NewContract(model.ID, playerID, model.FactionSymbol, model.Type, terms, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct contract: %w", err)
	}

	// accepted/fulfilled are private; replay the transitions the persisted
	// flags say already happened. Deliveries already carry their fulfilled
	// units, so Fulfill()'s CanFulfill() check passes when model.Fulfilled.
	if model.Accepted {
		if err := c.Accept(); err != nil {
			return nil, fmt.Errorf("failed to restore accepted state: %w", err)
		}
	}
	if model.Fulfilled {
		if err := c.Fulfill(); err != nil {
			return nil, fmt.Errorf("failed to restore fulfilled state: %w", err)
		}
	}

	return c, nil
}

func contractToModel(c *contract.Contract) (*ContractModel, error) {
	deliveriesJSON, err := json.Marshal(c.Terms().Deliveries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deliveries: %w", err)
	}

	return &ContractModel{
		ID:                 c.ContractID(),
		PlayerID:           c.PlayerID().Value(),
		FactionSymbol:      c.FactionSymbol(),
		Type:               c.Type(),
		Accepted:           c.Accepted(),
		Fulfilled:          c.Fulfilled(),
		DeadlineToAccept:   c.Terms().DeadlineToAccept,
		Deadline:           c.Terms().Deadline,
		PaymentOnAccepted:  c.Terms().Payment.OnAccepted,
		PaymentOnFulfilled: c.Terms().Payment.OnFulfilled,
		DeliveriesJSON:     string(deliveriesJSON),
		LastUpdated:        time.Now().UTC().Format(time.RFC3339),
	}, nil
}
