package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SurveyRecord is a cached survey blob keyed by (asteroid waypoint, signature).
type SurveyRecord struct {
	WaypointSymbol string
	Signature      string
	Size           string
	Deposits       []string
	Expiration     string
	Snapshot       json.RawMessage
}

// GormSurveyRepository persists survey snapshots for SHIP.survey.
type GormSurveyRepository struct {
	db *gorm.DB
}

// NewGormSurveyRepository creates a new GORM survey repository.
func NewGormSurveyRepository(db *gorm.DB) *GormSurveyRepository {
	return &GormSurveyRepository{db: db}
}

// Save upserts a survey record.
func (r *GormSurveyRepository) Save(ctx context.Context, rec SurveyRecord) error {
	deposits, err := json.Marshal(rec.Deposits)
	if err != nil {
		return fmt.Errorf("failed to marshal deposits: %w", err)
	}

	model := SurveyModel{
		WaypointSymbol: rec.WaypointSymbol,
		Signature:      rec.Signature,
		Size:           rec.Size,
		Deposits:       string(deposits),
		Expiration:     rec.Expiration,
		Snapshot:       string(rec.Snapshot),
	}
	if result := r.db.WithContext(ctx).Save(&model); result.Error != nil {
		return fmt.Errorf("failed to save survey: %w", result.Error)
	}
	return nil
}

// ListByWaypoint retrieves all cached surveys at an asteroid, including
// expired ones - callers are responsible for pruning by Expiration.
func (r *GormSurveyRepository) ListByWaypoint(ctx context.Context, waypointSymbol string) ([]SurveyRecord, error) {
	var models []SurveyModel
	if err := r.db.WithContext(ctx).Where("waypoint_symbol = ?", waypointSymbol).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list surveys: %w", err)
	}

	records := make([]SurveyRecord, 0, len(models))
	for _, m := range models {
		var deposits []string
		if m.Deposits != "" {
			if err := json.Unmarshal([]byte(m.Deposits), &deposits); err != nil {
				deposits = nil
			}
		}
		records = append(records, SurveyRecord{
			WaypointSymbol: m.WaypointSymbol,
			Signature:      m.Signature,
			Size:           m.Size,
			Deposits:       deposits,
			Expiration:     m.Expiration,
			Snapshot:       json.RawMessage(m.Snapshot),
		})
	}
	return records, nil
}

// DeleteExpired removes surveys whose expiration is before the given time.
func (r *GormSurveyRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	if err := r.db.WithContext(ctx).Where("expiration < ?", before.UTC().Format(time.RFC3339)).
		Delete(&SurveyModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete expired surveys: %w", err)
	}
	return nil
}
