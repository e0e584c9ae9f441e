package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObservationRepository provides database operations for observation records
type ObservationRepository struct {
	db *gorm.DB
}

// NewObservationRepository creates a new repository instance
func NewObservationRepository(db *gorm.DB) *ObservationRepository {
	return &ObservationRepository{db: db}
}

// Record assigns a run ID and stores a new observation record
func (r *ObservationRepository) Record(obs *Observation) error {
	if obs == nil {
		return fmt.Errorf("observation cannot be nil")
	}

	if obs.RunID == "" {
		obs.RunID = uuid.New().String()
	}
	obs.CreatedAt = time.Now()

	if !obs.IsValid() {
		return fmt.Errorf("observation is not valid: obs_name=%s, ntimes=%d, nbls=%d", obs.ObsName, obs.Ntimes, obs.Nbls)
	}

	return r.db.Create(obs).Error
}

// GetByRunID finds an observation by its run ID
func (r *ObservationRepository) GetByRunID(runID string) (*Observation, error) {
	var obs Observation
	err := r.db.Where("run_id = ?", runID).First(&obs).Error
	if err != nil {
		return nil, err
	}
	return &obs, nil
}

// GetByObsName returns all runs recorded for an observation name
func (r *ObservationRepository) GetByObsName(obsName string) ([]Observation, error) {
	var obs []Observation
	err := r.db.Where("obs_name = ?", obsName).Order("created_at DESC").Find(&obs).Error
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// Recent returns the most recently recorded observations
func (r *ObservationRepository) Recent(limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 10
	}
	var obs []Observation
	err := r.db.Order("created_at DESC").Limit(limit).Find(&obs).Error
	if err != nil {
		return nil, err
	}
	return obs, nil
}

// Count returns the total number of recorded observations
func (r *ObservationRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&Observation{}).Count(&count).Error
	return count, err
}
