package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// TripRepository handles trip database operations
type TripRepository struct {
	db *sqlx.DB
}

// NewTripRepository creates a new TripRepository
func NewTripRepository(db *sqlx.DB) *TripRepository {
	return &TripRepository{db: db}
}

// GetByID retrieves a trip by ID
func (r *TripRepository) GetByID(tripID uuid.UUID) (*models.Trip, error) {
	trip := &models.Trip{}
	query := `
		SELECT id, bus_id, service_date, status, created_at, updated_at
		FROM trips WHERE id = $1`

	if err := r.db.Get(trip, query, tripID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrTripNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// EnsureTrip lazily creates the trip for (bus, date) on first search and
// returns it. The insert is an idempotent upsert: two concurrent searches for
// a new date both land on the single row guarded by the (bus_id, service_date)
// unique constraint.
func (r *TripRepository) EnsureTrip(busID uuid.UUID, serviceDate time.Time) (*models.Trip, error) {
	day := serviceDate.Format("2006-01-02")

	_, err := r.db.Exec(`
		INSERT INTO trips (bus_id, service_date, status)
		VALUES ($1, $2, 'scheduled')
		ON CONFLICT (bus_id, service_date) DO NOTHING`,
		busID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert trip: %w", err)
	}

	trip := &models.Trip{}
	err = r.db.Get(trip, `
		SELECT id, bus_id, service_date, status, created_at, updated_at
		FROM trips WHERE bus_id = $1 AND service_date = $2`,
		busID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load trip: %w", err)
	}
	return trip, nil
}
