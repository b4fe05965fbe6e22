package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// CatalogRepository reads bus, stop, stop-point and seat records. The catalog
// is maintained by the administrative surface; this core only reads it.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetBusByID retrieves a bus by ID
func (r *CatalogRepository) GetBusByID(busID uuid.UUID) (*models.Bus, error) {
	bus := &models.Bus{}
	query := `
		SELECT id, operator_id, name, number, active, created_at, updated_at
		FROM buses WHERE id = $1`

	if err := r.db.Get(bus, query, busID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrBusNotFound
		}
		return nil, fmt.Errorf("failed to get bus: %w", err)
	}
	return bus, nil
}

// GetStopsByBusID retrieves a bus's stops ordered by route position
func (r *CatalogRepository) GetStopsByBusID(busID uuid.UUID) ([]models.Stop, error) {
	query := `
		SELECT id, bus_id, name, position,
		       forward_departure, forward_arrival, return_departure, return_arrival,
		       price_upper_seater, price_upper_sleeper,
		       price_lower_seater, price_lower_sleeper, price_from_origin,
		       created_at, updated_at
		FROM stops
		WHERE bus_id = $1
		ORDER BY position`

	var stops []models.Stop
	if err := r.db.Select(&stops, query, busID); err != nil {
		return nil, fmt.Errorf("failed to get stops: %w", err)
	}
	return stops, nil
}

// GetStopPoint retrieves a boarding/dropping point by ID
func (r *CatalogRepository) GetStopPoint(pointID uuid.UUID) (*models.StopPoint, error) {
	point := &models.StopPoint{}
	query := `SELECT id, stop_id, name, kind FROM stop_points WHERE id = $1`

	if err := r.db.Get(point, query, pointID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStopNotFound
		}
		return nil, fmt.Errorf("failed to get stop point: %w", err)
	}
	return point, nil
}

// GetActiveSeatsByBusID retrieves all active seats on a bus
func (r *CatalogRepository) GetActiveSeatsByBusID(busID uuid.UUID) ([]models.Seat, error) {
	query := `
		SELECT id, bus_id, seat_number, level, seat_type, active, created_at, updated_at
		FROM seats
		WHERE bus_id = $1 AND active = true
		ORDER BY seat_number`

	var seats []models.Seat
	if err := r.db.Select(&seats, query, busID); err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}
	return seats, nil
}

// GetSeatsByIDs retrieves seats by their IDs
func (r *CatalogRepository) GetSeatsByIDs(seatIDs []uuid.UUID) ([]models.Seat, error) {
	if len(seatIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(seatIDs))
	for i, id := range seatIDs {
		ids[i] = id.String()
	}

	query, args, err := sqlx.In(`
		SELECT id, bus_id, seat_number, level, seat_type, active, created_at, updated_at
		FROM seats WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build seat query: %w", err)
	}

	var seats []models.Seat
	if err := r.db.Select(&seats, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}
	if len(seats) != len(seatIDs) {
		return nil, models.ErrSeatNotFound
	}
	return seats, nil
}
