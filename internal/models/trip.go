package models

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus represents the lifecycle state of a scheduled trip
// Matches PostgreSQL ENUM: trip_status
type TripStatus string

const (
	TripStatusScheduled TripStatus = "scheduled"
	TripStatusOngoing   TripStatus = "ongoing"
	TripStatusCompleted TripStatus = "completed"
	TripStatusCancelled TripStatus = "cancelled"
)

// Trip is one bus running its route on one calendar date. The (bus_id,
// service_date) pair is unique; trips are lazily upserted on first search for
// a date, never duplicated.
type Trip struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	BusID       uuid.UUID  `json:"bus_id" db:"bus_id"`
	ServiceDate time.Time  `json:"service_date" db:"service_date"`
	Status      TripStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsBookable reports whether new bookings may still target this trip.
// Date and departure-cutoff checks happen separately inside the booking
// transaction.
func (t *Trip) IsBookable() bool {
	return t.Status == TripStatusScheduled
}
