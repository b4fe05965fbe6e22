package models

import (
	"time"

	"github.com/google/uuid"
)

// SeatOccupancy is the per-seat availability flag for a requested segment and
// direction
type SeatOccupancy struct {
	SeatID     uuid.UUID `json:"seat_id"`
	SeatNumber string    `json:"seat_number"`
	Level      SeatLevel `json:"level"`
	SeatType   SeatType  `json:"seat_type"`
	Fare       float64   `json:"fare"`
	Available  bool      `json:"available"`
}

// TripAvailability is the seat-availability result for one trip and segment
type TripAvailability struct {
	TripID         uuid.UUID       `json:"trip_id"`
	BusID          uuid.UUID       `json:"bus_id"`
	BusName        string          `json:"bus_name"`
	ServiceDate    time.Time       `json:"service_date"`
	Direction      Direction       `json:"direction"`
	FromStop       string          `json:"from_stop"`
	ToStop         string          `json:"to_stop"`
	Departure      *string         `json:"departure,omitempty"`
	TotalSeats     int             `json:"total_seats"`
	AvailableSeats int             `json:"available_seats"`
	Seats          []SeatOccupancy `json:"seats,omitempty"`
}
