package models

import (
	"time"

	"github.com/google/uuid"
)

// SeatLevel represents the deck a seat sits on
// Matches PostgreSQL ENUM: seat_level
type SeatLevel string

const (
	SeatLevelUpper SeatLevel = "upper"
	SeatLevelLower SeatLevel = "lower"
)

// SeatType represents the seat configuration
// Matches PostgreSQL ENUM: seat_type
type SeatType string

const (
	SeatTypeSeater  SeatType = "seater"
	SeatTypeSleeper SeatType = "sleeper"
)

// StopPointKind distinguishes boarding points from dropping points
type StopPointKind string

const (
	StopPointBoarding StopPointKind = "boarding"
	StopPointDropping StopPointKind = "dropping"
)

// Bus represents a physical bus operated by a bus operator
type Bus struct {
	ID         uuid.UUID `json:"id" db:"id"`
	OperatorID uuid.UUID `json:"operator_id" db:"operator_id"`
	Name       string    `json:"name" db:"name"`
	Number     string    `json:"number" db:"number"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Stop represents one stop on a bus's fixed route.
// Position is the ordinal along the physical route, monotonically increasing
// from the origin. The four price columns are cumulative fares from the route
// origin to this stop, one per seat level/type combination; PriceFromOrigin is
// the generic fallback column.
type Stop struct {
	ID       uuid.UUID `json:"id" db:"id"`
	BusID    uuid.UUID `json:"bus_id" db:"bus_id"`
	Name     string    `json:"name" db:"name"`
	Position int       `json:"position" db:"position"`

	// Time-of-day strings in "15:04" format, nullable. A stop with a return
	// departure declared means the bus offers a return leg through it.
	ForwardDeparture *string `json:"forward_departure,omitempty" db:"forward_departure"`
	ForwardArrival   *string `json:"forward_arrival,omitempty" db:"forward_arrival"`
	ReturnDeparture  *string `json:"return_departure,omitempty" db:"return_departure"`
	ReturnArrival    *string `json:"return_arrival,omitempty" db:"return_arrival"`

	// Cumulative fares from route origin
	PriceUpperSeater  float64 `json:"price_upper_seater" db:"price_upper_seater"`
	PriceUpperSleeper float64 `json:"price_upper_sleeper" db:"price_upper_sleeper"`
	PriceLowerSeater  float64 `json:"price_lower_seater" db:"price_lower_seater"`
	PriceLowerSleeper float64 `json:"price_lower_sleeper" db:"price_lower_sleeper"`
	PriceFromOrigin   float64 `json:"price_from_origin" db:"price_from_origin"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CumulativePrice returns the cumulative fare at this stop for the given seat
// level/type column. A zero value means the combination has no dedicated
// price and the caller falls back to PriceFromOrigin.
func (s *Stop) CumulativePrice(level SeatLevel, seatType SeatType) float64 {
	switch {
	case level == SeatLevelUpper && seatType == SeatTypeSeater:
		return s.PriceUpperSeater
	case level == SeatLevelUpper && seatType == SeatTypeSleeper:
		return s.PriceUpperSleeper
	case level == SeatLevelLower && seatType == SeatTypeSeater:
		return s.PriceLowerSeater
	case level == SeatLevelLower && seatType == SeatTypeSleeper:
		return s.PriceLowerSleeper
	}
	return 0
}

// DepartureFor returns the time-of-day departure string for the given
// direction, or nil when the stop has none declared.
func (s *Stop) DepartureFor(direction Direction) *string {
	if direction == DirectionReturn {
		return s.ReturnDeparture
	}
	return s.ForwardDeparture
}

// StopPoint is a named boarding or dropping location under a stop
type StopPoint struct {
	ID     uuid.UUID     `json:"id" db:"id"`
	StopID uuid.UUID     `json:"stop_id" db:"stop_id"`
	Name   string        `json:"name" db:"name"`
	Kind   StopPointKind `json:"kind" db:"kind"`
}

// Seat represents a physical seat on a bus. Identity is stable across trip
// dates; the seat is the unit of reservation.
type Seat struct {
	ID         uuid.UUID `json:"id" db:"id"`
	BusID      uuid.UUID `json:"bus_id" db:"bus_id"`
	SeatNumber string    `json:"seat_number" db:"seat_number"`
	Level      SeatLevel `json:"level" db:"level"`
	SeatType   SeatType  `json:"seat_type" db:"seat_type"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
