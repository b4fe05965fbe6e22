package models

import (
	"time"

	"github.com/google/uuid"
)

// Direction of travel along a bus's fixed route. It is derived from stop
// ordinals at request time; there is no stored trip-direction entity.
// Matches PostgreSQL ENUM: travel_direction
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReturn  Direction = "return"
)

// TravelDirection derives the direction from two stop ordinals. Forward when
// the boarding position precedes the alighting position, return otherwise.
// Every component that needs a direction goes through this one function.
func TravelDirection(fromPos, toPos int) Direction {
	if fromPos < toPos {
		return DirectionForward
	}
	return DirectionReturn
}

// Segment is the half-open [Min, Max) interval of stop positions a booking
// occupies, independent of travel direction.
type Segment struct {
	Min int
	Max int
}

// NewSegment builds the occupied segment for a journey between two positions.
func NewSegment(fromPos, toPos int) Segment {
	if fromPos < toPos {
		return Segment{Min: fromPos, Max: toPos}
	}
	return Segment{Min: toPos, Max: fromPos}
}

// Overlaps applies the standard half-open interval overlap test. Touching
// endpoints (one journey ending exactly where another begins) do not overlap.
func (s Segment) Overlaps(other Segment) bool {
	return s.Min < other.Max && s.Max > other.Min
}

// BookingStatus represents the state of a single seat reservation
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingGroupStatus represents the state of a purchase transaction
type BookingGroupStatus string

const (
	GroupStatusPending   BookingGroupStatus = "pending"
	GroupStatusConfirmed BookingGroupStatus = "confirmed"
	GroupStatusCancelled BookingGroupStatus = "cancelled"
	GroupStatusRefunded  BookingGroupStatus = "refunded"
)

// Booking reserves one seat on one trip for a segment of the route, in one
// direction. Only confirmed bookings participate in conflict checks.
type Booking struct {
	ID             uuid.UUID     `json:"id" db:"id"`
	BookingGroupID uuid.UUID     `json:"booking_group_id" db:"booking_group_id"`
	TripID         uuid.UUID     `json:"trip_id" db:"trip_id"`
	SeatID         uuid.UUID     `json:"seat_id" db:"seat_id"`
	SeatNumber     string        `json:"seat_number" db:"seat_number"`
	Direction      Direction     `json:"direction" db:"direction"`
	FromPosition   int           `json:"from_position" db:"from_position"`
	ToPosition     int           `json:"to_position" db:"to_position"`
	Status         BookingStatus `json:"status" db:"status"`
	CancelledAt    *time.Time    `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt      time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" db:"updated_at"`
}

// Segment returns the half-open position interval this booking occupies.
func (b *Booking) Segment() Segment {
	return NewSegment(b.FromPosition, b.ToPosition)
}

// ConflictsWith reports whether an existing confirmed booking blocks a new
// request for the given direction and segment on the same seat. Bookings in
// the opposite direction never conflict: each physical seat runs an
// independent occupancy timeline per direction.
func (b *Booking) ConflictsWith(direction Direction, seg Segment) bool {
	if b.Status != BookingStatusConfirmed {
		return false
	}
	if b.Direction != direction {
		return false
	}
	return b.Segment().Overlaps(seg)
}

// ConflictingSeats returns, ordered by request order, the seat numbers among
// the requested seats that have at least one conflicting confirmed booking.
// Both the advisory quote-time check and the authoritative in-transaction
// check use this same function over their respective booking snapshots.
func ConflictingSeats(seats []Seat, existing []Booking, direction Direction, seg Segment) []string {
	blocked := make(map[uuid.UUID]bool)
	for i := range existing {
		if existing[i].ConflictsWith(direction, seg) {
			blocked[existing[i].SeatID] = true
		}
	}

	var conflicting []string
	for _, seat := range seats {
		if blocked[seat.ID] {
			conflicting = append(conflicting, seat.SeatNumber)
		}
	}
	return conflicting
}

// BookingGroup is one purchase transaction: one user, one trip, one
// (fromStop, toStop) pair, a set of bookings and an optional applied offer.
// Created atomically with its bookings and passenger rows; destroyed only
// logically via status transition.
type BookingGroup struct {
	ID              uuid.UUID          `json:"id" db:"id"`
	UserID          uuid.UUID          `json:"user_id" db:"user_id"`
	TripID          uuid.UUID          `json:"trip_id" db:"trip_id"`
	FromStopID      uuid.UUID          `json:"from_stop_id" db:"from_stop_id"`
	ToStopID        uuid.UUID          `json:"to_stop_id" db:"to_stop_id"`
	Direction       Direction          `json:"direction" db:"direction"`
	BoardingPointID uuid.UUID          `json:"boarding_point_id" db:"boarding_point_id"`
	DroppingPointID uuid.UUID          `json:"dropping_point_id" db:"dropping_point_id"`
	TotalPrice      float64            `json:"total_price" db:"total_price"`
	DiscountAmount  float64            `json:"discount_amount" db:"discount_amount"`
	FinalPrice      float64            `json:"final_price" db:"final_price"`
	OfferID         *uuid.UUID         `json:"offer_id,omitempty" db:"offer_id"`
	Status          BookingGroupStatus `json:"status" db:"status"`
	CancelledAt     *time.Time         `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt       time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" db:"updated_at"`

	Bookings []Booking `json:"bookings,omitempty" db:"-"`
}

// Passenger is the traveller occupying one booked seat
type Passenger struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BookingID uuid.UUID `json:"booking_id" db:"booking_id"`
	Name      string    `json:"name" db:"name"`
	Age       *int      `json:"age,omitempty" db:"age"`
	Gender    *string   `json:"gender,omitempty" db:"gender"`
}
