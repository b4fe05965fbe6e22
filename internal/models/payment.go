package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the state of one payment attempt
// Matches PostgreSQL ENUM: payment_status
type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusSuccess   PaymentStatus = "success"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// SeatRequest selects one seat with its passenger in a booking request
type SeatRequest struct {
	SeatID    string  `json:"seat_id" binding:"required"`
	Passenger *string `json:"passenger_name" binding:"required"`
	Age       *int    `json:"passenger_age,omitempty"`
	Gender    *string `json:"passenger_gender,omitempty"`
}

// CreateBookingRequest is the strongly typed booking request validated once
// at the boundary. The same shape is stored verbatim inside the payment
// metadata snapshot and replayed at confirmation.
type CreateBookingRequest struct {
	TripID          string        `json:"trip_id" binding:"required"`
	FromStopID      string        `json:"from_stop_id" binding:"required"`
	ToStopID        string        `json:"to_stop_id" binding:"required"`
	BoardingPointID string        `json:"boarding_point_id" binding:"required"`
	DroppingPointID string        `json:"dropping_point_id" binding:"required"`
	Seats           []SeatRequest `json:"seats" binding:"required,min=1,dive"`
	OfferCode       *string       `json:"offer_code,omitempty"`
}

// Validate checks request shape beyond what binding tags cover
func (r *CreateBookingRequest) Validate() error {
	if r.FromStopID == r.ToStopID {
		return ErrSameStop
	}
	if len(r.Seats) == 0 {
		return errors.New("at least one seat must be selected")
	}
	if len(r.Seats) > 10 {
		return errors.New("maximum 10 seats can be booked at once")
	}
	seen := make(map[string]bool, len(r.Seats))
	for _, s := range r.Seats {
		if s.Passenger == nil || *s.Passenger == "" {
			return ErrPassengerMissing
		}
		if seen[s.SeatID] {
			return errors.New("duplicate seat in request")
		}
		seen[s.SeatID] = true
	}
	return nil
}

// PricingBreakdown is the server-side pricing computed at quote time
type PricingBreakdown struct {
	SeatFares      map[string]float64 `json:"seat_fares"` // seat_id -> fare
	TotalPrice     float64            `json:"total_price"`
	DiscountAmount float64            `json:"discount_amount"`
	FinalPrice     float64            `json:"final_price"`
	Currency       string             `json:"currency"`
	OfferID        *uuid.UUID         `json:"offer_id,omitempty"`
	OfferCode      *string            `json:"offer_code,omitempty"`
	OfferReason    *string            `json:"offer_reason,omitempty"` // set when the coupon degraded to no discount
	CalculatedAt   time.Time          `json:"calculated_at"`
}

// BookingSnapshot is the immutable priced booking request persisted on the
// payment row at initiation. Confirmation consumes only this snapshot, so
// pricing cannot drift between initiation and confirmation.
type BookingSnapshot struct {
	Request CreateBookingRequest `json:"request"`
	Pricing PricingBreakdown     `json:"pricing"`
}

func (s BookingSnapshot) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *BookingSnapshot) Scan(value interface{}) error {
	if value == nil {
		*s = BookingSnapshot{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed for BookingSnapshot")
	}
	return json.Unmarshal(bytes, s)
}

// Payment is one attempt to pay for one eventual booking group.
// BookingGroupID is set exactly once, on first successful confirmation, and
// acts as the idempotency key for replayed confirmations.
type Payment struct {
	ID     uuid.UUID     `json:"id" db:"id"`
	UserID uuid.UUID     `json:"user_id" db:"user_id"`
	Status PaymentStatus `json:"status" db:"status"`

	Amount   float64 `json:"amount" db:"amount"`
	Currency string  `json:"currency" db:"currency"`

	// Conversion captured at initiation so settlement amounts stay
	// reproducible even if the rate later changes
	ExchangeRate    float64 `json:"exchange_rate" db:"exchange_rate"`
	ChargedAmount   float64 `json:"charged_amount" db:"charged_amount"`
	ChargedCurrency string  `json:"charged_currency" db:"charged_currency"`

	Gateway        string          `json:"gateway" db:"gateway"`
	GatewayOrderID string          `json:"gateway_order_id" db:"gateway_order_id"`
	Metadata       BookingSnapshot `json:"metadata" db:"metadata"`

	BookingGroupID *uuid.UUID `json:"booking_group_id,omitempty" db:"booking_group_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Confirmed reports whether this payment has already materialized a booking
func (p *Payment) Confirmed() bool {
	return p.BookingGroupID != nil
}

// InitiatePaymentResponse is returned after a gateway order is created
type InitiatePaymentResponse struct {
	PaymentID       uuid.UUID        `json:"payment_id"`
	GatewayOrderID  string           `json:"gateway_order_id"`
	Gateway         string           `json:"gateway"`
	Amount          float64          `json:"amount"`
	Currency        string           `json:"currency"`
	ChargedAmount   float64          `json:"charged_amount"`
	ChargedCurrency string           `json:"charged_currency"`
	Pricing         PricingBreakdown `json:"pricing"`
}

// VerifyPaymentRequest carries gateway callback data
type VerifyPaymentRequest struct {
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature,omitempty"`
}

// BookingResult is the confirmation result produced for the caller
type BookingResult struct {
	GroupID        uuid.UUID          `json:"group_id"`
	Status         BookingGroupStatus `json:"status"`
	TripID         uuid.UUID          `json:"trip_id"`
	Direction      Direction          `json:"direction"`
	FromStop       string             `json:"from_stop"`
	ToStop         string             `json:"to_stop"`
	BoardingPoint  string             `json:"boarding_point"`
	DroppingPoint  string             `json:"dropping_point"`
	SeatNumbers    []string           `json:"seat_numbers"`
	TotalPrice     float64            `json:"total_price"`
	DiscountAmount float64            `json:"discount_amount"`
	FinalPrice     float64            `json:"final_price"`
}
