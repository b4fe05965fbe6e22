package models

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType is how an offer's magnitude is interpreted
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// CreatorRole identifies who issued an offer. Platform offers apply to every
// bus; operator offers are scoped to the operator's own buses.
type CreatorRole string

const (
	CreatorRolePlatform CreatorRole = "platform"
	CreatorRoleOperator CreatorRole = "operator"
)

// Offer is a discount coupon. ApplicableBuses empty means "all buses owned by
// the creator" for operator offers, or global for platform offers. UsageCount
// increments exactly once per successfully confirmed booking group.
type Offer struct {
	ID               uuid.UUID    `json:"id" db:"id"`
	Code             string       `json:"code" db:"code"`
	DiscountType     DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue    float64      `json:"discount_value" db:"discount_value"`
	MaxDiscount      *float64     `json:"max_discount,omitempty" db:"max_discount"`
	MinBookingAmount *float64     `json:"min_booking_amount,omitempty" db:"min_booking_amount"`
	UsageLimit       *int         `json:"usage_limit,omitempty" db:"usage_limit"`
	UsageCount       int          `json:"usage_count" db:"usage_count"`
	ValidFrom        time.Time    `json:"valid_from" db:"valid_from"`
	ValidUntil       time.Time    `json:"valid_until" db:"valid_until"`
	ApplicableBuses  UUIDArray    `json:"applicable_buses" db:"applicable_buses"`
	CreatedBy        uuid.UUID    `json:"created_by" db:"created_by"`
	CreatorRole      CreatorRole  `json:"creator_role" db:"creator_role"`
	Active           bool         `json:"active" db:"active"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at" db:"updated_at"`
}

// Exhausted reports whether the offer's usage limit has been reached
func (o *Offer) Exhausted() bool {
	return o.UsageLimit != nil && o.UsageCount >= *o.UsageLimit
}

// WithinWindow reports whether now falls inside the validity window
func (o *Offer) WithinWindow(now time.Time) bool {
	return !now.Before(o.ValidFrom) && !now.After(o.ValidUntil)
}

// AppliesToBus reports whether the offer may discount a booking on the given
// bus. Platform offers apply everywhere; operator offers require the bus to
// belong to the issuing operator and, when ApplicableBuses is non-empty, to
// be listed in it.
func (o *Offer) AppliesToBus(bus *Bus) bool {
	if o.CreatorRole == CreatorRolePlatform {
		return true
	}
	if bus.OperatorID != o.CreatedBy {
		return false
	}
	if len(o.ApplicableBuses) == 0 {
		return true
	}
	for _, id := range o.ApplicableBuses {
		if id == bus.ID.String() {
			return true
		}
	}
	return false
}

// DiscountBreakdown is the result of evaluating an offer against a
// pre-discount total
type DiscountBreakdown struct {
	OfferID        uuid.UUID `json:"offer_id"`
	Code           string    `json:"code"`
	DiscountAmount float64   `json:"discount_amount"`
	FinalPrice     float64   `json:"final_price"`
}

// ApplyOfferRequest is the standalone apply-coupon check
type ApplyOfferRequest struct {
	Code   string  `json:"code" binding:"required"`
	TripID string  `json:"trip_id" binding:"required"`
	Total  float64 `json:"total" binding:"required,gt=0"`
}
