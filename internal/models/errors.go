package models

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors, grouped by the taxonomy the handlers map to HTTP statuses:
// not-found, state-conflict, authorization and upstream failure. Input
// validation errors are produced ad hoc at the boundary.
var (
	// Not found
	ErrBusNotFound     = errors.New("bus not found")
	ErrTripNotFound    = errors.New("trip not found")
	ErrStopNotFound    = errors.New("stop not found")
	ErrSeatNotFound    = errors.New("seat not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrPaymentNotFound = errors.New("payment not found")
	ErrGroupNotFound   = errors.New("booking not found")

	// Input validation
	ErrSameStop         = errors.New("boarding and alighting stop must differ")
	ErrPassengerMissing = errors.New("every seat needs a passenger name")

	// State conflict
	ErrReturnNotOffered   = errors.New("route not offered in return direction")
	ErrTripNotBookable    = errors.New("trip is not open for booking")
	ErrTripDeparted       = errors.New("trip has already departed")
	ErrBookingClosed      = errors.New("booking window has closed for this trip")
	ErrSeatInactive       = errors.New("seat is not active")
	ErrBookingCancelled   = errors.New("booking is already cancelled")
	ErrPaymentNotVerified = errors.New("payment has not been verified")
	ErrPaymentFailed      = errors.New("payment verification failed")
	ErrPaymentRefunded    = errors.New("payment has been refunded")
	ErrFareUnavailable    = errors.New("no fare is configured for the requested segment")

	// Authorization
	ErrNotOwner = errors.New("resource belongs to another user")

	// Upstream
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// SeatConflictError names the specific seats that could not be booked.
// Racing transactions that surface a storage-layer unique violation are
// translated into this same error so callers see one consistent outcome.
type SeatConflictError struct {
	SeatNumbers []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats not available for the requested segment: %s",
		strings.Join(e.SeatNumbers, ", "))
}

// OfferRejection records why a coupon did not apply. In the booking flow it
// degrades to "no discount" with the reason recorded; in the standalone
// apply-coupon check it is returned as a hard error.
type OfferRejection struct {
	Code   string
	Reason string
}

func (e *OfferRejection) Error() string {
	return fmt.Sprintf("offer %s rejected: %s", e.Code, e.Reason)
}

// IsNotFound reports whether err is one of the not-found sentinels
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBusNotFound) ||
		errors.Is(err, ErrTripNotFound) ||
		errors.Is(err, ErrStopNotFound) ||
		errors.Is(err, ErrSeatNotFound) ||
		errors.Is(err, ErrOfferNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrGroupNotFound)
}

// IsStateConflict reports whether err is a deterministic state conflict
func IsStateConflict(err error) bool {
	var seatErr *SeatConflictError
	var offerErr *OfferRejection
	if errors.As(err, &seatErr) || errors.As(err, &offerErr) {
		return true
	}
	return errors.Is(err, ErrReturnNotOffered) ||
		errors.Is(err, ErrTripNotBookable) ||
		errors.Is(err, ErrTripDeparted) ||
		errors.Is(err, ErrBookingClosed) ||
		errors.Is(err, ErrSeatInactive) ||
		errors.Is(err, ErrBookingCancelled) ||
		errors.Is(err, ErrPaymentNotVerified) ||
		errors.Is(err, ErrPaymentFailed) ||
		errors.Is(err, ErrPaymentRefunded) ||
		errors.Is(err, ErrFareUnavailable)
}
