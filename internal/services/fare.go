package services

import (
	"math"

	"github.com/spytro26/gantabya-sub000/internal/models"
)

// RoundHalfUp2 rounds to two decimal places with halves rounding up, the
// convention used for all money amounts.
func RoundHalfUp2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// SeatFare prices one seat for a journey between two stops. Fares are stored
// as cumulative amounts from the route origin, so the segment fare is the
// absolute difference of the two cumulative values, which makes pricing
// direction-agnostic. The seat's level/type column is preferred; the generic
// from-origin column is used only when neither endpoint populates the
// dedicated column. The route origin's own cumulative is legitimately zero,
// so a zero at one endpoint alone does not mean the column is unpopulated.
// A non-positive result means the route's fare table is incomplete for this
// segment.
func SeatFare(from, to *models.Stop, seat *models.Seat) (float64, error) {
	cumFrom := from.CumulativePrice(seat.Level, seat.SeatType)
	cumTo := to.CumulativePrice(seat.Level, seat.SeatType)
	if cumFrom == 0 && cumTo == 0 {
		cumFrom = from.PriceFromOrigin
		cumTo = to.PriceFromOrigin
	}

	fare := math.Abs(cumTo - cumFrom)
	if fare <= 0 {
		return 0, models.ErrFareUnavailable
	}
	return RoundHalfUp2(fare), nil
}

// TotalFare prices every seat and sums the rounded per-seat fares.
func TotalFare(from, to *models.Stop, seats []models.Seat) (map[string]float64, float64, error) {
	fares := make(map[string]float64, len(seats))
	var total float64
	for i := range seats {
		fare, err := SeatFare(from, to, &seats[i])
		if err != nil {
			return nil, 0, err
		}
		fares[seats[i].ID.String()] = fare
		total += fare
	}
	return fares, RoundHalfUp2(total), nil
}
