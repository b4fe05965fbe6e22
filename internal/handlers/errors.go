package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spytro26/gantabya-sub000/internal/models"
)

// respondError maps a domain error onto the HTTP surface: not-found to 404,
// deterministic state conflicts to 409, ownership failures to 403, gateway
// outages to 502 and everything else to 500. Seat conflicts carry the seat
// numbers so clients can refresh just those seats.
func respondError(c *gin.Context, err error) {
	var seatErr *models.SeatConflictError
	if errors.As(err, &seatErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "seats_unavailable",
			"message": seatErr.Error(),
			"seats":   seatErr.SeatNumbers,
		})
		return
	}

	var offerErr *models.OfferRejection
	if errors.As(err, &offerErr) {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "offer_rejected",
			"message": offerErr.Reason,
			"code":    offerErr.Code,
		})
		return
	}

	switch {
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrSameStop), errors.Is(err, models.ErrPassengerMissing):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
	case models.IsStateConflict(err):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "gateway_unavailable",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Something went wrong",
		})
	}
}
