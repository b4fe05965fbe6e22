package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spytro26/gantabya-sub000/internal/services"
)

// SearchHandler handles trip search and seat availability HTTP requests
type SearchHandler struct {
	searchService *services.SearchService
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

// SearchTrip returns seat availability for a bus on a date and segment
// GET /api/v1/trips/search?bus_id=&date=&from_stop_id=&to_stop_id=
func (h *SearchHandler) SearchTrip(c *gin.Context) {
	busID, err := uuid.Parse(c.Query("bus_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "bus_id must be a valid UUID",
		})
		return
	}
	serviceDate, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "date must be in YYYY-MM-DD format",
		})
		return
	}
	fromStopID, err := uuid.Parse(c.Query("from_stop_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "from_stop_id must be a valid UUID",
		})
		return
	}
	toStopID, err := uuid.Parse(c.Query("to_stop_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "to_stop_id must be a valid UUID",
		})
		return
	}

	availability, err := h.searchService.SearchTrip(busID, serviceDate, fromStopID, toStopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": availability})
}

// TripSeats returns seat availability for an existing trip and segment
// GET /api/v1/trips/:id/seats?from_stop_id=&to_stop_id=
func (h *SearchHandler) TripSeats(c *gin.Context) {
	tripID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "trip id must be a valid UUID",
		})
		return
	}
	fromStopID, err := uuid.Parse(c.Query("from_stop_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "from_stop_id must be a valid UUID",
		})
		return
	}
	toStopID, err := uuid.Parse(c.Query("to_stop_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "to_stop_id must be a valid UUID",
		})
		return
	}

	availability, err := h.searchService.TripSeats(tripID, fromStopID, toStopID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trip": availability})
}
